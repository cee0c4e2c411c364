package models

type UploadedFile struct {
	URL      string `json:"url"`
	Path     string `json:"path"`
	Size     int    `json:"size"`
	MimeType string `json:"mimeType,omitempty"`
}

type UploadOut struct {
	UploadedFile
	OriginalName string `json:"originalName"`
	Quality      string `json:"quality"`
}

type BatchUploadItemOut struct {
	Success      bool   `json:"success"`
	OriginalName string `json:"originalName"`
	URL          string `json:"url,omitempty"`
	Path         string `json:"path,omitempty"`
	Size         int    `json:"size,omitempty"`
	MimeType     string `json:"mimeType,omitempty"`
	Error        string `json:"error,omitempty"`
}

type BatchUploadSummary struct {
	Total   int `json:"total"`
	Success int `json:"success"`
	Failed  int `json:"failed"`
}

type RemoveBackgroundOut struct {
	OriginalSize     int          `json:"originalSize"`
	ProcessedSize    int          `json:"processedSize"`
	CompressionRatio string       `json:"compressionRatio"`
	Quality          string       `json:"quality"`
	Processed        bool         `json:"processed"`
	Images           UploadImages `json:"images"`
}

type UploadImages struct {
	Processed UploadedFile `json:"processed"`
	Original  UploadedFile `json:"original"`
}

type PresignUploadIn struct {
	FileName string `json:"fileName" validate:"required,max=200"`
}

type PresignUploadOut struct {
	Key       string `json:"key"`
	UploadURL string `json:"uploadUrl"`
	PublicURL string `json:"publicUrl"`
}
