package services

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

type ImageFetcherProvider interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// ImageFetcher downloads source images for background processing.
type ImageFetcher struct {
	client   *resty.Client
	maxBytes int64
}

func NewImageFetcher(timeout time.Duration, maxBytes int64) *ImageFetcher {
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetHeader("Accept", "image/*")
	return &ImageFetcher{client: client, maxBytes: maxBytes}
}

func (f *ImageFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	resp, err := f.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", url, err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("download %s: unexpected status %d", url, resp.StatusCode())
	}
	body := resp.Body()
	if f.maxBytes > 0 && int64(len(body)) > f.maxBytes {
		return nil, fmt.Errorf("download %s: %d bytes exceeds limit", url, len(body))
	}
	return body, nil
}
