package test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/hibiken/asynq"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// JWTSecret signs test tokens when WARDROBE_JWT_SECRET is unset.
const JWTSecret = "test-secret"

func JsonString(model interface{}) string {
	bytes, _ := json.Marshal(model)
	return string(bytes)
}

func NewJSONRequest(method string, target string, param interface{}) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(JsonString(param)))
	req.Header.Add(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Add(echo.HeaderAccept, echo.MIMEApplicationJSON)
	return req
}

func jwtSecret() string {
	if secret := os.Getenv("WARDROBE_JWT_SECRET"); secret != "" {
		return secret
	}
	return JWTSecret
}

func GenerateUserToken(userPk string) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userPk,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour * 72)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	})
	t, err := token.SignedString([]byte(jwtSecret()))
	if err != nil {
		log.Fatal().Err(err).Msgf("Error when signing user token for %s", userPk)
	}
	return t
}

func NewJSONAuthRequest(method string, target string, userPk string, param interface{}) *http.Request {
	req := NewJSONRequest(method, target, param)
	req.Header.Add(echo.HeaderAuthorization, fmt.Sprintf("Bearer %s", GenerateUserToken(userPk)))
	return req
}

// MultipartFile is one part of a multipart upload.
type MultipartFile struct {
	Field    string
	FileName string
	Content  []byte
}

func NewMultipartRequest(method, target string, files []MultipartFile, fields map[string]string) *http.Request {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for _, file := range files {
		part, err := writer.CreateFormFile(file.Field, file.FileName)
		if err != nil {
			panic(err)
		}
		part.Write(file.Content)
	}
	for key, value := range fields {
		writer.WriteField(key, value)
	}
	writer.Close()

	req := httptest.NewRequest(method, target, body)
	req.Header.Set(echo.HeaderContentType, writer.FormDataContentType())
	return req
}

// BlobMock records uploads in memory.
type BlobMock struct {
	mu      sync.Mutex
	Objects map[string][]byte
	Err     error
}

func NewBlobMock() *BlobMock {
	return &BlobMock{Objects: map[string][]byte{}}
}

func (b *BlobMock) Upload(ctx context.Context, bucket, key string, body []byte, contentType string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.Err != nil {
		return "", b.Err
	}
	b.Objects[bucket+"/"+key] = body
	return key, nil
}

func (b *BlobMock) PublicURL(bucket, key string) string {
	return fmt.Sprintf("https://blob.test/%s/%s", bucket, key)
}

func (b *BlobMock) PresignUpload(ctx context.Context, bucket, key string) (string, error) {
	if b.Err != nil {
		return "", b.Err
	}
	return fmt.Sprintf("https://blob.test/%s/%s?signature=fake", bucket, key), nil
}

func (b *BlobMock) Ping(ctx context.Context, bucket string) error {
	return b.Err
}

func (b *BlobMock) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.Objects)
}

// QueueMock captures enqueued tasks instead of sending them to the broker.
type QueueMock struct {
	mu    sync.Mutex
	Tasks []*asynq.Task
	Err   error
}

func (q *QueueMock) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.Err != nil {
		return nil, q.Err
	}
	q.Tasks = append(q.Tasks, task)
	return &asynq.TaskInfo{ID: fmt.Sprintf("task-%d", len(q.Tasks)), Type: task.Type(), Payload: task.Payload()}, nil
}

// FetcherMock serves image bytes by URL.
type FetcherMock struct {
	Images map[string][]byte
}

func (f *FetcherMock) Fetch(ctx context.Context, url string) ([]byte, error) {
	body, ok := f.Images[url]
	if !ok {
		return nil, fmt.Errorf("download %s: unexpected status 404", url)
	}
	return body, nil
}
