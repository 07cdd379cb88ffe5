package images

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/spec-kit/civic-issue-service/internal/config"
)

// httpStore uploads to an imgbb-style hosting API.
type httpStore struct {
	uploadURL string
	apiKey    string
	client    *http.Client
}

// NewHTTPStore builds a Store from config.
func NewHTTPStore(cfg config.ImagesConfig) Store {
	return &httpStore{
		uploadURL: cfg.UploadURL,
		apiKey:    cfg.APIKey,
		client:    &http.Client{Timeout: 30 * time.Second},
	}
}

type uploadResponse struct {
	Data struct {
		DisplayURL string `json:"display_url"`
		URL        string `json:"url"`
	} `json:"data"`
	Success bool `json:"success"`
}

func (s *httpStore) Upload(ctx context.Context, fileName string, content io.Reader) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("image", fileName)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, content); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.uploadURL+"?key="+s.apiKey, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("image store returned status %d", resp.StatusCode)
	}

	var payload uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode image upload response: %w", err)
	}
	if !payload.Success {
		return "", fmt.Errorf("image store rejected upload")
	}
	if payload.Data.DisplayURL != "" {
		return payload.Data.DisplayURL, nil
	}
	return payload.Data.URL, nil
}
