package analysis

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"genai-yolo-go/internal/config"
	"genai-yolo-go/internal/models"
)

// maxResponseBytes caps how much of an inference response is read
const maxResponseBytes = 10 << 20

// HTTPBackend posts stills as multipart "file" uploads to an external inference service
type HTTPBackend struct {
	inferenceURL string
	client       *http.Client
}

func NewHTTPBackend(cfg *config.Config) *HTTPBackend {
	return &HTTPBackend{
		inferenceURL: cfg.InferenceURL,
		client:       &http.Client{},
	}
}

func (b *HTTPBackend) Name() string {
	return "http"
}

// Infer uploads the still and returns the response body. The request honors ctx for timeouts.
func (b *HTTPBackend) Infer(ctx context.Context, still models.Still) ([]byte, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", stillFilename(still.MIME))
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, bytes.NewReader(still.Data)); err != nil {
		return nil, fmt.Errorf("copy image data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.inferenceURL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("inference failed with status: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return data, nil
}

// CheckHealth probes the inference service's /health endpoint
func (b *HTTPBackend) CheckHealth(ctx context.Context) error {
	url := strings.TrimSuffix(b.inferenceURL, "/") + "/health"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("inference service unhealthy: %d", resp.StatusCode)
	}
	return nil
}

func stillFilename(mime string) string {
	switch mime {
	case "image/png":
		return "frame.png"
	case "image/webp":
		return "frame.webp"
	default:
		return "frame.jpg"
	}
}
