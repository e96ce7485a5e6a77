package imageproc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
	"time"
)

const defaultMattingEndpoint = "http://127.0.0.1:7000/api/remove"

// Remover produces a copy of an input image with the background replaced
// by transparency.
type Remover interface {
	Remove(ctx context.Context, input []byte) ([]byte, error)
}

// Client talks to an external matting service over HTTP. The service
// accepts a multipart-encoded image and responds with PNG bytes.
type Client struct {
	httpClient *http.Client
	endpoint   string
}

func NewClient(endpoint string) *Client {
	trimmed := strings.TrimSpace(endpoint)
	if trimmed == "" {
		trimmed = defaultMattingEndpoint
	}
	return &Client{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		endpoint:   trimmed,
	}
}

// NewClientFromEnv initialises a Client from the MATTING_ENDPOINT
// environment variable.
func NewClientFromEnv() *Client {
	return NewClient(os.Getenv("MATTING_ENDPOINT"))
}

func (c *Client) Remove(ctx context.Context, input []byte) ([]byte, error) {
	if c == nil || c.httpClient == nil {
		return nil, errors.New("imageproc: matting client not configured")
	}
	if len(input) == 0 {
		return nil, errors.New("imageproc: empty input image")
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "input")
	if err != nil {
		return nil, fmt.Errorf("imageproc: build matting request: %w", err)
	}
	if _, err := part.Write(input); err != nil {
		return nil, fmt.Errorf("imageproc: build matting request: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("imageproc: build matting request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, &body)
	if err != nil {
		return nil, fmt.Errorf("imageproc: build matting request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("imageproc: call matting service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("imageproc: matting service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	output, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("imageproc: read matting response: %w", err)
	}
	if len(output) == 0 {
		return nil, errors.New("imageproc: matting service returned an empty body")
	}
	return output, nil
}

// RemoveBackground reads the source file, runs it through the remover and
// writes the result to the target path. Failures are logged and returned
// so callers can clean up partial files.
func RemoveBackground(ctx context.Context, remover Remover, srcPath, dstPath string) error {
	input, err := os.ReadFile(srcPath)
	if err != nil {
		log.Printf("imageproc: read source image: %v", err)
		return fmt.Errorf("imageproc: read source image: %w", err)
	}

	output, err := remover.Remove(ctx, input)
	if err != nil {
		log.Printf("imageproc: background removal failed: %v", err)
		return err
	}

	if err := os.WriteFile(dstPath, output, 0o644); err != nil {
		log.Printf("imageproc: write processed image: %v", err)
		return fmt.Errorf("imageproc: write processed image: %w", err)
	}
	return nil
}
