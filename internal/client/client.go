package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	apierrors "voicescribe/internal/api/errors"
	"voicescribe/internal/api/v1/dto"
	"voicescribe/internal/app/quota"
)

// Client talks to the voicescribe HTTP API
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New creates a client for the API rooted at baseURL, e.g. http://localhost:8081
func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/") + "/api/v1",
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StatusError is a non-2xx answer. API is set when the body was an APIError.
type StatusError struct {
	StatusCode int
	API        *apierrors.APIError
}

func (e *StatusError) Error() string {
	if e.API != nil {
		return fmt.Sprintf("%d %s: %s", e.StatusCode, e.API.Kind, e.API.Message)
	}
	return fmt.Sprintf("unexpected status %d", e.StatusCode)
}

// Temporary reports whether repeating the request may succeed
func (e *StatusError) Temporary() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// GetTranscription fetches one job
func (c *Client) GetTranscription(ctx context.Context, id int64) (*dto.TranscriptionResponse, error) {
	var out dto.TranscriptionResponse
	if err := c.do(ctx, http.MethodGet, "/transcriptions/"+strconv.FormatInt(id, 10), nil, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Start submits a pending job
func (c *Client) Start(ctx context.Context, id int64) (*dto.TranscriptionResponse, error) {
	var out dto.TranscriptionResponse
	if err := c.do(ctx, http.MethodPost, "/transcriptions/"+strconv.FormatInt(id, 10)+"/start", nil, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Usage fetches the caller's usage snapshot
func (c *Client) Usage(ctx context.Context) (*quota.Snapshot, error) {
	var out quota.Snapshot
	if err := c.do(ctx, http.MethodGet, "/user/usage", nil, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Upload sends a local audio file
func (c *Client) Upload(ctx context.Context, path string, autoStart bool) (*dto.UploadResponse, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := w.WriteField("auto_start", strconv.FormatBool(autoStart)); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	var out dto.UploadResponse
	if err := c.do(ctx, http.MethodPost, "/transcriptions", body, w.FormDataContentType(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		statusErr := &StatusError{StatusCode: resp.StatusCode}
		var apiErr apierrors.APIError
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Kind != "" {
			statusErr.API = &apiErr
		}
		return statusErr
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
