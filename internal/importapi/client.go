// SPDX-License-Identifier: Apache-2.0

package importapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Endpoint paths of the batch import backend.
const (
	PreviewPath = "/routes/preview"
	ImportPath  = "/routes/import"
)

// Multipart form field names of the import call.
const (
	FormFile     = "file"
	FormMapping  = "mapping"
	FormClientID = "clientId"
)

const maxErrorBody = 64 << 10

// FallbackFormField returns the form field carrying the fallback for key,
// e.g. "origin" -> "defaultOrigin".
func FallbackFormField(key string) string {
	if key == "" {
		return "default"
	}
	r := []rune(key)
	r[0] = unicode.ToUpper(r[0])
	return "default" + string(r)
}

// Client talks to the preview and import endpoints over HTTP. It
// implements Previewer and Importer.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Tokens     TokenSource
	logger     *zap.Logger
}

// NewClient creates a Client for baseURL. A zero timeout leaves the
// http.Client without one.
func NewClient(baseURL string, tokens TokenSource, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: timeout},
		Tokens:     tokens,
		logger:     logger,
	}
}

// Preview uploads file and returns its columns, row count and sample rows.
func (c *Client) Preview(ctx context.Context, file File) (*PreviewData, error) {
	body, contentType, err := encodeForm(file, nil)
	if err != nil {
		return nil, err
	}

	var out PreviewData
	if err := c.post(ctx, "preview", PreviewPath, body, contentType, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Import submits req as-is. Local precondition checks live in Executor.
func (c *Client) Import(ctx context.Context, req ImportRequest) (*ImportResult, error) {
	mappingJSON, err := json.Marshal(req.Mapping)
	if err != nil {
		return nil, fmt.Errorf("failed to encode mapping: %w", err)
	}

	fieldsOut := [][2]string{
		{FormMapping, string(mappingJSON)},
		{FormClientID, req.ClientID},
	}
	for _, key := range sortedKeys(req.Fallbacks) {
		fieldsOut = append(fieldsOut, [2]string{FallbackFormField(key), req.Fallbacks[key]})
	}

	body, contentType, err := encodeForm(req.File, fieldsOut)
	if err != nil {
		return nil, err
	}

	var out ImportResult
	if err := c.post(ctx, "import", ImportPath, body, contentType, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) post(ctx context.Context, op, path string, body *bytes.Buffer, contentType string, out any) error {
	url := c.BaseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", op, err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)

	if c.Tokens != nil {
		token, err := c.Tokens.Token(ctx)
		if err != nil {
			return fmt.Errorf("failed to obtain bearer token: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	log := c.logger.With(zap.String("op", op), zap.String("request_id", requestID))
	start := time.Now()
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		log.Warn("backend call failed", zap.Error(err))
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	log.Debug("backend call completed",
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeRejection(op, resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}

func decodeRejection(op string, resp *http.Response) error {
	rejected := &RequestRejectedError{Op: op, Status: resp.StatusCode}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(bytes.TrimSpace(raw)) == 0 {
		return rejected
	}

	var envelope struct {
		APIError
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil {
		rejected.Code = envelope.Code
		rejected.Message = envelope.Message
		if rejected.Message == "" {
			rejected.Message = envelope.Error
		}
		return rejected
	}

	if text := strings.TrimSpace(string(raw)); len(text) <= 512 {
		rejected.Message = text
	}
	return rejected
}

func encodeForm(file File, fieldsOut [][2]string) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	for _, f := range fieldsOut {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", fmt.Errorf("failed to write form field %s: %w", f[0], err)
		}
	}

	name := filepath.Base(file.Name)
	if name == "." || name == string(filepath.Separator) {
		name = "upload"
	}
	part, err := w.CreateFormFile(FormFile, name)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create file part: %w", err)
	}
	if _, err := part.Write(file.Data); err != nil {
		return nil, "", fmt.Errorf("failed to write file part: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finish multipart body: %w", err)
	}
	return body, w.FormDataContentType(), nil
}
