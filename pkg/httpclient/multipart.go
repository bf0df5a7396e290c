package httpclient

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
)

// MultipartFile is a single file part of a multipart request.
type MultipartFile struct {
	FieldName string
	FileName  string
	Data      []byte
}

// PostMultipart performs a POST request with a multipart/form-data body built
// from the given file and text fields.
func (c *Client) PostMultipart(ctx context.Context, url string, file MultipartFile, fields map[string]string, headers map[string]string) (*Response, error) {
	if len(file.Data) > MaxRequestSize {
		return nil, fmt.Errorf("file too large: %d bytes (max %d)", len(file.Data), MaxRequestSize)
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile(file.FieldName, file.FileName)
	if err != nil {
		return nil, fmt.Errorf("failed to create file part: %w", err)
	}
	if _, err := part.Write(file.Data); err != nil {
		return nil, fmt.Errorf("failed to write file part: %w", err)
	}

	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return nil, fmt.Errorf("failed to write field %s: %w", key, err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	for key, value := range headers {
		req.Header.Set(key, value)
	}

	return c.Do(ctx, req)
}
