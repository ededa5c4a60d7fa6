// Package archive wraps the external conversion service that turns an
// uploaded zip into a password-protected, time-limited download. Archive
// processing itself is delegated entirely to that service; this package only
// speaks its HTTP API.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Converter produces a temporary download URL for a password-protected copy
// of the named source file.
type Converter interface {
	Convert(ctx context.Context, fileName, password string) (string, error)
}

// HTTPConverter is the production Converter backed by the conversion API.
type HTTPConverter struct {
	BaseURL    string
	Secret     string
	HTTPClient *http.Client
}

// NewHTTPConverter returns a converter with a generous timeout; archive
// conversion is the slowest external call this service makes.
func NewHTTPConverter(baseURL, secret string) *HTTPConverter {
	return &HTTPConverter{
		BaseURL:    baseURL,
		Secret:     secret,
		HTTPClient: &http.Client{Timeout: 60 * time.Second},
	}
}

type convertRequest struct {
	Parameters []convertParameter `json:"Parameters"`
}

type convertParameter struct {
	Name  string `json:"Name"`
	Value string `json:"Value"`
}

type convertResponse struct {
	Files []struct {
		URL string `json:"Url"`
	} `json:"Files"`
}

// Convert asks the conversion service for a protected copy of fileName. The
// returned URL is valid only for a limited time on the service's side.
func (c *HTTPConverter) Convert(ctx context.Context, fileName, password string) (string, error) {
	payload := convertRequest{
		Parameters: []convertParameter{
			{Name: "File", Value: fileName},
			{Name: "FileName", Value: fileName},
			{Name: "Password", Value: password},
		},
	}

	buf, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("archive: marshal convert request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/convert/zip?Secret=%s", c.BaseURL, c.Secret)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(buf))
	if err != nil {
		return "", fmt.Errorf("archive: build convert request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("archive: conversion service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("archive: conversion service returned %d", resp.StatusCode)
	}

	var body convertResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("archive: decode convert response: %w", err)
	}
	if len(body.Files) == 0 {
		return "", fmt.Errorf("archive: conversion service returned no files")
	}

	return body.Files[0].URL, nil
}
