// Package mistral provides an OCR service adapter for the Mistral OCR API.
package mistral

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/custodia-labs/readwell/internal/core/domain"
	"github.com/custodia-labs/readwell/internal/core/ports/driven"
)

// Ensure OCRService implements the interface.
var _ driven.OCRService = (*OCRService)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://api.mistral.ai"
	DefaultModel   = "mistral-ocr-latest"
	DefaultTimeout = 180 * time.Second
)

// Config holds configuration for the Mistral OCR service.
type Config struct {
	// APIKey is the Mistral API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.mistral.ai).
	BaseURL string

	// Model is the OCR model (default: mistral-ocr-latest).
	Model string

	// Timeout is the request timeout (default: 180s).
	Timeout time.Duration
}

// OCRService runs OCR through the Mistral API.
type OCRService struct {
	client  *http.Client
	apiKey  string
	baseURL string
	model   string
}

type ocrRequest struct {
	Model              string      `json:"model"`
	Document           ocrDocument `json:"document"`
	IncludeImageBase64 bool        `json:"include_image_base64"`
}

type ocrDocument struct {
	Type        string `json:"type"`
	DocumentURL string `json:"document_url"`
}

type errorResponse struct {
	Message string `json:"message"`
	Detail  any    `json:"detail"`
}

// New creates a new Mistral OCR service.
func New(cfg Config) (*OCRService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("mistral: %w: API key is required", domain.ErrMissingCredentials)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &OCRService{
		client:  &http.Client{Timeout: cfg.Timeout},
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		model:   cfg.Model,
	}, nil
}

// Process runs OCR on the PDF at locator.
// file:// locators are read locally and sent inline as a base64 data URL.
func (s *OCRService) Process(ctx context.Context, locator string) (*domain.OCRResult, error) {
	docURL, err := documentURL(locator)
	if err != nil {
		return nil, err
	}

	jsonBody, err := json.Marshal(ocrRequest{
		Model:              s.model,
		Document:           ocrDocument{Type: "document_url", DocumentURL: docURL},
		IncludeImageBase64: true,
	})
	if err != nil {
		return nil, fmt.Errorf("mistral: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v1/ocr", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("mistral: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mistral: send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("mistral: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp.StatusCode, body)
	}

	var result domain.OCRResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("mistral: decode response: %w", err)
	}
	return &result, nil
}

// Close releases resources.
func (s *OCRService) Close() error {
	return nil
}

// documentURL returns the value sent as document_url for locator.
func documentURL(locator string) (string, error) {
	u, err := url.Parse(locator)
	if err != nil {
		return "", fmt.Errorf("mistral: %w: %v", domain.ErrInvalidInput, err)
	}

	switch u.Scheme {
	case "http", "https":
		return locator, nil
	case "file":
		data, err := os.ReadFile(u.Path)
		if err != nil {
			return "", fmt.Errorf("mistral: read %s: %w", u.Path, err)
		}
		return "data:application/pdf;base64," + base64.StdEncoding.EncodeToString(data), nil
	default:
		return "", fmt.Errorf("mistral: %w: unsupported locator scheme %q", domain.ErrInvalidInput, u.Scheme)
	}
}

func statusError(status int, body []byte) error {
	msg := strings.TrimSpace(string(body))
	var e errorResponse
	if json.Unmarshal(body, &e) == nil && e.Message != "" {
		msg = e.Message
	}

	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("mistral: %w: %s", domain.ErrMissingCredentials, msg)
	case http.StatusTooManyRequests:
		return fmt.Errorf("mistral: %w: %s", domain.ErrRateLimited, msg)
	default:
		return fmt.Errorf("mistral: API error (status %d): %s", status, msg)
	}
}
