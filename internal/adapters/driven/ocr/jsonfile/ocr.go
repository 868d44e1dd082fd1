// Package jsonfile provides an OCR service that reads pre-computed OCR
// results from disk. It backs offline runs and tests.
//
// A PDF at /in/paper.pdf resolves to /in/paper.json, or to <Dir>/paper.json
// when a directory is configured. Remote locators always need a directory.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/readwell/internal/core/domain"
	"github.com/custodia-labs/readwell/internal/core/ports/driven"
)

// Ensure OCRService implements the interface.
var _ driven.OCRService = (*OCRService)(nil)

// OCRService resolves locators to OCR result JSON files.
type OCRService struct {
	dir string
}

// New creates a JSON file OCR service. dir may be empty.
func New(dir string) *OCRService {
	return &OCRService{dir: dir}
}

// Process loads the OCR result for locator.
func (s *OCRService) Process(ctx context.Context, locator string) (*domain.OCRResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	resultPath, err := s.resolve(locator)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(resultPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("jsonfile: %w: no OCR result at %s", domain.ErrNotFound, resultPath)
	}
	if err != nil {
		return nil, fmt.Errorf("jsonfile: read %s: %w", resultPath, err)
	}

	var result domain.OCRResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("jsonfile: decode %s: %w", resultPath, err)
	}
	return &result, nil
}

// Close releases resources.
func (s *OCRService) Close() error {
	return nil
}

func (s *OCRService) resolve(locator string) (string, error) {
	u, err := url.Parse(locator)
	if err != nil {
		return "", fmt.Errorf("jsonfile: %w: %v", domain.ErrInvalidInput, err)
	}

	var source string
	switch u.Scheme {
	case "file":
		source = u.Path
	case "http", "https":
		if s.dir == "" {
			return "", fmt.Errorf("jsonfile: %w: remote locators need an OCR result directory", domain.ErrInvalidInput)
		}
		source = path.Base(u.Path)
	default:
		return "", fmt.Errorf("jsonfile: %w: unsupported locator scheme %q", domain.ErrInvalidInput, u.Scheme)
	}

	name := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source)) + ".json"
	if s.dir != "" {
		return filepath.Join(s.dir, name), nil
	}
	return filepath.Join(filepath.Dir(source), name), nil
}
