package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"herbalbot/internal/domain"
)

// Source loads the herb catalog. Callers load it once at startup and treat
// the result as read-only.
type Source interface {
	LoadHerbs(ctx context.Context) ([]domain.Herb, error)
}

type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath infers the catalog encoding from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("repository: unsupported catalog extension %q", filepath.Ext(path))
	}
}

// DecodeHerbs parses and validates an encoded catalog. Unknown fields are rejected.
func DecodeHerbs(data []byte, format Format) ([]domain.Herb, error) {
	var herbs []domain.Herb
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&herbs); err != nil {
			return nil, fmt.Errorf("repository: decode json catalog: %w", err)
		}
		if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
			return nil, errors.New("repository: decode json catalog: trailing data")
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&herbs); err != nil {
			return nil, fmt.Errorf("repository: decode yaml catalog: %w", err)
		}
	default:
		return nil, fmt.Errorf("repository: unsupported catalog format %q", format)
	}
	return Validate(herbs)
}

// Validate trims every field and checks that the catalog is usable: at least
// one herb, each with a name and only non-blank uses. A blank use would match
// every query.
func Validate(herbs []domain.Herb) ([]domain.Herb, error) {
	if len(herbs) == 0 {
		return nil, errors.New("repository: catalog is empty")
	}
	out := make([]domain.Herb, 0, len(herbs))
	for i, h := range herbs {
		h.Name = strings.TrimSpace(h.Name)
		h.LocalName = strings.TrimSpace(h.LocalName)
		h.Notes = strings.TrimSpace(h.Notes)
		if h.Name == "" {
			return nil, fmt.Errorf("repository: herb %d: name is required", i)
		}
		if len(h.Uses) == 0 {
			return nil, fmt.Errorf("repository: herb %q: at least one use is required", h.Name)
		}
		uses := make([]string, len(h.Uses))
		for j, u := range h.Uses {
			uses[j] = strings.TrimSpace(u)
			if uses[j] == "" {
				return nil, fmt.Errorf("repository: herb %q: use %d is blank", h.Name, j)
			}
		}
		h.Uses = uses
		out = append(out, h)
	}
	return out, nil
}
