package repository

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"herbalbot/internal/domain"
)

//go:embed data/herbs.json
var embeddedCatalog []byte

// EmbeddedSource serves the catalog bundled with the binary.
type EmbeddedSource struct{}

func (EmbeddedSource) LoadHerbs(ctx context.Context) ([]domain.Herb, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	herbs, err := DecodeHerbs(embeddedCatalog, FormatJSON)
	if err != nil {
		return nil, fmt.Errorf("repository: embedded catalog: %w", err)
	}
	return herbs, nil
}

// FileSource reads a JSON or YAML catalog from disk.
type FileSource struct {
	path   string
	format Format
}

func NewFileSource(path string) (*FileSource, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("repository: catalog path must not be empty")
	}
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	return &FileSource{path: path, format: format}, nil
}

func (s *FileSource) LoadHerbs(ctx context.Context) ([]domain.Herb, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("repository: read catalog: %w", err)
	}
	herbs, err := DecodeHerbs(data, s.format)
	if err != nil {
		return nil, fmt.Errorf("repository: catalog %s: %w", s.path, err)
	}
	return herbs, nil
}
