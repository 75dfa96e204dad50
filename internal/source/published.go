package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"vaquero/internal"
	"vaquero/internal/config"
	"vaquero/internal/pipeline"
)

const (
	ProviderPublished = "published"
	ProviderFile      = "file"
	ProviderSheets    = "sheets"
)

// PublishedSource reads a sheet exported through "publish to the web".
type PublishedSource struct {
	client *Client
	url    string
	format string
}

func NewPublishedSource(client *Client, url, format string) *PublishedSource {
	return &PublishedSource{client: client, url: url, format: format}
}

func (s *PublishedSource) Describe() string {
	return "published:" + s.url
}

func (s *PublishedSource) FetchRows(ctx context.Context) ([]internal.RawRow, error) {
	blob, err := s.client.Get(ctx, s.url)
	if err != nil {
		return nil, err
	}
	return pipeline.ParseRows(s.format, blob)
}

// FileSource reads a local export of the sheet.
type FileSource struct {
	path   string
	format string
}

func NewFileSource(path, format string) *FileSource {
	if strings.TrimSpace(format) == "" {
		format = FormatFromPath(path)
	}
	return &FileSource{path: path, format: format}
}

func (s *FileSource) Describe() string {
	return "file:" + s.path
}

func (s *FileSource) FetchRows(ctx context.Context) ([]internal.RawRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	blob, err := os.ReadFile(s.path)
	if err != nil {
		return nil, &internal.FetchError{Source: s.path, Attempts: 1, Err: err}
	}
	return pipeline.ParseRows(s.format, blob)
}

// FormatFromPath guesses the row format from a file extension, csv otherwise.
func FormatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return pipeline.FormatXLSX
	case ".html", ".htm":
		return pipeline.FormatHTML
	default:
		return pipeline.FormatCSV
	}
}

// New builds the source for provider. input overrides the configured URL or
// path and format overrides the configured format when non-empty.
func New(ctx context.Context, cfg config.Config, provider, input, format string) (pipeline.Source, error) {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if provider == "" {
		provider = cfg.SourceProvider
	}

	switch provider {
	case ProviderPublished:
		url := input
		if url == "" {
			url = cfg.SourceURL
		}
		if err := cfg.Require("SOURCE_URL", url); err != nil {
			return nil, err
		}
		if format == "" {
			format = cfg.SourceFormat
		}
		return NewPublishedSource(NewClient(cfg), url, format), nil
	case ProviderFile:
		if strings.TrimSpace(input) == "" {
			return nil, fmt.Errorf("file provider requires --input")
		}
		return NewFileSource(input, format), nil
	case ProviderSheets:
		return NewSheetsSource(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported source provider: %s", provider)
	}
}
