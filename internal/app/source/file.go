package source

import (
	"context"
	"os"

	"github.com/osa030/releasebox/internal/domain/release"
)

// FileSource reads descriptors from a local file.
type FileSource struct {
	path   string
	format Format
}

// NewFileSource creates a new FileSource. An empty format is detected from the extension.
func NewFileSource(path string, format Format) *FileSource {
	if format == "" {
		format = DetectFormat(path, "")
	}
	return &FileSource{path: path, format: format}
}

// Name returns the source name.
func (s *FileSource) Name() string {
	return "file:" + s.path
}

// Fetch reads and decodes the file.
func (s *FileSource) Fetch(ctx context.Context) ([]release.Descriptor, error) {
	if err := ctx.Err(); err != nil {
		return nil, fetchFailure(err, s.Name())
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fetchFailure(err, s.Name())
	}
	return Decode(data, s.format, s.path)
}
