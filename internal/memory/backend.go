package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Document is the persisted form of the learned overlay.
type Document struct {
	Learned     map[string]string `json:"learned"`
	LastUpdated string            `json:"last_updated"`
	Stats       Stats             `json:"stats"`
}

// Backend loads and saves the learned overlay. Load returns a nil document
// and no error when nothing has been saved yet.
type Backend interface {
	Load(ctx context.Context) (*Document, error)
	Save(ctx context.Context, doc *Document) error
}

// FileBackend stores the document as JSON at Path.
type FileBackend struct {
	Path string
}

// NewFileBackend returns a FileBackend for path.
func NewFileBackend(path string) *FileBackend {
	return &FileBackend{Path: path}
}

func (b *FileBackend) Load(_ context.Context) (*Document, error) {
	data, err := os.ReadFile(b.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", b.Path, err)
	}
	return &doc, nil
}

func (b *FileBackend) Save(_ context.Context, doc *Document) error {
	if err := os.MkdirAll(filepath.Dir(b.Path), 0o755); err != nil {
		return err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return err
	}

	tmp := b.Path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, b.Path)
}
