package source

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/xonecas/cppref/internal/document"
)

// Documents loads file snapshots for one command. Each path is read once and
// the snapshot is reused for the rest of the command, so every stage sees the
// same text. A Documents value must not outlive its command.
type Documents struct {
	mu      sync.Mutex
	docs    map[string]*document.Document
	overlay map[string]string
}

// NewDocuments returns an empty per-command document set.
func NewDocuments() *Documents {
	return &Documents{
		docs:    make(map[string]*document.Document),
		overlay: make(map[string]string),
	}
}

// Overlay makes path resolve to text without touching disk.
func (d *Documents) Overlay(path, text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	abs := absPath(path)
	d.overlay[abs] = text
	delete(d.docs, abs)
}

// Open returns the snapshot for path, reading it on first use.
func (d *Documents) Open(path string) (*document.Document, error) {
	abs := absPath(path)

	d.mu.Lock()
	defer d.mu.Unlock()

	if doc, ok := d.docs[abs]; ok {
		return doc, nil
	}
	text, ok := d.overlay[abs]
	if !ok {
		data, err := os.ReadFile(abs)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		text = string(data)
	}
	doc := document.New(abs, text)
	d.docs[abs] = doc
	return doc, nil
}

// Exists reports whether path is overlaid or present on disk.
func (d *Documents) Exists(path string) bool {
	abs := absPath(path)
	d.mu.Lock()
	_, ok := d.overlay[abs]
	d.mu.Unlock()
	if ok {
		return true
	}
	info, err := os.Stat(abs)
	return err == nil && !info.IsDir()
}

func absPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
