// Package extract reads regulation files (PDF, DOCX, spreadsheet annexes, plain text)
// into plain text for chunking.
package extract

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrUnsupportedFormat is returned for file extensions with no registered reader.
var ErrUnsupportedFormat = errors.New("unsupported document format")

type extractFunc func(content []byte) (string, error)

// Extractor extracts plain text from regulation files by extension.
type Extractor struct {
	readers map[string]extractFunc
}

// NewExtractor returns an Extractor for every built-in format.
func NewExtractor() *Extractor {
	return &Extractor{readers: map[string]extractFunc{
		".pdf":  extractPDF,
		".docx": extractDOCX,
		".xlsx": extractExcel,
		".txt":  extractPlain,
		".md":   extractPlain,
		".rst":  extractPlain,
	}}
}

// Supported reports whether ext (with leading dot, any case) has a reader.
func (e *Extractor) Supported(ext string) bool {
	_, ok := e.readers[strings.ToLower(ext)]
	return ok
}

// Extensions returns the supported extensions in sorted order.
func (e *Extractor) Extensions() []string {
	exts := make([]string, 0, len(e.readers))
	for ext := range e.readers {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Extract reads the file at path and returns its text content.
func (e *Extractor) Extract(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !e.Supported(ext) {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	return e.ExtractBytes(content, ext)
}

// ExtractBytes extracts text from content based on ext, which includes the leading dot.
func (e *Extractor) ExtractBytes(content []byte, ext string) (string, error) {
	read, ok := e.readers[strings.ToLower(ext)]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	return read(content)
}
