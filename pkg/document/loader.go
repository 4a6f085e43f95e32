// Package document reads the uploaded business documents from the docs
// directory and extracts their plain text.
package document

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Supported extensions, lowercase.
var SupportedExtensions = []string{".txt", ".pdf"}

type Document struct {
	Source string // file name relative to the docs dir
	Text   string
}

// TextExtractor pulls plain text out of one file format.
type TextExtractor interface {
	Extract(path string) (string, error)
}

// Skip describes a file that was present but contributed no text.
type Skip struct {
	Source string
	Reason string
}

type Loader struct {
	dir        string
	extractors map[string]TextExtractor
}

func NewLoader(dir string) *Loader {
	return &Loader{
		dir: dir,
		extractors: map[string]TextExtractor{
			".txt": PlainTextExtractor{},
			".pdf": PDFExtractor{},
		},
	}
}

// WithExtractor overrides the extractor for ext.
func (l *Loader) WithExtractor(ext string, e TextExtractor) *Loader {
	l.extractors[strings.ToLower(ext)] = e
	return l
}

func (l *Loader) Dir() string {
	return l.dir
}

// IsSupported reports whether name has an extension the loader can read.
func IsSupported(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, s := range SupportedExtensions {
		if ext == s {
			return true
		}
	}
	return false
}

// Load returns every supported document with non-blank text, ordered by
// file name. The docs directory is created when missing. Files that fail to
// extract are reported in skips instead of failing the whole load.
func (l *Loader) Load(ctx context.Context) (docs []Document, skips []Skip, err error) {
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating docs dir: %w", err)
	}

	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, nil, fmt.Errorf("reading docs dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		extractor, ok := l.extractors[strings.ToLower(filepath.Ext(name))]
		if !ok {
			continue
		}

		text, err := extractor.Extract(filepath.Join(l.dir, name))
		if err != nil {
			skips = append(skips, Skip{Source: name, Reason: err.Error()})
			continue
		}
		if strings.TrimSpace(text) == "" {
			skips = append(skips, Skip{Source: name, Reason: "no extractable text"})
			continue
		}
		docs = append(docs, Document{Source: name, Text: text})
	}

	return docs, skips, nil
}

type PlainTextExtractor struct{}

func (PlainTextExtractor) Extract(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

type PDFExtractor struct{}

func (PDFExtractor) Extract(path string) (text string, err error) {
	// the pdf reader panics on some malformed files
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening pdf: %w", err)
	}
	defer f.Close()

	reader, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extracting pdf text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(reader); err != nil {
		return "", fmt.Errorf("reading pdf text: %w", err)
	}
	return buf.String(), nil
}
