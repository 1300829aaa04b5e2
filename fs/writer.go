// Package fs provides file-based export of generated Q&A pairs.
package fs

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fwojciec/qagen"
)

// exportRecord is the JSONL line format consumed by retrieval indexes.
type exportRecord struct {
	Question  string `json:"question"`
	Answer    string `json:"answer"`
	SourceURL string `json:"source_url"`
}

// Ensure Writer implements qagen.QAPairWriter at compile time.
var _ qagen.QAPairWriter = (*Writer)(nil)

// Writer exports pairs to a JSONL file, one pair per line.
type Writer struct {
	path string
}

// NewWriter creates a new Writer that writes to the given file path.
func NewWriter(path string) *Writer {
	return &Writer{path: path}
}

// WriteQAPairs writes all pairs to the output file in order. The file
// is written to a temporary sibling and renamed into place so readers
// never observe a partial export.
func (w *Writer) WriteQAPairs(ctx context.Context, pairs []*qagen.QAPair) error {
	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(w.path)+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	bw := bufio.NewWriter(tmp)
	enc := json.NewEncoder(bw)
	for _, p := range pairs {
		if err := ctx.Err(); err != nil {
			tmp.Close()
			return err
		}
		if err := enc.Encode(exportRecord{
			Question:  p.Question,
			Answer:    p.Answer,
			SourceURL: p.SourceURL,
		}); err != nil {
			tmp.Close()
			return fmt.Errorf("failed to encode pair: %w", err)
		}
	}

	if err := bw.Flush(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), w.path)
}
