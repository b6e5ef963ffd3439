// Package storage serializes the aggregated records and persists them.
package storage

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/use-agent/leninka/models"
)

// Writer persists a complete record collection.
type Writer interface {
	Write(ctx context.Context, articles []models.Article) error
}

// EncodeJSON encodes articles as a JSON array with 2-space indentation.
// HTML characters are kept literal and there is no trailing newline, so
// the output matches JSON.stringify(v, null, 2).
func EncodeJSON(articles []models.Article) ([]byte, error) {
	if articles == nil {
		articles = []models.Article{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(articles); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// EncodeCSV encodes articles as CSV with a title,authors,link header.
func EncodeCSV(articles []models.Article) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"title", "authors", "link"}); err != nil {
		return nil, err
	}
	for _, a := range articles {
		if err := w.Write([]string{a.Title, a.Authors, a.Link}); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Encode dispatches on format: "json" or "csv".
func Encode(format string, articles []models.Article) ([]byte, error) {
	switch format {
	case "json", "":
		return EncodeJSON(articles)
	case "csv":
		return EncodeCSV(articles)
	default:
		return nil, fmt.Errorf("unknown format: %s", format)
	}
}

// FileWriter writes the encoded document to a single path. The write goes
// to a temporary file in the same directory which is then renamed over the
// destination, so a failed write never truncates an existing file.
type FileWriter struct {
	path   string
	format string
	perm   os.FileMode
}

var _ Writer = (*FileWriter)(nil)

// NewFileWriter creates a FileWriter for path in the given format.
func NewFileWriter(path, format string) *FileWriter {
	return &FileWriter{path: path, format: format, perm: 0o644}
}

// Path returns the destination path.
func (w *FileWriter) Path() string { return w.path }

// Write encodes articles and replaces the destination with the result.
// Any failure is a PERSISTENCE_FAILED CrawlError.
func (w *FileWriter) Write(ctx context.Context, articles []models.Article) error {
	if err := ctx.Err(); err != nil {
		return models.NewCrawlError(models.ErrCodePersistence, "write canceled", err)
	}
	data, err := Encode(w.format, articles)
	if err != nil {
		return models.NewCrawlError(models.ErrCodePersistence, "failed to encode records", err)
	}
	if err := w.writeAtomic(data); err != nil {
		return models.NewCrawlError(models.ErrCodePersistence, "failed to write "+w.path, err)
	}
	return nil
}

func (w *FileWriter) writeAtomic(data []byte) error {
	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	_ = os.Chmod(tmpPath, w.perm)

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, w.path); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}
