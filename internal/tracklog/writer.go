// Package tracklog appends one structured block per tick to a flat,
// append-only log file.
package tracklog

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ukydev/device-monitor/internal/models"
)

// DefaultFileName is the log file name used by the mobile plugin.
const DefaultFileName = "location_battery_log.txt"

// FileWriter opens, appends, syncs and closes the log file on every call.
// No handle is held between ticks, and each block goes out in a single
// O_APPEND write so overlapping calls never interleave.
type FileWriter struct {
	Dir    string
	Name   string
	Format Format
}

// NewFileWriter creates a writer for dir/name using the given format.
func NewFileWriter(dir, name string, format Format) *FileWriter {
	if name == "" {
		name = DefaultFileName
	}
	if format == nil {
		format = LegacyFormat{}
	}
	return &FileWriter{Dir: dir, Name: name, Format: format}
}

// Path returns the full path of the log file.
func (w *FileWriter) Path() string {
	return filepath.Join(w.Dir, w.Name)
}

// Append serializes rec and appends it followed by a newline.
func (w *FileWriter) Append(rec models.LogRecord) error {
	data, err := w.Format.Encode(rec)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	f, err := os.OpenFile(w.Path(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("write log file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("flush log file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close log file: %w", err)
	}
	return nil
}
