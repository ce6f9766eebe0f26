package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// FileWriter appends log entries to a file.
type FileWriter struct {
	mu   sync.Mutex
	file *os.File
}

// NewFileWriter opens path for appending, creating it and its directory
// when missing.
func NewFileWriter(path string) (*FileWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	return &FileWriter{file: file}, nil
}

func (w *FileWriter) Write(data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	_, err := w.file.Write(data)
	return err
}

// Flush syncs the file to disk.
func (w *FileWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.file.Sync()
}

func (w *FileWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.file.Close()
}

func (w *FileWriter) GetName() string {
	return "file"
}

// StreamWriter adapts any io.Writer. Tests use it with a bytes.Buffer.
type StreamWriter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewStreamWriter wraps w
func NewStreamWriter(w io.Writer) *StreamWriter {
	return &StreamWriter{w: w}
}

// Write writes data to the wrapped stream
func (w *StreamWriter) Write(data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	_, err := w.w.Write(data)
	return err
}

// Flush is a no-op
func (w *StreamWriter) Flush() error {
	return nil
}

// Close is a no-op; the stream belongs to the caller
func (w *StreamWriter) Close() error {
	return nil
}

// GetName returns the name of the writer
func (w *StreamWriter) GetName() string {
	return "stream"
}

// MultiWriter writes to multiple writers
type MultiWriter struct {
	mu      sync.RWMutex
	writers []Writer
}

// NewMultiWriter creates a new multi writer
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{
		writers: writers,
	}
}

// Write writes data to all writers
func (w *MultiWriter) Write(data []byte) error {
	w.mu.RLock()
	defer w.mu.RUnlock()

	var lastErr error
	for _, writer := range w.writers {
		if err := writer.Write(data); err != nil {
			lastErr = fmt.Errorf("%s: %w", writer.GetName(), err)
		}
	}

	return lastErr
}

// Flush flushes all writers
func (w *MultiWriter) Flush() error {
	w.mu.RLock()
	defer w.mu.RUnlock()

	var lastErr error
	for _, writer := range w.writers {
		if err := writer.Flush(); err != nil {
			lastErr = err
		}
	}

	return lastErr
}

// Close closes all writers
func (w *MultiWriter) Close() error {
	w.mu.RLock()
	defer w.mu.RUnlock()

	var lastErr error
	for _, writer := range w.writers {
		if err := writer.Close(); err != nil {
			lastErr = err
		}
	}

	return lastErr
}

// GetName returns the name of the writer
func (w *MultiWriter) GetName() string {
	return "multi"
}

// NullWriter discards all log entries
type NullWriter struct{}

// NewNullWriter creates a new null writer
func NewNullWriter() *NullWriter {
	return &NullWriter{}
}

// Write discards data
func (w *NullWriter) Write(data []byte) error {
	return nil
}

// Flush does nothing
func (w *NullWriter) Flush() error {
	return nil
}

// Close does nothing
func (w *NullWriter) Close() error {
	return nil
}

// GetName returns the name of the writer
func (w *NullWriter) GetName() string {
	return "null"
}
