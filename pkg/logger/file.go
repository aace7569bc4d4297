package logger

import (
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/spf13/afero"
)

// FileLogger appends log lines to a file.
type FileLogger struct {
	*StandardLogger
	f    afero.File
	once sync.Once
	err  error
}

// NewFileLogger opens path on fs for appending, creating it if needed.
func NewFileLogger(fs afero.Fs, path string, debug bool) (*FileLogger, error) {
	f, err := fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	l := log.New(f, "canvaslogin ", log.LstdFlags|log.Lmicroseconds)
	return &FileLogger{StandardLogger: NewStandardLogger(l, debug), f: f}, nil
}

// Close closes the log file. Later calls return the first result.
func (fl *FileLogger) Close() error {
	fl.once.Do(func() {
		fl.err = fl.f.Close()
	})
	return fl.err
}

var _ Logger = (*FileLogger)(nil)
