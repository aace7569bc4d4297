package result

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"github.com/palette/canvaslogin/internal/autherr"
	"github.com/palette/canvaslogin/pkg/logger"
	"github.com/spf13/afero"
)

// Exit codes returned by Publish.
const (
	ExitSuccess = 0
	ExitFailure = 1
)

// Publisher writes a Record to the artifact file and to Stdout (success) or
// Stderr (failure).
type Publisher struct {
	Fs     afero.Fs
	Stdout io.Writer
	Stderr io.Writer
	// Name prefixes runtime error lines, e.g. "canvaslogin".
	Name string
	Log  logger.Logger
}

// Publish emits rec and returns the process exit code. The artifact write
// never changes the outcome: on success a write failure is reported on
// Stderr as a single runtime error line, on failure it is dropped.
func (p *Publisher) Publish(rec Record, path string) int {
	log := p.Log
	if log == nil {
		log = logger.NewNopLogger()
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		// Record only holds strings; this cannot fail in practice.
		rec = Failure(err)
		payload, _ = json.Marshal(rec)
	}

	werr := WriteFileAtomic(p.Fs, path, payload)
	if werr != nil {
		werr = autherr.Wrap(autherr.KindArtifactWrite, "publish", werr)
		log.Error("result: write artifact %s: %v", path, werr)
	} else {
		log.Info("result: wrote artifact %s", path)
	}

	if rec.Success {
		fmt.Fprintf(p.Stdout, "%s\n", payload)
		if werr != nil {
			fmt.Fprintf(p.Stderr, "%s: publish: %v\n", p.name(), werr)
		}
		return ExitSuccess
	}
	fmt.Fprintf(p.Stderr, "%s\n", payload)
	return ExitFailure
}

func (p *Publisher) name() string {
	if p.Name == "" {
		return "canvaslogin"
	}
	return p.Name
}

// WriteFileAtomic writes data to a temporary file next to path and renames
// it into place, so readers never observe a partially written artifact.
// An existing file at path is replaced.
func WriteFileAtomic(fs afero.Fs, path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	tmp, err := afero.TempFile(fs, dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = fs.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := fs.Chmod(tmpName, 0o600); err != nil {
		cleanup()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := fs.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}
