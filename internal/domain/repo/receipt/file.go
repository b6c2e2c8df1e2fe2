package receipt

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/go-logr/logr"

	"github.com/openshift-assisted/ansible-receipts/internal/domain/entity"
)

// FileWriter writes the aggregate as a single json document.
type FileWriter struct {
	path string

	logger *logr.Logger
}

// NewFileWriter returns a writer for path. An empty path disables the output.
func NewFileWriter(path string) FileWriter {
	return FileWriter{path: path}
}

func (w FileWriter) WithLogger(logger logr.Logger) FileWriter {
	w.logger = &logger

	return w
}

func (w FileWriter) WriteReceipts(ctx context.Context, receipts entity.Aggregate) error {
	if w.path == "" {
		w.logInfo(1, "No output path configured, skipping receipts file")

		return nil
	}

	data, err := json.Marshal(receipts)
	if err != nil {
		return fmt.Errorf("failed to marshal receipts: %w", err)
	}

	err = os.MkdirAll(filepath.Dir(w.path), 0o755)
	if err != nil {
		return fmt.Errorf("failed to create directory of %s: %w", w.path, err)
	}

	err = os.WriteFile(w.path, data, 0o644)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", w.path, err)
	}

	w.logInfo(0, "Receipts written", "path", w.path, "hosts", receipts.Hosts(), "size", humanize.Bytes(uint64(len(data))))

	return nil
}

func (w FileWriter) logInfo(level int, msg string, keysAndValues ...any) {
	if w.logger == nil {
		return
	}

	w.logger.V(level).Info(msg, keysAndValues...)
}
