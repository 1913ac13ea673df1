package imagecache

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofrs/uuid"
)

const defaultDirPerm = 0o755

// diskTier writes one file per downloaded image and remembers where.
// The index is never persisted; every process starts cold. Index access is
// serialized by the owning Cache.
type diskTier struct {
	dir     string
	enabled bool
	index   map[string]string // source -> file path
}

// openDisk prepares dir for writing. Any failure disables the tier for the
// lifetime of the process.
func openDisk(dir string, logger *slog.Logger) *diskTier {
	d := &diskTier{dir: dir, index: make(map[string]string)}
	if dir == "" {
		logger.Info("image disk cache disabled: no directory configured")
		return d
	}
	if err := os.MkdirAll(dir, defaultDirPerm); err != nil {
		logger.Warn("image disk cache disabled: cannot create directory", "dir", dir, "error", err)
		return d
	}
	if err := probeWritable(dir); err != nil {
		logger.Warn("image disk cache disabled: directory not writable", "dir", dir, "error", err)
		return d
	}
	d.enabled = true
	return d
}

func probeWritable(dir string) error {
	f, err := os.CreateTemp(dir, ".probe-*")
	if err != nil {
		return err
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}

// write stores data under a fresh unique name and returns the path
func (d *diskTier) write(data []byte, format string) (string, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return "", fmt.Errorf("failed to generate file name: %w", err)
	}
	path := filepath.Join(d.dir, id.String()+"."+extension(format))
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", err
	}
	return path, nil
}

func (d *diskTier) lookup(source string) (string, bool) {
	if !d.enabled {
		return "", false
	}
	path, ok := d.index[source]
	return path, ok
}

// record maps source to path unless it is already mapped
func (d *diskTier) record(source, path string) bool {
	if _, exists := d.index[source]; exists {
		return false
	}
	d.index[source] = path
	return true
}

func extension(format string) string {
	switch format {
	case "jpeg":
		return "jpg"
	case "":
		return "img"
	default:
		return format
	}
}

// ClearDisk removes every cached image file under dir
func ClearDisk(dir string) error {
	if dir == "" {
		return nil
	}
	if err := os.RemoveAll(dir); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear image cache: %w", err)
	}
	return nil
}
