// Package workdir manages the transient folder feeds are downloaded into.
package workdir

import (
	"os"
	"path/filepath"

	"epg-combiner/logger"
)

func Ensure(dir string) error {
	return os.MkdirAll(dir, 0o755)
}

// Clean removes the regular files directly inside dir and then dir itself.
// Subdirectories are not touched; if any remain, dir stays too.
func Clean(dir string) error {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if err := os.Remove(path); err != nil {
			return err
		}
		logger.L().Info("workdir.removed_file", "path", path)
	}

	if err := os.Remove(dir); err != nil {
		logger.L().Warn("workdir.not_removed", "dir", dir, "err", err)
		return nil
	}
	logger.L().Info("workdir.removed", "dir", dir)
	return nil
}
