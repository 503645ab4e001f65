// Package archive moves the previous combined guide aside before a new one is written.
package archive

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"epg-combiner/consts"
	"epg-combiner/logger"
)

// Now is the clock used for archive names.
var Now = time.Now

// Archive moves path into dir as <base>_<timestamp> if path is a regular file.
// It returns the archive path, or "" when there was nothing to archive.
func Archive(path, dir string) (string, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if !info.Mode().IsRegular() {
		return "", nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	target, err := freeName(dir, filepath.Base(path)+"_"+Now().Format(consts.ARCHIVE_TIME_FORMAT))
	if err != nil {
		return "", err
	}
	if err := move(path, target); err != nil {
		return "", fmt.Errorf("archive %s: %w", path, err)
	}

	logger.L().Info("archive.moved", "src", path, "dst", target)
	return target, nil
}

// freeName appends _N to name until it does not exist in dir.
func freeName(dir, name string) (string, error) {
	candidate := filepath.Join(dir, name)
	for n := 1; ; n++ {
		_, err := os.Lstat(candidate)
		if os.IsNotExist(err) {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
		candidate = filepath.Join(dir, fmt.Sprintf("%s_%d", name, n))
	}
}

func move(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil || !errors.Is(err, syscall.EXDEV) {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}
