// Package gz reads and writes the single-member gzip files feeds are shipped in.
package gz

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"epg-combiner/logger"
)

const Ext = ".gz"

// Compress writes path+".gz" next to path, replacing any earlier artifact.
func Compress(path string) (string, error) {
	in, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer in.Close()

	target := path + Ext
	out, err := os.Create(target)
	if err != nil {
		return "", err
	}

	zw := gzip.NewWriter(out)
	zw.Name = filepath.Base(path)
	if _, err := io.Copy(zw, in); err != nil {
		out.Close()
		return "", fmt.Errorf("compress %s: %w", path, err)
	}
	if err := zw.Close(); err != nil {
		out.Close()
		return "", fmt.Errorf("compress %s: %w", path, err)
	}
	if err := out.Close(); err != nil {
		return "", err
	}

	logger.L().Info("gz.compressed", "src", path, "dst", target)
	return target, nil
}

// Decompress inflates src into dst.
func Decompress(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	zr, err := gzip.NewReader(in)
	if err != nil {
		return fmt.Errorf("decompress %s: %w", src, err)
	}
	defer zr.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, zr); err != nil {
		out.Close()
		return fmt.Errorf("decompress %s: %w", src, err)
	}
	if err := out.Close(); err != nil {
		return err
	}

	logger.L().Info("gz.decompressed", "src", src, "dst", dst)
	return nil
}
