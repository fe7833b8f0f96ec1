package main

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
)

// ArchiveReceipts zips every merged receipt in dir into dir/name and returns the archived file names.
func ArchiveReceipts(dir, name string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, mergedReceiptPrefix+"*"))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", dir, err)
	}

	archivePath := filepath.Join(dir, name)
	tmp, err := os.CreateTemp(dir, ".receipts-*.zip")
	if err != nil {
		return nil, fmt.Errorf("failed to create archive: %w", err)
	}
	defer os.Remove(tmp.Name())

	zw := zip.NewWriter(tmp)
	var names []string
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil {
			tmp.Close()
			return nil, err
		}
		if !info.Mode().IsRegular() {
			continue
		}
		if err := addToZip(zw, path, info); err != nil {
			tmp.Close()
			return nil, err
		}
		names = append(names, filepath.Base(path))
	}

	if err := zw.Close(); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("failed to finish archive: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, err
	}
	if err := os.Rename(tmp.Name(), archivePath); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", archivePath, err)
	}

	return names, nil
}

func addToZip(zw *zip.Writer, path string, info os.FileInfo) error {
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = filepath.Base(path)
	header.Method = zip.Deflate

	w, err := zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("failed to add %s: %w", header.Name, err)
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("failed to add %s: %w", header.Name, err)
	}
	return nil
}
