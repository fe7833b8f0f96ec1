package main

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArchiveReceipts(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"full_receipt_2.pdf", "full_receipt_1.pdf", "full_receipt_10.pdf"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("pdf "+name), 0644))
	}
	// not merged receipts
	require.NoError(t, os.WriteFile(filepath.Join(dir, "orders.csv"), []byte("x"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "receipts"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "receipts", "1.pdf"), []byte("x"), 0644))

	names, err := ArchiveReceipts(dir, "receipts.zip")
	require.NoError(t, err)
	assert.Equal(t, []string{"full_receipt_1.pdf", "full_receipt_10.pdf", "full_receipt_2.pdf"}, names)

	zr, err := zip.OpenReader(filepath.Join(dir, "receipts.zip"))
	require.NoError(t, err)
	defer zr.Close()

	require.Len(t, zr.File, 3)
	for _, f := range zr.File {
		assert.Equal(t, zip.Deflate, f.Method)

		rc, err := f.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		assert.Equal(t, "pdf "+f.Name, string(data))
	}
}

func TestArchiveReceipts_Overwrites(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "full_receipt_1.pdf"), []byte("one"), 0644))

	_, err := ArchiveReceipts(dir, "receipts.zip")
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "full_receipt_2.pdf"), []byte("two"), 0644))
	names, err := ArchiveReceipts(dir, "receipts.zip")
	require.NoError(t, err)
	assert.Equal(t, []string{"full_receipt_1.pdf", "full_receipt_2.pdf"}, names)
	assert.Equal(t, []string{"full_receipt_1.pdf", "full_receipt_2.pdf"}, zipEntries(t, filepath.Join(dir, "receipts.zip")))

	// no temp archives left next to the real one
	matches, err := filepath.Glob(filepath.Join(dir, ".receipts-*"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestArchiveReceipts_Empty(t *testing.T) {
	dir := t.TempDir()

	names, err := ArchiveReceipts(dir, "receipts.zip")
	require.NoError(t, err)
	assert.Empty(t, names)
	assert.Empty(t, zipEntries(t, filepath.Join(dir, "receipts.zip")))
}

func TestArchiveReceipts_MissingDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "missing")

	names, err := ArchiveReceipts(dir, "receipts.zip")
	require.NoError(t, err)
	assert.Empty(t, names)
	assert.Empty(t, zipEntries(t, filepath.Join(dir, "receipts.zip")))
}

func TestArchiveReceipts_UnwritableDir(t *testing.T) {
	parent := t.TempDir()
	blocker := filepath.Join(parent, "output")
	require.NoError(t, os.WriteFile(blocker, []byte("not a directory"), 0644))

	_, err := ArchiveReceipts(blocker, "receipts.zip")
	require.Error(t, err)
	assert.Equal(t, "other", errorKind(err))
}
