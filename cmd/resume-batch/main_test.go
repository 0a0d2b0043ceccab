package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muhammadolammi/resumeextract/internal/export"
	"github.com/muhammadolammi/resumeextract/internal/testutil"
)

func TestRunArchive(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "resumes.zip")
	require.NoError(t, os.WriteFile(archivePath, testutil.Zip(t, map[string][]byte{
		"alice.docx": testutil.DOCX(t, "Alice\nalice@example.com\nSkills: Go, SQL"),
		"bad.pdf":    []byte("not a pdf"),
	}), 0o644))
	out := filepath.Join(dir, "out", export.Filename)
	xlsx := filepath.Join(dir, "out", export.XLSXFilename)

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"--archive", archivePath, "--out", out, "--xlsx", xlsx}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	assert.Contains(t, stderr.String(), "Error processing bad.pdf")
	assert.Contains(t, stdout.String(), "Records extracted: 1")

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	records, err := export.ReadCSV(f)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, []string{"Go", "SQL"}, records[0].Skills)

	_, err = os.Stat(xlsx)
	assert.NoError(t, err)
}

func TestRunDirEmpty(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hello"), 0o644))
	out := filepath.Join(t.TempDir(), export.Filename)

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"--dir", dir, "--out", out}, &stdout, &stderr)
	require.Equal(t, 0, code)
	assert.Contains(t, stderr.String(), "No valid resumes found.")

	_, err := os.Stat(out)
	assert.True(t, os.IsNotExist(err))
}

func TestRunArchiveError(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "resumes.zip")
	require.NoError(t, os.WriteFile(archivePath, []byte("garbage"), 0o644))

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"--archive", archivePath, "--out", filepath.Join(dir, "x.csv")}, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "archive error")
}

func TestRunFlagValidation(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 2, run(context.Background(), nil, &stdout, &stderr))
	assert.Equal(t, 2, run(context.Background(), []string{"--archive", "a.zip", "--dir", "d"}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "exactly one of --archive or --dir")
}
