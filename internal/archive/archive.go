// Package archive unpacks an uploaded zip into a transient workspace.
package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrNotArchive is returned when the input is not a readable zip archive.
	ErrNotArchive = errors.New("not a zip archive")
	// ErrUnsafePath is returned for entries that would land outside the workspace.
	ErrUnsafePath = errors.New("unsafe entry path")
	// ErrTooLarge is returned when the archive exceeds a configured limit.
	ErrTooLarge = errors.New("archive exceeds limits")
)

// Options bounds what Unpack accepts. Zero values mean no limit.
type Options struct {
	MaxEntries    int
	MaxEntryBytes int64
	SkipHidden    bool
}

// Workspace is a temp directory holding one unpacked archive.
type Workspace struct {
	root       string
	skipHidden bool
}

// Unpack writes every file in the zip held by data into a new temp directory.
// Extraction is all-or-nothing: on any error the directory is removed.
func Unpack(data []byte, opts Options) (*Workspace, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if errors.Is(err, zip.ErrInsecurePath) {
		return nil, fmt.Errorf("%w: %v", ErrUnsafePath, err)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotArchive, err)
	}
	if opts.MaxEntries > 0 && len(zr.File) > opts.MaxEntries {
		return nil, fmt.Errorf("%w: %d entries, limit is %d", ErrTooLarge, len(zr.File), opts.MaxEntries)
	}

	root, err := os.MkdirTemp("", "resumes-*")
	if err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	ws := &Workspace{root: root, skipHidden: opts.SkipHidden}

	for _, f := range zr.File {
		if err := ws.extract(f, opts.MaxEntryBytes); err != nil {
			_ = ws.Close()
			return nil, err
		}
	}
	return ws, nil
}

func (w *Workspace) extract(f *zip.File, maxBytes int64) error {
	dst, err := w.target(f.Name)
	if err != nil {
		return err
	}
	if f.FileInfo().IsDir() {
		return os.MkdirAll(dst, 0o755)
	}
	if !f.Mode().IsRegular() {
		// symlinks and devices are not unpacked
		return nil
	}
	if maxBytes > 0 && f.UncompressedSize64 > uint64(maxBytes) {
		return fmt.Errorf("%w: %s is %d bytes, limit is %d", ErrTooLarge, f.Name, f.UncompressedSize64, maxBytes)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", ErrNotArchive, f.Name, err)
	}
	defer rc.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	var src io.Reader = rc
	if maxBytes > 0 {
		src = io.LimitReader(rc, maxBytes+1)
	}
	n, err := io.Copy(out, src)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("%w: read %s: %v", ErrNotArchive, f.Name, err)
	}
	if maxBytes > 0 && n > maxBytes {
		return fmt.Errorf("%w: %s exceeds %d bytes", ErrTooLarge, f.Name, maxBytes)
	}
	return nil
}

// target resolves an entry name inside the workspace, rejecting zip-slip paths.
func (w *Workspace) target(name string) (string, error) {
	name = strings.ReplaceAll(name, `\`, "/")
	if filepath.IsAbs(name) || strings.HasPrefix(name, "/") {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, name)
	}
	dst := filepath.Join(w.root, filepath.FromSlash(name))
	rel, err := filepath.Rel(w.root, dst)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, name)
	}
	return dst, nil
}

// Root is the workspace directory.
func (w *Workspace) Root() string { return w.root }

// Walk visits every regular file depth-first in lexical order. Paths passed to
// fn are absolute. Hidden files, hidden directories and __MACOSX are skipped
// when the workspace was unpacked with SkipHidden.
func (w *Workspace) Walk(fn func(path string) error) error {
	return WalkDir(w.root, w.skipHidden, fn)
}

// Close removes the workspace and everything in it.
func (w *Workspace) Close() error {
	return os.RemoveAll(w.root)
}

// WalkDir is Walk for an arbitrary directory.
func WalkDir(root string, skipHidden bool, fn func(path string) error) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if path != root && skipHidden && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		return fn(path)
	})
}

// IsHidden reports whether the base name of path marks it as hidden or as
// macOS archive metadata.
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") || base == "__MACOSX"
}
