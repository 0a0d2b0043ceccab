// Package decode turns resume documents into plain text.
package decode

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrUnsupported is returned for file types without a decoder.
var ErrUnsupported = errors.New("unsupported document type")

// Decoder extracts plain text from raw document bytes.
type Decoder interface {
	Decode(data []byte) (string, error)
}

// DecoderFunc adapts a function to Decoder.
type DecoderFunc func(data []byte) (string, error)

func (f DecoderFunc) Decode(data []byte) (string, error) { return f(data) }

// Registry selects a decoder by file extension.
type Registry struct {
	byExt map[string]Decoder
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byExt: map[string]Decoder{}}
}

// Default returns a registry with the PDF and DOCX decoders.
func Default() *Registry {
	r := NewRegistry()
	r.Register("pdf", PDF{})
	r.Register("docx", DOCX{})
	return r
}

// Register binds d to ext. ext may carry a leading dot and any case.
func (r *Registry) Register(ext string, d Decoder) {
	r.byExt[NormalizeExt(ext)] = d
}

// For returns the decoder for path's extension.
func (r *Registry) For(path string) (Decoder, bool) {
	d, ok := r.byExt[NormalizeExt(filepath.Ext(path))]
	return d, ok
}

// Supports reports whether path has a registered decoder.
func (r *Registry) Supports(path string) bool {
	_, ok := r.For(path)
	return ok
}

// Decode decodes data with the decoder registered for path. Panics raised by a
// decoder on malformed input are returned as errors.
func (r *Registry) Decode(path string, data []byte) (text string, err error) {
	d, ok := r.For(path)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupported, filepath.Ext(path))
	}
	defer func() {
		if p := recover(); p != nil {
			text, err = "", fmt.Errorf("decoder panic: %v", p)
		}
	}()
	return d.Decode(data)
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
