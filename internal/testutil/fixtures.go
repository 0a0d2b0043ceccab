// Package testutil builds in-memory zip archives and Word documents for tests.
package testutil

import (
	"archive/zip"
	"bytes"
	"html"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const documentRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
	`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`

// Zip returns a zip archive holding files. Entries are written in name order.
func Zip(t testing.TB, files map[string][]byte) []byte {
	t.Helper()
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range names {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(files[name])
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// DOCXBody returns a .docx whose document body is the given raw WordprocessingML.
func DOCXBody(t testing.TB, body string) []byte {
	t.Helper()
	doc := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">` +
		`<w:body>` + body + `</w:body></w:document>`
	return Zip(t, map[string][]byte{
		"word/document.xml":            []byte(doc),
		"word/_rels/document.xml.rels": []byte(documentRels),
	})
}

// DOCX returns a .docx with one paragraph per line of text.
func DOCX(t testing.TB, text string) []byte {
	t.Helper()
	var body strings.Builder
	for _, line := range strings.Split(text, "\n") {
		body.WriteString(`<w:p><w:r><w:t xml:space="preserve">`)
		body.WriteString(html.EscapeString(line))
		body.WriteString(`</w:t></w:r></w:p>`)
	}
	return DOCXBody(t, body.String())
}
