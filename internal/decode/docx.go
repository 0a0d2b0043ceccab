package decode

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/nguyenthenguyen/docx"
)

const wordNS = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

// DOCX decodes Word documents into one line per body paragraph. Paragraphs
// inside tables are not included.
type DOCX struct{}

func (DOCX) Decode(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to parse docx: %w", err)
	}
	defer doc.Close()

	paragraphs, err := bodyParagraphs(doc.Editable().GetContent())
	if err != nil {
		return "", fmt.Errorf("failed to parse docx body: %w", err)
	}
	return strings.Join(paragraphs, "\n"), nil
}

// bodyParagraphs walks word/document.xml and collects the run text of each
// top-level w:p element. w:tab becomes a tab and w:br / w:cr a newline.
func bodyParagraphs(documentXML string) ([]string, error) {
	dec := xml.NewDecoder(strings.NewReader(documentXML))

	var (
		paragraphs []string
		current    strings.Builder
		inText     bool
		pDepth     int
		tblDepth   int
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if !isWord(t.Name) {
				continue
			}
			switch t.Name.Local {
			case "tbl":
				tblDepth++
			case "p":
				pDepth++
				if pDepth == 1 {
					current.Reset()
				}
			case "t":
				inText = true
			case "tab":
				if collecting(pDepth, tblDepth) {
					current.WriteByte('\t')
				}
			case "br", "cr":
				if collecting(pDepth, tblDepth) {
					current.WriteByte('\n')
				}
			}
		case xml.EndElement:
			if !isWord(t.Name) {
				continue
			}
			switch t.Name.Local {
			case "tbl":
				tblDepth--
			case "p":
				if pDepth == 1 && tblDepth == 0 {
					paragraphs = append(paragraphs, current.String())
				}
				pDepth--
			case "t":
				inText = false
			}
		case xml.CharData:
			if inText && collecting(pDepth, tblDepth) {
				current.Write(t)
			}
		}
	}
	return paragraphs, nil
}

func collecting(pDepth, tblDepth int) bool {
	return pDepth == 1 && tblDepth == 0
}

func isWord(n xml.Name) bool {
	return n.Space == wordNS || n.Space == "w" || n.Space == ""
}
