package extract

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

const wordNS = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

func (r *Reader) readDOCX(path string) (TextExtractionResult, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return TextExtractionResult{}, err
	}
	defer zr.Close()

	var doc *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			doc = f
			break
		}
	}
	if doc == nil {
		return TextExtractionResult{}, errors.New("word/document.xml not found")
	}

	rc, err := doc.Open()
	if err != nil {
		return TextExtractionResult{}, err
	}
	defer rc.Close()

	text, err := bodyParagraphs(rc)
	if err != nil {
		return TextExtractionResult{}, fmt.Errorf("parse document.xml: %w", err)
	}
	return TextExtractionResult{Text: text, Pages: 1, Method: MethodDOCX}, nil
}

// bodyParagraphs returns the text of each top-level body paragraph followed by "\n".
// Paragraphs inside tables are not included.
func bodyParagraphs(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)

	var (
		out    strings.Builder
		para   strings.Builder
		stack  []string
		inPara bool
		paraAt int
		inText bool
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			name := t.Name.Local
			if t.Name.Space != wordNS {
				name = ""
			}
			if name == "p" && !inPara && len(stack) > 0 && stack[len(stack)-1] == "body" {
				inPara = true
				paraAt = len(stack)
				para.Reset()
			}
			if inPara {
				switch name {
				case "t":
					inText = true
				case "tab":
					para.WriteByte('\t')
				case "br", "cr":
					para.WriteByte('\n')
				}
			}
			stack = append(stack, name)
		case xml.EndElement:
			if len(stack) == 0 {
				continue
			}
			stack = stack[:len(stack)-1]
			if t.Name.Space == wordNS && t.Name.Local == "t" {
				inText = false
			}
			if inPara && len(stack) == paraAt {
				out.WriteString(para.String())
				out.WriteByte('\n')
				inPara = false
			}
		case xml.CharData:
			if inPara && inText {
				para.Write(t)
			}
		}
	}
	return out.String(), nil
}
