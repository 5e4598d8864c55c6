// Package docxtest builds minimal .docx files for tests.
package docxtest

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"os"
	"strings"
	"testing"
)

const documentHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`

const documentFooter = `<w:sectPr/></w:body></w:document>`

const stylesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:style w:type="paragraph" w:styleId="Normal"><w:name w:val="Normal"/></w:style>
<w:style w:type="paragraph" w:styleId="Title"><w:name w:val="Title"/></w:style>
<w:style w:type="paragraph" w:styleId="Titre1"><w:name w:val="heading 1"/></w:style>
<w:style w:type="paragraph" w:styleId="Titre2"><w:name w:val="heading 2"/></w:style>
<w:style w:type="paragraph" w:styleId="Paragraphedeliste"><w:name w:val="List Paragraph"/></w:style>
</w:styles>`

// Paragraph returns the w:p XML for plain text.
func Paragraph(text string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(text))
	return `<w:p><w:r><w:t xml:space="preserve">` + buf.String() + `</w:t></w:r></w:p>`
}

// Bytes returns a .docx archive whose body is the given raw XML.
func Bytes(t testing.TB, body string) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	files := map[string]string{
		"[Content_Types].xml": `<?xml version="1.0" encoding="UTF-8"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"/>`,
		"word/document.xml":   documentHeader + body + documentFooter,
		"word/styles.xml":     stylesXML,
	}
	for name, content := range files {
		f, err := w.Create(name)
		if err != nil {
			t.Fatalf("docxtest: create %s: %v", name, err)
		}
		if _, err := f.Write([]byte(content)); err != nil {
			t.Fatalf("docxtest: write %s: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("docxtest: close: %v", err)
	}
	return buf.Bytes()
}

// FromParagraphs returns a .docx archive with one plain paragraph per entry.
func FromParagraphs(t testing.TB, paragraphs ...string) []byte {
	t.Helper()
	var body strings.Builder
	for _, p := range paragraphs {
		body.WriteString(Paragraph(p))
	}
	return Bytes(t, body.String())
}

// Write stores a .docx with the given paragraphs at path.
func Write(t testing.TB, path string, paragraphs ...string) {
	t.Helper()
	if err := os.WriteFile(path, FromParagraphs(t, paragraphs...), 0o644); err != nil {
		t.Fatalf("docxtest: write %s: %v", path, err)
	}
}

// WriteXML stores a .docx with the given raw body XML at path.
func WriteXML(t testing.TB, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, Bytes(t, body), 0o644); err != nil {
		t.Fatalf("docxtest: write %s: %v", path, err)
	}
}
