package docx

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mfenderov/draftpress/internal/docx/docxtest"
)

func TestOpen_Paragraphs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Report.docx")
	docxtest.Write(t, path, "My Title", "Sentence one.", "", "Sentence two.")

	doc, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	paragraphs := doc.Paragraphs()
	want := []string{"My Title", "Sentence one.", "", "Sentence two."}
	if len(paragraphs) != len(want) {
		t.Fatalf("got %d paragraphs, want %d", len(paragraphs), len(want))
	}
	for i, p := range paragraphs {
		if p.Text() != want[i] {
			t.Errorf("paragraph[%d] = %q, want %q", i, p.Text(), want[i])
		}
	}
}

func TestOpen_RunsAndFormatting(t *testing.T) {
	body := `<w:p><w:pPr><w:pStyle w:val="Titre1"/><w:tabs><w:tab w:val="left" w:pos="720"/></w:tabs></w:pPr>` +
		`<w:r><w:t>Heading</w:t></w:r></w:p>` +
		`<w:p><w:r><w:rPr><w:b/></w:rPr><w:t xml:space="preserve">Bold </w:t></w:r>` +
		`<w:r><w:rPr><w:i/><w:b w:val="0"/></w:rPr><w:t>italic</w:t></w:r>` +
		`<w:r><w:tab/><w:t>tabbed</w:t><w:br/><w:t>next</w:t></w:r></w:p>`

	path := filepath.Join(t.TempDir(), "fmt.docx")
	docxtest.WriteXML(t, path, body)

	doc, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	ps := doc.Paragraphs()
	if len(ps) != 2 {
		t.Fatalf("got %d paragraphs, want 2", len(ps))
	}

	if ps[0].Style != "heading 1" {
		t.Errorf("Style = %q, want %q", ps[0].Style, "heading 1")
	}
	if ps[0].HeadingLevel() != 1 {
		t.Errorf("HeadingLevel() = %d, want 1", ps[0].HeadingLevel())
	}
	if ps[0].Text() != "Heading" {
		t.Errorf("Text() = %q, want %q (tab stops are not text)", ps[0].Text(), "Heading")
	}

	runs := ps[1].Runs
	if len(runs) != 3 {
		t.Fatalf("got %d runs, want 3", len(runs))
	}
	if !runs[0].Bold || runs[0].Italic {
		t.Errorf("run[0] = %+v, want bold only", runs[0])
	}
	if runs[1].Bold || !runs[1].Italic {
		t.Errorf("run[1] = %+v, want italic only", runs[1])
	}
	if runs[2].Text != "\ttabbed\nnext" {
		t.Errorf("run[2].Text = %q", runs[2].Text)
	}
}

func TestOpen_TextBoxesAreNotParagraphText(t *testing.T) {
	const (
		mcNS  = `xmlns:mc="http://schemas.openxmlformats.org/markup-compatibility/2006"`
		wpNS  = `xmlns:wp="http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing"`
		aNS   = `xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main"`
		wpsNS = `xmlns:wps="http://schemas.microsoft.com/office/word/2010/wordprocessingShape"`
		vNS   = `xmlns:v="urn:schemas-microsoft-com:vml"`
	)
	textBox := `<w:txbxContent><w:p><w:r><w:t>BOX</w:t></w:r></w:p></w:txbxContent>`
	drawing := `<w:drawing><wp:anchor ` + wpNS + `><a:graphic ` + aNS + `><a:graphicData>` +
		`<wps:wsp ` + wpsNS + `><wps:txbx>` + textBox + `</wps:txbx></wps:wsp>` +
		`</a:graphicData></a:graphic></wp:anchor></w:drawing>`

	tests := []struct {
		name string
		body string
	}{
		{
			name: "drawing inside a run",
			body: `<w:p><w:r><w:t>Hello world</w:t>` + drawing + `</w:r></w:p>`,
		},
		{
			name: "alternate content between runs",
			body: `<w:p><w:r><w:t xml:space="preserve">Hello </w:t></w:r>` +
				`<mc:AlternateContent ` + mcNS + `><mc:Choice Requires="wps"><w:r>` + drawing + `</w:r></mc:Choice>` +
				`<mc:Fallback><w:r><w:pict><v:shape ` + vNS + `><v:textbox>` + textBox + `</v:textbox></v:shape></w:pict></w:r></mc:Fallback>` +
				`</mc:AlternateContent>` +
				`<w:r><w:t>world</w:t></w:r></w:p>`,
		},
		{
			name: "VML picture inside a run",
			body: `<w:p><w:r><w:t>Hello world</w:t><w:pict><v:shape ` + vNS + `><v:textbox>` + textBox +
				`</v:textbox></v:shape></w:pict></w:r></w:p>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "box.docx")
			docxtest.WriteXML(t, path, tt.body+docxtest.Paragraph("Body"))

			doc, err := Open(path)
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}

			paragraphs := doc.Paragraphs()
			if len(paragraphs) != 2 {
				t.Fatalf("got %d paragraphs, want 2", len(paragraphs))
			}
			if got := paragraphs[0].Text(); got != "Hello world" {
				t.Errorf("paragraph[0] = %q, want %q", got, "Hello world")
			}
			if got := paragraphs[1].Text(); got != "Body" {
				t.Errorf("paragraph[1] = %q, want %q", got, "Body")
			}
		})
	}
}

func TestOpen_TablesAreNotBodyParagraphs(t *testing.T) {
	body := docxtest.Paragraph("Before") +
		`<w:tbl><w:tblPr/><w:tr><w:tc>` + docxtest.Paragraph("A1") + `</w:tc><w:tc>` + docxtest.Paragraph("B1") + `</w:tc></w:tr>` +
		`<w:tr><w:tc>` + docxtest.Paragraph("A2") + `</w:tc><w:tc>` + docxtest.Paragraph("B2") + `</w:tc></w:tr></w:tbl>` +
		docxtest.Paragraph("After")

	path := filepath.Join(t.TempDir(), "table.docx")
	docxtest.WriteXML(t, path, body)

	doc, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	ps := doc.Paragraphs()
	if len(ps) != 2 || ps[0].Text() != "Before" || ps[1].Text() != "After" {
		t.Errorf("Paragraphs() = %+v, want Before/After", ps)
	}

	if len(doc.Blocks) != 3 || doc.Blocks[1].Table == nil {
		t.Fatalf("expected table as second block, got %+v", doc.Blocks)
	}
	table := doc.Blocks[1].Table
	if len(table.Rows) != 2 || len(table.Rows[0]) != 2 {
		t.Fatalf("table shape = %d rows, want 2x2", len(table.Rows))
	}
	if got := table.Rows[1][1][0].Text(); got != "B2" {
		t.Errorf("cell[1][1] = %q, want B2", got)
	}
}

func TestOpen_Errors(t *testing.T) {
	tmp := t.TempDir()

	notZip := filepath.Join(tmp, "broken.docx")
	os.WriteFile(notZip, []byte("plain text"), 0o644)

	if _, err := Open(notZip); err == nil {
		t.Error("Open() expected error for non-zip file")
	}
	if _, err := Open(filepath.Join(tmp, "missing.docx")); err == nil {
		t.Error("Open() expected error for missing file")
	}
}

func TestHTML(t *testing.T) {
	body := `<w:p><w:pPr><w:pStyle w:val="Title"/></w:pPr><w:r><w:t>Doc &amp; Title</w:t></w:r></w:p>` +
		`<w:p><w:pPr><w:pStyle w:val="Titre2"/></w:pPr><w:r><w:t>Section</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t xml:space="preserve">Plain </w:t></w:r><w:r><w:rPr><w:b/></w:rPr><w:t>bold</w:t></w:r>` +
		`<w:r><w:rPr><w:u w:val="single"/></w:rPr><w:t>under</w:t></w:r></w:p>` +
		`<w:p/>` +
		`<w:p><w:pPr><w:pStyle w:val="Paragraphedeliste"/><w:numPr><w:ilvl w:val="0"/><w:numId w:val="1"/></w:numPr></w:pPr><w:r><w:t>one</w:t></w:r></w:p>` +
		`<w:p><w:pPr><w:numPr><w:ilvl w:val="0"/><w:numId w:val="1"/></w:numPr></w:pPr><w:r><w:t>two</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>line</w:t><w:br/><w:t>break</w:t></w:r></w:p>`

	path := filepath.Join(t.TempDir(), "rich.docx")
	docxtest.WriteXML(t, path, body)

	doc, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	got := doc.HTML()
	want := "<h1>Doc &amp; Title</h1>" +
		"<h2>Section</h2>" +
		"<p>Plain <strong>bold</strong><u>under</u></p>" +
		"<ul><li>one</li><li>two</li></ul>" +
		"<p>line<br>break</p>"
	if got != want {
		t.Errorf("HTML() =\n%s\nwant\n%s", got, want)
	}
}

func TestHTML_Table(t *testing.T) {
	body := `<w:tbl><w:tr><w:tc>` + docxtest.Paragraph("x") + `</w:tc></w:tr></w:tbl>`
	path := filepath.Join(t.TempDir(), "t.docx")
	docxtest.WriteXML(t, path, body)

	doc, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if got := doc.HTML(); !strings.Contains(got, "<table><tr><td><p>x</p></td></tr></table>") {
		t.Errorf("HTML() = %q", got)
	}
}

func TestHTML_EmptyDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.docx")
	docxtest.WriteXML(t, path, "")

	doc, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if got := doc.HTML(); got != "" {
		t.Errorf("HTML() = %q, want empty", got)
	}
}
