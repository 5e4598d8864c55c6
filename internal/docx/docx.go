// Package docx reads Word (.docx) documents: archive/zip -> word/document.xml.
package docx

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// Document is the ordered body of a .docx file.
type Document struct {
	Blocks []Block
}

// Block is either a paragraph or a table.
type Block struct {
	Paragraph *Paragraph
	Table     *Table
}

// Paragraph is one w:p element.
type Paragraph struct {
	Style string // Resolved style name, e.g. "heading 1"
	List  bool   // Paragraph carries numbering properties
	Runs  []Run
}

// Run is a span of text sharing the same formatting.
type Run struct {
	Text      string
	Bold      bool
	Italic    bool
	Underline bool
}

// Table is one w:tbl element; each cell holds its paragraphs.
type Table struct {
	Rows [][][]Paragraph
}

// Text returns the paragraph text with tabs and line breaks preserved.
func (p Paragraph) Text() string {
	var sb strings.Builder
	for _, r := range p.Runs {
		sb.WriteString(r.Text)
	}
	return sb.String()
}

var headingStyle = regexp.MustCompile(`^(?:heading|titre)\s*([1-6])$`)

// HeadingLevel returns 1-6 for title and heading styles, 0 otherwise.
func (p Paragraph) HeadingLevel() int {
	style := strings.ToLower(strings.TrimSpace(p.Style))
	if style == "title" || style == "titre" {
		return 1
	}
	if m := headingStyle.FindStringSubmatch(style); m != nil {
		level, _ := strconv.Atoi(m[1])
		return level
	}
	return 0
}

// Paragraphs returns the body-level paragraphs in document order.
// Paragraphs inside tables are not included.
func (d *Document) Paragraphs() []Paragraph {
	var out []Paragraph
	for _, b := range d.Blocks {
		if b.Paragraph != nil {
			out = append(out, *b.Paragraph)
		}
	}
	return out
}

// Open reads and parses the .docx file at path.
func Open(path string) (*Document, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer r.Close()

	var body, styles *zip.File
	for _, f := range r.File {
		switch f.Name {
		case "word/document.xml":
			body = f
		case "word/styles.xml":
			styles = f
		}
	}
	if body == nil {
		return nil, fmt.Errorf("open %s: word/document.xml not found", path)
	}

	styleNames := map[string]string{}
	if styles != nil {
		if styleNames, err = readStyles(styles); err != nil {
			return nil, fmt.Errorf("read styles: %w", err)
		}
	}

	rc, err := body.Open()
	if err != nil {
		return nil, fmt.Errorf("open document.xml: %w", err)
	}
	defer rc.Close()

	doc, err := parse(rc)
	if err != nil {
		return nil, fmt.Errorf("parse document.xml: %w", err)
	}

	for _, b := range doc.Blocks {
		if b.Paragraph != nil {
			resolveStyle(b.Paragraph, styleNames)
		}
	}
	return doc, nil
}

func resolveStyle(p *Paragraph, names map[string]string) {
	if name, ok := names[p.Style]; ok {
		p.Style = name
	}
}

type stylesXML struct {
	Styles []struct {
		ID   string `xml:"styleId,attr"`
		Name struct {
			Val string `xml:"val,attr"`
		} `xml:"name"`
	} `xml:"style"`
}

func readStyles(f *zip.File) (map[string]string, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var sx stylesXML
	if err := xml.NewDecoder(rc).Decode(&sx); err != nil {
		return nil, err
	}

	names := make(map[string]string, len(sx.Styles))
	for _, s := range sx.Styles {
		if s.ID != "" && s.Name.Val != "" {
			names[s.ID] = s.Name.Val
		}
	}
	return names, nil
}

// parse walks document.xml and collects paragraphs and tables in order.
func parse(r io.Reader) (*Document, error) {
	dec := xml.NewDecoder(r)
	doc := &Document{}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return doc, nil
		}
		if err != nil {
			return nil, err
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch start.Name.Local {
		case "p":
			p, err := parseParagraph(dec)
			if err != nil {
				return nil, err
			}
			doc.Blocks = append(doc.Blocks, Block{Paragraph: &p})
		case "tbl":
			t, err := parseTable(dec)
			if err != nil {
				return nil, err
			}
			doc.Blocks = append(doc.Blocks, Block{Table: &t})
		}
	}
}

// embedded elements carry their own paragraphs (text boxes, shapes, VML).
// Their text does not belong to the enclosing paragraph.
var embedded = map[string]bool{
	"AlternateContent": true,
	"drawing":          true,
	"pict":             true,
	"txbxContent":      true,
	"object":           true,
}

// parseParagraph consumes tokens up to and including the closing w:p.
// Only the paragraph's own runs are collected.
func parseParagraph(dec *xml.Decoder) (Paragraph, error) {
	var p Paragraph
	var run *Run
	var inPPr, inRPr, inText bool
	depth := 0

	for {
		tok, err := dec.Token()
		if err != nil {
			return p, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if embedded[t.Name.Local] {
				if err := dec.Skip(); err != nil {
					return p, err
				}
				continue
			}
			depth++
			switch t.Name.Local {
			case "pPr":
				inPPr = true
			case "pStyle":
				if inPPr {
					p.Style = attr(t, "val")
				}
			case "numPr":
				if inPPr {
					p.List = true
				}
			case "r":
				run = &Run{}
			case "rPr":
				if run != nil {
					inRPr = true
				}
			case "b":
				if inRPr {
					run.Bold = enabled(t)
				}
			case "i":
				if inRPr {
					run.Italic = enabled(t)
				}
			case "u":
				if inRPr {
					run.Underline = enabled(t)
				}
			case "t":
				if run != nil {
					inText = true
				}
			case "tab":
				if run != nil && !inRPr {
					run.Text += "\t"
				}
			case "br", "cr":
				if run != nil {
					run.Text += "\n"
				}
			}
		case xml.EndElement:
			if depth == 0 {
				return p, nil
			}
			depth--
			switch t.Name.Local {
			case "pPr":
				inPPr = false
			case "rPr":
				inRPr = false
			case "t":
				inText = false
			case "r":
				if run != nil {
					p.Runs = append(p.Runs, *run)
					run = nil
				}
			}
		case xml.CharData:
			if inText && run != nil {
				run.Text += string(t)
			}
		}
	}
}

// parseTable consumes tokens up to and including the closing w:tbl.
// Nested tables are flattened into the enclosing cell.
func parseTable(dec *xml.Decoder) (Table, error) {
	var t Table
	depth := 0

	for {
		tok, err := dec.Token()
		if err != nil {
			return t, err
		}

		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "p":
				p, err := parseParagraph(dec)
				if err != nil {
					return t, err
				}
				t.appendParagraph(p)
				continue
			case "tbl":
				nested, err := parseTable(dec)
				if err != nil {
					return t, err
				}
				for _, row := range nested.Rows {
					for _, cell := range row {
						for _, p := range cell {
							t.appendParagraph(p)
						}
					}
				}
				continue
			case "tr":
				t.Rows = append(t.Rows, nil)
			case "tc":
				if len(t.Rows) > 0 {
					last := len(t.Rows) - 1
					t.Rows[last] = append(t.Rows[last], nil)
				}
			}
			depth++
		case xml.EndElement:
			if depth == 0 {
				return t, nil
			}
			depth--
		}
	}
}

func (t *Table) appendParagraph(p Paragraph) {
	if len(t.Rows) == 0 {
		t.Rows = append(t.Rows, nil)
	}
	row := len(t.Rows) - 1
	if len(t.Rows[row]) == 0 {
		t.Rows[row] = append(t.Rows[row], nil)
	}
	cell := len(t.Rows[row]) - 1
	t.Rows[row][cell] = append(t.Rows[row][cell], p)
}

func attr(el xml.StartElement, local string) string {
	for _, a := range el.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// enabled reports whether a toggle property such as w:b is on.
func enabled(el xml.StartElement) bool {
	switch strings.ToLower(attr(el, "val")) {
	case "0", "false", "off", "none":
		return false
	}
	return true
}
