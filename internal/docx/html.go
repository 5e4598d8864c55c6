package docx

import (
	"html"
	"strconv"
	"strings"
)

// HTML renders the whole document as HTML, keeping headings, emphasis,
// lists, tables and line breaks. Empty paragraphs are dropped.
func (d *Document) HTML() string {
	var sb strings.Builder
	inList := false

	for _, b := range d.Blocks {
		if b.Paragraph != nil && b.Paragraph.List && b.Paragraph.HeadingLevel() == 0 {
			if strings.TrimSpace(b.Paragraph.Text()) == "" {
				continue
			}
			if !inList {
				sb.WriteString("<ul>")
				inList = true
			}
			sb.WriteString("<li>")
			writeRuns(&sb, b.Paragraph.Runs)
			sb.WriteString("</li>")
			continue
		}

		if inList {
			sb.WriteString("</ul>")
			inList = false
		}

		switch {
		case b.Paragraph != nil:
			writeParagraph(&sb, *b.Paragraph)
		case b.Table != nil:
			writeTable(&sb, *b.Table)
		}
	}

	if inList {
		sb.WriteString("</ul>")
	}
	return sb.String()
}

func writeParagraph(sb *strings.Builder, p Paragraph) {
	if strings.TrimSpace(p.Text()) == "" {
		return
	}
	tag := "p"
	if level := p.HeadingLevel(); level > 0 {
		tag = "h" + strconv.Itoa(level)
	}
	sb.WriteString("<" + tag + ">")
	writeRuns(sb, p.Runs)
	sb.WriteString("</" + tag + ">")
}

func writeTable(sb *strings.Builder, t Table) {
	sb.WriteString("<table>")
	for _, row := range t.Rows {
		sb.WriteString("<tr>")
		for _, cell := range row {
			sb.WriteString("<td>")
			for _, p := range cell {
				writeParagraph(sb, p)
			}
			sb.WriteString("</td>")
		}
		sb.WriteString("</tr>")
	}
	sb.WriteString("</table>")
}

// writeRuns merges adjacent runs with identical formatting before wrapping them.
func writeRuns(sb *strings.Builder, runs []Run) {
	var merged []Run
	for _, r := range runs {
		if r.Text == "" {
			continue
		}
		if n := len(merged); n > 0 && sameFormat(merged[n-1], r) {
			merged[n-1].Text += r.Text
			continue
		}
		merged = append(merged, r)
	}

	for _, r := range merged {
		text := html.EscapeString(r.Text)
		text = strings.ReplaceAll(text, "\n", "<br>")
		if r.Underline {
			text = "<u>" + text + "</u>"
		}
		if r.Italic {
			text = "<em>" + text + "</em>"
		}
		if r.Bold {
			text = "<strong>" + text + "</strong>"
		}
		sb.WriteString(text)
	}
}

func sameFormat(a, b Run) bool {
	return a.Bold == b.Bold && a.Italic == b.Italic && a.Underline == b.Underline
}
