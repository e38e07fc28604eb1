package export

import (
	"bytes"
	"context"
	"strings"

	"github.com/go-pdf/fpdf"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

type blockKind int

const (
	blockParagraph blockKind = iota
	blockHeading
	blockListItem
	blockRow
	blockPre
)

type block struct {
	kind  blockKind
	level int
	text  string
}

// FPDFRenderer is a pure-Go renderer for environments without Chrome. It keeps the
// reading order of headings, paragraphs, list items, table rows and preformatted text
// and ignores CSS.
type FPDFRenderer struct {
	fontFamily string
	fontSize   float64
}

// NewFPDFRenderer creates a renderer using the built-in Helvetica font.
func NewFPDFRenderer() *FPDFRenderer {
	return &FPDFRenderer{fontFamily: "Helvetica", fontSize: 11}
}

// Name implements Renderer.
func (r *FPDFRenderer) Name() string { return "fpdf" }

// Render implements Renderer.
func (r *FPDFRenderer) Render(ctx context.Context, source string) ([]byte, error) {
	blocks, err := layoutBlocks(source)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	lineHeight := r.fontSize * 0.5
	for _, b := range blocks {
		switch b.kind {
		case blockHeading:
			size := r.fontSize * headingScale(b.level)
			pdf.SetFont(r.fontFamily, "B", size)
			pdf.MultiCell(0, size*0.5, tr(b.text), "", "L", false)
			pdf.Ln(2)
		case blockListItem:
			pdf.SetFont(r.fontFamily, "", r.fontSize)
			pdf.SetX(pdf.GetX() + 5)
			pdf.MultiCell(0, lineHeight, tr("- "+b.text), "", "L", false)
		case blockRow:
			pdf.SetFont(r.fontFamily, "", r.fontSize)
			pdf.MultiCell(0, lineHeight, tr(b.text), "B", "L", false)
		case blockPre:
			pdf.SetFont("Courier", "", r.fontSize-1)
			pdf.MultiCell(0, lineHeight, tr(b.text), "", "L", false)
			pdf.Ln(2)
		default:
			pdf.SetFont(r.fontFamily, "", r.fontSize)
			pdf.MultiCell(0, lineHeight, tr(b.text), "", "L", false)
			pdf.Ln(2)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func headingScale(level int) float64 {
	switch level {
	case 1:
		return 2.0
	case 2:
		return 1.6
	case 3:
		return 1.3
	default:
		return 1.1
	}
}

// layoutBlocks flattens an HTML document into printable blocks in document order.
func layoutBlocks(source string) ([]block, error) {
	doc, err := html.Parse(strings.NewReader(source))
	if err != nil {
		return nil, err
	}

	var blocks []block
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if text := collapse(n.Data); text != "" {
				blocks = append(blocks, block{kind: blockParagraph, text: text})
			}
			return
		}
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Head, atom.Script, atom.Style, atom.Title:
				return
			case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
				if text := collapse(extractText(n)); text != "" {
					blocks = append(blocks, block{kind: blockHeading, level: int(n.Data[1] - '0'), text: text})
				}
				return
			case atom.P:
				if text := collapse(extractText(n)); text != "" {
					blocks = append(blocks, block{kind: blockParagraph, text: text})
				}
				return
			case atom.Li:
				if text := collapse(extractText(n)); text != "" {
					blocks = append(blocks, block{kind: blockListItem, text: text})
				}
				return
			case atom.Tr:
				var cells []string
				for c := n.FirstChild; c != nil; c = c.NextSibling {
					if c.Type == html.ElementNode && (c.DataAtom == atom.Td || c.DataAtom == atom.Th) {
						cells = append(cells, collapse(extractText(c)))
					}
				}
				if len(cells) > 0 {
					blocks = append(blocks, block{kind: blockRow, text: strings.Join(cells, " | ")})
				}
				return
			case atom.Pre:
				if text := strings.Trim(extractText(n), "\n"); strings.TrimSpace(text) != "" {
					blocks = append(blocks, block{kind: blockPre, text: text})
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return blocks, nil
}

func extractText(n *html.Node) string {
	var sb strings.Builder
	var f func(*html.Node)
	f = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		if n.Type == html.ElementNode && n.DataAtom == atom.Br {
			sb.WriteString("\n")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			f(c)
		}
	}
	f(n)
	return sb.String()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
