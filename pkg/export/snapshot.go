package export

import (
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"

	"git.sr.ht/~sbinet/gg"
	svg "github.com/ajstarks/svgo"
	"github.com/mattn/go-runewidth"
	"golang.org/x/image/font/basicfont"
)

// SnapshotOptions controls SVG/PNG export.
type SnapshotOptions struct {
	Path       string // Output path; format inferred from extension when Format empty
	Format     Format // FormatSVG or FormatPNG
	Title      string // Optional title rendered in the summary block
	Preset     string // Layout preset: "compact" (default) or "roomy"
	TotalItems int    // Item count of the whole tree, for the summary
}

// SaveSnapshot renders rows as an indented box diagram with elbow connectors
// from each parent to its children.
func SaveSnapshot(rows []Row, opts SnapshotOptions) error {
	if len(rows) == 0 {
		return fmt.Errorf("no rows to export")
	}
	if opts.Path == "" {
		return fmt.Errorf("output path is required")
	}
	if opts.Format == "" {
		f, err := FormatFor(opts.Path)
		if err != nil {
			return err
		}
		opts.Format = f
	}
	if opts.Format != FormatSVG && opts.Format != FormatPNG {
		return fmt.Errorf("unsupported snapshot format %q (want svg or png)", opts.Format)
	}

	if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}

	layout := buildLayout(rows, opts)
	if opts.Format == FormatPNG {
		return renderPNG(opts.Path, layout)
	}

	file, err := os.Create(opts.Path)
	if err != nil {
		return err
	}
	if err := renderSVG(file, layout); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// WriteSVG renders rows as SVG to w.
func WriteSVG(w io.Writer, rows []Row, opts SnapshotOptions) error {
	return renderSVG(w, buildLayout(rows, opts))
}

// --- layout computation ----------------------------------------------------

type layoutNode struct {
	Row
	X, Y  float64
	NodeW float64
	NodeH float64
}

type layoutResult struct {
	Nodes   []layoutNode
	Width   int
	Height  int
	Header  float64
	Summary summaryInfo
}

type summaryInfo struct {
	Title    string
	Visible  int
	Total    int
	MaxDepth int
}

func buildLayout(rows []Row, opts SnapshotOptions) layoutResult {
	const (
		nodeWCompact   = 220.0
		nodeHCompact   = 26.0
		nodeWRoomy     = 260.0
		nodeHRoomy     = 34.0
		colStepCompact = 28.0
		rowGapCompact  = 8.0
		colStepRoomy   = 36.0
		rowGapRoomy    = 14.0
		padding        = 36.0
		headerHeight   = 100.0
	)

	nodeW, nodeH, colStep, rowGap := nodeWCompact, nodeHCompact, colStepCompact, rowGapCompact
	if strings.EqualFold(opts.Preset, "roomy") {
		nodeW, nodeH, colStep, rowGap = nodeWRoomy, nodeHRoomy, colStepRoomy, rowGapRoomy
	}

	nodes := make([]layoutNode, len(rows))
	maxDepth := 0
	for i, r := range rows {
		maxDepth = max(maxDepth, r.Depth)
		nodes[i] = layoutNode{
			Row:   r,
			X:     padding + float64(r.Depth)*colStep,
			Y:     padding + headerHeight + float64(i)*(nodeH+rowGap),
			NodeW: nodeW,
			NodeH: nodeH,
		}
	}

	width := max(int(padding*2+float64(maxDepth)*colStep+nodeW), 640)
	height := max(int(padding*2+headerHeight+float64(len(rows))*(nodeH+rowGap)), 240)

	title := opts.Title
	if strings.TrimSpace(title) == "" {
		title = "Tree Snapshot"
	}
	total := opts.TotalItems
	if total < len(rows) {
		total = len(rows)
	}

	return layoutResult{
		Nodes:  nodes,
		Width:  width,
		Height: height,
		Header: headerHeight,
		Summary: summaryInfo{
			Title:    title,
			Visible:  len(rows),
			Total:    total,
			MaxDepth: maxDepth,
		},
	}
}

// elbow returns the connector from parent p down to child c: a vertical
// segment from under the parent's box, then a horizontal one into the child.
func elbow(p, c layoutNode) (x1, y1, x2, y2, x3, y3 float64) {
	x1 = p.X + 10
	y1 = p.Y + p.NodeH
	x2, y2 = x1, c.Y+c.NodeH/2
	x3, y3 = c.X, y2
	return
}

// --- rendering -------------------------------------------------------------

var (
	colorOpen     = color.RGBA{0xc8, 0xe6, 0xc9, 0xff}
	colorClosed   = color.RGBA{0xff, 0xf3, 0xe0, 0xff}
	colorLeaf     = color.RGBA{0xcf, 0xd8, 0xdc, 0xff}
	colorStroke   = color.RGBA{0x22, 0x22, 0x22, 0xff}
	colorEdge     = color.RGBA{0x6b, 0x80, 0xbf, 0xff}
	colorText     = color.RGBA{0x11, 0x11, 0x11, 0xff}
	colorSubtle   = color.RGBA{0x66, 0x66, 0x66, 0xff}
	colorBackdrop = color.RGBA{0xf9, 0xfa, 0xfb, 0xff}
	colorHeaderBG = color.RGBA{0xf3, 0xf4, 0xf6, 0xff}
	colorLegendBG = color.RGBA{0xee, 0xee, 0xee, 0xff}
)

func nodeColor(r Row) color.RGBA {
	switch {
	case !r.HasChildren:
		return colorLeaf
	case r.Open:
		return colorOpen
	default:
		return colorClosed
	}
}

func nodeText(n layoutNode) string {
	// basicfont glyphs are 7px wide
	return runewidth.Truncate(Indicator(n.Row)+" "+n.Label, int(n.NodeW-16)/7, "…")
}

func renderPNG(path string, layout layoutResult) error {
	dc := gg.NewContext(layout.Width, layout.Height)
	dc.SetColor(colorBackdrop)
	dc.Clear()

	// header
	dc.SetColor(colorHeaderBG)
	dc.DrawRoundedRectangle(16, 16, float64(layout.Width)-32, layout.Header-24, 10)
	dc.Fill()

	dc.SetFontFace(basicfont.Face7x13)

	drawSummaryBlock(dc, layout)
	drawLegend(dc, layout)

	// connectors
	dc.SetColor(colorEdge)
	dc.SetLineWidth(1.5)
	for _, n := range layout.Nodes {
		if n.Parent < 0 {
			continue
		}
		x1, y1, x2, y2, x3, y3 := elbow(layout.Nodes[n.Parent], n)
		dc.DrawLine(x1, y1, x2, y2)
		dc.DrawLine(x2, y2, x3, y3)
		dc.Stroke()
	}

	for _, n := range layout.Nodes {
		drawNode(dc, n)
	}

	return dc.SavePNG(path)
}

func renderSVG(w io.Writer, layout layoutResult) error {
	canvas := svg.New(w)
	canvas.Start(layout.Width, layout.Height)
	canvas.Rect(0, 0, layout.Width, layout.Height, fmt.Sprintf("fill:%s", css(colorBackdrop)))
	canvas.Roundrect(16, 16, layout.Width-32, int(layout.Header-24), 10, 10, fmt.Sprintf("fill:%s", css(colorHeaderBG)))

	drawSummaryBlockSVG(canvas, layout)
	drawLegendSVG(canvas, layout)

	edgeStyle := fmt.Sprintf("fill:none;stroke:%s;stroke-width:1.5", css(colorEdge))
	for _, n := range layout.Nodes {
		if n.Parent < 0 {
			continue
		}
		x1, y1, x2, y2, x3, y3 := elbow(layout.Nodes[n.Parent], n)
		canvas.Polyline([]int{int(x1), int(x2), int(x3)}, []int{int(y1), int(y2), int(y3)}, edgeStyle)
	}

	for _, n := range layout.Nodes {
		x, y := int(n.X), int(n.Y)
		canvas.Roundrect(x, y, int(n.NodeW), int(n.NodeH), 6, 6,
			fmt.Sprintf("fill:%s;stroke:%s;stroke-width:1", css(nodeColor(n.Row)), css(colorStroke)))
		canvas.Text(x+8, y+int(n.NodeH/2)+4, nodeText(n),
			fmt.Sprintf("fill:%s;font-size:12px;font-family:monospace", css(colorText)))
	}

	canvas.End()
	return nil
}

func drawNode(dc *gg.Context, n layoutNode) {
	dc.SetColor(nodeColor(n.Row))
	dc.DrawRoundedRectangle(n.X, n.Y, n.NodeW, n.NodeH, 6)
	dc.Fill()
	dc.SetColor(colorStroke)
	dc.SetLineWidth(1)
	dc.DrawRoundedRectangle(n.X, n.Y, n.NodeW, n.NodeH, 6)
	dc.Stroke()

	dc.SetColor(colorText)
	dc.DrawStringAnchored(nodeText(n), n.X+8, n.Y+n.NodeH/2, 0, 0.5)
}

func summaryLines(layout layoutResult) []string {
	s := layout.Summary
	return []string{
		fmt.Sprintf("visible: %d of %d items", s.Visible, s.Total),
		fmt.Sprintf("max depth: %d", s.MaxDepth),
	}
}

func drawSummaryBlock(dc *gg.Context, layout layoutResult) {
	dc.SetColor(colorText)
	dc.DrawStringAnchored(layout.Summary.Title, 32, 44, 0, 0.5)
	dc.SetColor(colorSubtle)
	for i, line := range summaryLines(layout) {
		dc.DrawStringAnchored(line, 32, 64+float64(i)*20, 0, 0.5)
	}
}

var legendRows = []struct {
	c     color.RGBA
	label string
}{
	{colorOpen, "Open"},
	{colorClosed, "Collapsed"},
	{colorLeaf, "Leaf"},
}

func drawLegend(dc *gg.Context, layout layoutResult) {
	boxW, boxH := 140.0, 76.0
	x := float64(layout.Width) - boxW - 20
	y := 20.0
	dc.SetColor(colorLegendBG)
	dc.DrawRoundedRectangle(x, y, boxW, boxH, 10)
	dc.Fill()
	dc.SetColor(colorStroke)
	dc.DrawRoundedRectangle(x, y, boxW, boxH, 10)
	dc.Stroke()

	for i, row := range legendRows {
		ry := y + 20 + float64(i)*18
		dc.SetColor(row.c)
		dc.DrawRoundedRectangle(x+12, ry-7, 14, 14, 3)
		dc.Fill()
		dc.SetColor(colorStroke)
		dc.DrawRoundedRectangle(x+12, ry-7, 14, 14, 3)
		dc.Stroke()
		dc.SetColor(colorSubtle)
		dc.DrawStringAnchored(row.label, x+32, ry, 0, 0.5)
	}
}

func drawSummaryBlockSVG(canvas *svg.SVG, layout layoutResult) {
	canvas.Text(32, 44, layout.Summary.Title, fmt.Sprintf("fill:%s;font-size:16px;font-family:monospace;font-weight:bold", css(colorText)))
	for i, line := range summaryLines(layout) {
		canvas.Text(32, 64+i*20, line, fmt.Sprintf("fill:%s;font-size:13px;font-family:monospace", css(colorSubtle)))
	}
}

func drawLegendSVG(canvas *svg.SVG, layout layoutResult) {
	boxW, boxH := 140, 76
	x := layout.Width - boxW - 20
	y := 20
	canvas.Roundrect(x, y, boxW, boxH, 10, 10, fmt.Sprintf("fill:%s;stroke:%s;stroke-width:1", css(colorLegendBG), css(colorStroke)))
	for i, row := range legendRows {
		ry := y + 20 + i*18
		canvas.Roundrect(x+12, ry-7, 14, 14, 3, 3, fmt.Sprintf("fill:%s;stroke:%s;stroke-width:1", css(row.c), css(colorStroke)))
		canvas.Text(x+32, ry+4, row.label, fmt.Sprintf("fill:%s;font-size:12px;font-family:monospace", css(colorSubtle)))
	}
}

func css(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
