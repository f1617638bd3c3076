package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/aretw0/genui/pkg/domain"
	"github.com/aretw0/genui/pkg/render"
)

const (
	minWidth  = 16
	bentoCols = 4
)

var palette = map[string]lipgloss.Color{
	"BLUE":    lipgloss.Color("#60a5fa"),
	"GREEN":   lipgloss.Color("#4ade80"),
	"ORANGE":  lipgloss.Color("#fb923c"),
	"RED":     lipgloss.Color("#f87171"),
	"GRAY":    lipgloss.Color("#9ca3af"),
	"PRIMARY": lipgloss.Color("#818cf8"),
	"ACCENT":  lipgloss.Color("#e879f9"),
	"DANGER":  lipgloss.Color("#f87171"),
	"SUCCESS": lipgloss.Color("#4ade80"),
	"MUTED":   lipgloss.Color("#9ca3af"),
	"INFO":    lipgloss.Color("#60a5fa"),
	"WARNING": lipgloss.Color("#facc15"),
	"ERROR":   lipgloss.Color("#f87171"),
}

var gradients = map[string]lipgloss.Color{
	"BLUE_PURPLE": lipgloss.Color("#a78bfa"),
	"ORANGE_RED":  lipgloss.Color("#fb7185"),
	"GREEN_TEAL":  lipgloss.Color("#2dd4bf"),
}

var (
	selectedColor = lipgloss.Color("#f472b6")
	warnColor     = lipgloss.Color("#facc15")
	faint         = lipgloss.NewStyle().Faint(true)
	bold          = lipgloss.NewStyle().Bold(true)
)

func colorOf(name string, fallback lipgloss.Color) lipgloss.Color {
	if c, ok := palette[strings.ToUpper(name)]; ok {
		return c
	}
	return fallback
}

// Painter draws rendered element trees for a terminal.
type Painter struct {
	width    int
	markdown func(string) (string, error)
}

// PainterOption configures a Painter.
type PainterOption func(*Painter)

// WithWidth sets the drawing width in cells.
func WithWidth(w int) PainterOption {
	return func(p *Painter) { p.width = w }
}

// WithMarkdown sets the renderer used for CODE text nodes.
func WithMarkdown(fn func(string) (string, error)) PainterOption {
	return func(p *Painter) { p.markdown = fn }
}

// NewPainter creates a Painter. The width defaults to the terminal width.
func NewPainter(opts ...PainterOption) *Painter {
	p := &Painter{}
	for _, opt := range opts {
		opt(p)
	}
	if p.width <= 0 {
		p.width = TerminalWidth()
	}
	return p
}

// Paint draws the tree rooted at el. A nil tree paints nothing.
func (p *Painter) Paint(el *render.Element) string {
	if el == nil {
		return ""
	}
	return p.paint(el, p.width)
}

func (p *Painter) paint(el *render.Element, width int) string {
	if el == nil {
		return ""
	}
	width = max(width, minWidth)
	out := p.paintStatus(el, width)
	if el.Selected {
		out = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(selectedColor).
			Render(out)
	}
	return out
}

func (p *Painter) paintStatus(el *render.Element, width int) string {
	switch el.Status {
	case render.StatusDiagnostic:
		box := lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(warnColor).Width(width - 2)
		return box.Render(fmt.Sprintf("⚠ Unknown component %q\n%s", el.Key, faint.Render(el.Sample)))
	case render.StatusRepairing:
		return faint.Render(fmt.Sprintf("⟳ Repairing %s…", orUnknown(el.Component)))
	case render.StatusFailed:
		return lipgloss.NewStyle().Foreground(palette["RED"]).Render(fmt.Sprintf("✖ %s failed: %s", orUnknown(el.Component), el.Message))
	}
	return p.paintComponent(el, width)
}

func orUnknown(c domain.ComponentType) string {
	if c == "" {
		return "component"
	}
	return string(c)
}

func (p *Painter) paintComponent(el *render.Element, width int) string {
	switch props := el.Props.(type) {
	case *domain.ContainerProps:
		return p.layout(el.Children, props.Layout, gap(props.Gap), width)
	case *domain.HeroProps:
		return p.hero(el, props, width)
	case *domain.TextProps:
		return p.text(props, width)
	case *domain.ButtonProps:
		return button(props)
	case *domain.CardProps:
		return p.boxed(props.Title, p.layout(el.Children, "COL", 0, width-4), lipgloss.RoundedBorder(), "", width)
	case *domain.TableProps:
		return p.table(el, props, width)
	case *domain.StatProps:
		return stat(props)
	case *domain.ProgressProps:
		return progressBar(props, width)
	case *domain.AlertProps:
		return alert(props, width)
	case *domain.AvatarProps:
		return avatar(props)
	case *domain.ChartProps:
		return chart(props, width)
	case *domain.AccordionProps:
		return p.accordion(el, props, width)
	case *domain.ImageProps:
		return image(props, width)
	case *domain.MapProps:
		return mapView(props, width)
	case *domain.InputProps:
		return input(props, width)
	case *domain.BadgeProps:
		return badge(props.Label, props.Color)
	case *domain.SeparatorProps:
		return faint.Render(strings.Repeat("─", width))
	case *domain.BentoContainerProps:
		return p.bento(el.Children, width)
	case *domain.BentoCardProps:
		return p.boxed(props.Title, p.layout(el.Children, "COL", 0, width-4), lipgloss.RoundedBorder(), "", width)
	case *domain.KanbanProps:
		return kanban(props, width)
	}
	return faint.Render(fmt.Sprintf("<%s>", el.Component))
}

func gap(g string) int {
	switch strings.ToUpper(g) {
	case "GAP_SM":
		return 1
	case "GAP_LG":
		return 3
	case "GAP_XL":
		return 4
	}
	return 2
}

// layout stacks children vertically, splits the width between them for
// ROW, or places two per line for GRID.
func (p *Painter) layout(children []*render.Element, layout string, gap, width int) string {
	var kids []*render.Element
	for _, c := range children {
		if c != nil {
			kids = append(kids, c)
		}
	}
	if len(kids) == 0 {
		return ""
	}

	switch strings.ToUpper(layout) {
	case "ROW":
		return p.row(kids, gap, width)
	case "GRID":
		var lines []string
		for i := 0; i < len(kids); i += 2 {
			lines = append(lines, p.row(kids[i:min(i+2, len(kids))], gap, width))
		}
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	parts := make([]string, 0, len(kids))
	for _, c := range kids {
		parts = append(parts, p.paint(c, width))
	}
	sep := ""
	if gap > 2 {
		sep = "\n"
	}
	return strings.Join(parts, "\n"+sep)
}

func (p *Painter) row(kids []*render.Element, gap, width int) string {
	each := (width - gap*(len(kids)-1)) / len(kids)
	parts := make([]string, 0, len(kids)*2)
	for i, c := range kids {
		if i > 0 {
			parts = append(parts, strings.Repeat(" ", gap))
		}
		parts = append(parts, p.paint(c, each))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (p *Painter) boxed(title, body string, border lipgloss.Border, color lipgloss.Color, width int) string {
	style := lipgloss.NewStyle().Border(border).Padding(0, 1).Width(width - 2)
	if color != "" {
		style = style.BorderForeground(color)
	}
	if title != "" {
		body = strings.TrimRight(bold.Render(title)+"\n"+body, "\n")
	}
	return style.Render(body)
}

func (p *Painter) hero(el *render.Element, props *domain.HeroProps, width int) string {
	color, ok := gradients[strings.ToUpper(props.Gradient)]
	if !ok {
		color = gradients["BLUE_PURPLE"]
	}
	align := lipgloss.Center
	if strings.EqualFold(props.Align, "LEFT") {
		align = lipgloss.Left
	}
	lines := []string{
		lipgloss.NewStyle().Bold(true).Foreground(color).Render(strings.ToUpper(props.Title)),
	}
	if props.Subtitle != "" {
		lines = append(lines, faint.Width(width-4).Align(align).Render(props.Subtitle))
	}
	if kids := p.layout(el.Children, "ROW", 2, width-4); kids != "" {
		lines = append(lines, "", kids)
	}
	body := lipgloss.JoinVertical(align, lines...)
	return lipgloss.NewStyle().
		Border(lipgloss.ThickBorder()).
		BorderForeground(color).
		Padding(1, 1).
		Width(width - 2).
		Align(align).
		Render(body)
}

func (p *Painter) text(props *domain.TextProps, width int) string {
	style := lipgloss.NewStyle().Width(width)
	if c, ok := palette[strings.ToUpper(props.Color)]; ok {
		style = style.Foreground(c)
	}
	switch strings.ToUpper(props.Variant) {
	case "H1":
		return style.Bold(true).Underline(true).Render(strings.ToUpper(props.Content))
	case "H2":
		return style.Bold(true).Underline(true).Render(props.Content)
	case "H3":
		return style.Bold(true).Render(props.Content)
	case "CAPTION":
		return style.Faint(true).Render(props.Content)
	case "CODE":
		if p.markdown != nil {
			if out, err := p.markdown("```\n" + props.Content + "\n```"); err == nil {
				return strings.Trim(out, "\n")
			}
		}
		return style.Render(props.Content)
	}
	if strings.EqualFold(props.Font, "SERIF") || strings.EqualFold(props.Font, "CURSIVE") {
		style = style.Italic(true)
	}
	return style.Render(props.Content)
}

func button(props *domain.ButtonProps) string {
	color := palette["PRIMARY"]
	border := lipgloss.RoundedBorder()
	switch strings.ToUpper(props.Variant) {
	case "DANGER":
		color = palette["RED"]
	case "GHOST", "SECONDARY", "OUTLINE", "SOFT":
		color = palette["GRAY"]
	case "GLOW", "GRADIENT":
		color = palette["ACCENT"]
		border = lipgloss.ThickBorder()
	}
	label := props.Label
	if props.Icon != "" {
		label = "◆ " + label
	}
	return lipgloss.NewStyle().Border(border).BorderForeground(color).Foreground(color).Padding(0, 1).Render(label)
}

func (p *Painter) table(el *render.Element, props *domain.TableProps, width int) string {
	rows := make([][]string, 0, len(props.Rows))
	for i, row := range props.Rows {
		cells := make([]string, 0, len(row))
		for j, c := range row {
			cells = append(cells, p.cell(el, c, i, j))
		}
		for len(cells) < len(props.Headers) {
			cells = append(cells, "")
		}
		rows = append(rows, cells)
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(faint).
		Headers(props.Headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return bold.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
	out := t.String()
	if lipgloss.Width(out) > width {
		out = t.Width(width).String()
	}
	return out
}

func (p *Painter) cell(el *render.Element, c domain.Cell, i, j int) string {
	switch c.Kind {
	case domain.CellText:
		return c.Text
	case domain.CellNumber:
		return formatNumber(c.Number)
	case domain.CellNode, domain.CellUnknown:
		if els := el.Slot(fmt.Sprintf("rows.%d.%d", i, j)); len(els) > 0 {
			return p.paint(els[0], minWidth)
		}
	}
	return ""
}

func formatNumber(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%g", f)
}

func stat(props *domain.StatProps) string {
	lines := []string{faint.Render(props.Label), bold.Render(props.Value)}
	if props.Trend != "" {
		arrow, color := "•", palette["GRAY"]
		switch strings.ToUpper(props.TrendDirection) {
		case "UP":
			arrow, color = "▲", palette["GREEN"]
		case "DOWN":
			arrow, color = "▼", palette["RED"]
		}
		lines = append(lines, lipgloss.NewStyle().Foreground(color).Render(arrow+" "+props.Trend))
	}
	return lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1).Render(strings.Join(lines, "\n"))
}

func progressBar(props *domain.ProgressProps, width int) string {
	label := props.Label
	pct := fmt.Sprintf(" %3.0f%%", props.Value)
	barWidth := width - lipgloss.Width(pct)
	if label != "" {
		barWidth -= lipgloss.Width(label) + 1
		label += " "
	}
	barWidth = max(barWidth, 4)
	filled := int(math.Round(props.Value / 100 * float64(barWidth)))
	filled = min(max(filled, 0), barWidth)
	bar := lipgloss.NewStyle().Foreground(colorOf(props.Color, palette["BLUE"])).Render(strings.Repeat("█", filled)) +
		faint.Render(strings.Repeat("░", barWidth-filled))
	return label + bar + pct
}

func alert(props *domain.AlertProps, width int) string {
	color := colorOf(props.Variant, palette["INFO"])
	body := bold.Foreground(color).Render(props.Title)
	if props.Description != "" {
		body += "\n" + props.Description
	}
	return lipgloss.NewStyle().
		Border(lipgloss.ThickBorder(), false, false, false, true).
		BorderForeground(color).
		PaddingLeft(1).
		Width(width - 1).
		Render(body)
}

func avatar(props *domain.AvatarProps) string {
	initials := props.Initials
	if initials == "" {
		initials = "?"
	}
	out := lipgloss.NewStyle().Bold(true).Background(palette["PRIMARY"]).Padding(0, 1).Render(initials)
	switch strings.ToUpper(props.Status) {
	case "ONLINE":
		out += lipgloss.NewStyle().Foreground(palette["GREEN"]).Render(" ●")
	case "BUSY":
		out += lipgloss.NewStyle().Foreground(palette["RED"]).Render(" ●")
	case "OFFLINE":
		out += faint.Render(" ○")
	}
	return out
}

// chart draws every chart type as horizontal bars scaled to the largest
// value.
func chart(props *domain.ChartProps, width int) string {
	var lines []string
	if props.Title != "" {
		lines = append(lines, bold.Render(props.Title))
	}
	if len(props.Data) == 0 {
		return strings.Join(append(lines, faint.Render("(no data)")), "\n")
	}

	labelWidth, peak := 0, 0.0
	for _, d := range props.Data {
		labelWidth = max(labelWidth, lipgloss.Width(d.Name))
		peak = math.Max(peak, math.Abs(d.Value))
	}
	barWidth := max(width-labelWidth-12, 4)
	color := palette["PRIMARY"]
	if props.Color != "" {
		color = lipgloss.Color(props.Color)
	}
	bar := lipgloss.NewStyle().Foreground(color)
	for _, d := range props.Data {
		n := 0
		if peak > 0 {
			n = int(math.Round(math.Abs(d.Value) / peak * float64(barWidth)))
		}
		lines = append(lines, fmt.Sprintf("%-*s %s %s", labelWidth, d.Name, bar.Render(strings.Repeat("▇", n)), formatNumber(d.Value)))
	}
	return strings.Join(lines, "\n")
}

func (p *Painter) accordion(el *render.Element, props *domain.AccordionProps, width int) string {
	var sections []string
	for i, item := range props.Items {
		head := bold.Render("▾ " + item.Title)
		body := p.layout(el.Slot(fmt.Sprintf("items.%d.content", i)), "COL", 0, width-2)
		if body != "" {
			head += "\n" + lipgloss.NewStyle().PaddingLeft(2).Render(body)
		}
		sections = append(sections, head)
	}
	sep := "\n"
	if strings.EqualFold(props.Variant, "SEPARATED") {
		sep = "\n" + faint.Render(strings.Repeat("─", width)) + "\n"
	}
	return strings.Join(sections, sep)
}

func image(props *domain.ImageProps, width int) string {
	label := props.Alt
	if label == "" {
		label = "image"
	}
	lines := []string{"▣ " + label, faint.Render(props.Src)}
	if props.Caption != "" {
		lines = append(lines, lipgloss.NewStyle().Italic(true).Render(props.Caption))
	}
	return lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(palette["GRAY"]).Width(width - 2).Render(strings.Join(lines, "\n"))
}

func mapView(props *domain.MapProps, width int) string {
	lines := []string{bold.Render("⌖ " + props.Label)}
	for _, m := range props.Markers {
		lines = append(lines, fmt.Sprintf("  📍 %s %s", m.Title, faint.Render(fmt.Sprintf("(%.4f, %.4f)", m.Lat, m.Lng))))
	}
	if len(props.Markers) == 0 {
		lines = append(lines, faint.Render("  (no markers)"))
	}
	return lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Width(width - 2).Render(strings.Join(lines, "\n"))
}

func input(props *domain.InputProps, width int) string {
	value := props.Value
	shown := value
	switch {
	case value == "":
		shown = faint.Render(props.Placeholder)
	case strings.EqualFold(props.InputType, "password"):
		shown = strings.Repeat("•", len([]rune(value)))
	}
	field := lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Width(max(width-2, minWidth)).Render(shown)
	if props.Label == "" {
		return field
	}
	return props.Label + "\n" + field
}

func badge(label, color string) string {
	return lipgloss.NewStyle().
		Background(colorOf(color, palette["BLUE"])).
		Foreground(lipgloss.Color("#111827")).
		Padding(0, 1).
		Render(label)
}

// bento packs cards into rows of four columns by colSpan.
func (p *Painter) bento(children []*render.Element, width int) string {
	colWidth := width / bentoCols
	var rows []string
	var line []string
	used := 0
	flush := func() {
		if len(line) > 0 {
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, line...))
		}
		line, used = nil, 0
	}
	for _, c := range children {
		if c == nil {
			continue
		}
		span := 1
		if bp, ok := c.Props.(*domain.BentoCardProps); ok && c.Status == render.StatusOK {
			span = min(max(bp.ColSpan, 1), bentoCols)
		}
		if used+span > bentoCols {
			flush()
		}
		line = append(line, p.paint(c, colWidth*span))
		used += span
	}
	flush()
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func kanban(props *domain.KanbanProps, width int) string {
	if len(props.Columns) == 0 {
		return ""
	}
	colWidth := max(width/len(props.Columns), minWidth)
	cols := make([]string, 0, len(props.Columns))
	for _, col := range props.Columns {
		color := colorOf(col.Color, palette["GRAY"])
		lines := []string{lipgloss.NewStyle().Bold(true).Foreground(color).Render(col.Title)}
		for _, it := range col.Items {
			line := "• " + it.Content
			if it.Tag != "" {
				line += " " + badge(it.Tag, col.Color)
			}
			lines = append(lines, line)
		}
		cols = append(cols, lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(color).
			Width(colWidth-2).
			Render(strings.Join(lines, "\n")))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cols...)
}
