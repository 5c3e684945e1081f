package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// BoxStyle controls the chrome of a chart panel.
type BoxStyle struct {
	Title string
	Badge string // right-aligned in the top border, e.g. "loading" or "2.5x"

	Focused     bool
	BorderColor string
	FocusColor  string
	TitleColor  string
}

// RenderBox draws content inside a border of exactly width x height cells.
// The title sits at the left of the top border and the badge at the right;
// the badge is dropped first when space runs out. Content lines are fitted
// to the interior and missing lines are blank. Returns "" when the box has
// no interior.
func RenderBox(content string, width, height int, style BoxStyle) string {
	if width < 2 || height < 2 {
		return ""
	}
	b := lipgloss.RoundedBorder()
	color := style.BorderColor
	if style.Focused {
		b = lipgloss.ThickBorder()
		if style.FocusColor != "" {
			color = style.FocusColor
		}
	}
	edge := lipgloss.NewStyle()
	if color != "" {
		edge = edge.Foreground(lipgloss.Color(color))
	}
	titleStyle := lipgloss.NewStyle().Bold(true)
	if style.TitleColor != "" {
		titleStyle = titleStyle.Foreground(lipgloss.Color(style.TitleColor))
	}

	inner := width - 2
	lines := make([]string, 0, height)
	lines = append(lines, edge.Render(b.TopLeft)+topBar(b.Top, inner, style, edge, titleStyle)+edge.Render(b.TopRight))

	var body []string
	if content != "" {
		body = strings.Split(content, "\n")
	}
	left, right := edge.Render(b.Left), edge.Render(b.Right)
	for i := 0; i < height-2; i++ {
		line := ""
		if i < len(body) {
			line = body[i]
		}
		lines = append(lines, left+Fit(line, inner)+right)
	}

	lines = append(lines, edge.Render(b.BottomLeft+strings.Repeat(b.Bottom, inner)+b.BottomRight))
	return strings.Join(lines, "\n")
}

// topBar fills the top border between the corners, embedding the title and
// badge with one border cell of margin each side.
func topBar(h string, width int, style BoxStyle, edge, titleStyle lipgloss.Style) string {
	title, badge := style.Title, style.Badge
	used := func() int {
		n := 0
		if title != "" {
			n += VisibleLen(title) + 3 // lead cell plus spaces
		}
		if badge != "" {
			n += VisibleLen(badge) + 3
		}
		return n
	}
	if used() > width {
		badge = ""
	}
	if title != "" && used() > width {
		title = TruncateWithTail(title, max(width-3, 0), "…")
		if width-3 < 1 {
			title = ""
		}
	}

	var sb strings.Builder
	fill := width
	if title != "" {
		sb.WriteString(edge.Render(h) + " " + titleStyle.Render(title) + " ")
		fill -= VisibleLen(title) + 3
	}
	badgeW := 0
	if badge != "" {
		badgeW = VisibleLen(badge) + 3
	}
	sb.WriteString(edge.Render(strings.Repeat(h, max(fill-badgeW, 0))))
	if badge != "" {
		sb.WriteString(" " + badge + " " + edge.Render(h))
	}
	return sb.String()
}
