package levels

import (
	"strings"

	"github.com/fatih/color"
)

// DefaultPalette cycles through six foreground colors by depth.
var DefaultPalette = []*color.Color{
	color.New(color.FgWhite),
	color.New(color.FgBlue),
	color.New(color.FgGreen),
	color.New(color.FgMagenta),
	color.New(color.FgYellow),
	color.New(color.FgCyan),
}

// Colorize renders s with each segment painted by its depth, cycling through
// palette. Literal spans are painted like any other level.
func Colorize(s string, segments []Segment, palette []*color.Color) string {
	if len(palette) == 0 {
		palette = DefaultPalette
	}
	var b strings.Builder
	for _, seg := range segments {
		b.WriteString(palette[seg.Depth%len(palette)].Sprint(seg.Text(s)))
	}
	return b.String()
}
