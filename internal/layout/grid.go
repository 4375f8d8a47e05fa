// Package layout holds the responsive grid policy of the Hero section.
//
// The breakpoint table is the single source for both Resolve, which answers
// where things go at a given viewport width, and Stylesheet, which emits the
// equivalent CSS media queries.
package layout

import "fmt"

// Breakpoints in CSS pixels
const (
	BreakpointTouch  = 600
	BreakpointWide   = 1000
	BreakpointWidest = 1200
)

// Touch target sizes in CSS pixels
const (
	TouchTargetSmall = 44
	TouchTargetLarge = 56
)

// Span is a grid-column placement.
// Start/Span renders as "1 / span 5", Span/End as "span 3 / -1" and
// Start/End as "1 / -1".
type Span struct {
	Start int
	Span  int
	End   int
}

// CSS returns the grid-column value
func (s Span) CSS() string {
	switch {
	case s.Start > 0 && s.Span > 0:
		return fmt.Sprintf("%d / span %d", s.Start, s.Span)
	case s.Span > 0 && s.End != 0:
		return fmt.Sprintf("span %d / %d", s.Span, s.End)
	case s.Start > 0 && s.End != 0:
		return fmt.Sprintf("%d / %d", s.Start, s.End)
	default:
		return "auto"
	}
}

// Columns resolves the span to 1-based first and last columns on a grid
// with the given column count.
func (s Span) Columns(columns int) (first, last int) {
	end := s.End
	if end < 0 {
		// -1 is the line after the last column
		end = columns + 2 + end
	}

	switch {
	case s.Start > 0 && s.Span > 0:
		first, last = s.Start, s.Start+s.Span-1
	case s.Span > 0 && end > 0:
		first, last = end-s.Span, end-1
	case s.Start > 0 && end > 0:
		first, last = s.Start, end-1
	default:
		return 0, 0
	}

	if first < 1 {
		first = 1
	}
	if last > columns {
		last = columns
	}
	return first, last
}

// Rule is the placement in effect from MinWidth upwards
type Rule struct {
	MinWidth int
	Columns  int
	// Stacked means title and image flow in one column, title first
	Stacked  bool
	Padding  string
	Title    Span
	Image    Span
	ImageRow int
}

// Rules is the breakpoint table in ascending MinWidth order
var Rules = []Rule{
	{
		MinWidth: 0,
		Columns:  4,
		Stacked:  true,
		Padding:  "12vh 0",
		Title:    Span{Start: 1, End: -1},
		Image:    Span{Start: 1, Span: 3},
	},
	{
		MinWidth: BreakpointWide,
		Columns:  8,
		Padding:  "25vh 0",
		Title:    Span{Start: 1, Span: 5},
		Image:    Span{Span: 3, End: -1},
		ImageRow: 1,
	},
	{
		MinWidth: BreakpointWidest,
		Columns:  12,
		Padding:  "25vh 0",
		Title:    Span{Start: 1, Span: 7},
		Image:    Span{Span: 5, End: -1},
		ImageRow: 1,
	},
}

// Placement is the resolved layout at one viewport width
type Placement struct {
	Width       int
	Columns     int
	Stacked     bool
	Title       Span
	Image       Span
	ImageRow    int
	TouchTarget int
}

// Resolve returns the placement in effect at the given viewport width
func Resolve(width int) Placement {
	rule := Rules[0]
	for _, r := range Rules {
		if width >= r.MinWidth {
			rule = r
		}
	}

	return Placement{
		Width:       width,
		Columns:     rule.Columns,
		Stacked:     rule.Stacked,
		Title:       rule.Title,
		Image:       rule.Image,
		ImageRow:    rule.ImageRow,
		TouchTarget: TouchTarget(width),
	}
}

// TouchTarget returns the link icon size at the given viewport width
func TouchTarget(width int) int {
	if width >= BreakpointTouch {
		return TouchTargetLarge
	}
	return TouchTargetSmall
}

// TitleColumns returns the first and last column of the title
func (p Placement) TitleColumns() (int, int) {
	return p.Title.Columns(p.Columns)
}

// ImageColumns returns the first and last column of the image
func (p Placement) ImageColumns() (int, int) {
	return p.Image.Columns(p.Columns)
}
