package layout

import (
	"fmt"
	"strings"
	"time"
)

// Class names shared by the stylesheet and the renderer
const (
	ClassHeader       = "hero"
	ClassGrid         = "hero-grid"
	ClassTitleWrapper = "hero-title-wrapper"
	ClassTitle        = "hero-title"
	ClassLine         = "hero-line"
	ClassTag          = "hero-tag"
	ClassLinks        = "hero-links"
	ClassLink         = "hero-link"
	ClassHoverLink    = "hero-hover-link"
	ClassTooltip      = "hero-tooltip"
	ClassImage        = "hero-image"
	ClassIcon         = "hero-icon"
)

// linkPadding is the icon inset per platform, in rem, below and above the
// touch breakpoint
var linkPadding = []struct {
	class string
	small string
	large string
}{
	{ClassLink + "--github", "0.5625rem", "0.5rem"},
	{ClassLink + "--linkedin", "0.6875rem", "0.625rem"},
	{ClassHoverLink, "0.125rem", "0"},
}

func rem(px int) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.4f", float64(px)/16), "0"), ".") + "rem"
}

// Stylesheet returns the Hero CSS for the breakpoint table. The tooltip
// fades over the given transition duration.
func Stylesheet(transition time.Duration) string {
	var b strings.Builder

	fmt.Fprintf(&b, ".%s{min-height:100%%;}\n", ClassHeader)
	fmt.Fprintf(&b, ".%s{display:grid;grid-template-columns:repeat(%d,minmax(0,1fr));column-gap:1.5rem;padding:%s;}\n",
		ClassGrid, Rules[0].Columns, Rules[0].Padding)
	fmt.Fprintf(&b, ".%s{grid-column:%s;}\n", ClassTitleWrapper, Rules[0].Title.CSS())
	fmt.Fprintf(&b, ".%s{margin:0;font-size:clamp(1.5rem,3.75vw,4.5rem);}\n", ClassTitle)
	fmt.Fprintf(&b, ".%s{display:block;white-space:nowrap;}\n", ClassLine)
	fmt.Fprintf(&b, ".%s{color:#888;}\n", ClassTag)
	fmt.Fprintf(&b, ".%s{position:relative;top:-0.125rem;left:-0.625rem;display:flex;align-items:center;margin:1.75rem 0;}\n", ClassLinks)
	fmt.Fprintf(&b, ".%s,.%s{display:inline-block;flex:0 0 auto;width:%s;height:%s;box-sizing:border-box;}\n",
		ClassLink, ClassHoverLink, rem(TouchTargetSmall), rem(TouchTargetSmall))
	fmt.Fprintf(&b, ".%s{width:100%%;height:100%%;display:block;}\n", ClassIcon)
	for _, p := range linkPadding {
		fmt.Fprintf(&b, ".%s{padding:%s;}\n", p.class, p.small)
	}
	fmt.Fprintf(&b, ".%s{position:absolute;left:100%%;white-space:nowrap;pointer-events:none;transition:opacity %dms ease-in-out;}\n",
		ClassTooltip, transition.Milliseconds())
	fmt.Fprintf(&b, ".%s[data-state=exited],.%s[data-state=exiting]{opacity:0;}\n", ClassTooltip, ClassTooltip)
	fmt.Fprintf(&b, ".%s[data-state=entering],.%s[data-state=entered]{opacity:1;}\n", ClassTooltip, ClassTooltip)
	fmt.Fprintf(&b, ".%s[data-state=exited]{visibility:hidden;}\n", ClassTooltip)
	fmt.Fprintf(&b, ".%s{grid-column:%s;width:100%%;height:auto;}\n", ClassImage, Rules[0].Image.CSS())

	fmt.Fprintf(&b, "@media (min-width:%dpx){", BreakpointTouch)
	fmt.Fprintf(&b, ".%s{top:-0.25rem;}", ClassLinks)
	fmt.Fprintf(&b, ".%s{width:%s;height:%s;margin-right:1rem;}", ClassLink, rem(TouchTargetLarge), rem(TouchTargetLarge))
	fmt.Fprintf(&b, ".%s{width:%s;height:%s;margin-right:0.25rem;}", ClassHoverLink, rem(TouchTargetLarge), rem(TouchTargetLarge))
	for _, p := range linkPadding {
		fmt.Fprintf(&b, ".%s{padding:%s;}", p.class, p.large)
	}
	b.WriteString("}\n")

	for _, r := range Rules[1:] {
		fmt.Fprintf(&b, "@media (min-width:%dpx){", r.MinWidth)
		fmt.Fprintf(&b, ".%s{grid-template-columns:repeat(%d,minmax(0,1fr));padding:%s;}", ClassGrid, r.Columns, r.Padding)
		fmt.Fprintf(&b, ".%s{position:relative;top:0.25rem;display:flex;flex-direction:column;justify-content:center;grid-column:%s;}",
			ClassTitleWrapper, r.Title.CSS())
		fmt.Fprintf(&b, ".%s{margin-bottom:0;}", ClassLinks)
		fmt.Fprintf(&b, ".%s{grid-column:%s;", ClassImage, r.Image.CSS())
		if r.ImageRow > 0 {
			fmt.Fprintf(&b, "grid-row:%d;", r.ImageRow)
		}
		b.WriteString("}}\n")
	}

	return b.String()
}
