// Package render composes the Hero section as HTML with gomponents.
//
// Components are pure functions of their props. Asset lookup, session
// bookkeeping and caching live in the service layer.
package render

import (
	"bytes"
	"fmt"
	"net/url"

	g "maragu.dev/gomponents"
	h "maragu.dev/gomponents/html"

	"heropage/internal/domain"
	"heropage/internal/layout"
)

// TooltipID links the hover affordance to the tooltip it describes
const TooltipID = "hero-tooltip"

// Props are the inputs of the Hero component
type Props struct {
	Content  domain.Content
	Portrait *domain.ImageAsset
	Tooltip  domain.TooltipState
	// Session is the mounted instance id; empty renders a static Hero
	Session string
}

// MountPath is where the page mounts a new session
const MountPath = "/api/hero"

// PointerPath is where the page posts pointer events for a session
func PointerPath(session string) string {
	return "/api/hero/" + url.PathEscape(session) + "/pointer"
}

// EventsPath is the SSE stream of a session
func EventsPath(session string) string {
	return "/events?session=" + url.QueryEscape(session)
}

// Hero renders the header section
func Hero(p Props) g.Node {
	return h.Header(
		h.Class(layout.ClassHeader),
		h.Data("mount-url", MountPath),
		g.If(p.Session != "", g.Group([]g.Node{
			h.Data("session", p.Session),
			h.Data("pointer-url", PointerPath(p.Session)),
			h.Data("events-url", EventsPath(p.Session)),
		})),
		h.Div(
			h.Class(layout.ClassGrid),
			h.Div(
				h.Class(layout.ClassTitleWrapper),
				Title(p.Content.Title),
				Links(p.Content, p.Tooltip),
			),
			Image(p.Portrait, p.Content.PortraitAlt),
		),
	)
}

// Title renders the heading, one non-wrapping span per line
func Title(lines []domain.TitleLine) g.Node {
	return h.H1(
		h.Class(layout.ClassTitle),
		g.Map(lines, func(line domain.TitleLine) g.Node {
			return h.Span(
				h.Class(layout.ClassLine),
				g.Map([]domain.TitleSegment(line), func(seg domain.TitleSegment) g.Node {
					if seg.Tag {
						return Tag(seg.Text)
					}
					return g.Text(seg.Text)
				}),
			)
		}),
	)
}

// Tag renders a bracket glyph of the name tag
func Tag(text string) g.Node {
	return h.Span(h.Class(layout.ClassTag), g.Text(text))
}

// Links renders the social link row followed by the tooltip
func Links(c domain.Content, state domain.TooltipState) g.Node {
	return h.Div(
		h.Class(layout.ClassLinks),
		g.Map(c.Links, func(l domain.SocialLink) g.Node {
			return Link(l)
		}),
		g.If(hasHoverLink(c), Tooltip(c.TooltipMessage, state)),
	)
}

func hasHoverLink(c domain.Content) bool {
	_, ok := c.HoverLink()
	return ok
}

// Link renders one social link. Links without a URL become a hover target
// that cannot be navigated.
func Link(l domain.SocialLink) g.Node {
	color := g.If(l.IconColor != "", h.Style("color:"+l.IconColor))

	if !l.Navigable() {
		return h.Span(
			h.Class(layout.ClassHoverLink),
			h.Aria("label", l.Label),
			h.Aria("describedby", TooltipID),
			h.TabIndex("0"),
			h.Data("hover", string(l.Platform)),
			color,
			Icon(l.Icon),
		)
	}

	return h.A(
		h.Class(fmt.Sprintf("%s %s--%s", layout.ClassLink, layout.ClassLink, l.Platform)),
		h.Href(l.URL),
		h.Aria("label", l.Label),
		color,
		Icon(l.Icon),
	)
}

// Tooltip renders the tooltip leaf for an animated state
func Tooltip(message string, state domain.TooltipState) g.Node {
	hidden := "true"
	if state.Visible() {
		hidden = "false"
	}
	return h.Div(
		h.ID(TooltipID),
		h.Class(layout.ClassTooltip),
		h.Role("tooltip"),
		h.Data("state", state.Phase()),
		h.Aria("hidden", hidden),
		g.Text(message),
	)
}

// Image renders the portrait as a responsive img. A nil or empty asset
// renders nothing.
func Image(asset *domain.ImageAsset, alt string) g.Node {
	if asset == nil || len(asset.Variants) == 0 {
		return nil
	}
	fallback := asset.Fallback()
	return h.Img(
		h.Class(layout.ClassImage),
		h.Src(fallback.Src),
		g.Attr("srcset", asset.SrcSet()),
		g.Attr("sizes", asset.Sizes()),
		h.Width(fmt.Sprint(fallback.Width)),
		h.Height(fmt.Sprint(fallback.Height)),
		h.Alt(alt),
		g.Attr("decoding", "async"),
	)
}

// HTML renders a node to bytes
func HTML(n g.Node) ([]byte, error) {
	var buf bytes.Buffer
	if err := n.Render(&buf); err != nil {
		return nil, fmt.Errorf("failed to render: %w", err)
	}
	return buf.Bytes(), nil
}
