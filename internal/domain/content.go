package domain

import (
	"fmt"
	"time"
)

// TitleSegment is a run of title text, optionally drawn as a bracket tag
type TitleSegment struct {
	Text string
	Tag  bool
}

// TitleLine is one line of the title that never wraps
type TitleLine []TitleSegment

// PlainText joins the segments of the line
func (l TitleLine) PlainText() string {
	s := ""
	for _, seg := range l {
		s += seg.Text
	}
	return s
}

// Content is the static configuration table of the Hero section
type Content struct {
	Title          []TitleLine
	Links          []SocialLink
	PortraitPath   string
	PortraitAlt    string
	PortraitMax    int
	TooltipMessage string
	// TransitionDuration is how long the tooltip takes to enter or exit
	TransitionDuration time.Duration
}

// DefaultContent returns the page content
func DefaultContent() Content {
	return Content{
		Title: []TitleLine{
			{
				{Text: "Hi, I'm "},
				{Text: "<", Tag: true},
				{Text: "Niek"},
				{Text: "/>", Tag: true},
			},
			{{Text: "a web developer and"}},
			{{Text: "travel enthousiast based"}},
			{{Text: "in The Netherlands."}},
		},
		Links: []SocialLink{
			{
				Platform: PlatformGitHub,
				URL:      "https://github.com/ngnijland",
				Label:    "GitHub",
				Icon:     "github",
			},
			{
				Platform: PlatformLinkedIn,
				URL:      "https://www.linkedin.com/in/nieknijland/",
				Label:    "LinkedIn",
				Icon:     "linkedin",
			},
			{
				Platform:  PlatformTwitter,
				Label:     "Twitter",
				Icon:      "twitter",
				IconColor: "#ccc",
			},
		},
		PortraitPath:       "nieknijland.jpg",
		PortraitAlt:        "Portrait picture of me",
		PortraitMax:        750,
		TooltipMessage:     "I'm not on Twitter (yet?)",
		TransitionDuration: 2000 * time.Millisecond,
	}
}

// Link returns the link for a platform
func (c Content) Link(p Platform) (SocialLink, bool) {
	for _, l := range c.Links {
		if l.Platform == p {
			return l, true
		}
	}
	return SocialLink{}, false
}

// linkOrder is the order the link row shows the known platforms in
var linkOrder = map[Platform]int{
	PlatformGitHub:   1,
	PlatformLinkedIn: 2,
	PlatformTwitter:  3,
}

// Validate checks the invariants the renderer relies on
func (c Content) Validate() error {
	if len(c.Title) == 0 {
		return fmt.Errorf("title has no lines")
	}
	for i, line := range c.Title {
		if line.PlainText() == "" {
			return fmt.Errorf("title line %d is empty", i+1)
		}
	}

	seen := make(map[Platform]bool, len(c.Links))
	hoverOnly, rank := 0, 0
	for _, l := range c.Links {
		if l.Label == "" {
			return fmt.Errorf("link %s has no accessible label", l.Platform)
		}
		if seen[l.Platform] {
			return fmt.Errorf("duplicate link for %s", l.Platform)
		}
		seen[l.Platform] = true
		if r, ok := linkOrder[l.Platform]; ok {
			if r < rank {
				return fmt.Errorf("link %s is out of order, want GitHub, LinkedIn, Twitter", l.Platform)
			}
			rank = r
		}
		if !l.Navigable() {
			hoverOnly++
		}
	}
	if hoverOnly > 1 {
		return fmt.Errorf("at most one hover-only link is supported, got %d", hoverOnly)
	}

	if c.PortraitPath == "" {
		return fmt.Errorf("portrait path is required")
	}
	if c.TransitionDuration <= 0 {
		return fmt.Errorf("transition duration must be positive")
	}
	return nil
}

// HoverLink returns the hover-only link, if any
func (c Content) HoverLink() (SocialLink, bool) {
	for _, l := range c.Links {
		if !l.Navigable() {
			return l, true
		}
	}
	return SocialLink{}, false
}
