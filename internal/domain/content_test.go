package domain

import (
	"testing"
	"time"
)

func TestDefaultContent(t *testing.T) {
	c := DefaultContent()

	if err := c.Validate(); err != nil {
		t.Fatalf("default content invalid: %v", err)
	}

	t.Run("title has four lines", func(t *testing.T) {
		want := []string{
			"Hi, I'm <Niek/>",
			"a web developer and",
			"travel enthousiast based",
			"in The Netherlands.",
		}
		if len(c.Title) != len(want) {
			t.Fatalf("expected %d title lines, got %d", len(want), len(c.Title))
		}
		for i, line := range c.Title {
			if got := line.PlainText(); got != want[i] {
				t.Errorf("line %d = %q, want %q", i+1, got, want[i])
			}
		}
	})

	t.Run("links in fixed order", func(t *testing.T) {
		order := []Platform{PlatformGitHub, PlatformLinkedIn, PlatformTwitter}
		if len(c.Links) != len(order) {
			t.Fatalf("expected %d links, got %d", len(order), len(c.Links))
		}
		for i, p := range order {
			if c.Links[i].Platform != p {
				t.Errorf("link %d = %s, want %s", i, c.Links[i].Platform, p)
			}
		}
	})

	t.Run("navigable links carry platform labels", func(t *testing.T) {
		gh, _ := c.Link(PlatformGitHub)
		li, _ := c.Link(PlatformLinkedIn)
		tw, _ := c.Link(PlatformTwitter)

		if !gh.Navigable() || gh.Label != "GitHub" {
			t.Errorf("unexpected GitHub link %+v", gh)
		}
		if !li.Navigable() || li.Label != "LinkedIn" {
			t.Errorf("unexpected LinkedIn link %+v", li)
		}
		if tw.Navigable() {
			t.Error("Twitter link should not be navigable")
		}
		if tw.Label != "Twitter" {
			t.Errorf("Twitter label = %q", tw.Label)
		}
	})

	t.Run("hover link is twitter", func(t *testing.T) {
		l, ok := c.HoverLink()
		if !ok || l.Platform != PlatformTwitter {
			t.Errorf("HoverLink() = %+v, %v", l, ok)
		}
	})

	t.Run("fixed portrait and duration", func(t *testing.T) {
		if c.PortraitPath != "nieknijland.jpg" {
			t.Errorf("PortraitPath = %q", c.PortraitPath)
		}
		if c.TransitionDuration != 2*time.Second {
			t.Errorf("TransitionDuration = %s", c.TransitionDuration)
		}
	})
}

func TestContentValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Content)
	}{
		{"no title", func(c *Content) { c.Title = nil }},
		{"empty title line", func(c *Content) { c.Title[1] = TitleLine{} }},
		{"missing label", func(c *Content) { c.Links[0].Label = "" }},
		{"duplicate platform", func(c *Content) { c.Links[1].Platform = PlatformGitHub }},
		{"two hover links", func(c *Content) { c.Links[0].URL = "" }},
		{"links out of order", func(c *Content) { c.Links[0], c.Links[1] = c.Links[1], c.Links[0] }},
		{"twitter first", func(c *Content) { c.Links[0], c.Links[2] = c.Links[2], c.Links[0] }},
		{"no portrait", func(c *Content) { c.PortraitPath = "" }},
		{"zero duration", func(c *Content) { c.TransitionDuration = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultContent()
			tt.mutate(&c)
			if err := c.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
