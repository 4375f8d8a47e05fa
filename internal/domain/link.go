package domain

// Platform identifies a social network
type Platform string

const (
	PlatformGitHub   Platform = "github"
	PlatformLinkedIn Platform = "linkedin"
	PlatformTwitter  Platform = "twitter"
)

// SocialLink is one entry of the link row
type SocialLink struct {
	Platform Platform `json:"platform" yaml:"platform"`
	// URL is empty for hover-only affordances
	URL   string `json:"url,omitempty" yaml:"url,omitempty"`
	Label string `json:"label" yaml:"label"`
	// Icon names the glyph the renderer draws
	Icon string `json:"icon" yaml:"icon"`
	// IconColor overrides the glyph fill, empty means currentColor
	IconColor string `json:"icon_color,omitempty" yaml:"icon_color,omitempty"`
}

// Navigable reports whether the link has a destination
func (l SocialLink) Navigable() bool {
	return l.URL != ""
}
