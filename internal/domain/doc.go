// Package domain defines the core types of the hero page.
//
// This package contains the value types that describe what the Hero section
// shows and how its single interactive affordance behaves. It has no I/O and
// no dependencies outside the standard library.
//
// # Content
//
// Content is the static configuration table of the page: the four title
// lines, the social links in their fixed order, the portrait path and the
// tooltip copy. It is defined in source, not loaded from data.
//
// # Hover affordance
//
// HoverState is the two-valued hover boolean owned by a mounted Hero.
// TooltipState is the explicit animated state of the tooltip
// (hidden, entering, shown, exiting) that the tooltip leaf renders.
//
// # Images
//
// ImageAsset is a responsive variant set resolved ahead of render for a
// fixed relative path. Resolution itself lives in the assets package.
package domain
