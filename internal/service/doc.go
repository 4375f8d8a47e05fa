// Package service implements the hero page's application logic.
//
// SessionManager owns the mounted Hero instances. Each session carries its
// own tooltip state machine; every state change is published on the
// EventBus as a tooltip_state event scoped to that session, and the bus is
// relayed to the SSE hub.
//
// HeroService renders the page and Hero fragment through an injected asset
// resolver and keeps the image catalog in sync with a directory or manifest.
package service
