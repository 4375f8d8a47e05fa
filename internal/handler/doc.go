// Package handler implements the HTTP layer of the hero page server.
//
// Routes:
//
//	GET    /                            page in its initial state (ETag, 304)
//	POST   /api/hero                    mount a session
//	GET    /api/hero/{session}          Hero fragment at the session's state
//	DELETE /api/hero/{session}          unmount
//	POST   /api/hero/{session}/pointer  {"event":"enter"|"leave"}
//	GET    /api/hero/{session}/state    current state
//	GET    /api/assets?path=            resolved variant set
//	GET    /events?session=             SSE stream of tooltip_state events
//	GET    /healthz, /metrics, /static/*
//
// Error responses are JSON with {error, details}.
package handler
