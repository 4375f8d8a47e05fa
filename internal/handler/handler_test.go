package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"heropage/internal/assets"
	"heropage/internal/domain"
	"heropage/internal/hub"
	"heropage/internal/metrics"
	"heropage/internal/service"
	"heropage/internal/tooltip"
)

const testGrace = 5 * time.Second

type testServer struct {
	router      http.Handler
	sessions    *service.SessionManager
	clock       *tooltip.ManualClock
	metrics     *metrics.Metrics
	hub         *hub.Hub
	disconnects chan string
}

func portrait() domain.ImageAsset {
	return domain.ImageAsset{
		Path:     "nieknijland.jpg",
		MaxWidth: 750,
		Variants: []domain.ImageVariant{
			{Src: "/images/nieknijland-750w.jpg", Width: 750, Height: 1000},
		},
	}
}

func newTestServer(t *testing.T, resolver assets.Resolver) *testServer {
	t.Helper()

	bus := service.NewEventBus()
	clock := tooltip.NewManualClock()
	m := metrics.New()

	var sessions *service.SessionManager
	disconnects := make(chan string, 16)
	h := hub.New(hub.OnDisconnect(func(id string) {
		sessions.Release(id, testGrace)
		select {
		case disconnects <- id:
		default:
		}
	}))
	sessions = service.NewSessionManager(bus,
		service.WithSessionClock(clock),
		service.WithSessionMetrics(m),
	)

	svc, err := service.NewHeroService(domain.DefaultContent(), resolver, sessions, service.WithHeroMetrics(m))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	hubDone := make(chan struct{})
	relayDone := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(hubDone)
	}()
	go func() {
		bus.Relay(ctx, h)
		close(relayDone)
	}()
	t.Cleanup(func() {
		cancel()
		<-hubDone
		<-relayDone
		sessions.Close()
	})

	hh := NewHeroHandler(svc, resolver, h, zap.NewNop())
	return &testServer{
		router:      NewRouter(hh, RouterConfig{Metrics: m, Logger: zap.NewNop()}),
		sessions:    sessions,
		clock:       clock,
		metrics:     m,
		hub:         h,
		disconnects: disconnects,
	}
}

// stream opens an event stream and returns its data lines
func stream(t *testing.T, url string) (<-chan string, func()) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	lines := make(chan string, 16)
	go func() {
		defer close(lines)
		r := bufio.NewReader(resp.Body)
		for {
			line, err := r.ReadString('\n')
			if err != nil {
				return
			}
			if strings.HasPrefix(line, "data: ") {
				lines <- strings.TrimSpace(strings.TrimPrefix(line, "data: "))
			}
		}
	}()
	return lines, func() { resp.Body.Close() }
}

func (s *testServer) waitDisconnect(t *testing.T, session string) {
	t.Helper()
	select {
	case id := <-s.disconnects:
		require.Equal(t, session, id)
	case <-time.After(2 * time.Second):
		t.Fatal("stream disconnect not observed")
	}
}

func (s *testServer) do(t *testing.T, method, target string, body io.Reader, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) mount(t *testing.T) MountResponse {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/hero", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp MountResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestPage(t *testing.T) {
	s := newTestServer(t, assets.NewStaticResolver(portrait()))

	rec := s.do(t, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `aria-label="GitHub"`)

	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)

	rec = s.do(t, http.MethodGet, "/", nil, "If-None-Match", etag)
	assert.Equal(t, http.StatusNotModified, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/", nil, "If-None-Match", `"stale"`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPageMissingPortrait(t *testing.T) {
	s := newTestServer(t, assets.NewStaticResolver())

	rec := s.do(t, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "Failed to render page", resp.Error)
	assert.Contains(t, resp.Details, "asset not found")
}

func TestMount(t *testing.T) {
	s := newTestServer(t, assets.NewStaticResolver(portrait()))

	resp := s.mount(t)
	assert.NotEmpty(t, resp.Session)
	assert.Equal(t, "/api/hero/"+resp.Session+"/pointer", resp.PointerURL)
	assert.Equal(t, "/events?session="+resp.Session, resp.EventsURL)
	assert.Equal(t, "exited", resp.State.Phase)
	assert.Equal(t, 1, s.sessions.Count())
}

func TestPointer(t *testing.T) {
	s := newTestServer(t, assets.NewStaticResolver(portrait()))
	id := s.mount(t).Session

	tests := []struct {
		name    string
		session string
		body    string
		code    int
		state   string
		changed bool
	}{
		{"enter", id, `{"event":"enter"}`, http.StatusOK, "entering", true},
		{"repeated enter", id, `{"event":"mouseenter"}`, http.StatusOK, "entering", false},
		{"leave", id, `{"event":"leave"}`, http.StatusOK, "exiting", true},
		{"invalid event", id, `{"event":"click"}`, http.StatusBadRequest, "", false},
		{"malformed body", id, `{`, http.StatusBadRequest, "", false},
		{"unknown session", "missing", `{"event":"enter"}`, http.StatusNotFound, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/api/hero/"+tt.session+"/pointer", strings.NewReader(tt.body))
			require.Equal(t, tt.code, rec.Code, rec.Body.String())
			if tt.code != http.StatusOK {
				var resp ErrorResponse
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
				assert.NotEmpty(t, resp.Error)
				return
			}

			var resp PointerResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.Equal(t, tt.state, resp.State.String())
			assert.Equal(t, tt.changed, resp.Changed)
		})
	}
}

func TestPointerOutOfOrder(t *testing.T) {
	s := newTestServer(t, assets.NewStaticResolver(portrait()))
	id := s.mount(t).Session
	url := "/api/hero/" + id + "/pointer"

	// enter (1) then leave (2) happened; the requests arrive reversed
	rec := s.do(t, http.MethodPost, url, strings.NewReader(`{"event":"leave","seq":2}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = s.do(t, http.MethodPost, url, strings.NewReader(`{"event":"enter","seq":1}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp PointerResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.False(t, resp.Changed)

	s.clock.Advance(5 * time.Second)

	rec = s.do(t, http.MethodGet, "/api/hero/"+id+"/state", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var st service.SessionState
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&st))
	assert.Equal(t, domain.HoverHidden, st.Hover, "the pointer has left")
	assert.Equal(t, domain.TooltipHidden, st.State)
}

func TestStateSettlesAfterTransition(t *testing.T) {
	s := newTestServer(t, assets.NewStaticResolver(portrait()))
	id := s.mount(t).Session

	rec := s.do(t, http.MethodPost, "/api/hero/"+id+"/pointer", strings.NewReader(`{"event":"enter"}`))
	require.Equal(t, http.StatusOK, rec.Code)

	s.clock.Advance(tooltip.DefaultDuration)

	rec = s.do(t, http.MethodGet, "/api/hero/"+id+"/state", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var st service.SessionState
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&st))
	assert.Equal(t, domain.TooltipShown, st.State)
	assert.Equal(t, domain.HoverShown, st.Hover)
	assert.True(t, st.Visible)

	rec = s.do(t, http.MethodGet, "/api/hero/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `data-state="entered"`)

	rec = s.do(t, http.MethodGet, "/api/hero/missing/state", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUnmount(t *testing.T) {
	s := newTestServer(t, assets.NewStaticResolver(portrait()))
	id := s.mount(t).Session

	rec := s.do(t, http.MethodDelete, "/api/hero/"+id, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 0, s.sessions.Count())

	rec = s.do(t, http.MethodDelete, "/api/hero/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAsset(t *testing.T) {
	s := newTestServer(t, assets.NewStaticResolver(portrait()))

	rec := s.do(t, http.MethodGet, "/api/assets?path=nieknijland.jpg", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var asset domain.ImageAsset
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&asset))
	assert.Equal(t, "nieknijland.jpg", asset.Path)
	assert.Len(t, asset.Variants, 1)

	rec = s.do(t, http.MethodGet, "/api/assets?path=other.jpg", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/assets", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthMetricsStatic(t *testing.T) {
	s := newTestServer(t, assets.NewStaticResolver(portrait()))
	s.mount(t)

	rec := s.do(t, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","sessions":1}`, rec.Body.String())

	s.do(t, http.MethodGet, "/", nil)
	rec = s.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "hero_page_renders_total 1")
	assert.Contains(t, rec.Body.String(), "hero_active_sessions 1")
	assert.Contains(t, rec.Body.String(), "hero_http_request_duration_seconds_count")

	rec = s.do(t, http.MethodGet, "/static/hero.js", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "EventSource")
}

func TestEventsValidation(t *testing.T) {
	s := newTestServer(t, assets.NewStaticResolver(portrait()))

	rec := s.do(t, http.MethodGet, "/events", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/events?session=missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEventStream(t *testing.T) {
	s := newTestServer(t, assets.NewStaticResolver(portrait()))
	srv := httptest.NewServer(s.router)
	defer srv.Close()

	mount := s.mount(t)

	lines, closeStream := stream(t, srv.URL+mount.EventsURL)
	require.Eventually(t, func() bool { return s.hub.Connected(mount.Session) }, time.Second, 10*time.Millisecond)

	rec := s.do(t, http.MethodPost, mount.PointerURL, strings.NewReader(`{"event":"enter"}`))
	require.Equal(t, http.StatusOK, rec.Code)

	select {
	case line := <-lines:
		var ev struct {
			Type    string                 `json:"type"`
			Session string                 `json:"session"`
			Payload service.TooltipPayload `json:"payload"`
		}
		require.NoError(t, json.Unmarshal([]byte(line), &ev))
		assert.Equal(t, "tooltip_state", ev.Type)
		assert.Equal(t, mount.Session, ev.Session)
		assert.Equal(t, "entering", ev.Payload.Phase)
		assert.True(t, ev.Payload.Visible)
		assert.Equal(t, uint64(1), ev.Payload.Version)
	case <-time.After(2 * time.Second):
		t.Fatal("no tooltip_state event received")
	}

	closeStream()
	s.waitDisconnect(t, mount.Session)
	assert.Equal(t, 1, s.sessions.Count(), "the session outlives its stream for the grace period")

	s.clock.Advance(testGrace)
	assert.Equal(t, 0, s.sessions.Count(), "an unclaimed session is unmounted after the grace period")
}

func TestEventStreamReconnect(t *testing.T) {
	s := newTestServer(t, assets.NewStaticResolver(portrait()))
	srv := httptest.NewServer(s.router)
	defer srv.Close()

	mount := s.mount(t)

	_, closeStream := stream(t, srv.URL+mount.EventsURL)
	require.Eventually(t, func() bool { return s.hub.Connected(mount.Session) }, time.Second, 10*time.Millisecond)
	closeStream()
	s.waitDisconnect(t, mount.Session)

	// reconnect within the grace period reclaims the session
	_, closeStream = stream(t, srv.URL+mount.EventsURL)
	require.Eventually(t, func() bool { return s.hub.Connected(mount.Session) }, time.Second, 10*time.Millisecond)
	s.clock.Advance(testGrace)
	assert.Equal(t, 1, s.sessions.Count())

	rec := s.do(t, http.MethodPost, mount.PointerURL, strings.NewReader(`{"event":"enter","seq":1}`))
	require.Equal(t, http.StatusOK, rec.Code)

	closeStream()
	s.waitDisconnect(t, mount.Session)
	s.clock.Advance(testGrace)
	require.Equal(t, 0, s.sessions.Count())

	// after the grace period the old session is gone and the page mounts again
	rec = s.do(t, http.MethodGet, mount.EventsURL, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = s.do(t, http.MethodPost, mount.PointerURL, strings.NewReader(`{"event":"leave","seq":2}`))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	remount := s.mount(t)
	require.NotEqual(t, mount.Session, remount.Session)
	lines, closeStream := stream(t, srv.URL+remount.EventsURL)
	defer closeStream()
	require.Eventually(t, func() bool { return s.hub.Connected(remount.Session) }, time.Second, 10*time.Millisecond)

	rec = s.do(t, http.MethodPost, remount.PointerURL, strings.NewReader(`{"event":"enter","seq":3}`))
	require.Equal(t, http.StatusOK, rec.Code)
	select {
	case line := <-lines:
		assert.Contains(t, line, remount.Session)
	case <-time.After(2 * time.Second):
		t.Fatal("remounted session receives no events")
	}
}

func TestRecover(t *testing.T) {
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}), Recover(zap.NewNop()), Logger(zap.NewNop()))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, rec.Body.String())
}

func TestChainOrder(t *testing.T) {
	var order []string
	mw := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		order = append(order, "handler")
	}), mw("a"), mw("b"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"a", "b", "handler"}, order)
}

func TestETagMatch(t *testing.T) {
	tests := []struct {
		header string
		want   bool
	}{
		{"", false},
		{`"abc"`, true},
		{`W/"abc"`, true},
		{`"x", "abc"`, true},
		{"*", true},
		{`"x"`, false},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			assert.Equal(t, tt.want, etagMatch(tt.header, `"abc"`))
		})
	}
}
