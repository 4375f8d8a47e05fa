package service

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"
	g "maragu.dev/gomponents"

	"heropage/internal/assets"
	"heropage/internal/codec"
	"heropage/internal/domain"
	"heropage/internal/metrics"
	"heropage/internal/render"
	"heropage/internal/repository"
)

// ErrNoCatalog is returned by ingest operations when no catalog is wired
var ErrNoCatalog = errors.New("no asset catalog configured")

// Page is a rendered document or fragment
type Page struct {
	Body    []byte
	ETag    string
	Session string
	State   domain.TooltipState
}

// HeroOption configures a HeroService
type HeroOption func(*HeroService)

// WithCatalog sets the catalog that ingest writes to
func WithCatalog(c repository.AssetCatalog) HeroOption {
	return func(s *HeroService) {
		s.catalog = c
	}
}

// WithImageURLs sets how scanned files map to URLs
func WithImageURLs(urlPrefix string, maxWidth int) HeroOption {
	return func(s *HeroService) {
		s.urlPrefix = urlPrefix
		s.maxWidth = maxWidth
	}
}

// WithHeroLogger sets the logger
func WithHeroLogger(l *zap.Logger) HeroOption {
	return func(s *HeroService) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithHeroMetrics sets the metrics sink
func WithHeroMetrics(m *metrics.Metrics) HeroOption {
	return func(s *HeroService) {
		s.metrics = m
	}
}

// WithEventBus sets the bus catalog changes are published on
func WithEventBus(bus *EventBus) HeroOption {
	return func(s *HeroService) {
		s.bus = bus
	}
}

// HeroService renders the Hero and keeps its image catalog current
type HeroService struct {
	content  domain.Content
	resolver assets.Resolver
	sessions *SessionManager

	catalog   repository.AssetCatalog
	urlPrefix string
	maxWidth  int

	bus     *EventBus
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewHeroService creates a hero service. The content is validated up front.
func NewHeroService(content domain.Content, resolver assets.Resolver, sessions *SessionManager, opts ...HeroOption) (*HeroService, error) {
	if err := content.Validate(); err != nil {
		return nil, fmt.Errorf("invalid content: %w", err)
	}
	if resolver == nil {
		return nil, fmt.Errorf("asset resolver is required")
	}
	if sessions != nil && sessions.Transition() != content.TransitionDuration {
		return nil, fmt.Errorf("session transition %s does not match content transition %s",
			sessions.Transition(), content.TransitionDuration)
	}

	s := &HeroService{
		content:   content,
		resolver:  resolver,
		sessions:  sessions,
		urlPrefix: "/images",
		maxWidth:  content.PortraitMax,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Content returns the static content table
func (s *HeroService) Content() domain.Content {
	return s.content
}

// Sessions returns the session manager
func (s *HeroService) Sessions() *SessionManager {
	return s.sessions
}

// Render renders the full document. An empty session id renders the
// cacheable page in the initial state; otherwise the session's current
// state is rendered.
func (s *HeroService) Render(ctx context.Context, sessionID string) (*Page, error) {
	props, err := s.props(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.finish(render.Page(render.PageProps{Hero: props}), props)
}

// Fragment renders the Hero section alone
func (s *HeroService) Fragment(ctx context.Context, sessionID string) (*Page, error) {
	props, err := s.props(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.finish(render.Hero(props), props)
}

func (s *HeroService) props(ctx context.Context, sessionID string) (render.Props, error) {
	props := render.Props{
		Content: s.content,
		Tooltip: domain.TooltipHidden,
		Session: sessionID,
	}

	if sessionID != "" {
		if s.sessions == nil {
			return render.Props{}, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
		}
		st, err := s.sessions.State(sessionID)
		if err != nil {
			s.metrics.ObserveRender("session_not_found")
			return render.Props{}, err
		}
		props.Tooltip = st.State
	}

	portrait, err := s.resolver.Resolve(ctx, s.content.PortraitPath)
	if err != nil {
		reason := "resolve_failed"
		if errors.Is(err, assets.ErrAssetNotFound) {
			reason = "asset_not_found"
		}
		s.metrics.ObserveRender(reason)
		return render.Props{}, fmt.Errorf("failed to resolve portrait %s: %w", s.content.PortraitPath, err)
	}
	if err := portrait.Validate(); err != nil {
		s.metrics.ObserveRender("invalid_asset")
		return render.Props{}, fmt.Errorf("portrait %s is not renderable: %w", s.content.PortraitPath, err)
	}
	if portrait.MaxWidth == 0 {
		portrait.MaxWidth = s.content.PortraitMax
	}
	props.Portrait = portrait

	return props, nil
}

func (s *HeroService) finish(n g.Node, props render.Props) (*Page, error) {
	body, err := render.HTML(n)
	if err != nil {
		s.metrics.ObserveRender("render_failed")
		return nil, err
	}
	s.metrics.ObserveRender("")

	return &Page{
		Body:    body,
		ETag:    ETag(body),
		Session: props.Session,
		State:   props.Tooltip,
	}, nil
}

// ETag returns a strong entity tag for body
func ETag(body []byte) string {
	sum := blake2b.Sum256(body)
	return `"` + hex.EncodeToString(sum[:16]) + `"`
}

// Ingest scans an image directory into the catalog
func (s *HeroService) Ingest(ctx context.Context, dir string) (repository.SyncResult, error) {
	if s.catalog == nil {
		return repository.SyncResult{}, ErrNoCatalog
	}

	scanner := assets.NewScanner(dir, s.urlPrefix, s.maxWidth, s.logger)
	list, err := scanner.Scan(ctx)
	if err != nil {
		return repository.SyncResult{}, fmt.Errorf("failed to scan %s: %w", dir, err)
	}
	return s.sync(ctx, dir, list)
}

// IngestManifest loads a YAML or JSON manifest into the catalog
func (s *HeroService) IngestManifest(ctx context.Context, path string) (repository.SyncResult, error) {
	if s.catalog == nil {
		return repository.SyncResult{}, ErrNoCatalog
	}

	c, err := codec.ForFormat(filepath.Ext(path))
	if err != nil {
		return repository.SyncResult{}, err
	}

	f, err := os.Open(path)
	if err != nil {
		return repository.SyncResult{}, fmt.Errorf("failed to open manifest: %w", err)
	}
	defer f.Close()

	list, err := c.Parse(f)
	if err != nil {
		return repository.SyncResult{}, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	return s.sync(ctx, path, list)
}

// ExportManifest writes the catalog as a manifest in the given format
func (s *HeroService) ExportManifest(ctx context.Context, w io.Writer, format string) error {
	if s.catalog == nil {
		return ErrNoCatalog
	}

	c, err := codec.ForFormat(format)
	if err != nil {
		return err
	}
	list, err := s.catalog.ListAssets(ctx)
	if err != nil {
		return fmt.Errorf("failed to list assets: %w", err)
	}
	return c.Export(list, w)
}

func (s *HeroService) sync(ctx context.Context, source string, list []domain.ImageAsset) (repository.SyncResult, error) {
	result, err := s.catalog.SyncAssets(ctx, list)
	if err != nil {
		return repository.SyncResult{}, fmt.Errorf("failed to sync catalog: %w", err)
	}

	s.metrics.SetCatalogSize(len(list))
	s.logger.Info("catalog synced",
		zap.String("source", source),
		zap.Int("assets", len(list)),
		zap.Int("upserted", result.Upserted),
		zap.Int("removed", result.Removed))

	if s.bus != nil {
		s.bus.Publish(Event{Type: EventCatalogSynced, Payload: result})
	}
	return result, nil
}
