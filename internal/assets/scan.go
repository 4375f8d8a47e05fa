package assets

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"

	"heropage/internal/domain"
)

// variantPattern matches "<stem>-<width>w"
var variantPattern = regexp.MustCompile(`^(.+)-(\d+)w$`)

var imageFormats = map[string]string{
	".jpg":  "jpeg",
	".jpeg": "jpeg",
	".png":  "png",
	".gif":  "gif",
}

// Scanner builds variant sets from an image directory.
//
// A file "portrait-750w.jpg" is a variant of "portrait.jpg"; the bare
// "portrait.jpg", when present, is a variant too. Dimensions come from the
// image header, not the file name.
type Scanner struct {
	root      string
	urlPrefix string
	maxWidth  int
	logger    *zap.Logger
}

// NewScanner creates a scanner for root whose variants are served under
// urlPrefix
func NewScanner(root, urlPrefix string, maxWidth int, logger *zap.Logger) *Scanner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scanner{
		root:      root,
		urlPrefix: strings.TrimSuffix(urlPrefix, "/"),
		maxWidth:  maxWidth,
		logger:    logger,
	}
}

// Root returns the scanned directory
func (s *Scanner) Root() string {
	return s.root
}

// Scan walks the directory and returns one asset per original path, sorted
// by path
func (s *Scanner) Scan(ctx context.Context) ([]domain.ImageAsset, error) {
	byPath := make(map[string]*domain.ImageAsset)

	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(p))
		format, ok := imageFormats[ext]
		if !ok {
			return nil
		}

		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return fmt.Errorf("relative path of %s: %w", p, err)
		}
		rel = filepath.ToSlash(rel)

		width, height, err := decodeDimensions(p)
		if err != nil {
			s.logger.Warn("skipping unreadable image", zap.String("path", rel), zap.Error(err))
			return nil
		}

		original := OriginalPath(rel)
		asset, ok := byPath[original]
		if !ok {
			asset = &domain.ImageAsset{Path: original, MaxWidth: s.maxWidth}
			byPath[original] = asset
		}
		asset.Variants = append(asset.Variants, domain.ImageVariant{
			Src:    s.urlPrefix + "/" + escapePath(rel),
			Width:  width,
			Height: height,
			Format: format,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", s.root, err)
	}

	assets := make([]domain.ImageAsset, 0, len(byPath))
	for _, a := range byPath {
		a.SortVariants()
		assets = append(assets, *a)
	}
	sort.Slice(assets, func(i, j int) bool {
		return assets[i].Path < assets[j].Path
	})

	s.logger.Debug("scanned image directory",
		zap.String("root", s.root),
		zap.Int("assets", len(assets)))
	return assets, nil
}

// escapePath escapes each segment of a slash-separated path, so names with
// spaces or commas stay single srcset candidates
func escapePath(rel string) string {
	segments := strings.Split(rel, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.Join(segments, "/")
}

// OriginalPath maps a variant file path to the path of the image it is a
// variant of
func OriginalPath(rel string) string {
	ext := path.Ext(rel)
	stem := strings.TrimSuffix(rel, ext)
	if m := variantPattern.FindStringSubmatch(stem); m != nil {
		return m[1] + ext
	}
	return rel
}

func decodeDimensions(p string) (int, int, error) {
	f, err := os.Open(p)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("decode header: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}
