package render

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/fyrsmithlabs/figclass/internal/decision"
)

// ErrInvalidNodeID is returned for ids that cannot name a file.
var ErrInvalidNodeID = errors.New("invalid node id")

// ErrNotRendered is returned when no image exists for a node.
var ErrNotRendered = errors.New("node not rendered")

// Extensions tried, in order, by DirRenderer.
var imageExtensions = []string{".png", ".jpg", ".jpeg", ".webp"}

// DirRenderer serves images exported by the host as <dir>/<id>.<ext>.
// Colons and semicolons in node ids are written as dashes.
type DirRenderer struct {
	dir string
}

// NewDirRenderer returns a renderer reading from dir.
func NewDirRenderer(dir string) *DirRenderer {
	return &DirRenderer{dir: dir}
}

// FileName returns the base name (without extension) used for nodeID.
func FileName(nodeID string) (string, error) {
	id := strings.TrimSpace(nodeID)
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidNodeID, nodeID)
	}
	return strings.NewReplacer(":", "-", ";", "_").Replace(id), nil
}

// Render reads the exported image for nodeID.
func (r *DirRenderer) Render(ctx context.Context, nodeID string) (decision.Image, error) {
	if err := ctx.Err(); err != nil {
		return decision.Image{}, err
	}
	base, err := FileName(nodeID)
	if err != nil {
		return decision.Image{}, err
	}
	for _, ext := range imageExtensions {
		data, err := os.ReadFile(filepath.Join(r.dir, base+ext))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return decision.Image{}, fmt.Errorf("read image for %s: %w", nodeID, err)
		}
		return decision.Image{NodeID: nodeID, MIMEType: http.DetectContentType(data), Data: data}, nil
	}
	return decision.Image{}, fmt.Errorf("%w: %s in %s", ErrNotRendered, nodeID, r.dir)
}

// CachedRenderer memoizes another renderer. Errors are not cached.
type CachedRenderer struct {
	next  decision.Renderer
	cache *Cache
}

// NewCachedRenderer wraps next with cache.
func NewCachedRenderer(next decision.Renderer, cache *Cache) *CachedRenderer {
	return &CachedRenderer{next: next, cache: cache}
}

// Render returns the cached image or renders and stores it.
func (r *CachedRenderer) Render(ctx context.Context, nodeID string) (decision.Image, error) {
	if img, ok := r.cache.Get(nodeID); ok {
		return img, nil
	}
	img, err := r.next.Render(ctx, nodeID)
	if err != nil {
		return decision.Image{}, err
	}
	r.cache.Set(nodeID, img)
	return img, nil
}

var (
	_ decision.Renderer = (*DirRenderer)(nil)
	_ decision.Renderer = (*CachedRenderer)(nil)
)
