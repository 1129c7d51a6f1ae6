// Package imagecache fetches official artwork over HTTP and persists it on
// disk, one file per entity per style. Concurrent requests for the same
// entity share a single download, and files land via temp-write + rename
// so a crash never leaves a corrupt entry.
package imagecache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/printdex/printdex/internal/pokedex"
)

// ErrNotFound means the remote source has no artwork for the entity. It is
// never retried; callers skip the entity with a warning.
var ErrNotFound = errors.New("artwork not found")

// FetchError reports artwork that kept failing after the retry budget.
type FetchError struct {
	ID       int
	Style    pokedex.ArtStyle
	Attempts int
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("artwork %d (%s) failed after %d attempts: %v", e.ID, e.Style, e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Asset is one cached artwork image.
type Asset struct {
	ID    int
	Style pokedex.ArtStyle
	Path  string
	Data  []byte
}

// Stats summarizes one style subdirectory of the cache.
type Stats struct {
	Entries int
	Bytes   int64
}

// Cache is the on-disk artwork store.
type Cache struct {
	Dir        string
	BaseURL    string
	HTTPClient *http.Client
	Retries    int
	Backoff    time.Duration // base retry delay, doubled per attempt

	group singleflight.Group
}

// New builds a cache rooted at dir fetching from baseURL.
func New(dir, baseURL string, timeout time.Duration, retries int) *Cache {
	return &Cache{
		Dir:        dir,
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: timeout},
		Retries:    retries,
		Backoff:    500 * time.Millisecond,
	}
}

// EntryPath returns the on-disk location for an entity's artwork.
func (c *Cache) EntryPath(id int, style pokedex.ArtStyle) string {
	return filepath.Join(c.Dir, string(style), fmt.Sprintf("%d.png", id))
}

// URL returns the remote location for an entity's artwork.
func (c *Cache) URL(id int, style pokedex.ArtStyle) string {
	switch style {
	case pokedex.StyleShiny:
		return fmt.Sprintf("%s/other/official-artwork/shiny/%d.png", c.BaseURL, id)
	case pokedex.StyleHome:
		return fmt.Sprintf("%s/other/home/%d.png", c.BaseURL, id)
	default:
		return fmt.Sprintf("%s/other/official-artwork/%d.png", c.BaseURL, id)
	}
}

// Get returns the artwork for an entity, downloading it on first miss.
// Concurrent calls for the same entity and style share one download and
// its outcome.
func (c *Cache) Get(ctx context.Context, id int, style pokedex.ArtStyle) (*Asset, error) {
	path := c.EntryPath(id, style)
	if data, err := os.ReadFile(path); err == nil && len(data) > 0 {
		slog.Debug("Artwork cache hit", "id", id, "style", style)
		return &Asset{ID: id, Style: style, Path: path, Data: data}, nil
	}

	key := string(style) + "/" + strconv.Itoa(id)
	v, err, _ := c.group.Do(key, func() (any, error) {
		return c.download(ctx, id, style, path)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Asset), nil
}

func (c *Cache) download(ctx context.Context, id int, style pokedex.ArtStyle, dest string) (*Asset, error) {
	// A coalesced caller may arrive just after the flight that filled the
	// entry; recheck before going to the network.
	if data, err := os.ReadFile(dest); err == nil && len(data) > 0 {
		return &Asset{ID: id, Style: style, Path: dest, Data: data}, nil
	}

	url := c.URL(id, style)
	var lastErr error
	for attempt := 1; attempt <= c.Retries; attempt++ {
		if attempt > 1 {
			delay := c.retryDelay(attempt - 1)
			slog.Debug("Retrying artwork download", "id", id, "attempt", attempt, "delay", delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		data, retryable, err := c.attempt(ctx, url)
		if err == nil {
			if err := c.persist(dest, data); err != nil {
				return nil, err
			}
			slog.Info("Downloaded artwork", "id", id, "style", style, "bytes", len(data))
			return &Asset{ID: id, Style: style, Path: dest, Data: data}, nil
		}
		if !retryable {
			return nil, err
		}
		lastErr = err
	}
	return nil, &FetchError{ID: id, Style: style, Attempts: c.Retries, Err: lastErr}
}

func (c *Cache) attempt(ctx context.Context, url string) (data []byte, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		return nil, true, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, false, fmt.Errorf("%w: %s", ErrNotFound, url)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode >= 500, fmt.Errorf("artwork URL returned status %d", resp.StatusCode)
	}

	data, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("failed to read image data: %w", err)
	}
	if !looksLikeImage(data) {
		return nil, true, fmt.Errorf("response is not an image (%d bytes)", len(data))
	}
	return data, false, nil
}

// persist writes data beside dest and renames it into place.
func (c *Cache) persist(dest string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	tmp := dest + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write image file: %w", err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to move image file into place: %w", err)
	}
	return nil
}

// retryDelay doubles the base backoff per prior attempt.
func (c *Cache) retryDelay(prior int) time.Duration {
	base := c.Backoff
	if base <= 0 {
		base = 500 * time.Millisecond
	}
	return base << (prior - 1)
}

// looksLikeImage checks for a PNG or JPEG magic header so an HTML error
// page served with status 200 is not cached as artwork.
func looksLikeImage(data []byte) bool {
	if len(data) < 8 {
		return false
	}
	if bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")) {
		return true
	}
	return bytes.HasPrefix(data, []byte{0xFF, 0xD8, 0xFF})
}

// StatsByStyle sums cached entries per style subdirectory.
func (c *Cache) StatsByStyle() (map[pokedex.ArtStyle]Stats, error) {
	out := make(map[pokedex.ArtStyle]Stats)
	for _, style := range pokedex.Styles {
		dir := filepath.Join(c.Dir, string(style))
		items, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("failed to read cache directory: %w", err)
		}
		var s Stats
		for _, item := range items {
			if item.IsDir() || filepath.Ext(item.Name()) != ".png" {
				continue
			}
			info, err := item.Info()
			if err != nil {
				continue
			}
			s.Entries++
			s.Bytes += info.Size()
		}
		if s.Entries > 0 {
			out[style] = s
		}
	}
	return out, nil
}

// Clear removes every cached image.
func (c *Cache) Clear() error {
	slog.Info("Clearing artwork cache", "path", c.Dir)
	return os.RemoveAll(c.Dir)
}
