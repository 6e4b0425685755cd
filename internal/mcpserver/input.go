package mcpserver

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/erraggy/oasplit/loader"
)

// specInput represents the three ways an OAS document can be provided to a
// tool. Exactly one of File, URL, or Content must be set.
type specInput struct {
	File    string `json:"file,omitempty"    jsonschema:"Path to an OAS file on disk"`
	URL     string `json:"url,omitempty"     jsonschema:"URL to fetch an OAS document from"`
	Content string `json:"content,omitempty" jsonschema:"Inline OAS document content (JSON or YAML)"`
}

// specCache is the session-scoped cache of loaded documents and search
// catalogs. File inputs are keyed by (absolutePath, modTime), content inputs
// by a SHA-256 hash, and URL inputs by the URL string. Expired entries are
// removed every cfg.Cache.SweepInterval.
var specCache = newSpecCache()

func newSpecCache() *cache.Cache {
	c := cache.New(cfg.Cache.FileTTL, cfg.Cache.SweepInterval)
	c.OnEvicted(func(_ string, v any) {
		if sc, ok := v.(*sharedCatalog); ok {
			sc.evict()
		}
	})
	return c
}

// makeCacheKey creates a cache key for the given input, or "" when the input
// cannot be cached.
func makeCacheKey(s specInput) string {
	switch {
	case s.File != "":
		absPath, err := filepath.Abs(s.File)
		if err != nil {
			return ""
		}
		info, err := os.Stat(absPath)
		if err != nil {
			return "" // Can't stat, don't cache.
		}
		return fmt.Sprintf("file:%s:%d", absPath, info.ModTime().UnixNano())
	case s.Content != "":
		h := sha256.Sum256([]byte(s.Content))
		return fmt.Sprintf("content:%s", hex.EncodeToString(h[:]))
	case s.URL != "":
		return fmt.Sprintf("url:%s", s.URL)
	default:
		return ""
	}
}

// ttl returns how long entries derived from s stay cached.
func (s specInput) ttl() time.Duration {
	switch {
	case s.File != "":
		return cfg.Cache.FileTTL
	case s.URL != "":
		return cfg.Cache.URLTTL
	default:
		return cfg.Cache.ContentTTL
	}
}

// cacheKey returns the key for s, or "" when caching is disabled.
func (s specInput) cacheKey() string {
	if !cfg.Cache.Enabled {
		return ""
	}
	return makeCacheKey(s)
}

func (s specInput) validate() error {
	count := 0
	for _, v := range []string{s.File, s.URL, s.Content} {
		if v != "" {
			count++
		}
	}
	if count != 1 {
		return fmt.Errorf("exactly one of file, url, or content must be provided (got %d)", count)
	}
	return nil
}

// newLoader builds a loader from the server configuration. URL inputs get an
// SSRF-safe client unless private addresses are allowed.
func (s specInput) newLoader() *loader.Loader {
	opts := []loader.Option{
		loader.WithUserAgent(cfg.HTTP.UserAgent),
		loader.WithTimeout(cfg.HTTP.Timeout),
		loader.WithMaxSize(cfg.HTTP.MaxSize),
		loader.WithLogger(serverLog),
	}
	if s.URL != "" && !cfg.HTTP.AllowPrivateIPs {
		opts = append(opts, loader.WithHTTPClient(newSafeHTTPClient(cfg.HTTP.Timeout)))
	}
	return loader.New(opts...)
}

// resolve loads the document from whichever input was provided, using the
// cache for file, URL, and content inputs. Cached documents are shared
// between calls and must not be modified.
func (s specInput) resolve(ctx context.Context) (*loader.Document, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}

	key := s.cacheKey()
	if key != "" {
		if v, ok := specCache.Get(key); ok {
			if doc, ok := v.(*loader.Document); ok {
				return doc, nil
			}
		}
	}

	l := s.newLoader()
	var (
		doc *loader.Document
		err error
	)
	switch {
	case s.File != "":
		doc, err = l.LoadFile(s.File)
	case s.URL != "":
		doc, err = l.LoadURL(ctx, s.URL)
	default:
		doc, err = l.LoadBytes([]byte(s.Content), "content", loader.SourceFormatUnknown)
	}
	if err != nil {
		return nil, err
	}

	if key != "" {
		specCache.Set(key, doc, s.ttl())
	}
	return doc, nil
}
