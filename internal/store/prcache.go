package store

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/canadaduane/jj-ryu/internal/model"
)

const prCacheHeader = "# ryu PR cache\n# Auto-generated - manual edits may be overwritten\n\n"

// PrCacheEntry is the last-known PR state for one bookmark.
type PrCacheEntry struct {
	Number    int       `yaml:"number"`
	URL       string    `yaml:"url"`
	Title     string    `yaml:"title"`
	Base      string    `yaml:"base"`
	UpdatedAt time.Time `yaml:"updated_at"`
}

// PrCache maps bookmark names to their last-known PR state. It lets status
// and merge runs name PRs without a remote round trip per bookmark.
type PrCache struct {
	Version int                     `yaml:"version"`
	Entries map[string]PrCacheEntry `yaml:"entries"`
}

// NewPrCache returns an empty cache at the current version.
func NewPrCache() PrCache {
	return PrCache{Version: TrackingVersion, Entries: map[string]PrCacheEntry{}}
}

// Put records the PR state for a bookmark, stamping the update time.
func (c *PrCache) Put(bookmark string, pr model.PullRequest) {
	if c.Entries == nil {
		c.Entries = map[string]PrCacheEntry{}
	}
	c.Entries[bookmark] = PrCacheEntry{
		Number:    pr.Number,
		URL:       pr.HTMLURL,
		Title:     pr.Title,
		Base:      pr.BaseRef,
		UpdatedAt: time.Now().UTC(),
	}
}

// Remove drops a bookmark's entry. Missing entries are fine.
func (c *PrCache) Remove(bookmark string) {
	delete(c.Entries, bookmark)
}

// Get returns a bookmark's entry and whether it exists.
func (c *PrCache) Get(bookmark string) (PrCacheEntry, bool) {
	e, ok := c.Entries[bookmark]
	return e, ok
}

// LoadPrCache reads the PR cache for a workspace. A missing file yields an
// empty cache.
func LoadPrCache(workspaceRoot string) (PrCache, error) {
	path := PrCachePath(workspaceRoot)

	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return NewPrCache(), nil
	}
	if err != nil {
		return PrCache{}, &model.TrackingError{Message: "failed to read " + path + ": " + err.Error()}
	}

	var cache PrCache
	if err := yaml.Unmarshal(content, &cache); err != nil {
		return PrCache{}, &model.TrackingError{Message: "failed to parse " + path + ": " + err.Error()}
	}
	if cache.Entries == nil {
		cache.Entries = map[string]PrCacheEntry{}
	}
	return cache, nil
}

// SavePrCache writes the PR cache for a workspace.
func SavePrCache(workspaceRoot string, cache PrCache) error {
	cache.Version = TrackingVersion
	path := PrCachePath(workspaceRoot)
	if err := writeAtomic(path, cache, prCacheHeader); err != nil {
		return &model.TrackingError{Message: "failed to write " + path + ": " + err.Error()}
	}
	return nil
}
