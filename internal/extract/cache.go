package extract

import (
	"context"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/klauspost/compress/zstd"
)

const indexFile = "index.gob"

// ErrTooLarge is returned when a single entry exceeds the cache capacity.
var ErrTooLarge = errors.New("entry exceeds cache capacity")

// CacheConfig controls the on-disk extraction cache.
type CacheConfig struct {
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled"`
	Dir      string `mapstructure:"dir" yaml:"dir"`
	MaxBytes int64  `mapstructure:"max_bytes" yaml:"max_bytes"`
	Level    int    `mapstructure:"level" yaml:"level"`
}

// DefaultCacheConfig returns a 64 MiB cache at the default zstd level.
// Dir is filled in by the caller.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:  true,
		MaxBytes: 64 << 20,
		Level:    3,
	}
}

type cacheEntry struct {
	Key        string
	File       string
	Size       int64
	TextSize   int64
	Stored     time.Time
	LastAccess time.Time
}

// Cache is a zstd-compressed disk store of extracted text.
type Cache struct {
	dir      string
	capacity int64
	size     int64

	encoder *zstd.Encoder
	decoder *zstd.Decoder

	index map[string]*cacheEntry
	mu    sync.Mutex

	hits, misses int64
}

// OpenCache opens or creates a cache in cfg.Dir.
func OpenCache(cfg CacheConfig) (*Cache, error) {
	if cfg.Dir == "" {
		return nil, errors.New("cache directory not set")
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultCacheConfig().MaxBytes
	}
	if cfg.Level <= 0 {
		cfg.Level = DefaultCacheConfig().Level
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(cfg.Level)))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}

	c := &Cache{
		dir:      cfg.Dir,
		capacity: cfg.MaxBytes,
		encoder:  enc,
		decoder:  dec,
		index:    make(map[string]*cacheEntry),
	}
	if err := c.loadIndex(); err != nil {
		log.Debug("Starting with empty extraction cache", "dir", cfg.Dir, "err", err)
		c.index = make(map[string]*cacheEntry)
	}
	for _, e := range c.index {
		c.size += e.Size
	}
	return c, nil
}

// Key identifies a file by path, size and modification time, so edits to
// a document invalidate its entry.
func Key(path string, info os.FileInfo) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%d\x00%d", path, info.Size(), info.ModTime().UnixNano())
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached text for key.
func (c *Cache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.index[key]
	if !ok {
		c.misses++
		return "", false
	}
	data, err := os.ReadFile(e.File)
	if err == nil {
		data, err = c.decoder.DecodeAll(data, nil)
	}
	if err != nil {
		c.drop(key)
		c.misses++
		return "", false
	}
	e.LastAccess = time.Now()
	c.hits++
	return string(data), true
}

// Put stores text under key, evicting the least recently used entries to
// stay within capacity.
func (c *Cache) Put(key, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data := c.encoder.EncodeAll([]byte(text), nil)
	size := int64(len(data))
	if size > c.capacity {
		return ErrTooLarge
	}
	if _, ok := c.index[key]; ok {
		c.drop(key)
	}
	for c.size+size > c.capacity && len(c.index) > 0 {
		c.evictOldest()
	}

	file := filepath.Join(c.dir, key+".txt.zst")
	if err := writeAtomic(file, data); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	now := time.Now()
	c.index[key] = &cacheEntry{
		Key:        key,
		File:       file,
		Size:       size,
		TextSize:   int64(len(text)),
		Stored:     now,
		LastAccess: now,
	}
	c.size += size
	return c.saveIndex()
}

// Clear removes every entry.
func (c *Cache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.index {
		c.drop(key)
	}
	return c.saveIndex()
}

// Len returns the number of cached documents.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.index)
}

// Size returns the compressed bytes on disk.
func (c *Cache) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

// Stats returns hit and miss counts since the cache was opened.
func (c *Cache) Stats() (hits, misses int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

// Close persists the index and releases the codecs.
func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	err := c.saveIndex()
	c.decoder.Close()
	if cerr := c.encoder.Close(); err == nil {
		err = cerr
	}
	return err
}

func (c *Cache) drop(key string) {
	e, ok := c.index[key]
	if !ok {
		return
	}
	_ = os.Remove(e.File)
	c.size -= e.Size
	delete(c.index, key)
}

func (c *Cache) evictOldest() {
	var oldest *cacheEntry
	for _, e := range c.index {
		if oldest == nil || e.LastAccess.Before(oldest.LastAccess) {
			oldest = e
		}
	}
	if oldest != nil {
		log.Debug("Evicting cached text", "key", oldest.Key, "size", oldest.Size)
		c.drop(oldest.Key)
	}
}

func (c *Cache) loadIndex() error {
	f, err := os.Open(filepath.Join(c.dir, indexFile))
	if err != nil {
		return err
	}
	defer f.Close() //nolint:errcheck
	var entries []*cacheEntry
	if err := gob.NewDecoder(f).Decode(&entries); err != nil {
		return err
	}
	for _, e := range entries {
		if _, err := os.Stat(e.File); err == nil {
			c.index[e.Key] = e
		}
	}
	return nil
}

func (c *Cache) saveIndex() error {
	entries := make([]*cacheEntry, 0, len(c.index))
	for _, e := range c.index {
		entries = append(entries, e)
	}
	path := filepath.Join(c.dir, indexFile)
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := gob.NewEncoder(f).Encode(entries); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Cached wraps an Extractor with a Cache.
type Cached struct {
	next  Extractor
	cache *Cache
}

// WithCache returns an extractor that consults cache before next. A nil
// cache returns next unchanged.
func WithCache(next Extractor, cache *Cache) Extractor {
	if cache == nil {
		return next
	}
	return &Cached{next: next, cache: cache}
}

// Extract returns cached text when the file is unchanged since it was
// stored, and populates the cache otherwise. Cache write failures are
// logged and do not fail extraction.
func (c *Cached) Extract(ctx context.Context, path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("failed to stat %s: %w", path, err)
	}
	key := Key(path, info)
	if text, ok := c.cache.Get(key); ok {
		log.Debug("Extraction cache hit", "path", path)
		return text, nil
	}
	text, err := c.next.Extract(ctx, path)
	if err != nil {
		return "", err
	}
	if err := c.cache.Put(key, text); err != nil {
		log.Warn("Could not cache extracted text", "path", path, "err", err)
	}
	return text, nil
}
