package main

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/flock"
)

const (
	CACHE_ENV   = "SGCACHE"
	RENDERS_DIR = "renders"
	RENDER_FILE = "render.wav"
	CATALOG_DB  = "catalog.db"

	KEEP_RENDERS   = 20
	RENDER_MIN_AGE = 7 * 24 * time.Hour
)

// defaultCacheDir returns $SGCACHE, or synthgraph under the user cache
// directory, falling back to the temp directory when there is none.
func defaultCacheDir() string {
	if env := os.Getenv(CACHE_ENV); env != "" {
		return env
	}
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "synthgraph")
	}
	return filepath.Join(os.TempDir(), "synthgraph")
}

// renderKey holds everything that changes the bytes of a rendered file.
type renderKey struct {
	text       string
	sampleRate int
	frames     int
	bitDepth   int
}

func (k renderKey) write(h hash.Hash) {
	h.Write([]byte(k.text))
	h.Write([]byte{0})
	for _, n := range []int{k.sampleRate, k.frames, k.bitDepth} {
		h.Write([]byte(strconv.Itoa(n)))
		h.Write([]byte{0})
	}
	h.Write([]byte(Version))
}

// hashes returns the 8-char directory name and the full hex digest.
func (k renderKey) hashes() (shortHash, fullHash string) {
	h := sha256.New()
	k.write(h)
	fullHash = hex.EncodeToString(h.Sum(nil))
	return fullHash[:8], fullHash
}

// isRenderDir reports whether name looks like a short render hash.
func isRenderDir(name string) bool {
	if len(name) != 8 || strings.ToLower(name) != name {
		return false
	}
	_, err := hex.DecodeString(name)
	return err == nil
}

type renderCache struct {
	dir    string
	logger *slog.Logger
}

func newRenderCache(cacheDir string, logger *slog.Logger) *renderCache {
	return &renderCache{
		dir:    filepath.Join(cacheDir, RENDERS_DIR),
		logger: logger,
	}
}

// cachedRender is the outcome of prepare.
type cachedRender struct {
	path     string
	fullHash string
	peak     float64
	hit      bool
}

// prepare returns the cached file for key, calling produce to write it on a
// miss. produce receives the destination path and returns the peak sample.
// A file lock ensures concurrent processes see either a complete render or
// build it themselves.
func (c *renderCache) prepare(key renderKey, produce func(path string) (float64, error),
	peakOf func(path string) (float64, error)) (cachedRender, error) {
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return cachedRender{}, fmt.Errorf("create render cache dir: %w", err)
	}

	lock := flock.New(filepath.Join(c.dir, ".lock"))
	if err := lock.Lock(); err != nil {
		return cachedRender{}, fmt.Errorf("acquire render cache lock: %w", err)
	}
	defer lock.Unlock()

	shortHash, fullHash := key.hashes()
	renderDir := filepath.Join(c.dir, shortHash)
	hashFile := filepath.Join(renderDir, ".hash")
	out := cachedRender{path: filepath.Join(renderDir, RENDER_FILE), fullHash: fullHash}

	if _, err := os.Stat(out.path); err == nil {
		// Verify full hash to detect collisions
		if storedHash, err := os.ReadFile(hashFile); err == nil && string(storedHash) == fullHash {
			peak, err := peakOf(out.path)
			if err == nil {
				c.logger.Info("using cached render", "path", out.path)
				now := time.Now()
				os.Chtimes(renderDir, now, now)
				out.peak, out.hit = peak, true
				return out, nil
			}
			c.logger.Info("cached render unreadable, rebuilding", "path", out.path, "err", err)
		} else {
			c.logger.Info("render hash mismatch, rebuilding", "dir", renderDir)
		}
		os.RemoveAll(renderDir)
	}

	c.logger.Info("rendering", "dir", renderDir)
	if err := os.MkdirAll(renderDir, 0755); err != nil {
		return cachedRender{}, fmt.Errorf("create render dir: %w", err)
	}
	peak, err := produce(out.path)
	if err != nil {
		os.RemoveAll(renderDir)
		return cachedRender{}, err
	}
	// Store full hash after a successful render (acts as completion marker)
	if err := os.WriteFile(hashFile, []byte(fullHash), 0644); err != nil {
		return cachedRender{}, fmt.Errorf("write hash file: %w", err)
	}
	out.peak = peak
	c.prune(shortHash, KEEP_RENDERS, RENDER_MIN_AGE)
	return out, nil
}

// prune evicts renders while the cache lock is held. Directories without a
// .hash marker were left by a crashed render and are removed at once. Of the
// complete renders, the newest keep survive, as does anything used within
// minAge. current is never touched.
func (c *renderCache) prune(current string, keep int, minAge time.Duration) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		c.logger.Warn("failed to list render cache", "dir", c.dir, "err", err)
		return
	}

	type render struct {
		path string
		used time.Time
	}
	var complete []render
	for _, e := range entries {
		if !e.IsDir() || !isRenderDir(e.Name()) || e.Name() == current {
			continue
		}
		path := filepath.Join(c.dir, e.Name())
		if _, err := os.Stat(filepath.Join(path, ".hash")); err != nil {
			c.remove(path, "incomplete")
			continue
		}
		if info, err := e.Info(); err == nil {
			complete = append(complete, render{path, info.ModTime()})
		}
	}

	// newest first; current already counts toward keep
	slices.SortFunc(complete, func(a, b render) int { return b.used.Compare(a.used) })
	cutoff := time.Now().Add(-minAge)
	for i, r := range complete {
		if i+1 >= keep && r.used.Before(cutoff) {
			c.remove(r.path, "expired")
		}
	}
}

func (c *renderCache) remove(path, reason string) {
	if err := os.RemoveAll(path); err != nil {
		c.logger.Warn("failed to remove render", "path", path, "err", err)
		return
	}
	c.logger.Info("removed render", "path", path, "reason", reason)
}
