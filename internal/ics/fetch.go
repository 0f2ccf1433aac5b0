package ics

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	appLog "leaderflow/internal/log"
)

const (
	fetchTimeout = 15 * time.Second
	maxBodyBytes = 16 << 20

	metaFile = "meta.json"
	bodyFile = "body.ics"
)

// Feed is one subscribed calendar.
type Feed struct {
	ID  string
	URL string
}

// Fetched is the outcome of fetching one feed.
type Fetched struct {
	Feed Feed
	Body []byte
	// FromCache is true when the body came from disk (304, network error,
	// or a non-OK status with a cached copy available).
	FromCache bool
}

// validators are the HTTP cache headers remembered per URL.
type validators struct {
	URL          string    `json:"url"`
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Fetcher downloads feeds with conditional requests and keeps the last good
// body on disk so a flaky upstream never empties the calendar.
type Fetcher struct {
	client   *http.Client
	cacheDir string
	maxBytes int64
}

// NewFetcher returns a Fetcher caching under cacheDir. A nil client gets a
// default one with a 15s timeout.
func NewFetcher(cacheDir string, client *http.Client) *Fetcher {
	if cacheDir == "" {
		cacheDir = "./var/ics-cache"
	}
	if client == nil {
		client = &http.Client{Timeout: fetchTimeout}
	}
	return &Fetcher{client: client, cacheDir: cacheDir, maxBytes: maxBodyBytes}
}

// Fetch retrieves feed, sending If-None-Match / If-Modified-Since from the
// cache and falling back to the cached body whenever the upstream fails.
func (f *Fetcher) Fetch(ctx context.Context, feed Feed) (Fetched, error) {
	if feed.URL == "" {
		return Fetched{}, errors.New("ics: feed URL is empty")
	}

	dir := f.cacheDirFor(feed.URL)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return Fetched{}, fmt.Errorf("ics: cache dir: %w", err)
	}
	meta, _ := loadValidators(dir)
	cached, _ := os.ReadFile(filepath.Join(dir, bodyFile))

	fallback := func(cause error) (Fetched, error) {
		if len(cached) == 0 {
			return Fetched{}, cause
		}
		appLog.Warn("ics fetch failed, using cached body", "feed", feed.ID, "url", redactURL(feed.URL), "reason", cause.Error())
		return Fetched{Feed: feed, Body: cached, FromCache: true}, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feed.URL, nil)
	if err != nil {
		return Fetched{}, err
	}
	if meta.ETag != "" {
		req.Header.Set("If-None-Match", meta.ETag)
	}
	if meta.LastModified != "" {
		req.Header.Set("If-Modified-Since", meta.LastModified)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return fallback(err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
		if err != nil {
			return fallback(err)
		}
		if int64(len(body)) > f.maxBytes {
			return fallback(fmt.Errorf("ics: body exceeds %d bytes", f.maxBytes))
		}
		next := validators{
			URL:          feed.URL,
			ETag:         resp.Header.Get("ETag"),
			LastModified: resp.Header.Get("Last-Modified"),
		}
		if err := saveCache(dir, next, body); err != nil {
			appLog.Error("ics cache save failed", err, "feed", feed.ID)
		}
		appLog.Info("ics fetch success", "feed", feed.ID, "url", redactURL(feed.URL), "bytes", len(body))
		return Fetched{Feed: feed, Body: body}, nil

	case http.StatusNotModified:
		if len(cached) == 0 {
			return Fetched{}, errors.New("ics: 304 Not Modified but nothing cached")
		}
		appLog.Debug("ics feed not modified", "feed", feed.ID)
		return Fetched{Feed: feed, Body: cached, FromCache: true}, nil

	default:
		return fallback(fmt.Errorf("ics: unexpected status %s", resp.Status))
	}
}

func (f *Fetcher) cacheDirFor(rawURL string) string {
	sum := sha256.Sum256([]byte(rawURL))
	return filepath.Join(f.cacheDir, hex.EncodeToString(sum[:8]))
}

func loadValidators(dir string) (validators, error) {
	var v validators
	data, err := os.ReadFile(filepath.Join(dir, metaFile))
	if err != nil {
		return v, err
	}
	err = json.Unmarshal(data, &v)
	return v, err
}

// saveCache writes the body before the metadata so the validators never
// describe a body that is not on disk.
func saveCache(dir string, v validators, body []byte) error {
	if err := os.WriteFile(filepath.Join(dir, bodyFile), body, 0o600); err != nil {
		return err
	}
	v.UpdatedAt = time.Now().UTC()
	data, err := json.MarshalIndent(&v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, metaFile), data, 0o600)
}

// redactURL keeps only scheme and host; feed URLs often embed secrets.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "ics://...(redacted)"
	}
	return u.Scheme + "://" + u.Host + "/...(redacted)"
}
