package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/motionai/motion-engine/internal/sanitize"
	"github.com/motionai/motion-engine/internal/transcribe"
)

// Fetcher resolves an upload reference (http(s) URL or storage key) to bytes.
type Fetcher struct {
	store    MediaStore
	client   *http.Client
	maxBytes int64
}

// NewFetcher creates a fetcher. store may be nil when only URLs are used.
func NewFetcher(store MediaStore, maxBytes int64, timeout time.Duration) *Fetcher {
	return &Fetcher{
		store:    store,
		client:   &http.Client{Timeout: timeout},
		maxBytes: maxBytes,
	}
}

// MaxBytes returns the upload size limit.
func (f *Fetcher) MaxBytes() int64 { return f.maxBytes }

// Fetch reads the referenced media. Media larger than the limit is rejected
// with ErrTooLarge without reading past the limit.
func (f *Fetcher) Fetch(ctx context.Context, ref string) (transcribe.Media, error) {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return f.fetchURL(ctx, ref)
	}
	return f.fetchKey(ctx, ref)
}

func (f *Fetcher) fetchURL(ctx context.Context, rawURL string) (transcribe.Media, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return transcribe.Media{}, fmt.Errorf("parse url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return transcribe.Media{}, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return transcribe.Media{}, fmt.Errorf("fetch %s: %w", u.Host, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return transcribe.Media{}, fmt.Errorf("fetch %s: status %d", u.Host, resp.StatusCode)
	}
	if f.maxBytes > 0 && resp.ContentLength > f.maxBytes {
		return transcribe.Media{}, fmt.Errorf("%w: %d bytes", ErrTooLarge, resp.ContentLength)
	}
	data, err := f.readLimited(resp.Body)
	if err != nil {
		return transcribe.Media{}, err
	}

	name := sanitize.FileName(path.Base(u.Path))
	if name == "_" {
		name = ""
	}
	return transcribe.Media{
		Data:        data,
		Filename:    name,
		ContentType: contentType(resp.Header.Get("Content-Type"), name),
	}, nil
}

func (f *Fetcher) fetchKey(ctx context.Context, key string) (transcribe.Media, error) {
	if f.store == nil {
		return transcribe.Media{}, fmt.Errorf("%w: no media store configured", ErrNotFound)
	}
	rc, err := f.store.Open(ctx, key)
	if err != nil {
		return transcribe.Media{}, err
	}
	defer rc.Close()
	data, err := f.readLimited(rc)
	if err != nil {
		return transcribe.Media{}, err
	}
	name := sanitize.FileName(path.Base(key))
	return transcribe.Media{
		Data:        data,
		Filename:    name,
		ContentType: ContentTypeFor(name),
	}, nil
}

func (f *Fetcher) readLimited(r io.Reader) ([]byte, error) {
	if f.maxBytes <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read media: %w", err)
	}
	if int64(len(data)) > f.maxBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, f.maxBytes)
	}
	return data, nil
}

// contentType prefers a specific header value and falls back to the extension.
func contentType(header, name string) string {
	if header != "" {
		if mt, _, err := mime.ParseMediaType(header); err == nil && mt != "application/octet-stream" {
			return mt
		}
	}
	return ContentTypeFor(name)
}
