package export

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"
)

// Font fetch defaults.
const (
	DefaultFontTimeout  = 30 * time.Second
	DefaultFontMaxBytes = 32 << 20
)

// FontSource locates the TrueType font used for PDF text.
type FontSource struct {
	// Location is an http(s) URL or a file path.
	Location string
	// Timeout bounds an HTTP fetch. Zero means DefaultFontTimeout.
	Timeout time.Duration
	// MaxBytes bounds the font size. Zero means DefaultFontMaxBytes.
	MaxBytes int64
	// Client performs HTTP fetches. Nil means a client with Timeout.
	Client *http.Client
}

// FontCache fetches its font once per process. Concurrent first callers
// share the same fetch, and a failed fetch is remembered.
type FontCache struct {
	source string
	load   func() ([]byte, error)
}

// NewFontCache returns a cache for src. Nothing is fetched until Load.
func NewFontCache(src FontSource) *FontCache {
	return &FontCache{
		source: src.Location,
		load:   sync.OnceValues(func() ([]byte, error) { return fetchFont(src) }),
	}
}

// Source returns the font location.
func (c *FontCache) Source() string {
	return c.source
}

// Load returns the font bytes. Failures are *ExternalResourceError.
func (c *FontCache) Load() ([]byte, error) {
	return c.load()
}

func fetchFont(src FontSource) ([]byte, error) {
	maxBytes := src.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultFontMaxBytes
	}
	var (
		data []byte
		err  error
	)
	if isURL(src.Location) {
		data, err = fetchHTTP(src, maxBytes)
	} else {
		data, err = readFile(src.Location, maxBytes)
	}
	if err != nil {
		return nil, &ExternalResourceError{Resource: src.Location, Err: err}
	}
	return data, nil
}

func isURL(location string) bool {
	lower := strings.ToLower(location)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

func fetchHTTP(src FontSource, maxBytes int64) ([]byte, error) {
	client := src.Client
	if client == nil {
		timeout := src.Timeout
		if timeout <= 0 {
			timeout = DefaultFontTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	resp, err := client.Get(src.Location)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return limitedReadAll(resp.Body, maxBytes)
}

func readFile(path string, maxBytes int64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return limitedReadAll(f, maxBytes)
}

func limitedReadAll(r io.Reader, maxBytes int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("font exceeds %d bytes", maxBytes)
	}
	return data, nil
}
