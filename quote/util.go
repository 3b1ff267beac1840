package quote

import (
	"bufio"
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httputil"
	"os"
	"path/filepath"
	"time"
)

// diskCache implements a simple disk cache for HTTP responses.
//
// Entries are keyed on the request and on the current ttl bucket, so that a
// new bucket naturally expires the previous entries.
type diskCache struct {
	base http.RoundTripper
	ttl  time.Duration
	dir  string // empty is os.TempDir()
	now  func() time.Time
}

// RoundTrip implements the http.RoundTripper interface. It checks for a cached
// response on disk first. If none is found it proceeds with the actual HTTP
// request and caches the response if it is successful.
func (c *diskCache) RoundTrip(req *http.Request) (resp *http.Response, err error) {
	key := c.key(req)

	cachedResp, err := c.get(key, req)
	if err == nil { // Cache hit
		return cachedResp, nil
	}

	resp, err = c.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	log.Printf("%v %v%v %v", resp.Request.Method, resp.Request.URL.Host, resp.Request.URL.Path, resp.Status)
	if resp.StatusCode >= 300 {
		return resp, nil
	}

	err = c.put(key, resp)
	if err != nil {
		log.Printf("cache write err (ignored): %v\n", err)
	}
	return resp, nil
}

func (c *diskCache) key(req *http.Request) string {
	now := time.Now
	if c.now != nil {
		now = c.now
	}
	bucket := now().Truncate(c.ttl).Unix()
	key := fmt.Sprintf("%d %s %s", bucket, req.Method, req.URL.String())
	return fmt.Sprintf("pft-quote-%x", sha1.Sum([]byte(key)))
}

func (c *diskCache) path(key string) string {
	dir := c.dir
	if dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, key)
}

// get retrieves a cached response from disk
func (c *diskCache) get(key string, req *http.Request) (resp *http.Response, err error) {
	content, err := os.ReadFile(c.path(key))
	if err != nil {
		return nil, err
	}
	return http.ReadResponse(bufio.NewReader(bytes.NewBuffer(content)), req)
}

// put stores a response to disk cache
func (c *diskCache) put(key string, resp *http.Response) (err error) {
	content, err := httputil.DumpResponse(resp, true)
	if err != nil {
		return err
	}
	return os.WriteFile(c.path(key), content, 0600)
}

// NewCachingClient returns an http.Client whose successful responses are kept
// on disk for ttl. A ttl of zero or less disables the cache.
func NewCachingClient(ttl time.Duration) *http.Client {
	client := &http.Client{Timeout: 15 * time.Second}
	if ttl > 0 {
		client.Transport = &diskCache{base: http.DefaultTransport, ttl: ttl}
	}
	return client
}

// statusError is returned for non 200 responses.
type statusError struct {
	Host, Path string
	Code       int
	Status     string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("cannot http GET %v%v: %v", e.Host, e.Path, e.Status)
}

// jwget performs an HTTP GET request to the given address and unmarshals the
// JSON response body into data.
func jwget(ctx context.Context, client *http.Client, addr string, header http.Header, data any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return err
	}
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &statusError{Host: req.URL.Host, Path: req.URL.Path, Code: resp.StatusCode, Status: resp.Status}
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, resp.Body); err != nil {
		return err
	}
	return json.Unmarshal(buf.Bytes(), data)
}
