package providers

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

	"github.com/Krzykoz/Savings-Tracker/date"
)

// diskCache is a RoundTripper that caches GET responses on disk, keyed per
// calendar day, so repeated calls for "today's" price within a session
// don't hammer a provider's free tier. Ported from
// github.com/etnz/portfolio's httputil.go diskCache, generalized from "one
// ticker's market data" to "any provider response".
type diskCache struct {
	base http.RoundTripper
}

func (c *diskCache) RoundTrip(req *http.Request) (*http.Response, error) {
	key := fmt.Sprintf("%s %s %s", date.Today().String(), req.Method, req.URL.String())
	key = fmt.Sprintf("%x", sha1.Sum([]byte(key)))

	if cached, err := c.get(key, req); err == nil {
		return cached, nil
	}

	resp, err := c.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		return resp, nil
	}
	if err := c.put(key, resp); err != nil {
		log.Printf("providers: disk cache write failed (ignored): %v", err)
	}
	return resp, nil
}

func (c *diskCache) get(key string, req *http.Request) (*http.Response, error) {
	content, err := os.ReadFile(filepath.Join(os.TempDir(), "savings-tracker-"+key))
	if err != nil {
		return nil, err
	}
	return http.ReadResponse(bufio.NewReader(bytes.NewBuffer(content)), req)
}

func (c *diskCache) put(key string, resp *http.Response) error {
	content, err := httputil.DumpResponse(resp, true)
	if err != nil {
		return err
	}
	f, err := os.Create(filepath.Join(os.TempDir(), "savings-tracker-"+key))
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.Write(content)
	return err
}

// dailyClient returns an *http.Client bounded by Timeout with a daily
// disk-backed response cache.
func dailyClient() *http.Client {
	return &http.Client{
		Timeout:   Timeout,
		Transport: &diskCache{base: http.DefaultTransport},
	}
}

// getJSON performs an HTTP GET and decodes the JSON response body into out.
// Ported from github.com/etnz/portfolio's httputil.go jwget, adapted to take
// a context so every provider call is independently cancellable.
func getJSON(ctx context.Context, client *http.Client, addr string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s/%s: %s", resp.Request.URL.Host, resp.Request.URL.Path, resp.Status)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, resp.Body); err != nil {
		return err
	}
	return json.Unmarshal(buf.Bytes(), out)
}
