// Package workshop reads the server's workshop item list and looks up when each
// item was last updated on its public details page.
package workshop

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/time/rate"

	"github.com/turtacn/Perennis/pkg/errors"
)

const (
	statsContainerClass = "detailsStatsContainerRight"
	statClass           = "detailsStatRight"
	// Stats are listed as size, posted, updated. Items that were never updated
	// have no third entry.
	updatedStatIndex = 2

	maxPageBytes = 4 << 20
)

// Client fetches details pages, paced by a token bucket so a long mod list does
// not hammer the workshop.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a Client. requestsPerSecond <= 0 disables pacing.
func NewClient(baseURL string, requestsPerSecond float64, timeout time.Duration) *Client {
	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(limit, 1),
	}
}

// LastUpdated returns the normalised "Updated" stamp of one workshop item.
func (c *Client) LastUpdated(ctx context.Context, id string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", errors.New(errors.ErrCodeOracleFetch, "LastUpdated", "rate limiter", err)
	}

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", errors.New(errors.ErrCodeOracleFetch, "LastUpdated", "bad base url", err)
	}
	q := u.Query()
	q.Set("id", id)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", errors.New(errors.ErrCodeOracleFetch, "LastUpdated", "build request", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", errors.New(errors.ErrCodeOracleFetch, "LastUpdated", "request for "+id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errors.New(errors.ErrCodeOracleFetch, "LastUpdated",
			fmt.Sprintf("status %d for %s", resp.StatusCode, id), nil)
	}

	return ParseUpdated(io.LimitReader(resp.Body, maxPageBytes))
}

// ParseUpdated extracts the "Updated" stamp from a details page.
func ParseUpdated(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", errors.New(errors.ErrCodeOracleParse, "ParseUpdated", "invalid html", err)
	}

	container := findByClass(doc, statsContainerClass)
	if container == nil {
		return "", errors.New(errors.ErrCodeOracleParse, "ParseUpdated", "stats container not found", nil)
	}

	var stats []string
	for n := container.FirstChild; n != nil; n = n.NextSibling {
		if n.Type == html.ElementNode && hasClass(n, statClass) {
			stats = append(stats, textOf(n))
		}
	}
	if len(stats) <= updatedStatIndex {
		return "", errors.New(errors.ErrCodeOracleParse, "ParseUpdated", "item has no update stamp", nil)
	}
	return normalizeStamp(stats[updatedStatIndex]), nil
}

// normalizeStamp turns "9 Sep, 2024 @ 7:12pm" into "9 Sep, 2024 7:12pm".
func normalizeStamp(s string) string {
	s = strings.ReplaceAll(s, "@", "")
	return strings.Join(strings.Fields(s), " ")
}

func findByClass(n *html.Node, class string) *html.Node {
	if n.Type == html.ElementNode && hasClass(n, class) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByClass(c, class); found != nil {
			return found
		}
	}
	return nil
}

func hasClass(n *html.Node, class string) bool {
	for _, a := range n.Attr {
		if a.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(a.Val) {
			if c == class {
				return true
			}
		}
	}
	return false
}

func textOf(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(b.String())
}

// Personal.AI order the ending
