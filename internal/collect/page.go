// Package collect discovers candidate post URLs for a monitored account.
package collect

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// PageSource scrapes post links from the account page.
type PageSource struct {
	accountURL string
	patterns   []string
	maxPosts   int
	client     *http.Client
	log        *slog.Logger
}

// NewPageSource creates a source for accountURL. Links are kept when their
// path contains any of patterns.
func NewPageSource(accountURL string, patterns []string, maxPosts int, timeout time.Duration, log *slog.Logger) *PageSource {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &PageSource{
		accountURL: accountURL,
		patterns:   patterns,
		maxPosts:   maxPosts,
		client:     &http.Client{Timeout: timeout},
		log:        log,
	}
}

// Discover loads the account page and returns matching post links in page order.
func (s *PageSource) Discover(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.accountURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", "AdWatch/1.0 (compliance monitor)")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("loading account page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("loading account page: HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading account page: %w", err)
	}

	urls, err := ExtractLinks(s.accountURL, body, s.patterns, s.maxPosts)
	if err != nil {
		return nil, err
	}
	s.log.Info("discovered posts from page", "account", s.accountURL, "count", len(urls))
	return urls, nil
}

// ExtractLinks returns absolute, de-duplicated anchors from body whose path
// matches one of patterns.
func ExtractLinks(base string, body []byte, patterns []string, max int) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing account page: %w", err)
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parsing account url: %w", err)
	}

	var urls []string
	seen := make(map[string]struct{})
	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if max > 0 && len(urls) >= max {
			return false
		}
		ref, err := url.Parse(strings.TrimSpace(a.AttrOr("href", "")))
		if err != nil {
			return true
		}
		abs := baseURL.ResolveReference(ref)
		abs.Fragment = ""
		if !matches(abs.Path, patterns) {
			return true
		}
		link := abs.String()
		if _, dup := seen[link]; dup {
			return true
		}
		seen[link] = struct{}{}
		urls = append(urls, link)
		return true
	})
	return urls, nil
}

func matches(path string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(path, p) {
			return true
		}
	}
	return false
}
