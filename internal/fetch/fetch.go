// Package fetch loads a single post page and extracts its caption, time and media.
package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"github.com/TobiSchelling/AdWatch/internal/media"
)

const userAgent = "AdWatch/1.0 (compliance monitor)"

// RawPost is what could be read off a post page.
type RawPost struct {
	URL      string
	Caption  string
	TimeText string
	Media    []media.Ref
}

// PostFetcher fetches post pages over HTTP.
type PostFetcher struct {
	client *http.Client
}

// NewPostFetcher creates a fetcher with the given request timeout.
func NewPostFetcher(timeout time.Duration) *PostFetcher {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &PostFetcher{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
	}
}

// HTTPError is returned for 4xx/5xx responses.
type HTTPError struct {
	Code int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d %s", e.Code, http.StatusText(e.Code))
}

// FetchPost downloads postURL and extracts the post fields.
func (f *PostFetcher) FetchPost(ctx context.Context, postURL string) (*RawPost, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, postURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, &HTTPError{Code: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading post: %w", err)
	}

	return ParsePost(postURL, body)
}

// ParsePost extracts a RawPost from page markup.
func ParsePost(postURL string, body []byte) (*RawPost, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing post: %w", err)
	}

	post := &RawPost{URL: postURL}

	post.Caption = firstNonEmpty(
		meta(doc, "og:description"),
		meta(doc, "description"),
	)
	if post.Caption == "" {
		post.Caption = readableText(postURL, body)
	}

	post.TimeText = firstNonEmpty(
		strings.TrimSpace(doc.Find("time[datetime]").First().AttrOr("datetime", "")),
		meta(doc, "article:published_time"),
		strings.TrimSpace(doc.Find("time").First().Text()),
	)

	post.Media = mediaRefs(postURL, doc)
	return post, nil
}

func mediaRefs(postURL string, doc *goquery.Document) []media.Ref {
	if isVideoURL(postURL) || meta(doc, "og:video") != "" || meta(doc, "og:video:url") != "" {
		return []media.Ref{{Kind: media.KindVideo, Locator: postURL}}
	}
	if img := meta(doc, "og:image"); img != "" {
		return []media.Ref{{Kind: media.KindImage, Locator: resolve(postURL, img)}}
	}
	return []media.Ref{{Kind: media.KindNone}}
}

func isVideoURL(postURL string) bool {
	return strings.Contains(postURL, "/reel/") || strings.Contains(postURL, "/videos/")
}

// meta reads a <meta> tag by property, falling back to name.
func meta(doc *goquery.Document, key string) string {
	sel := doc.Find(fmt.Sprintf(`meta[property=%q]`, key))
	if sel.Length() == 0 {
		sel = doc.Find(fmt.Sprintf(`meta[name=%q]`, key))
	}
	return strings.TrimSpace(sel.First().AttrOr("content", ""))
}

func readableText(postURL string, body []byte) string {
	parsedURL, _ := url.Parse(postURL)
	article, err := readability.FromReader(bytes.NewReader(body), parsedURL)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(article.TextContent)
}

func resolve(base, ref string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
