package collect

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mmcdole/gofeed"
)

// FeedSource discovers post URLs from an RSS/Atom bridge of the account.
type FeedSource struct {
	feedURL  string
	maxPosts int
	parser   *gofeed.Parser
	log      *slog.Logger
}

// NewFeedSource creates a source reading feedURL. maxPosts <= 0 means no limit.
func NewFeedSource(feedURL string, maxPosts int, log *slog.Logger) *FeedSource {
	if log == nil {
		log = slog.Default()
	}
	return &FeedSource{
		feedURL:  feedURL,
		maxPosts: maxPosts,
		parser:   gofeed.NewParser(),
		log:      log,
	}
}

// Discover returns the post links of the feed in feed order.
func (s *FeedSource) Discover(ctx context.Context) ([]string, error) {
	feed, err := s.parser.ParseURLWithContext(s.feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parsing feed %s: %w", s.feedURL, err)
	}

	urls := ItemURLs(feed, s.maxPosts)
	s.log.Info("discovered posts from feed", "feed", s.feedURL, "count", len(urls))
	return urls, nil
}

// ItemURLs extracts unique item links from feed, capped at max.
func ItemURLs(feed *gofeed.Feed, max int) []string {
	var urls []string
	seen := make(map[string]struct{})
	for _, item := range feed.Items {
		if max > 0 && len(urls) >= max {
			break
		}
		itemURL := strings.TrimSpace(item.Link)
		if itemURL == "" {
			itemURL = strings.TrimSpace(item.GUID)
		}
		if itemURL == "" {
			continue
		}
		if _, dup := seen[itemURL]; dup {
			continue
		}
		seen[itemURL] = struct{}{}
		urls = append(urls, itemURL)
	}
	return urls
}
