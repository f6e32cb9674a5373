// Package media materializes post images and videos as local files so they
// can be sent to the classifier and attached to alerts.
package media

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Kind is the type of media a post carries.
type Kind string

const (
	KindNone  Kind = "none"
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

// Ref points at media that has not been downloaded yet.
type Ref struct {
	Kind    Kind
	Locator string
}

// Handle is a downloaded media file.
type Handle struct {
	Path     string
	MIMEType string
	Kind     Kind
}

// Result is what a fetch produced. Caption is set when the extractor
// reported post text alongside the media.
type Result struct {
	Handles []Handle
	Caption string
}

// VideoExtractor downloads the videos behind a post URL.
type VideoExtractor interface {
	Extract(ctx context.Context, postURL, name string) (*Result, error)
}

// Fetcher downloads images over HTTP and delegates videos to an extractor.
type Fetcher struct {
	imageDir string
	client   *http.Client
	video    VideoExtractor
}

// NewFetcher creates a fetcher writing images into imageDir.
func NewFetcher(imageDir string, timeout time.Duration, video VideoExtractor) *Fetcher {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Fetcher{
		imageDir: imageDir,
		client:   &http.Client{Timeout: timeout},
		video:    video,
	}
}

// Fetch resolves ref into local handles. name is the stable per-item base
// file name. A KindNone ref yields an empty result.
func (f *Fetcher) Fetch(ctx context.Context, name string, ref Ref) (*Result, error) {
	switch ref.Kind {
	case KindImage:
		if ref.Locator == "" {
			return &Result{}, nil
		}
		h, err := f.downloadImage(ctx, ref.Locator, name)
		if err != nil {
			return nil, err
		}
		return &Result{Handles: []Handle{*h}}, nil
	case KindVideo:
		if f.video == nil {
			return nil, fmt.Errorf("no video extractor configured")
		}
		return f.video.Extract(ctx, ref.Locator, name)
	default:
		return &Result{}, nil
	}
}

func (f *Fetcher) downloadImage(ctx context.Context, imageURL, name string) (*Handle, error) {
	if err := os.MkdirAll(f.imageDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating image directory: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating image request: %w", err)
	}
	req.Header.Set("User-Agent", "AdWatch/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("downloading image: HTTP %d", resp.StatusCode)
	}

	mimeType := imageMIME(resp.Header.Get("Content-Type"))
	path := filepath.Join(f.imageDir, name+extensionFor(mimeType))

	out, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating image file: %w", err)
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(path)
		return nil, fmt.Errorf("writing image: %w", err)
	}
	if err := out.Close(); err != nil {
		return nil, fmt.Errorf("closing image: %w", err)
	}

	return &Handle{Path: path, MIMEType: mimeType, Kind: KindImage}, nil
}

func imageMIME(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mt, "image/") {
		return "image/jpeg"
	}
	return mt
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".jpg"
	}
}
