// Package llm talks to the multimodal classifier that grades posts.
package llm

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/TobiSchelling/AdWatch/internal/media"
	"github.com/TobiSchelling/AdWatch/internal/retry"
)

// NoContent is returned without a network call when there is nothing to grade.
const NoContent = "NO CONTENT"

// ErrNoKeys is returned when the credential pool would be empty.
var ErrNoKeys = errors.New("no classifier API keys configured")

// KeyPool hands out API keys in round-robin order.
type KeyPool struct {
	keys   []string
	cursor int
}

// NewKeyPool creates a pool, dropping blank keys.
func NewKeyPool(keys []string) (*KeyPool, error) {
	var clean []string
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			clean = append(clean, k)
		}
	}
	if len(clean) == 0 {
		return nil, ErrNoKeys
	}
	return &KeyPool{keys: clean}, nil
}

// ParseKeys splits a comma-separated key list.
func ParseKeys(s string) []string {
	return strings.Split(s, ",")
}

// Next returns the key at the cursor and advances it, wrapping at the end.
func (p *KeyPool) Next() string {
	k := p.keys[p.cursor]
	p.cursor = (p.cursor + 1) % len(p.keys)
	return k
}

// Len returns the pool size.
func (p *KeyPool) Len() int {
	return len(p.keys)
}

// TransientError marks a failure that is worth retrying.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return "transient: " + e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

// IsTransient reports whether err should be retried.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// ClientOptions configures a Client.
type ClientOptions struct {
	Policy  retry.Policy
	Timeout time.Duration
	Sleep   retry.SleepFunc
	Logger  *slog.Logger
}

// Client grades captions and media with retry and key rotation.
type Client struct {
	gen     Generator
	keys    *KeyPool
	policy  retry.Policy
	timeout time.Duration
	sleep   retry.SleepFunc
	log     *slog.Logger
}

// NewClient wraps gen with the resilience policy.
func NewClient(gen Generator, keys *KeyPool, opts ClientOptions) *Client {
	if opts.Policy.MaxAttempts == 0 {
		opts.Policy = retry.DefaultPolicy()
	}
	if opts.Sleep == nil {
		opts.Sleep = retry.Sleep
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Client{
		gen:     gen,
		keys:    keys,
		policy:  opts.Policy,
		timeout: opts.Timeout,
		sleep:   opts.Sleep,
		log:     opts.Logger,
	}
}

// Classify sends the policy prompt, caption and media to the model and
// returns its cleaned answer.
func (c *Client) Classify(ctx context.Context, caption string, handles []media.Handle) (string, error) {
	parts := c.buildParts(caption, handles)
	if len(parts) == 0 {
		c.log.Warn("no content to send to classifier")
		return NoContent, nil
	}

	var text string
	err := retry.Do(ctx, c.policy, c.loggingSleep, IsTransient, func(ctx context.Context, attempt int) error {
		c.log.Debug("calling classifier", "attempt", attempt)
		out, err := c.attempt(ctx, parts)
		if err != nil {
			return err
		}
		text = out
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("classifying post: %w", err)
	}
	return CleanResponse(text), nil
}

func (c *Client) loggingSleep(ctx context.Context, d time.Duration) error {
	c.log.Warn("classifier temporarily unavailable, retrying", "delay", d)
	return c.sleep(ctx, d)
}

func (c *Client) attempt(ctx context.Context, parts []Part) (string, error) {
	attemptCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	out, err := c.gen.GenerateContent(attemptCtx, c.keys.Next(), parts)
	if err == nil {
		return out, nil
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Temporary() {
		return "", &TransientError{Err: err}
	}
	// A hung call cut off by our own deadline counts as transient; the
	// caller's cancellation does not.
	if ctx.Err() == nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
		return "", &TransientError{Err: err}
	}
	return "", err
}

func (c *Client) buildParts(caption string, handles []media.Handle) []Part {
	var parts []Part
	if strings.TrimSpace(caption) != "" {
		parts = append(parts, Part{Text: BuildPrompt(caption)})
	}

	for _, h := range handles {
		data, err := os.ReadFile(h.Path)
		if err != nil {
			c.log.Warn("skipping unreadable media", "path", h.Path, "error", err)
			continue
		}
		parts = append(parts, Part{InlineData: &Blob{
			MIMEType: h.MIMEType,
			Data:     base64.StdEncoding.EncodeToString(data),
		}})
	}

	// Media without caption still needs the grading instructions.
	if len(parts) > 0 && parts[0].Text == "" {
		parts = append([]Part{{Text: BuildPrompt("")}}, parts...)
	}
	return parts
}
