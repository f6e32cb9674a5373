// Package notify delivers non-compliance alerts.
package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yuin/goldmark"
)

// Alert is everything a recipient needs to review one flagged post.
type Alert struct {
	Platform    string
	URL         string
	Timestamp   time.Time
	Caption     string
	Rationale   string
	Attachments []string
}

// Notifier delivers alerts.
type Notifier interface {
	Notify(ctx context.Context, a Alert) error
}

var md = goldmark.New()

// Subject is only ever composed for alert-worthy posts, so it always
// states the non-compliant verdict.
func Subject(a Alert) string {
	return fmt.Sprintf("🚨 ACTION REQUIRED - NOT COMPLY %s Ad: %s", platformName(a.Platform), a.Timestamp.UTC().Format(time.RFC3339))
}

// TextBody renders the plain-text alert body.
func TextBody(a Alert) string {
	return fmt.Sprintf("URL: %s\nTimestamp: %s\nCaption: %s\n\nGemini Result:\n%s",
		a.URL, a.Timestamp.UTC().Format(time.RFC3339), a.Caption, a.Rationale)
}

// HTMLBody renders the alert as HTML from a Markdown summary.
func HTMLBody(a Alert) (string, error) {
	var src strings.Builder
	fmt.Fprintf(&src, "## NOT COMPLY: %s ad\n\n", platformName(a.Platform))
	fmt.Fprintf(&src, "- **URL:** <%s>\n", a.URL)
	fmt.Fprintf(&src, "- **Timestamp:** %s\n\n", a.Timestamp.UTC().Format(time.RFC3339))
	src.WriteString("### Caption\n\n")
	src.WriteString(quote(a.Caption))
	src.WriteString("\n\n### Classifier result\n\n")
	src.WriteString(a.Rationale)
	src.WriteString("\n")

	var buf bytes.Buffer
	if err := md.Convert([]byte(src.String()), &buf); err != nil {
		return "", fmt.Errorf("rendering alert: %w", err)
	}
	return buf.String(), nil
}

func quote(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i, l := range lines {
		lines[i] = "> " + l
	}
	return strings.Join(lines, "\n")
}

func platformName(p string) string {
	if p == "" {
		return "Social"
	}
	return strings.ToUpper(p[:1]) + p[1:]
}

// Multi fans an alert out to several notifiers. Every notifier is tried.
type Multi []Notifier

// Notify delivers to all notifiers and joins their errors.
func (m Multi) Notify(ctx context.Context, a Alert) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, a); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
