package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// CommandExtractor runs an external downloader (a yt-dlp wrapper script)
// as `<command...> <post url> <name>`. The process must print a JSON object
// {"videos": [paths], "caption": "..."}; the last object on stdout wins so
// progress output before it is tolerated.
type CommandExtractor struct {
	Command []string
	// Dir is the working directory; relative video paths resolve against it.
	Dir string
}

type extractorPayload struct {
	Videos  []string `json:"videos"`
	Caption string   `json:"caption"`
}

// Extract runs the command and returns the videos it reported.
func (e *CommandExtractor) Extract(ctx context.Context, postURL, name string) (*Result, error) {
	if len(e.Command) == 0 {
		return nil, fmt.Errorf("video extractor command not configured")
	}

	args := append(append([]string{}, e.Command[1:]...), postURL, name)
	cmd := exec.CommandContext(ctx, e.Command[0], args...)
	cmd.Dir = e.Dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("video extractor failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	res, err := ParsePayload(stdout.Bytes())
	if err != nil {
		return nil, err
	}
	for i, h := range res.Handles {
		if !filepath.IsAbs(h.Path) && e.Dir != "" {
			res.Handles[i].Path = filepath.Join(e.Dir, h.Path)
		}
	}
	return res, nil
}

// ParsePayload extracts the trailing JSON object from extractor output.
func ParsePayload(stdout []byte) (*Result, error) {
	end := bytes.LastIndexByte(stdout, '}')
	if end < 0 {
		return nil, fmt.Errorf("no JSON payload in extractor output: %q", truncate(stdout, 200))
	}

	// Walk back through opening braces until one starts a valid object, so
	// braces inside the caption do not confuse the search.
	var (
		p       extractorPayload
		lastErr error
		found   bool
	)
	for start := bytes.LastIndexByte(stdout[:end], '{'); start >= 0; start = bytes.LastIndexByte(stdout[:start], '{') {
		if lastErr = json.Unmarshal(stdout[start:end+1], &p); lastErr == nil {
			found = true
			break
		}
	}
	if !found {
		if lastErr == nil {
			lastErr = fmt.Errorf("no opening brace")
		}
		return nil, fmt.Errorf("parsing extractor payload: %w", lastErr)
	}

	res := &Result{Caption: strings.TrimSpace(p.Caption)}
	for _, v := range p.Videos {
		if v == "" {
			continue
		}
		res.Handles = append(res.Handles, Handle{Path: v, MIMEType: "video/mp4", Kind: KindVideo})
	}
	return res, nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
