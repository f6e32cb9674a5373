// Package pipeline runs one monitoring pass: discover posts, skip the ones
// already checkpointed, classify the rest and alert on non-compliant ads.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/TobiSchelling/AdWatch/internal/artifacts"
	"github.com/TobiSchelling/AdWatch/internal/database"
	"github.com/TobiSchelling/AdWatch/internal/fetch"
	"github.com/TobiSchelling/AdWatch/internal/fingerprint"
	"github.com/TobiSchelling/AdWatch/internal/grade"
	"github.com/TobiSchelling/AdWatch/internal/llm"
	"github.com/TobiSchelling/AdWatch/internal/media"
	"github.com/TobiSchelling/AdWatch/internal/notify"
	"github.com/TobiSchelling/AdWatch/internal/reltime"
	"github.com/TobiSchelling/AdWatch/internal/retry"
)

// Source lists candidate post URLs.
type Source interface {
	Discover(ctx context.Context) ([]string, error)
}

// PostFetcher loads one post.
type PostFetcher interface {
	FetchPost(ctx context.Context, url string) (*fetch.RawPost, error)
}

// MediaFetcher materializes post media as local files.
type MediaFetcher interface {
	Fetch(ctx context.Context, name string, ref media.Ref) (*media.Result, error)
}

// Classifier grades a caption and its media.
type Classifier interface {
	Classify(ctx context.Context, caption string, handles []media.Handle) (string, error)
}

// Purger removes run artifacts.
type Purger interface {
	Purge() error
}

// CheckpointStore persists the set of processed posts.
type CheckpointStore interface {
	LoadCheckpoint() (*database.CheckpointSet, error)
	SaveCheckpoint(set *database.CheckpointSet) error
}

// ResponseCache holds raw classifier answers by item key.
type ResponseCache interface {
	Get(key string) (string, bool, error)
	Put(key, text string) error
}

// RunRecorder stores run reports.
type RunRecorder interface {
	InsertRun(r database.RunReport) error
}

// Deps holds the collaborators of a Pipeline. Notifier, Purger and Runs are optional.
type Deps struct {
	Source     Source
	Posts      PostFetcher
	Media      MediaFetcher
	Classifier Classifier
	Cache      ResponseCache
	Store      CheckpointStore
	Notifier   notify.Notifier
	Purger     Purger
	Runs       RunRecorder

	Log   *slog.Logger
	Sleep retry.SleepFunc
	Now   func() time.Time
}

// Options tune a Pipeline.
type Options struct {
	Platform string
	PostsDir string
	Pacing   time.Duration
	// Limit caps the number of discovered URLs considered. Zero means no cap.
	Limit int
}

// Candidate is one post being processed.
type Candidate struct {
	URL         string
	Fingerprint string
	Caption     string
	Media       []media.Ref
	TimeText    string
	Timestamp   time.Time
}

// Result holds the counts of one run.
type Result struct {
	RunID        string
	StartedAt    time.Time
	FinishedAt   time.Time
	DryRun       bool
	Discovered   int
	Processed    int
	Deduped      int
	CacheHits    int
	Alerts       int
	NotifyFailed int
	Failed       int
	// Pending lists the URLs a dry run would process.
	Pending []string
}

// Pipeline orchestrates a monitoring pass.
type Pipeline struct {
	deps Deps
	opts Options
	log  *slog.Logger

	freshCalls int
}

// New creates a pipeline.
func New(deps Deps, opts Options) *Pipeline {
	if deps.Log == nil {
		deps.Log = slog.Default()
	}
	if deps.Sleep == nil {
		deps.Sleep = retry.Sleep
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Pipeline{deps: deps, opts: opts, log: deps.Log}
}

// Run executes one pass. Discovery or checkpoint load failures abort the
// run before any item is touched. Per-item failures are logged and counted.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	return p.run(ctx, false)
}

// DryRun discovers and dedups without fetching, classifying or writing anything.
func (p *Pipeline) DryRun(ctx context.Context) (*Result, error) {
	return p.run(ctx, true)
}

func (p *Pipeline) run(ctx context.Context, dry bool) (*Result, error) {
	r := &Result{RunID: database.NewRunID(), StartedAt: p.deps.Now(), DryRun: dry}
	p.freshCalls = 0

	set, err := p.deps.Store.LoadCheckpoint()
	if err != nil {
		return nil, fmt.Errorf("loading checkpoint: %w", err)
	}

	urls, err := p.deps.Source.Discover(ctx)
	if err != nil {
		return nil, fmt.Errorf("discovering posts: %w", err)
	}
	if p.opts.Limit > 0 && len(urls) > p.opts.Limit {
		urls = urls[:p.opts.Limit]
	}
	r.Discovered = len(urls)
	p.log.Info("starting run", "run", r.RunID, "discovered", len(urls), "checkpointed", set.Len(), "dry_run", dry)

	for _, u := range urls {
		if err := ctx.Err(); err != nil {
			p.log.Warn("run interrupted", "error", err)
			break
		}

		fp := fingerprint.Of(u)
		if fp == "" {
			continue
		}
		if set.Contains(fp) {
			r.Deduped++
			p.log.Debug("already processed", "url", u, "fingerprint", fp)
			continue
		}
		if dry {
			r.Pending = append(r.Pending, u)
			continue
		}

		out, err := p.processItem(ctx, u, fp)
		if err != nil {
			r.Failed++
			logItemError(p.log, u, fp, err)
			continue
		}

		r.Processed++
		if out.cacheHit {
			r.CacheHits++
		}
		if out.alerted {
			r.Alerts++
		}
		if out.notifyFailed {
			r.NotifyFailed++
		}
		set.Add(fp, u, p.deps.Now())
	}

	if !dry {
		if err := p.deps.Store.SaveCheckpoint(set); err != nil {
			return r, fmt.Errorf("saving checkpoint: %w", err)
		}
		if p.deps.Purger != nil && r.Processed+r.Failed > 0 {
			if err := p.deps.Purger.Purge(); err != nil {
				p.log.Warn("cleanup incomplete", "error", err)
			}
		}
	}

	r.FinishedAt = p.deps.Now()
	p.record(r)
	p.log.Info("run complete",
		"run", r.RunID,
		"processed", r.Processed,
		"deduped", r.Deduped,
		"cache_hits", r.CacheHits,
		"alerts", r.Alerts,
		"failed", r.Failed,
	)
	return r, nil
}

func (p *Pipeline) record(r *Result) {
	if p.deps.Runs == nil {
		return
	}
	err := p.deps.Runs.InsertRun(database.RunReport{
		ID:         r.RunID,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Discovered: r.Discovered,
		Processed:  r.Processed,
		Deduped:    r.Deduped,
		CacheHits:  r.CacheHits,
		Alerts:     r.Alerts,
		Failed:     r.Failed,
		DryRun:     r.DryRun,
	})
	if err != nil {
		p.log.Warn("failed to record run", "run", r.RunID, "error", err)
	}
}

type outcome struct {
	cacheHit     bool
	alerted      bool
	notifyFailed bool
}

func (p *Pipeline) processItem(ctx context.Context, url, fp string) (outcome, error) {
	var out outcome
	log := p.log.With("url", url, "fingerprint", fp)

	c, err := p.candidate(ctx, url, fp)
	if err != nil {
		return out, err
	}
	if _, err := artifacts.WritePostRecord(p.opts.PostsDir, fp, c.URL, c.Timestamp, c.Caption); err != nil {
		return out, stageErr(StageRecord, err)
	}

	handles, err := p.resolveMedia(ctx, c)
	if err != nil {
		return out, stageErr(StageMedia, err)
	}

	text, hit, err := p.deps.Cache.Get(fp)
	if err != nil {
		return out, stageErr(StageCache, err)
	}
	out.cacheHit = hit

	if hit {
		log.Info("using cached classification")
	} else {
		text, err = p.classify(ctx, c, handles)
		if err != nil {
			return out, err
		}
		if err := p.deps.Cache.Put(fp, text); err != nil {
			return out, stageErr(StageCache, err)
		}
	}

	d := grade.Grade(text)
	log.Info("graded post", "relevant", d.IsSubjectMatter, "verdict", d.Verdict)
	if !d.AlertWorthy() {
		return out, nil
	}

	out.alerted = true
	if p.deps.Notifier == nil {
		log.Warn("alert-worthy post but no notifier configured")
		return out, nil
	}
	alert := notify.Alert{
		Platform:    p.opts.Platform,
		URL:         c.URL,
		Timestamp:   c.Timestamp,
		Caption:     c.Caption,
		Rationale:   d.Rationale,
		Attachments: handlePaths(handles),
	}
	if err := p.deps.Notifier.Notify(ctx, alert); err != nil {
		out.notifyFailed = true
		log.Error("failed to send alert", "stage", "notify", "error", err)
		return out, nil
	}
	log.Info("alert sent")
	return out, nil
}

func (p *Pipeline) candidate(ctx context.Context, url, fp string) (*Candidate, error) {
	raw, err := p.deps.Posts.FetchPost(ctx, url)
	if err != nil {
		return nil, stageErr(StageFetch, err)
	}

	ts, ok := reltime.Normalize(raw.TimeText, p.deps.Now())
	if !ok {
		p.log.Warn("post timestamp unavailable, using now", "url", url, "time_text", raw.TimeText)
	}

	return &Candidate{
		URL:         url,
		Fingerprint: fp,
		Caption:     raw.Caption,
		Media:       raw.Media,
		TimeText:    raw.TimeText,
		Timestamp:   ts,
	}, nil
}

// resolveMedia downloads every media ref of c. A caption reported by the
// extractor fills an empty page caption. A failed image download leaves the
// post text-only; a failed video extraction fails the item.
func (p *Pipeline) resolveMedia(ctx context.Context, c *Candidate) ([]media.Handle, error) {
	var handles []media.Handle
	for i, ref := range c.Media {
		if ref.Kind == media.KindNone {
			continue
		}
		name := c.Fingerprint
		if i > 0 {
			name += "_" + strconv.Itoa(i)
		}
		res, err := p.deps.Media.Fetch(ctx, name, ref)
		if err != nil {
			if ref.Kind == media.KindImage {
				p.log.Warn("image unavailable, classifying text only", "url", c.URL, "stage", StageMedia, "error", err)
				continue
			}
			return nil, err
		}
		handles = append(handles, res.Handles...)
		if c.Caption == "" && res.Caption != "" {
			c.Caption = res.Caption
		}
	}
	if len(handles) == 0 {
		p.log.Debug("no media, classifying text only", "url", c.URL)
	}
	return handles, nil
}

func (p *Pipeline) classify(ctx context.Context, c *Candidate, handles []media.Handle) (string, error) {
	if p.freshCalls > 0 && p.opts.Pacing > 0 {
		p.log.Debug("pacing classifier calls", "delay", p.opts.Pacing)
		if err := p.deps.Sleep(ctx, p.opts.Pacing); err != nil {
			return "", stageErr(StagePacing, err)
		}
	}

	// Attempts count toward pacing whether or not they succeed.
	p.freshCalls++
	text, err := p.deps.Classifier.Classify(ctx, c.Caption, handles)
	if err != nil {
		return "", stageErr(StageClassify, err)
	}
	if text == llm.NoContent {
		p.freshCalls--
	}
	return text, nil
}

func handlePaths(handles []media.Handle) []string {
	paths := make([]string, 0, len(handles))
	for _, h := range handles {
		paths = append(paths, h.Path)
	}
	return paths
}

func logItemError(log *slog.Logger, url, fp string, err error) {
	stage := Stage("unknown")
	var se *StageError
	if errors.As(err, &se) {
		stage = se.Stage
	}
	log.Error("skipping post", "url", url, "fingerprint", fp, "stage", stage, "error", err)
}
