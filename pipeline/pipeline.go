// Package pipeline provides job orchestration for Q&A corpus generation.
// It coordinates URL discovery, fetching, extraction, segmentation and
// generation, and records per-job progress and failures.
package pipeline

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fwojciec/qagen"
	"golang.org/x/sync/errgroup"
)

// MaxConcurrency caps the worker pool. External LLM services throttle
// aggressively, so the ceiling is deliberately low.
const MaxConcurrency = 5

// Config holds the tunable parameters for a coordinator.
type Config struct {
	// Concurrency is the number of pages processed in parallel,
	// clamped to [1, MaxConcurrency].
	Concurrency int

	// ChunkSize, Overlap and MinSegmentLength control segmentation.
	// Zero values fall back to qagen.DefaultSegmentOptions.
	ChunkSize        int
	Overlap          int
	MinSegmentLength int

	// MaxPages caps how many pages link discovery may visit.
	MaxPages int

	// FollowLinks enables same-site link discovery starting from the
	// job's input URLs when no sitemap is available.
	FollowLinks bool

	// Filter restricts discovered URLs by pattern. Input URLs are never
	// filtered; the user asked for those explicitly.
	Filter *qagen.URLFilter

	// MaxSegmentTokens trims segments above this token count before
	// generation. Requires a Tokens counter on the coordinator; zero
	// disables trimming.
	MaxSegmentTokens int

	// Retry governs backoff for transient generation failures.
	Retry qagen.RetryPolicy

	// FetchRetryDelays are the waits between fetch attempts.
	FetchRetryDelays []time.Duration
}

// DefaultConfig returns the coordinator defaults.
func DefaultConfig() Config {
	return Config{
		Concurrency:      3,
		ChunkSize:        qagen.DefaultSegmentOptions().ChunkSize,
		Overlap:          qagen.DefaultSegmentOptions().Overlap,
		MinSegmentLength: qagen.DefaultSegmentOptions().MinLength,
		MaxPages:         100,
		Retry:            qagen.DefaultRetryPolicy(),
		FetchRetryDelays: DefaultFetchRetryDelays(),
	}
}

// Coordinator orchestrates scrape-and-generate jobs.
type Coordinator struct {
	Jobs      qagen.JobService
	Pairs     qagen.QAPairService
	Fetcher   qagen.Fetcher
	Extractor qagen.Extractor
	Converter qagen.Converter
	Generator qagen.Generator

	// Optional collaborators. Sitemaps expands seed URLs before link
	// discovery; Links enables recursive discovery; Robots gates every
	// fetch; Limiter throttles per-domain.
	Sitemaps qagen.SitemapService
	Links    qagen.LinkExtractor
	Robots   qagen.RobotsChecker
	Tokens   qagen.TokenCounter
	Limiter  qagen.DomainLimiter

	Config Config

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

// Result holds the outcome of a job run.
type Result struct {
	Pages  int
	Failed int
	Pairs  int
}

// ProgressEvent reports progress during a job run.
type ProgressEvent struct {
	Type      ProgressType
	Completed int
	Total     int
	URL       string
	Pairs     int
	Error     error
}

// ProgressType indicates the type of progress event.
type ProgressType int

const (
	ProgressStarted ProgressType = iota
	ProgressCompleted
	ProgressFailed
	ProgressFinished
)

// ProgressFunc is a callback for reporting job progress.
type ProgressFunc func(event ProgressEvent)

// pageResult holds the outcome of processing a single URL.
type pageResult struct {
	position int
	url      string
	pairs    []*qagen.QAPair
	errs     []qagen.JobError
	fatal    error

	// skipped marks pages abandoned by cancellation before completing.
	skipped bool
}

// Submit creates a new job in pending status and returns it. The job is
// not started; call Run to execute it.
func (c *Coordinator) Submit(ctx context.Context, urls []string) (*qagen.Job, error) {
	job := &qagen.Job{URLs: urls}
	if err := c.Jobs.CreateJob(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

// Status returns a snapshot of the job.
func (c *Coordinator) Status(ctx context.Context, jobID string) (*qagen.Job, error) {
	return c.Jobs.FindJobByID(ctx, jobID)
}

// Cancel requests cancellation of a job. Running jobs stop launching new
// page work and finish with cancelled status; pending jobs move straight
// to cancelled. Cancelling a terminal job returns ECONFLICT.
func (c *Coordinator) Cancel(ctx context.Context, jobID string) error {
	c.mu.Lock()
	cancel, running := c.cancels[jobID]
	c.mu.Unlock()

	if running {
		cancel()
		return nil
	}

	job, err := c.Jobs.FindJobByID(ctx, jobID)
	if err != nil {
		return err
	}
	if job.Status.Terminal() {
		return qagen.Errorf(qagen.ECONFLICT, "job already %s", job.Status)
	}

	cancelled := qagen.JobCancelled
	_, err = c.Jobs.UpdateJob(ctx, jobID, qagen.JobUpdate{Status: &cancelled})
	return err
}

// Run executes a pending job to a terminal status. Per-page and
// per-segment failures are recorded on the job and do not abort it; only
// systemic faults (invalid credentials) fail the whole job. The progress
// callback, if provided, receives events as pages complete.
func (c *Coordinator) Run(ctx context.Context, jobID string, progress ProgressFunc) (*Result, error) {
	job, err := c.Jobs.FindJobByID(ctx, jobID)
	if err != nil {
		return nil, err
	}

	running := qagen.JobRunning
	if _, err := c.Jobs.UpdateJob(ctx, jobID, qagen.JobUpdate{Status: &running}); err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	c.register(jobID, cancel)
	defer c.unregister(jobID)

	urls, err := c.discoverURLs(runCtx, job.URLs)
	if err != nil && runCtx.Err() == nil {
		reason := err.Error()
		failed := qagen.JobFailed
		_, _ = c.Jobs.UpdateJob(ctx, jobID, qagen.JobUpdate{Status: &failed, Error: &reason})
		return nil, err
	}

	result, errs, fatal := c.processPages(runCtx, jobID, urls, progress)

	upd := qagen.JobUpdate{
		Pages:  &result.Pages,
		Pairs:  &result.Pairs,
		Errors: errs,
	}
	switch {
	case runCtx.Err() != nil:
		cancelled := qagen.JobCancelled
		upd.Status = &cancelled
	case fatal != nil:
		failed := qagen.JobFailed
		reason := qagen.ErrorMessage(fatal)
		upd.Status = &failed
		upd.Error = &reason
	default:
		completed := qagen.JobCompleted
		upd.Status = &completed
	}

	// Persist the terminal state with the parent context so a cancelled
	// run can still record its outcome.
	if _, err := c.Jobs.UpdateJob(context.WithoutCancel(ctx), jobID, upd); err != nil {
		return nil, err
	}

	if fatal != nil {
		return result, fatal
	}
	return result, nil
}

// processPages runs the per-page pipeline across all URLs with bounded
// parallelism and collects pairs in page order.
func (c *Coordinator) processPages(ctx context.Context, jobID string, urls []string, progress ProgressFunc) (*Result, []qagen.JobError, error) {
	total := len(urls)
	if progress != nil {
		progress(ProgressEvent{Type: ProgressStarted, Total: total})
	}

	concurrency := c.Config.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	if concurrency > MaxConcurrency {
		concurrency = MaxConcurrency
	}

	resultCh := make(chan pageResult, total)
	var completed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	go func() {
		for i, u := range urls {
			i, u := i, u
			g.Go(func() error {
				result := c.processPage(gctx, jobID, i, u)
				resultCh <- result
				// A fatal result cancels the group so in-flight pages
				// stop at their next suspension point.
				return result.fatal
			})
		}
		_ = g.Wait()
		close(resultCh)
	}()

	results := make([]pageResult, total)
	var fatal error
	for result := range resultCh {
		completed.Add(1)
		results[result.position] = result

		if result.fatal != nil && fatal == nil {
			fatal = result.fatal
		}

		if progress == nil {
			continue
		}
		if len(result.errs) > 0 && len(result.pairs) == 0 {
			progress(ProgressEvent{
				Type:      ProgressFailed,
				Completed: int(completed.Load()),
				Total:     total,
				URL:       result.url,
				Error:     qagen.Errorf(result.errs[0].Code, "%s", result.errs[0].Message),
			})
		} else {
			progress(ProgressEvent{
				Type:      ProgressCompleted,
				Completed: int(completed.Load()),
				Total:     total,
				URL:       result.url,
				Pairs:     len(result.pairs),
			})
		}
	}

	// Aggregate in page order. Questions already generated for an earlier
	// page win over duplicates from later pages.
	res := &Result{}
	var errs []qagen.JobError
	seen := make(map[string]bool)

	for _, result := range results {
		errs = append(errs, result.errs...)
		if result.skipped {
			continue
		}
		if len(result.errs) > 0 && len(result.pairs) == 0 {
			res.Failed++
			continue
		}

		var pairs []*qagen.QAPair
		for i := range result.pairs {
			p := result.pairs[i]
			if seen[p.Fingerprint()] {
				continue
			}
			seen[p.Fingerprint()] = true
			p.JobID = jobID
			pairs = append(pairs, p)
		}

		if len(pairs) > 0 {
			if err := c.Pairs.CreateQAPairs(context.WithoutCancel(ctx), pairs); err != nil {
				errs = append(errs, qagen.JobError{
					URL: result.url, SegmentIndex: -1,
					Code: qagen.ErrorCode(err), Message: qagen.ErrorMessage(err),
				})
				res.Failed++
				continue
			}
		}
		res.Pages++
		res.Pairs += len(pairs)
	}

	if progress != nil {
		progress(ProgressEvent{Type: ProgressFinished, Completed: total, Total: total, Pairs: res.Pairs})
	}

	return res, errs, fatal
}

// processPage executes fetch → extract → convert → segment → generate
// for one URL. All failures are returned as JobErrors except systemic
// faults, which are returned in fatal.
func (c *Coordinator) processPage(ctx context.Context, jobID string, position int, pageURL string) pageResult {
	result := pageResult{position: position, url: pageURL}

	pageErr := func(code, message string) pageResult {
		result.errs = append(result.errs, qagen.JobError{
			URL: pageURL, SegmentIndex: -1, Code: code, Message: message,
		})
		return result
	}

	if ctx.Err() != nil {
		result.skipped = true
		return result
	}

	if c.Robots != nil && !c.Robots.Allowed(ctx, pageURL) {
		return pageErr(qagen.EUNREACHABLE, "blocked by robots.txt")
	}

	if c.Limiter != nil {
		u, err := url.Parse(pageURL)
		if err != nil {
			return pageErr(qagen.EINVALID, fmt.Sprintf("invalid URL: %v", err))
		}
		if err := c.Limiter.Wait(ctx, u.Host); err != nil {
			result.skipped = true
			return result
		}
	}

	page, err := FetchWithRetryDelays(ctx, pageURL, c.Fetcher.Fetch, c.fetchRetryDelays())
	if err != nil {
		if ctx.Err() != nil {
			result.skipped = true
			return result
		}
		return pageErr(qagen.ErrorCode(err), qagen.ErrorMessage(err))
	}

	extracted, err := c.Extractor.Extract(page.HTML)
	if err != nil {
		return pageErr(qagen.ErrorCode(err), qagen.ErrorMessage(err))
	}

	markdown, err := c.Converter.Convert(extracted.ContentHTML)
	if err != nil {
		return pageErr(qagen.ErrorCode(err), qagen.ErrorMessage(err))
	}

	segments := qagen.SplitSegments(pageURL, markdown, qagen.SegmentOptions{
		ChunkSize: c.Config.ChunkSize,
		Overlap:   c.Config.Overlap,
		MinLength: c.Config.MinSegmentLength,
	})
	segments = c.sizeSegments(ctx, segments)

	for _, seg := range segments {
		// Cooperative cancellation between segments.
		if ctx.Err() != nil {
			result.skipped = true
			return result
		}

		pairs, err := c.generateWithRetry(ctx, seg)
		if err != nil {
			if ctx.Err() != nil {
				result.skipped = true
				return result
			}
			if qagen.IsSystemic(err) {
				result.fatal = err
				return result
			}
			result.errs = append(result.errs, qagen.JobError{
				URL: pageURL, SegmentIndex: seg.Index,
				Code: qagen.ErrorCode(err), Message: qagen.ErrorMessage(err),
			})
			continue
		}

		for i := range pairs {
			result.pairs = append(result.pairs, &pairs[i])
		}
	}

	return result
}

// generateWithRetry calls the generator, backing off on transient
// failures up to the configured attempt limit. Non-transient errors are
// returned immediately; the generator handles its own single strict
// reprompt for unparseable output.
func (c *Coordinator) generateWithRetry(ctx context.Context, seg qagen.Segment) ([]qagen.QAPair, error) {
	policy := c.Config.Retry
	if policy.MaxAttempts < 1 {
		policy = qagen.DefaultRetryPolicy()
	}

	var lastErr error
	for attempt := 0; attempt < policy.MaxAttempts; attempt++ {
		pairs, err := c.Generator.Generate(ctx, seg)
		if err == nil {
			return pairs, nil
		}
		lastErr = err

		if !qagen.IsTransient(err) {
			return nil, err
		}
		if attempt >= policy.MaxAttempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(policy.Backoff(attempt + 1)):
		}
	}

	return nil, lastErr
}

// discoverURLs expands the job's input URLs. Explicit lists pass through
// unchanged unless link following is enabled, in which case each seed is
// expanded via sitemap first and same-site link discovery second.
func (c *Coordinator) discoverURLs(ctx context.Context, seeds []string) ([]string, error) {
	if !c.Config.FollowLinks {
		return dedupeURLs(seeds), nil
	}

	maxPages := c.Config.MaxPages
	if maxPages <= 0 {
		maxPages = DefaultConfig().MaxPages
	}

	var urls []string
	for _, seed := range seeds {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		discovered, err := c.discoverSite(ctx, seed, maxPages-len(urls))
		if err != nil {
			return nil, fmt.Errorf("discovery for %s: %w", seed, err)
		}
		urls = append(urls, discovered...)
		if len(urls) >= maxPages {
			urls = urls[:maxPages]
			break
		}
	}

	return dedupeURLs(urls), nil
}

// discoverSite expands one seed URL via sitemap or recursive link
// following, whichever yields results first.
func (c *Coordinator) discoverSite(ctx context.Context, seed string, budget int) ([]string, error) {
	if budget <= 0 {
		return nil, nil
	}

	if c.Sitemaps != nil {
		urls, err := c.Sitemaps.DiscoverURLs(ctx, seed, c.Config.Filter)
		if err == nil && len(urls) > 0 {
			if len(urls) > budget {
				urls = urls[:budget]
			}
			return urls, nil
		}
	}

	if c.Links == nil {
		return []string{seed}, nil
	}
	return c.crawlLinks(ctx, seed, budget)
}

// crawlLinks walks same-site links breadth-first starting from the seed.
// Pages outside the seed's host or path prefix are skipped. The walk is
// sequential so the per-domain rate limit is respected naturally.
func (c *Coordinator) crawlLinks(ctx context.Context, seed string, budget int) ([]string, error) {
	seedURL, err := url.Parse(seed)
	if err != nil {
		return nil, qagen.Errorf(qagen.EINVALID, "invalid seed URL %q: %v", seed, err)
	}

	frontier := NewFrontier(frontierExpectedURLs, frontierFalsePositiveRate)
	frontier.Push(seed)

	var urls []string
	for len(urls) < budget {
		pageURL, ok := frontier.Pop()
		if !ok {
			break
		}
		if ctx.Err() != nil {
			return urls, ctx.Err()
		}

		if c.Robots != nil && !c.Robots.Allowed(ctx, pageURL) {
			continue
		}
		if c.Limiter != nil {
			if err := c.Limiter.Wait(ctx, seedURL.Host); err != nil {
				return urls, err
			}
		}

		page, err := c.Fetcher.Fetch(ctx, pageURL)
		if err != nil {
			// Seed itself unreachable is still reported as a page error
			// later; discovery just moves on.
			continue
		}
		urls = append(urls, pageURL)

		links, err := c.Links.ExtractLinks(page.HTML, pageURL)
		if err != nil {
			continue
		}
		for _, link := range links {
			linkURL, err := url.Parse(link)
			if err != nil {
				continue
			}
			if linkURL.Host != seedURL.Host {
				continue
			}
			if !strings.HasPrefix(linkURL.Path, seedURL.Path) {
				continue
			}
			if !c.Config.Filter.Match(link) {
				continue
			}
			frontier.Push(link)
		}
	}

	return urls, nil
}

// sizeSegments trims segments that exceed the generation service's
// token budget. Counting is advisory: a counter failure leaves the
// segment unchanged.
func (c *Coordinator) sizeSegments(ctx context.Context, segments []qagen.Segment) []qagen.Segment {
	budget := c.Config.MaxSegmentTokens
	if c.Tokens == nil || budget <= 0 {
		return segments
	}
	for i := range segments {
		segments[i].Text = c.fitTokenBudget(ctx, segments[i].Text, budget)
	}
	return segments
}

// fitTokenBudget cuts words proportionally until the text counts at or
// under budget tokens. The pass count is bounded because token-per-word
// ratios drift only slightly between cuts.
func (c *Coordinator) fitTokenBudget(ctx context.Context, text string, budget int) string {
	for range 4 {
		count, err := c.Tokens.CountTokens(ctx, text)
		if err != nil || count <= budget {
			return text
		}
		words := strings.Fields(text)
		if len(words) <= 1 {
			return text
		}
		keep := len(words) * budget / count
		if keep < 1 {
			keep = 1
		}
		if keep >= len(words) {
			keep = len(words) - 1
		}
		text = strings.Join(words[:keep], " ")
	}
	return text
}

func (c *Coordinator) fetchRetryDelays() []time.Duration {
	if c.Config.FetchRetryDelays != nil {
		return c.Config.FetchRetryDelays
	}
	return DefaultFetchRetryDelays()
}

func (c *Coordinator) register(jobID string, cancel context.CancelFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancels == nil {
		c.cancels = make(map[string]context.CancelFunc)
	}
	c.cancels[jobID] = cancel
}

func (c *Coordinator) unregister(jobID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.cancels, jobID)
}

func dedupeURLs(urls []string) []string {
	seen := make(map[string]bool, len(urls))
	var out []string
	for _, u := range urls {
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	return out
}
