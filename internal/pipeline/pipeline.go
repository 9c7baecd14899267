// Package pipeline coordinates the per-article fan-out: dedup, transform,
// thumbnail, persist.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"emojinews/internal/dedup"
	"emojinews/internal/feed"
	"emojinews/internal/identity"
	"emojinews/internal/store"
	"emojinews/internal/transform"
)

// Status is the terminal state of one article's run through the pipeline.
type Status string

const (
	StatusAccepted Status = "accepted"
	StatusSkipped  Status = "skipped"
	StatusFailed   Status = "failed"
)

// Outcome records how one article ended up.
type Outcome struct {
	Title  string
	Status Status
	File   string // JSON filename for accepted articles
	Err    error  // cause for failed articles
}

// Summary is the run report: every fetched article lands in exactly one
// outcome.
type Summary struct {
	Outcomes []Outcome
}

func (s *Summary) count(status Status) int {
	n := 0
	for _, o := range s.Outcomes {
		if o.Status == status {
			n++
		}
	}
	return n
}

func (s *Summary) Accepted() int { return s.count(StatusAccepted) }
func (s *Summary) Skipped() int  { return s.count(StatusSkipped) }
func (s *Summary) Failed() int   { return s.count(StatusFailed) }

// Reader fetches candidate articles.
type Reader interface {
	Fetch(ctx context.Context, limit int) ([]feed.Article, error)
}

// Transformer converts article text into an emojipasta result.
type Transformer interface {
	Transform(ctx context.Context, text, title string) (*transform.Result, error)
}

// Thumbnailer produces a size-bounded thumbnail for a title.
type Thumbnailer interface {
	Generate(ctx context.Context, title string) ([]byte, error)
}

// Pipeline runs the article-processing fan-out. The dedup index is the only
// state shared between workers.
type Pipeline struct {
	reader    Reader
	engine    Transformer
	thumbs    Thumbnailer
	records   *store.Store
	hashKey   string
	articles  int
	workerCap int
	retention time.Duration
	now       func() time.Time
}

// Options carries the pipeline's collaborators and tuning. Every external
// dependency is explicit so tests can substitute stubs.
type Options struct {
	Reader      Reader
	Engine      Transformer
	Thumbnailer Thumbnailer
	Store       *store.Store
	HashKey     string // empty disables deduplication
	Articles    int
	WorkerCap   int
	Retention   time.Duration
	Now         func() time.Time
}

// New creates a Pipeline.
func New(opts Options) *Pipeline {
	if opts.Articles <= 0 {
		opts.Articles = 1
	}
	if opts.WorkerCap <= 0 {
		opts.WorkerCap = 5
	}
	if opts.Retention <= 0 {
		opts.Retention = 7 * 24 * time.Hour
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Pipeline{
		reader:    opts.Reader,
		engine:    opts.Engine,
		thumbs:    opts.Thumbnailer,
		records:   opts.Store,
		hashKey:   opts.HashKey,
		articles:  opts.Articles,
		workerCap: opts.WorkerCap,
		retention: opts.Retention,
		now:       opts.Now,
	}
}

// Run executes one pipeline run. Only feed fetch failure is returned as an
// error; every per-article failure is contained to that article's worker and
// reported in the summary.
func (p *Pipeline) Run(ctx context.Context) (*Summary, error) {
	index, err := dedup.Load(p.records.NewsDir(), p.retention, p.now())
	if err != nil {
		return nil, fmt.Errorf("loading recent article hashes: %w", err)
	}
	log.Printf("Loaded %d recent article hashes for deduping", index.Len())

	if p.hashKey == "" {
		log.Println("WARNING: no hash key configured; deduplication disabled for this run")
	}

	articles, err := p.reader.Fetch(ctx, p.articles)
	if err != nil {
		return nil, err
	}
	log.Printf("Fetched %d articles", len(articles))

	workers := min(len(articles), p.workerCap)
	jobs := make(chan feed.Article)
	outcomes := make(chan Outcome)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for article := range jobs {
				outcomes <- p.process(ctx, article, index)
			}
		}()
	}

	go func() {
		for _, article := range articles {
			jobs <- article
		}
		close(jobs)
		wg.Wait()
		close(outcomes)
	}()

	summary := &Summary{}
	for outcome := range outcomes {
		summary.Outcomes = append(summary.Outcomes, outcome)
	}

	log.Printf("Run complete: %d accepted, %d skipped, %d failed",
		summary.Accepted(), summary.Skipped(), summary.Failed())
	return summary, nil
}

// process runs the full per-article state machine. Every failure path
// returns an outcome rather than aborting sibling workers.
func (p *Pipeline) process(ctx context.Context, article feed.Article, index *dedup.Index) Outcome {
	var token string
	if article.ID != "" && p.hashKey != "" {
		token = identity.Token(article.ID, p.hashKey)
		if index.ContainsOrInsert(token) {
			log.Printf("Skipping %q (duplicate article hash)", article.Title)
			return Outcome{Title: article.Title, Status: StatusSkipped}
		}
	}

	log.Printf("Converting article to emojipasta: %s", article.Title)
	result, err := p.engine.Transform(ctx, article.Content, article.Title)
	if err != nil {
		return Outcome{
			Title:  article.Title,
			Status: StatusFailed,
			Err:    fmt.Errorf("transforming %q: %w", article.Title, err),
		}
	}

	// Thumbnail failure is non-fatal: the record just ships without one.
	var image []byte
	if p.thumbs != nil {
		image, err = p.thumbs.Generate(ctx, article.Title)
		if err != nil {
			log.Printf("Image generation failed for %q: %v", article.Title, err)
			image = nil
		}
	}

	rec := &store.Record{
		Headline:    result.Headline,
		Text:        result.Text,
		ArticleHash: token,
	}

	filename, err := p.records.Write(rec, article.Title, p.now(), image)
	if err != nil {
		return Outcome{
			Title:  article.Title,
			Status: StatusFailed,
			Err:    fmt.Errorf("persisting %q: %w", article.Title, err),
		}
	}

	log.Printf("Saved: %s", filename)
	return Outcome{Title: article.Title, Status: StatusAccepted, File: filename}
}
