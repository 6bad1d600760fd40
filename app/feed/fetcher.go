package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	DefaultMaxArticlesPerFeed = 3
	DefaultFetchTimeout       = 15 * time.Second
	DefaultFetchWorkers       = 4
	DefaultUserAgent          = "Mozilla/5.0 (compatible; NasionalNewsBot/1.0; +https://github.com/nationalbot)"

	maxFeedBodySize = 10 << 20
)

type FetchErrorKind string

const (
	FetchErrNetwork    FetchErrorKind = "network"
	FetchErrHTTPStatus FetchErrorKind = "http_status"
	FetchErrParse      FetchErrorKind = "parse"
)

// FetchError is a classified failure of one feed.
type FetchError struct {
	Kind       FetchErrorKind
	Source     string
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("feed %s: HTTP %d for %s", e.Kind, e.StatusCode, e.URL)
	}
	return fmt.Sprintf("feed %s: %v for %s", e.Kind, e.Err, e.URL)
}

func (e *FetchError) Unwrap() error { return e.Err }

type FetcherOptions struct {
	UserAgent   string
	Timeout     time.Duration
	MaxArticles int
	Workers     int
}

type Fetcher struct {
	registry    *Registry
	httpClient  *http.Client
	parser      *Parser
	normalizer  *Normalizer
	userAgent   string
	timeout     time.Duration
	maxArticles int
	workers     int
}

func NewFetcher(registry *Registry, httpClient *http.Client, normalizer *Normalizer, opts FetcherOptions) *Fetcher {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultFetchTimeout
	}
	if opts.MaxArticles <= 0 {
		opts.MaxArticles = DefaultMaxArticlesPerFeed
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultFetchWorkers
	}

	return &Fetcher{
		registry:    registry,
		httpClient:  httpClient,
		parser:      NewParser(),
		normalizer:  normalizer,
		userAgent:   opts.UserAgent,
		timeout:     opts.Timeout,
		maxArticles: opts.MaxArticles,
		workers:     opts.Workers,
	}
}

// FetchAll fetches every registry source concurrently and returns the
// articles flattened in registry order, each feed keeping its own order.
func (f *Fetcher) FetchAll(ctx context.Context) []Article {
	sources := f.registry.Sources()
	results := make([][]Article, len(sources))

	var g errgroup.Group
	g.SetLimit(f.workers)
	for i, src := range sources {
		g.Go(func() error {
			results[i] = f.FetchFeed(ctx, src)
			return nil
		})
	}
	_ = g.Wait()

	var all []Article
	for i, articles := range results {
		slog.Info("Feed fetched", "feed", sources[i].Name, "articles", len(articles))
		all = append(all, articles...)
	}

	return all
}

// FetchFeed returns up to maxArticles articles of one feed. Failures are
// logged and produce an empty result so other feeds can proceed.
func (f *Fetcher) FetchFeed(ctx context.Context, src Source) []Article {
	articles, err := f.fetchFeed(ctx, src)
	if err != nil {
		logFetchError(src, err)
		return nil
	}
	return articles
}

func (f *Fetcher) fetchFeed(ctx context.Context, src Source) ([]Article, error) {
	data, err := f.download(ctx, src)
	if err != nil {
		return nil, err
	}

	entries, err := f.parser.Run(data)
	if err != nil {
		return nil, &FetchError{Kind: FetchErrParse, Source: src.Name, URL: src.URL, Err: err}
	}

	// The feed's own ordering is trusted; the cap applies before link checks.
	if len(entries) > f.maxArticles {
		entries = entries[:f.maxArticles]
	}

	articles := make([]Article, 0, len(entries))
	for _, entry := range entries {
		article, ok := f.normalizer.Article(src.Name, entry)
		if !ok {
			slog.Debug("Entry without link skipped", "feed", src.Name, "title", entry.Title)
			continue
		}
		articles = append(articles, article)
	}

	return articles, nil
}

func (f *Fetcher) download(ctx context.Context, src Source) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodGet, src.URL, http.NoBody)
	if err != nil {
		return nil, &FetchError{Kind: FetchErrNetwork, Source: src.Name, URL: src.URL, Err: fmt.Errorf("failed to create request: %w", err)}
	}

	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{Kind: FetchErrNetwork, Source: src.Name, URL: src.URL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{
			Kind:       FetchErrHTTPStatus,
			Source:     src.Name,
			URL:        src.URL,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("HTTP error: %s", resp.Status),
		}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBodySize))
	if err != nil {
		return nil, &FetchError{Kind: FetchErrNetwork, Source: src.Name, URL: src.URL, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	return data, nil
}

func logFetchError(src Source, err error) {
	var fetchErr *FetchError
	if errors.As(err, &fetchErr) && fetchErr.Kind == FetchErrParse {
		slog.Error("Failed to parse feed", "feed", src.Name, "url", src.URL, "error", err)
		return
	}
	slog.Warn("Failed to fetch feed", "feed", src.Name, "url", src.URL, "error", err)
}
