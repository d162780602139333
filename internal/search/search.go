// Package search runs the public memorial search behind a debounce. Each
// fetch carries a sequence number and only the latest one is ever delivered.
package search

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/stine-ri/wings-of-memory/client"
)

const (
	DefaultDebounce = 500 * time.Millisecond
	DefaultPageSize = 12
)

// Fetcher is the remote side of the search. *client.Client implements it.
type Fetcher interface {
	SearchPublic(ctx context.Context, params client.SearchParams) (*client.SearchResponse, error)
}

// Result is one delivered search outcome. A non-nil Err means the fetch
// failed; a nil Err with no memorials means nothing matched.
type Result struct {
	Seq        uint64
	Query      string
	Sort       string
	Page       int
	Memorials  []client.Memorial
	Pagination client.Pagination
	Err        error
}

// NoMatches reports a successful search with zero results.
func (r Result) NoMatches() bool { return r.Err == nil && len(r.Memorials) == 0 }

// NormalizeSort maps anything but oldest or name to recent.
func NormalizeSort(sort string) string {
	switch s := strings.ToLower(strings.TrimSpace(sort)); s {
	case client.SortOldest, client.SortName:
		return s
	default:
		return client.SortRecent
	}
}

type Option func(*Searcher)

func WithDebounce(d time.Duration) Option {
	return func(s *Searcher) {
		if d > 0 {
			s.debounce = d
		}
	}
}

func WithPageSize(n int) Option {
	return func(s *Searcher) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

func WithLogger(l zerolog.Logger) Option { return func(s *Searcher) { s.log = l } }

// Searcher debounces queries and delivers the latest result on Results.
type Searcher struct {
	fetcher  Fetcher
	log      zerolog.Logger
	debounce time.Duration
	pageSize int

	ctx  context.Context
	stop context.CancelFunc
	wg   sync.WaitGroup

	mu       sync.Mutex
	timer    *time.Timer
	gen      uint64 // bumped per Query; a timer only fires for its own generation
	seq      uint64 // last issued fetch
	inflight context.CancelFunc
	query    string
	sort     string
	page     int
	closed   bool

	// results holds at most the newest undelivered Result; all sends happen
	// under mu.
	results chan Result
}

// New returns a Searcher over f.
func New(f Fetcher, opts ...Option) *Searcher {
	ctx, stop := context.WithCancel(context.Background())
	s := &Searcher{
		fetcher:  f,
		log:      zerolog.Nop(),
		debounce: DefaultDebounce,
		pageSize: DefaultPageSize,
		ctx:      ctx,
		stop:     stop,
		sort:     client.SortRecent,
		results:  make(chan Result, 1),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Results delivers search outcomes. It is closed by Close.
func (s *Searcher) Results() <-chan Result { return s.results }

// Query records the latest text and sort key and restarts the debounce
// window. Only the state present when the window elapses is fetched.
func (s *Searcher) Query(text, sort string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.query = strings.TrimSpace(text)
	s.sort = NormalizeSort(sort)
	s.page = 0
	s.gen++
	gen := s.gen
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.debounce, func() { s.fire(gen) })
}

// Page fetches page n (zero based) of the current query right away.
func (s *Searcher) Page(n int) {
	if n < 0 {
		n = 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.gen++
	s.page = n
	s.issueLocked()
}

// Close stops the timer, cancels the in-flight fetch, waits for it to return
// and closes Results. Safe to call more than once.
func (s *Searcher) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
	}
	s.stop()
	s.mu.Unlock()

	s.wg.Wait()
	close(s.results)
}

func (s *Searcher) fire(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || gen != s.gen {
		return
	}
	s.issueLocked()
}

func (s *Searcher) issueLocked() {
	s.seq++
	seq := s.seq
	if s.inflight != nil {
		s.inflight()
	}
	ctx, cancel := context.WithCancel(s.ctx)
	s.inflight = cancel

	params := client.SearchParams{
		Search: s.query,
		SortBy: s.sort,
		Limit:  s.pageSize,
		Offset: s.page * s.pageSize,
	}
	res := Result{Seq: seq, Query: s.query, Sort: s.sort, Page: s.page}

	s.wg.Add(1)
	go s.fetch(ctx, cancel, params, res)
}

func (s *Searcher) fetch(ctx context.Context, cancel context.CancelFunc, params client.SearchParams, res Result) {
	defer s.wg.Done()
	defer cancel()

	resp, err := s.fetcher.SearchPublic(ctx, params)
	if err != nil {
		res.Err = err
		res.Memorials = []client.Memorial{}
	} else {
		res.Memorials = resp.Memorials
		res.Pagination = resp.Pagination
		if res.Memorials == nil {
			res.Memorials = []client.Memorial{}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || res.Seq != s.seq {
		s.log.Debug().Uint64("seq", res.Seq).Uint64("latest", s.seq).Msg("dropping stale search result")
		return
	}
	if err != nil {
		s.log.Warn().Err(err).Str("query", res.Query).Msg("search failed")
	}
	select {
	case s.results <- res:
	default:
		// replace the undelivered older result
		select {
		case <-s.results:
		default:
		}
		s.results <- res
	}
}
