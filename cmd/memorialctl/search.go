package main

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/stine-ri/wings-of-memory/internal/search"
)

func (a *app) printResult(r search.Result) {
	if r.Err != nil {
		a.printf("search %q failed: %v\n", r.Query, r.Err)
		return
	}
	if r.NoMatches() {
		a.printf("No memorials match %q.\n", r.Query)
		return
	}
	a.printf("%d of %d memorials for %q (page %d, sort %s)\n", len(r.Memorials), r.Pagination.Total, r.Query, r.Page+1, r.Sort)
	for _, m := range r.Memorials {
		a.printf("  %-40s %s\n", m.FullName, m.Slug)
	}
	if r.Pagination.HasMore {
		a.printf("  more results: use --page %d\n", r.Page+2)
	}
}

// awaitQuery reads results until one for query arrives. Superseded results
// are skipped.
func awaitQuery(ctx context.Context, s *search.Searcher, query string) (search.Result, error) {
	for {
		select {
		case <-ctx.Done():
			return search.Result{}, fmt.Errorf("search timed out: %w", ctx.Err())
		case r, ok := <-s.Results():
			if !ok {
				return search.Result{}, fmt.Errorf("search closed")
			}
			if r.Query == query {
				return r, nil
			}
		}
	}
}

// runSearch types queries into s one after another and returns the result of
// the last one. A page past the first is fetched straight away in place of the
// debounced first page.
func runSearch(ctx context.Context, s *search.Searcher, queries []string, sortBy string, page int) (search.Result, error) {
	if page < 1 {
		page = 1
	}
	if len(queries) == 0 {
		queries = []string{""}
	}
	query := ""
	for _, q := range queries {
		s.Query(q, sortBy)
		query = strings.TrimSpace(q)
	}
	if page > 1 {
		s.Page(page - 1)
	}
	for {
		r, err := awaitQuery(ctx, s, query)
		if err != nil {
			return r, err
		}
		if r.Page == page-1 {
			return r, nil
		}
	}
}

func newSearchCmd(a *app) *cobra.Command {
	var sortBy string
	var page int
	var fromStdin bool
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search public memorials",
		Long: "Search public memorials. With --stdin every input line is typed into the\n" +
			"search box in turn; only the text present when typing pauses is fetched.",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			s := search.New(c,
				search.WithDebounce(a.cfg.SearchDebounce),
				search.WithPageSize(a.cfg.SearchPageSize),
				search.WithLogger(a.log))
			defer s.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.HTTPTimeout+a.cfg.SearchDebounce+time.Second)
			defer cancel()

			queries := []string{strings.Join(args, " ")}
			if fromStdin {
				queries = queries[:0]
				sc := bufio.NewScanner(a.in)
				for sc.Scan() {
					queries = append(queries, sc.Text())
				}
				if err := sc.Err(); err != nil {
					return err
				}
			}

			r, err := runSearch(ctx, s, queries, sortBy, page)
			if err != nil {
				return err
			}
			a.printResult(r)
			if r.Err != nil {
				return r.Err
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&sortBy, "sort", "s", "recent", "Sort order: recent, oldest or name")
	cmd.Flags().IntVarP(&page, "page", "p", 1, "Result page (1 based)")
	cmd.Flags().BoolVar(&fromStdin, "stdin", false, "Read successive queries from stdin")
	return cmd
}
