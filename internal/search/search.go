// Package search answers web searches through the tool provider, falling back
// to SerpAPI directly when no provider action works.
package search

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/klubi/clerk/internal/actions"
	"github.com/klubi/clerk/internal/serpapi"
	"github.com/klubi/clerk/pkg/apis/v1alpha1"
)

// DefaultMaxResults caps organic and image hits when no limit is configured.
const DefaultMaxResults = 5

var errSharedClient = errors.New("not attempted: provider search uses the same SerpAPI client")

// maxNews caps news hits.
const maxNews = 3

// preferred lists the provider actions tried for each search type, in order.
var preferred = map[v1alpha1.SearchType][]actions.Action{
	v1alpha1.SearchGeneral: {actions.Search, actions.GoogleSearch},
	v1alpha1.SearchNews:    {actions.NewsSearch, actions.Search},
	v1alpha1.SearchImages:  {actions.ImageSearch, actions.Search},
}

// PreferredActions returns the actions tried for t.
func PreferredActions(t v1alpha1.SearchType) []actions.Action {
	return append([]actions.Action(nil), preferred[t.OrDefault()]...)
}

// Service runs searches. Both the provider and the direct client are
// optional.
type Service struct {
	provider   actions.Provider
	direct     *serpapi.Client
	maxResults int
	logger     *zap.Logger
}

// New creates a search Service.
func New(provider actions.Provider, direct *serpapi.Client, maxResults int, logger *zap.Logger) *Service {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	return &Service{provider: provider, direct: direct, maxResults: maxResults, logger: logger}
}

// Search never returns an error: every outcome, including total failure, is
// a Result.
func (s *Service) Search(ctx context.Context, query string, t v1alpha1.SearchType) v1alpha1.Result {
	if !t.Valid() {
		return v1alpha1.Fail(v1alpha1.FailureInvalidParameter,
			fmt.Sprintf("unknown search type %q (want general, news or images)", t))
	}
	t = t.OrDefault()
	query = strings.TrimSpace(query)
	if query == "" {
		return v1alpha1.Fail(v1alpha1.FailureMissingParameter, "search query is required")
	}

	var attempted []string
	var errs error
	shared := s.sharesClient()

	for _, a := range preferred[t] {
		if s.provider == nil || !actions.Supports(s.provider, a) {
			continue
		}
		attempted = append(attempted, string(a))

		raw, err := s.provider.Execute(ctx, a, map[string]any{"query": query, "num": s.maxResults})
		if err != nil {
			s.logger.Warn("search action failed", zap.String("action", string(a)), zap.Error(err))
			errs = multierr.Append(errs, err)
			if shared {
				break
			}
			continue
		}
		resp, err := serpapi.Decode(raw)
		if err != nil {
			s.logger.Warn("search action returned no results", zap.String("action", string(a)), zap.Error(err))
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", a, err))
			if shared {
				break
			}
			continue
		}
		return v1alpha1.SucceedSearch(s.report(query, t, string(a), false, resp))
	}

	var err error
	if shared && len(attempted) > 0 {
		err = errSharedClient
	} else {
		var resp *serpapi.Response
		resp, err = s.fallback(ctx, query, t)
		if err == nil {
			return v1alpha1.SucceedSearch(s.report(query, t, "serpapi", true, resp))
		}
		s.logger.Warn("fallback search failed", zap.String("query", query), zap.Error(err))
	}

	details := map[string]string{
		"attemptedActions":     strings.Join(attempted, ", "),
		"availableSearchTools": strconv.Itoa(len(s.searchTools())),
		"fallbackError":        truncate(err.Error(), 100),
	}
	if names := s.searchTools(); len(names) > 0 {
		details["toolNames"] = strings.Join(head(names, 3), ", ")
	}
	if errs != nil {
		details["actionErrors"] = errs.Error()
	}
	if len(attempted) == 0 {
		details["attemptedActions"] = "none"
	}
	return v1alpha1.FailWithDetails(v1alpha1.FailureCollaboratorUnavailable,
		fmt.Sprintf("web search unavailable for query %q", query), details)
}

// sharesClient reports whether the provider's search actions run on the same
// client as the direct fallback. A search then makes at most one request.
func (s *Service) sharesClient() bool {
	b, ok := s.provider.(actions.SearchBackend)
	if !ok || s.direct == nil {
		return false
	}
	return b.SearchClient() == s.direct
}

func (s *Service) fallback(ctx context.Context, query string, t v1alpha1.SearchType) (*serpapi.Response, error) {
	if !s.direct.Configured() {
		return nil, serpapi.ErrNoAPIKey
	}
	return s.direct.Search(ctx, query, t, s.maxResults)
}

func (s *Service) searchTools() []string {
	if s.provider == nil {
		return nil
	}
	var out []string
	for _, a := range s.provider.Actions() {
		if a.IsSearch() {
			out = append(out, string(a))
		}
	}
	return out
}

// Available reports how many search actions the provider offers.
func (s *Service) Available() int {
	return len(s.searchTools())
}

func (s *Service) report(query string, t v1alpha1.SearchType, source string, fallback bool, r *serpapi.Response) *v1alpha1.SearchReport {
	return &v1alpha1.SearchReport{
		Query:      query,
		SearchType: t,
		Source:     source,
		Fallback:   fallback,
		Organic:    head(r.Organic, s.maxResults),
		News:       head(r.News, maxNews),
		Images:     head(r.Images, s.maxResults),
	}
}

func head[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
