package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/wallpaperhub/wallpaper-server/internal/domain"
)

// Params configures a search.
type Params struct {
	Query    string
	Category string // Exact category, empty or "Todos" for all
	Limit    int
	Offset   int
}

// Result is an ordered page of matching wallpaper ids.
type Result struct {
	Query string `json:"query"`
	Total uint64 `json:"total"`
	Hits  []Hit  `json:"hits"`
}

// Hit is one matching wallpaper.
type Hit struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// IDs returns hit ids in rank order.
func (r *Result) IDs() []string {
	ids := make([]string, len(r.Hits))
	for i, h := range r.Hits {
		ids[i] = h.ID
	}
	return ids
}

// Search runs params against the index. Without a query, the newest
// wallpapers come first; otherwise hits are ranked by relevance.
func (s *Index) Search(ctx context.Context, params Params) (*Result, error) {
	if params.Limit <= 0 {
		params.Limit = 50
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	req := bleve.NewSearchRequestOptions(buildQuery(params), params.Limit, params.Offset, false)
	if strings.TrimSpace(params.Query) == "" {
		req.SortBy([]string{"-created_at"})
	} else {
		req.SortBy([]string{"-_score", "-created_at"})
	}

	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	out := &Result{
		Query: params.Query,
		Total: res.Total,
		Hits:  make([]Hit, 0, len(res.Hits)),
	}
	for _, hit := range res.Hits {
		out.Hits = append(out.Hits, Hit{ID: hit.ID, Score: hit.Score})
	}
	return out, nil
}

// buildQuery matches the title (boosted), the artist and exact tags, with
// fuzzy and prefix matching on the title for typos and autocomplete.
func buildQuery(params Params) query.Query {
	var queries []query.Query

	if q := strings.TrimSpace(params.Query); q != "" {
		textQueries := []query.Query{}

		titleMatch := bleve.NewMatchQuery(q)
		titleMatch.SetField("title")
		titleMatch.SetBoost(3.0)
		textQueries = append(textQueries, titleMatch)

		artistMatch := bleve.NewMatchQuery(q)
		artistMatch.SetField("artist")
		artistMatch.SetBoost(1.5)
		textQueries = append(textQueries, artistMatch)

		for _, tag := range domain.TagsFromTitle(q) {
			tagTerm := bleve.NewTermQuery(tag)
			tagTerm.SetField("tags")
			textQueries = append(textQueries, tagTerm)

			fuzzy := bleve.NewFuzzyQuery(tag)
			fuzzy.SetFuzziness(1)
			fuzzy.SetField("tags")
			fuzzy.SetBoost(0.8)
			textQueries = append(textQueries, fuzzy)

			prefix := bleve.NewPrefixQuery(tag)
			prefix.SetField("tags")
			prefix.SetBoost(0.5)
			textQueries = append(textQueries, prefix)
		}

		queries = append(queries, bleve.NewDisjunctionQuery(textQueries...))
	}

	if c := params.Category; c != "" && c != domain.AllCategories {
		categoryTerm := bleve.NewTermQuery(strings.ToLower(c))
		categoryTerm.SetField("category")
		queries = append(queries, categoryTerm)
	}

	switch len(queries) {
	case 0:
		return bleve.NewMatchAllQuery()
	case 1:
		return queries[0]
	default:
		return bleve.NewConjunctionQuery(queries...)
	}
}
