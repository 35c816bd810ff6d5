// Package listing pages, sorts and filters a result set the API already returned in
// full. No server-side paging is assumed.
package listing

import (
	"cmp"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 200
)

// Query is the table state of a list screen.
type Query struct {
	Page     int
	PageSize int
	Sort     string
	Desc     bool
	Search   string
}

// ParseQuery reads page, page_size, sort, order and q. Invalid numbers fall back to
// the defaults rather than failing the request.
func ParseQuery(v url.Values) Query {
	q := Query{
		Page:     1,
		PageSize: DefaultPageSize,
		Sort:     strings.TrimSpace(v.Get("sort")),
		Desc:     strings.EqualFold(v.Get("order"), "desc"),
		Search:   strings.TrimSpace(v.Get("q")),
	}
	if n, err := strconv.Atoi(v.Get("page")); err == nil && n > 0 {
		q.Page = n
	}
	if n, err := strconv.Atoi(v.Get("page_size")); err == nil && n > 0 {
		q.PageSize = min(n, MaxPageSize)
	}
	return q
}

// Passthrough returns the parameters that belong to the API rather than to the
// table state, so they can be forwarded unmodified.
func Passthrough(v url.Values) url.Values {
	out := url.Values{}
	for k, vals := range v {
		switch k {
		case "page", "page_size", "sort", "order", "q":
			continue
		}
		out[k] = slices.Clone(vals)
	}
	return out
}

// Options describes how to sort and search one item type.
type Options[T any] struct {
	// SortKeys maps a sort column to a comparison.
	SortKeys map[string]func(a, b T) int
	// DefaultSort is used when the query names no known column.
	DefaultSort string
	// SearchText returns the text a search term is matched against.
	SearchText func(T) []string
}

type Page[T any] struct {
	Items      []T    `json:"items"`
	Page       int    `json:"page"`
	PageSize   int    `json:"page_size"`
	Total      int    `json:"total"`
	TotalPages int    `json:"total_pages"`
	Sort       string `json:"sort,omitempty"`
	Desc       bool   `json:"desc,omitempty"`
}

// Apply filters, sorts and slices items. items is not modified. A page past the end
// is clamped to the last page.
func Apply[T any](items []T, q Query, opts Options[T]) Page[T] {
	filtered := Filter(items, q.Search, opts.SearchText)

	sortKey := q.Sort
	if _, ok := opts.SortKeys[sortKey]; !ok {
		sortKey = opts.DefaultSort
	}
	if compare, ok := opts.SortKeys[sortKey]; ok {
		slices.SortStableFunc(filtered, func(a, b T) int {
			if q.Desc {
				return compare(b, a)
			}
			return compare(a, b)
		})
	}

	pageSize := q.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	total := len(filtered)
	totalPages := max(1, (total+pageSize-1)/pageSize)
	page := min(max(q.Page, 1), totalPages)

	start := min((page-1)*pageSize, total)
	end := min(start+pageSize, total)

	return Page[T]{
		Items:      filtered[start:end],
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		Sort:       sortKey,
		Desc:       q.Desc,
	}
}

// Filter keeps items whose search text contains every word of term, ignoring case
// and accents. It always returns a new slice.
func Filter[T any](items []T, term string, text func(T) []string) []T {
	words := strings.Fields(Fold(term))
	if len(words) == 0 || text == nil {
		return slices.Clone(items)
	}

	out := make([]T, 0, len(items))
	for _, item := range items {
		haystack := Fold(strings.Join(text(item), " "))
		if containsAll(haystack, words) {
			out = append(out, item)
		}
	}
	return out
}

func containsAll(haystack string, words []string) bool {
	for _, w := range words {
		if !strings.Contains(haystack, w) {
			return false
		}
	}
	return true
}

// Fold lower-cases s and strips diacritics so "Cardón" matches "cardon".
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return strings.ToLower(s)
	}
	return strings.ToLower(folded)
}

// CompareText orders strings the way Filter matches them.
func CompareText(a, b string) int {
	return cmp.Compare(Fold(a), Fold(b))
}

// CompareNumeric orders numeric ids numerically and everything else as text.
func CompareNumeric(a, b string) int {
	x, errA := strconv.ParseFloat(a, 64)
	y, errB := strconv.ParseFloat(b, 64)
	if errA == nil && errB == nil {
		return cmp.Compare(x, y)
	}
	return CompareText(a, b)
}
