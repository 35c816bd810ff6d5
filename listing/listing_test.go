package listing_test

import (
	"net/url"
	"testing"

	"github.com/jrsteele09/cactus-garden/listing"
	"github.com/stretchr/testify/require"
)

type plant struct {
	ID   string
	Name string
}

var plantOptions = listing.Options[plant]{
	SortKeys: map[string]func(a, b plant) int{
		"id":   func(a, b plant) int { return listing.CompareNumeric(a.ID, b.ID) },
		"name": func(a, b plant) int { return listing.CompareText(a.Name, b.Name) },
	},
	DefaultSort: "name",
	SearchText:  func(p plant) []string { return []string{p.ID, p.Name} },
}

func plants() []plant {
	return []plant{
		{ID: "10", Name: "Quisco"},
		{ID: "2", Name: "Cardón"},
		{ID: "3", Name: "Copiapoa cinerea"},
		{ID: "1", Name: "Eulychnia"},
		{ID: "7", Name: "Copiapoa dealbata"},
	}
}

func TestParseQuery(t *testing.T) {
	q := listing.ParseQuery(url.Values{"page": {"3"}, "page_size": {"1000"}, "sort": {"name"}, "order": {"DESC"}, "q": {" copiapoa "}})
	require.Equal(t, listing.Query{Page: 3, PageSize: listing.MaxPageSize, Sort: "name", Desc: true, Search: "copiapoa"}, q)

	q = listing.ParseQuery(url.Values{"page": {"-1"}, "page_size": {"abc"}})
	require.Equal(t, 1, q.Page)
	require.Equal(t, listing.DefaultPageSize, q.PageSize)
	require.False(t, q.Desc)
}

func TestPassthrough(t *testing.T) {
	v := url.Values{"page": {"2"}, "q": {"x"}, "sector": {"3"}, "activo": {"1"}}
	require.Equal(t, url.Values{"sector": {"3"}, "activo": {"1"}}, listing.Passthrough(v))
}

func TestApply_SortAndPage(t *testing.T) {
	items := plants()

	page := listing.Apply(items, listing.Query{Page: 1, PageSize: 2, Sort: "id"}, plantOptions)
	require.Equal(t, []plant{{ID: "1", Name: "Eulychnia"}, {ID: "2", Name: "Cardón"}}, page.Items)
	require.Equal(t, 5, page.Total)
	require.Equal(t, 3, page.TotalPages)

	page = listing.Apply(items, listing.Query{Page: 3, PageSize: 2, Sort: "id"}, plantOptions)
	require.Equal(t, []plant{{ID: "10", Name: "Quisco"}}, page.Items)

	page = listing.Apply(items, listing.Query{Page: 1, PageSize: 1, Sort: "id", Desc: true}, plantOptions)
	require.Equal(t, "10", page.Items[0].ID)

	// the input is left untouched
	require.Equal(t, plants(), items)
}

func TestApply_UnknownSortUsesDefault(t *testing.T) {
	page := listing.Apply(plants(), listing.Query{PageSize: 10, Sort: "drop table"}, plantOptions)
	require.Equal(t, "name", page.Sort)
	require.Equal(t, "Cardón", page.Items[0].Name)
	require.Equal(t, "Quisco", page.Items[4].Name)
}

func TestApply_PageClamped(t *testing.T) {
	page := listing.Apply(plants(), listing.Query{Page: 99, PageSize: 2}, plantOptions)
	require.Equal(t, 3, page.Page)
	require.Len(t, page.Items, 1)

	empty := listing.Apply([]plant{}, listing.Query{Page: 4, PageSize: 2}, plantOptions)
	require.Equal(t, 1, empty.Page)
	require.Equal(t, 1, empty.TotalPages)
	require.Empty(t, empty.Items)
}

func TestApply_SearchIgnoresCaseAndAccents(t *testing.T) {
	page := listing.Apply(plants(), listing.Query{PageSize: 10, Search: "CARDON"}, plantOptions)
	require.Len(t, page.Items, 1)
	require.Equal(t, "2", page.Items[0].ID)

	page = listing.Apply(plants(), listing.Query{PageSize: 10, Search: "copiapoa deal"}, plantOptions)
	require.Len(t, page.Items, 1)
	require.Equal(t, "7", page.Items[0].ID)

	page = listing.Apply(plants(), listing.Query{PageSize: 10, Search: "agave"}, plantOptions)
	require.Zero(t, page.Total)
}

func TestFold(t *testing.T) {
	require.Equal(t, "nombre comun", listing.Fold("Nombre Común"))
	require.Equal(t, "senor", listing.Fold("Señor"))
}
