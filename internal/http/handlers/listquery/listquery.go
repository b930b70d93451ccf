// Package listquery разбирает параметры запроса списочных экранов в
// состояние конвейера listing.
package listquery

import (
	"net/http"
	"strconv"

	"github.com/magabrotheeeer/apartment-console/internal/lib/listing"
)

// State строит состояние списка из query-параметров search, sort, dir,
// tab и page. Отсутствующие параметры получают значения по умолчанию,
// невалидный номер страницы игнорируется.
func State(r *http.Request, defaultSort string) listing.State {
	st := listing.NewState(defaultSort)
	q := r.URL.Query()

	if v := q.Get("search"); v != "" {
		st.Search = v
	}
	if v := q.Get("sort"); v != "" {
		st.SortField = v
	}
	if q.Get("dir") == string(listing.Desc) {
		st.Direction = listing.Desc
	}
	if v := q.Get("tab"); v != "" {
		st.Tab = v
	}
	if page, err := strconv.Atoi(q.Get("page")); err == nil {
		st.SetPage(page)
	}
	return st
}
