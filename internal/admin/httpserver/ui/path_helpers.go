package ui

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/mkshin96/portfolio/internal/admin/introductions"
)

func parseListQuery(r *http.Request, defaultPageSize int) introductions.ListQuery {
	q := r.URL.Query()
	query := introductions.ListQuery{
		Page:     atoiOr(q.Get("page"), 1),
		PageSize: atoiOr(q.Get("pageSize"), defaultPageSize),
	}
	return query.Normalize()
}

func atoiOr(raw string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}
	return n
}

// entryFromForm reads every editable field from a parsed form. Values are taken verbatim.
func entryFromForm(r *http.Request) introductions.Entry {
	var entry introductions.Entry
	for _, field := range introductions.Fields() {
		entry = entry.With(field, r.PostFormValue(field.Name()))
	}
	return entry
}
