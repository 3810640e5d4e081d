package repository

import (
	"net/url"
	"strings"
)

// Reserved query parameters that never act as filters.
var reservedParams = map[string]bool{
	"select": true,
	"sort":   true,
	"page":   true,
	"limit":  true,
}

// Filter is one comparison applied to a list query. Op is a SQL
// comparison operator; Values holds one value, or several for IN.
type Filter struct {
	Column string
	Op     string
	Values []any
}

// SortKey orders a list query by a single column.
type SortKey struct {
	Column string
	Desc   bool
}

// ListOptions carries the caller-supplied shaping of a list query:
// filters, sort order and pagination. Scoping filters imposed by the
// caller's role are appended by the repositories on top of these.
type ListOptions struct {
	Filters []Filter
	Sort    []SortKey
	Page    int
	Limit   int
}

// filter operators accepted in query parameters, mapped onto SQL
// comparison operators. Anything else falls back to equality; that
// permissive behaviour is kept for compatibility with existing
// clients.
var filterOps = map[string]string{
	"gt":  ">",
	"gte": ">=",
	"lt":  "<",
	"lte": "<=",
	"in":  "IN",
}

// ParseListOptions extracts filters, sort keys and pagination from
// query parameters. allowed maps an exposed parameter name to its
// column; parameters outside the map are ignored so arbitrary input
// can never reach the SQL text. Filters use the `field[op]=value`
// form (e.g. price[gte]=100, category[in]=A,B); a bare `field=value`
// is an equality filter. Sort takes comma-separated field names with
// a leading '-' for descending (e.g. sort=-createdAt,price).
func ParseListOptions(values url.Values, allowed map[string]string) ListOptions {
	opts := ListOptions{Page: 1, Limit: 10}

	if p := atoiDefault(values.Get("page"), 1); p > 0 {
		opts.Page = p
	}
	if l := atoiDefault(values.Get("limit"), 10); l > 0 {
		opts.Limit = l
	}

	for key, vals := range values {
		if reservedParams[key] || len(vals) == 0 {
			continue
		}
		field, op := splitFilterKey(key)
		col, ok := allowed[field]
		if !ok {
			continue
		}
		sqlOp, known := filterOps[op]
		if !known {
			sqlOp = "=" // unrecognized operators degrade to equality
		}
		if sqlOp == "IN" {
			var in []any
			for _, part := range strings.Split(vals[0], ",") {
				if part = strings.TrimSpace(part); part != "" {
					in = append(in, part)
				}
			}
			if len(in) == 0 {
				continue
			}
			opts.Filters = append(opts.Filters, Filter{Column: col, Op: "IN", Values: in})
			continue
		}
		opts.Filters = append(opts.Filters, Filter{Column: col, Op: sqlOp, Values: []any{vals[0]}})
	}

	for _, part := range strings.Split(values.Get("sort"), ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		desc := strings.HasPrefix(part, "-")
		name := strings.TrimPrefix(part, "-")
		if col, ok := allowed[name]; ok {
			opts.Sort = append(opts.Sort, SortKey{Column: col, Desc: desc})
		}
	}
	return opts
}

// splitFilterKey splits "price[gte]" into ("price", "gte"). A key
// without brackets has an empty operator.
func splitFilterKey(key string) (field, op string) {
	open := strings.IndexByte(key, '[')
	if open < 0 || !strings.HasSuffix(key, "]") {
		return key, ""
	}
	return key[:open], key[open+1 : len(key)-1]
}

func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return def
		}
		n = n*10 + int(r-'0')
	}
	if n == 0 {
		return def
	}
	return n
}

// whereClause renders filters into a SQL condition and its args.
// With no filters it returns "1=1" so callers can always append it
// after WHERE (same trick the search queries have always used).
func whereClause(filters []Filter) (string, []any) {
	if len(filters) == 0 {
		return "1=1", nil
	}
	conds := make([]string, 0, len(filters))
	args := make([]any, 0, len(filters))
	for _, f := range filters {
		if f.Op == "IN" {
			ph := strings.TrimSuffix(strings.Repeat("?,", len(f.Values)), ",")
			conds = append(conds, f.Column+" IN ("+ph+")")
			args = append(args, f.Values...)
			continue
		}
		conds = append(conds, f.Column+" "+f.Op+" ?")
		args = append(args, f.Values[0])
	}
	return strings.Join(conds, " AND "), args
}

// orderClause renders sort keys, defaulting to created_at DESC so
// list results are deterministic even when the caller sorts nothing.
func orderClause(sort []SortKey, defaultCol string) string {
	if len(sort) == 0 {
		return defaultCol + " DESC"
	}
	parts := make([]string, 0, len(sort))
	for _, k := range sort {
		dir := "ASC"
		if k.Desc {
			dir = "DESC"
		}
		parts = append(parts, k.Column+" "+dir)
	}
	return strings.Join(parts, ", ")
}

// PageRef points at an adjacent result page.
type PageRef struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Pagination describes neighbouring pages of a list result. Next is
// present only when page*limit < total; Prev only when page > 1.
type Pagination struct {
	Next *PageRef `json:"next,omitempty"`
	Prev *PageRef `json:"prev,omitempty"`
}

// NewPagination computes the next/prev descriptors for a page of a
// result set with the given total row count.
func NewPagination(page, limit int, total int64) Pagination {
	var p Pagination
	if int64(page)*int64(limit) < total {
		p.Next = &PageRef{Page: page + 1, Limit: limit}
	}
	if page > 1 {
		p.Prev = &PageRef{Page: page - 1, Limit: limit}
	}
	return p
}
