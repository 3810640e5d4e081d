package repository

import (
	"net/url"
	"reflect"
	"testing"
)

func TestParseListOptionsFilters(t *testing.T) {
	allowed := map[string]string{
		"price":     "price",
		"category":  "category",
		"createdAt": "created_at",
	}

	tests := []struct {
		name  string
		query string
		want  []Filter
	}{
		{
			name:  "bare field is equality",
			query: "category=REMORQUAGE",
			want:  []Filter{{Column: "category", Op: "=", Values: []any{"REMORQUAGE"}}},
		},
		{
			name:  "gte operator",
			query: "price[gte]=100",
			want:  []Filter{{Column: "price", Op: ">=", Values: []any{"100"}}},
		},
		{
			name:  "lt operator",
			query: "price[lt]=50",
			want:  []Filter{{Column: "price", Op: "<", Values: []any{"50"}}},
		},
		{
			name:  "in operator splits on comma",
			query: "category[in]=REMORQUAGE,MECANIQUE",
			want:  []Filter{{Column: "category", Op: "IN", Values: []any{"REMORQUAGE", "MECANIQUE"}}},
		},
		{
			// Operators outside the known set degrade to equality
			// instead of erroring; long-standing behaviour.
			name:  "unknown operator degrades to equality",
			query: "price[regex]=100",
			want:  []Filter{{Column: "price", Op: "=", Values: []any{"100"}}},
		},
		{
			name:  "unknown field is dropped",
			query: "owner_id=1",
			want:  nil,
		},
		{
			name:  "reserved params are not filters",
			query: "page=2&limit=5&sort=price&select=title",
			want:  nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, err := url.ParseQuery(tt.query)
			if err != nil {
				t.Fatalf("ParseQuery: %v", err)
			}
			got := ParseListOptions(values, allowed)
			if !reflect.DeepEqual(got.Filters, tt.want) {
				t.Fatalf("Filters = %#v, want %#v", got.Filters, tt.want)
			}
		})
	}
}

func TestParseListOptionsSortAndPaging(t *testing.T) {
	allowed := map[string]string{"price": "price", "createdAt": "created_at"}

	values, _ := url.ParseQuery("sort=-createdAt,price&page=3&limit=25")
	got := ParseListOptions(values, allowed)

	wantSort := []SortKey{{Column: "created_at", Desc: true}, {Column: "price"}}
	if !reflect.DeepEqual(got.Sort, wantSort) {
		t.Fatalf("Sort = %#v, want %#v", got.Sort, wantSort)
	}
	if got.Page != 3 || got.Limit != 25 {
		t.Fatalf("Page, Limit = %d, %d, want 3, 25", got.Page, got.Limit)
	}

	// Defaults and garbage input.
	values, _ = url.ParseQuery("page=abc&limit=-4")
	got = ParseListOptions(values, allowed)
	if got.Page != 1 || got.Limit != 10 {
		t.Fatalf("defaults Page, Limit = %d, %d, want 1, 10", got.Page, got.Limit)
	}
}

func TestSplitFilterKey(t *testing.T) {
	tests := []struct {
		key, field, op string
	}{
		{"price[gte]", "price", "gte"},
		{"price", "price", ""},
		{"price[", "price[", ""},
		{"category[in]", "category", "in"},
	}
	for _, tt := range tests {
		field, op := splitFilterKey(tt.key)
		if field != tt.field || op != tt.op {
			t.Fatalf("splitFilterKey(%q) = %q, %q, want %q, %q", tt.key, field, op, tt.field, tt.op)
		}
	}
}

func TestWhereClause(t *testing.T) {
	cond, args := whereClause(nil)
	if cond != "1=1" || args != nil {
		t.Fatalf("empty whereClause = %q, %v", cond, args)
	}

	cond, args = whereClause([]Filter{
		{Column: "price", Op: ">=", Values: []any{"100"}},
		{Column: "category", Op: "IN", Values: []any{"A", "B", "C"}},
	})
	if cond != "price >= ? AND category IN (?,?,?)" {
		t.Fatalf("cond = %q", cond)
	}
	if len(args) != 4 {
		t.Fatalf("args = %v, want 4 values", args)
	}
}

func TestOrderClause(t *testing.T) {
	if got := orderClause(nil, "created_at"); got != "created_at DESC" {
		t.Fatalf("default orderClause = %q", got)
	}
	got := orderClause([]SortKey{{Column: "price"}, {Column: "created_at", Desc: true}}, "created_at")
	if got != "price ASC, created_at DESC" {
		t.Fatalf("orderClause = %q", got)
	}
}

func TestNewPagination(t *testing.T) {
	tests := []struct {
		name        string
		page, limit int
		total       int64
		next, prev  *PageRef
	}{
		{name: "first of three pages", page: 1, limit: 10, total: 25, next: &PageRef{Page: 2, Limit: 10}},
		{name: "middle page", page: 2, limit: 10, total: 25, next: &PageRef{Page: 3, Limit: 10}, prev: &PageRef{Page: 1, Limit: 10}},
		{name: "last page", page: 3, limit: 10, total: 25, prev: &PageRef{Page: 2, Limit: 10}},
		{name: "exact fit has no next", page: 2, limit: 10, total: 20, prev: &PageRef{Page: 1, Limit: 10}},
		{name: "single page", page: 1, limit: 10, total: 5},
		{name: "empty result", page: 1, limit: 10, total: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewPagination(tt.page, tt.limit, tt.total)
			if !reflect.DeepEqual(got.Next, tt.next) {
				t.Fatalf("Next = %+v, want %+v", got.Next, tt.next)
			}
			if !reflect.DeepEqual(got.Prev, tt.prev) {
				t.Fatalf("Prev = %+v, want %+v", got.Prev, tt.prev)
			}
		})
	}
}
