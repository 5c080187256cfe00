// Copyright (c) 2026 Guide de Lyon <contact@guide-de-lyon.fr>
// All rights reserved. See LICENSE for details.

package docstore

import (
	"fmt"
	"regexp"
	"strings"
)

// Op is a comparison operator usable in a Where clause.
type Op string

const (
	OpEqual          Op = "=="
	OpLess           Op = "<"
	OpLessOrEqual    Op = "<="
	OpGreater        Op = ">"
	OpGreaterOrEqual Op = ">="
)

// Direction orders query results.
type Direction int

const (
	Asc Direction = iota
	Desc
)

// fieldPathRe restricts field paths to dotted identifiers. Paths come from
// code, never from request input, but the Postgres adapter interpolates
// them into SQL so they are validated anyway.
var fieldPathRe = regexp.MustCompile(`^[A-Za-z0-9_]+(\.[A-Za-z0-9_]+)*$`)

// Filter is a single field comparison.
type Filter struct {
	Path  string
	Op    Op
	Value any
}

// AnyOfFilter matches documents whose array field contains at least one of
// the given string values (the store's "array contains any" predicate).
type AnyOfFilter struct {
	Path   string
	Values []string
}

// Query describes one store read. Build it fluently:
//
//	q := docstore.NewQuery("articles").
//		Where("status", docstore.OpEqual, "published").
//		OrderBy("publishedAt", docstore.Desc).
//		Limit(12)
type Query struct {
	Collection string
	Filters    []Filter
	AnyOf      *AnyOfFilter
	OrderField string
	OrderDir   Direction
	MaxResults int
	After      *Document
}

// NewQuery starts a query against the named collection.
func NewQuery(collection string) Query {
	return Query{Collection: collection}
}

// Where adds a field comparison. Chainable.
func (q Query) Where(path string, op Op, value any) Query {
	q.Filters = append(append([]Filter(nil), q.Filters...), Filter{Path: path, Op: op, Value: value})
	return q
}

// WhereAnyOf adds an array-contains-any predicate. Only one per query.
func (q Query) WhereAnyOf(path string, values []string) Query {
	q.AnyOf = &AnyOfFilter{Path: path, Values: values}
	return q
}

// OrderBy sets the single ordering target. Document id is always the
// implicit tiebreak so ordering is total and cursors are stable.
func (q Query) OrderBy(path string, dir Direction) Query {
	q.OrderField = path
	q.OrderDir = dir
	return q
}

// Limit caps the number of returned documents.
func (q Query) Limit(n int) Query {
	q.MaxResults = n
	return q
}

// StartAfter resumes the query after the given document, which must have
// been returned by an identically ordered query.
func (q Query) StartAfter(doc Document) Query {
	q.After = &doc
	return q
}

// Validate enforces the store's query envelope: one inequality-range field
// at most, and when both an inequality and an ordering are present they
// must target the same field.
func (q Query) Validate() error {
	if q.Collection == "" {
		return fmt.Errorf("docstore: query has no collection")
	}
	inequality := ""
	for _, f := range q.Filters {
		if !fieldPathRe.MatchString(f.Path) {
			return fmt.Errorf("docstore: invalid field path %q", f.Path)
		}
		if f.Op == OpEqual {
			continue
		}
		if inequality != "" && inequality != f.Path {
			return fmt.Errorf("docstore: inequality filters on both %q and %q", inequality, f.Path)
		}
		inequality = f.Path
	}
	if q.AnyOf != nil && !fieldPathRe.MatchString(q.AnyOf.Path) {
		return fmt.Errorf("docstore: invalid field path %q", q.AnyOf.Path)
	}
	if q.OrderField != "" && !fieldPathRe.MatchString(q.OrderField) {
		return fmt.Errorf("docstore: invalid order field %q", q.OrderField)
	}
	if inequality != "" && q.OrderField != "" && q.OrderField != inequality {
		return fmt.Errorf("docstore: range filter on %q requires ordering by it, not %q", inequality, q.OrderField)
	}
	return nil
}

// segments splits a dotted field path.
func segments(path string) []string {
	return strings.Split(path, ".")
}

// lookup resolves a dotted path inside a decoded document.
// Returns (nil, false) when any segment is absent.
func lookup(doc map[string]any, path string) (any, bool) {
	var cur any = doc
	for _, seg := range segments(path) {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// compareValues orders two JSON values: nil < bool < number < string.
// Arrays and objects never participate in ordering here; the stores only
// order by scalar fields.
func compareValues(a, b any) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}
	switch av := a.(type) {
	case bool:
		bv := b.(bool)
		if av == bv {
			return 0
		}
		if !av {
			return -1
		}
		return 1
	case float64:
		bv := b.(float64)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		}
		return 0
	case string:
		return strings.Compare(av, b.(string))
	}
	return 0
}

func rank(v any) int {
	switch v.(type) {
	case nil:
		return 0
	case bool:
		return 1
	case float64:
		return 2
	case string:
		return 3
	}
	return 4
}
