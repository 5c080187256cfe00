// Copyright (c) 2026 Guide de Lyon <contact@guide-de-lyon.fr>
// All rights reserved. See LICENSE for details.

package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Postgres stores documents in a single JSONB-backed table, one row per
// document, keyed by (collection, id). Filters, ordering, and cursors are
// translated onto JSONB path expressions so JSON value semantics (numbers
// numeric, strings lexical) carry through to SQL.
type Postgres struct {
	db *sql.DB
}

// NewPostgres creates a Postgres-backed document store on an open pool.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// jsonbPath renders a validated dotted path as a JSONB extraction.
func jsonbPath(path string) string {
	return "doc #> '{" + strings.Join(segments(path), ",") + "}'"
}

// jsonArg marshals a Go value for comparison against a JSONB expression.
func jsonArg(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("docstore: encode filter value: %w", err)
	}
	return string(raw), nil
}

func (p *Postgres) Create(ctx context.Context, collection, id string, doc map[string]any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("docstore: encode document: %w", err)
	}
	res, err := p.db.ExecContext(ctx, `
		INSERT INTO documents (collection, id, doc)
		VALUES ($1, $2, $3)
		ON CONFLICT (collection, id) DO NOTHING
	`, collection, id, raw)
	if err != nil {
		return fmt.Errorf("docstore: create %s/%s: %w", collection, id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrExists
	}
	return nil
}

func (p *Postgres) Get(ctx context.Context, collection, id string) (map[string]any, error) {
	var raw []byte
	err := p.db.QueryRowContext(ctx, `
		SELECT doc FROM documents WHERE collection = $1 AND id = $2
	`, collection, id).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("docstore: get %s/%s: %w", collection, id, err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("docstore: decode %s/%s: %w", collection, id, err)
	}
	return doc, nil
}

func (p *Postgres) Set(ctx context.Context, collection, id string, doc map[string]any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("docstore: encode document: %w", err)
	}
	_, err = p.db.ExecContext(ctx, `
		INSERT INTO documents (collection, id, doc)
		VALUES ($1, $2, $3)
		ON CONFLICT (collection, id) DO UPDATE SET doc = EXCLUDED.doc
	`, collection, id, raw)
	if err != nil {
		return fmt.Errorf("docstore: set %s/%s: %w", collection, id, err)
	}
	return nil
}

func (p *Postgres) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}

	// Split dotted paths into top-level sets and per-parent nested merges so
	// several updates under the same parent land in one jsonb_build_object.
	direct := map[string]any{}
	nested := map[string]map[string]any{}
	for path, value := range fields {
		if !fieldPathRe.MatchString(path) {
			return fmt.Errorf("docstore: invalid field path %q", path)
		}
		segs := segments(path)
		switch len(segs) {
		case 1:
			direct[segs[0]] = value
		case 2:
			if nested[segs[0]] == nil {
				nested[segs[0]] = map[string]any{}
			}
			nested[segs[0]][segs[1]] = value
		default:
			return fmt.Errorf("docstore: field path %q too deep", path)
		}
	}

	expr := "doc"
	args := []any{collection, id}

	for _, top := range sortedKeys(direct) {
		raw, err := jsonArg(direct[top])
		if err != nil {
			return err
		}
		args = append(args, raw)
		expr = fmt.Sprintf("jsonb_set(%s, '{%s}', $%d::jsonb, true)", expr, top, len(args))
	}
	for _, top := range sortedKeys(nested) {
		var pairs []string
		for _, key := range sortedKeys(nested[top]) {
			raw, err := jsonArg(nested[top][key])
			if err != nil {
				return err
			}
			args = append(args, raw)
			pairs = append(pairs, fmt.Sprintf("'%s', $%d::jsonb", key, len(args)))
		}
		merged := fmt.Sprintf("coalesce(doc #> '{%s}', '{}'::jsonb) || jsonb_build_object(%s)", top, strings.Join(pairs, ", "))
		expr = fmt.Sprintf("jsonb_set(%s, '{%s}', %s, true)", expr, top, merged)
	}

	_, err := p.db.ExecContext(ctx, fmt.Sprintf(`
		UPDATE documents SET doc = %s WHERE collection = $1 AND id = $2
	`, expr), args...)
	if err != nil {
		return fmt.Errorf("docstore: update %s/%s: %w", collection, id, err)
	}
	return nil
}

func (p *Postgres) Delete(ctx context.Context, collection, id string) error {
	_, err := p.db.ExecContext(ctx, `
		DELETE FROM documents WHERE collection = $1 AND id = $2
	`, collection, id)
	if err != nil {
		return fmt.Errorf("docstore: delete %s/%s: %w", collection, id, err)
	}
	return nil
}

func (p *Postgres) Increment(ctx context.Context, collection, id, fieldPath string, delta int64) error {
	if !fieldPathRe.MatchString(fieldPath) {
		return fmt.Errorf("docstore: invalid field path %q", fieldPath)
	}
	segs := segments(fieldPath)

	// The addition runs inside a single UPDATE, so concurrent increments
	// never lose a count. A missing field starts from zero.
	var query string
	switch len(segs) {
	case 1:
		query = fmt.Sprintf(`
			UPDATE documents
			SET doc = jsonb_set(doc, '{%s}', to_jsonb(coalesce((doc #>> '{%s}')::bigint, 0) + $3::bigint), true)
			WHERE collection = $1 AND id = $2
		`, segs[0], segs[0])
	case 2:
		query = fmt.Sprintf(`
			UPDATE documents
			SET doc = jsonb_set(doc, '{%s}',
				coalesce(doc #> '{%s}', '{}'::jsonb) ||
				jsonb_build_object('%s', coalesce((doc #>> '{%s,%s}')::bigint, 0) + $3::bigint), true)
			WHERE collection = $1 AND id = $2
		`, segs[0], segs[0], segs[1], segs[0], segs[1])
	default:
		return fmt.Errorf("docstore: field path %q too deep", fieldPath)
	}

	_, err := p.db.ExecContext(ctx, query, collection, id, delta)
	if err != nil {
		return fmt.Errorf("docstore: increment %s/%s %s: %w", collection, id, fieldPath, err)
	}
	return nil
}

func (p *Postgres) Run(ctx context.Context, q Query) ([]Document, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	where, args, err := p.buildWhere(q)
	if err != nil {
		return nil, err
	}

	dir, cmp := "ASC", ">"
	if q.OrderDir == Desc {
		dir, cmp = "DESC", "<"
	}

	var order string
	if q.OrderField != "" {
		order = fmt.Sprintf("%s %s, id %s", jsonbPath(q.OrderField), dir, dir)
		if q.After != nil {
			cursorVal, _ := lookup(q.After.Data, q.OrderField)
			raw, err := jsonArg(cursorVal)
			if err != nil {
				return nil, err
			}
			args = append(args, raw)
			sortArg := len(args)
			args = append(args, q.After.ID)
			where += fmt.Sprintf(" AND (%s, id) %s ($%d::jsonb, $%d)", jsonbPath(q.OrderField), cmp, sortArg, len(args))
		}
	} else {
		order = "id " + dir
		if q.After != nil {
			args = append(args, q.After.ID)
			where += fmt.Sprintf(" AND id %s $%d", cmp, len(args))
		}
	}

	query := fmt.Sprintf("SELECT id, doc FROM documents WHERE %s ORDER BY %s", where, order)
	if q.MaxResults > 0 {
		args = append(args, q.MaxResults)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("docstore: query %s: %w", q.Collection, err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var id string
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("docstore: scan %s: %w", q.Collection, err)
		}
		var data map[string]any
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, fmt.Errorf("docstore: decode %s/%s: %w", q.Collection, id, err)
		}
		docs = append(docs, Document{ID: id, Data: data})
	}
	return docs, rows.Err()
}

func (p *Postgres) Count(ctx context.Context, q Query) (int, error) {
	if err := q.Validate(); err != nil {
		return 0, err
	}
	where, args, err := p.buildWhere(q)
	if err != nil {
		return 0, err
	}
	var count int
	err = p.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT count(*) FROM documents WHERE %s", where), args...,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("docstore: count %s: %w", q.Collection, err)
	}
	return count, nil
}

// buildWhere renders the filter clauses shared by Run and Count.
func (p *Postgres) buildWhere(q Query) (string, []any, error) {
	clauses := []string{"collection = $1"}
	args := []any{q.Collection}

	for _, f := range q.Filters {
		raw, err := jsonArg(f.Value)
		if err != nil {
			return "", nil, err
		}
		args = append(args, raw)
		op := string(f.Op)
		if f.Op == OpEqual {
			op = "="
		}
		clauses = append(clauses, fmt.Sprintf("%s %s $%d::jsonb", jsonbPath(f.Path), op, len(args)))
	}
	if q.AnyOf != nil {
		args = append(args, q.AnyOf.Values)
		clauses = append(clauses, fmt.Sprintf("%s ?| $%d::text[]", jsonbPath(q.AnyOf.Path), len(args)))
	}
	return strings.Join(clauses, " AND "), args, nil
}

func (p *Postgres) ApplyBatch(ctx context.Context, ops []BatchOp) error {
	if len(ops) == 0 {
		return nil
	}
	if len(ops) > BatchLimit {
		return fmt.Errorf("docstore: batch of %d exceeds limit %d", len(ops), BatchLimit)
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("docstore: begin batch: %w", err)
	}
	defer tx.Rollback()

	for _, op := range ops {
		switch op.Kind {
		case BatchSet:
			raw, err := json.Marshal(op.Doc)
			if err != nil {
				return fmt.Errorf("docstore: encode batch doc %s/%s: %w", op.Collection, op.ID, err)
			}
			_, err = tx.ExecContext(ctx, `
				INSERT INTO documents (collection, id, doc)
				VALUES ($1, $2, $3)
				ON CONFLICT (collection, id) DO UPDATE SET doc = EXCLUDED.doc
			`, op.Collection, op.ID, raw)
			if err != nil {
				return fmt.Errorf("docstore: batch set %s/%s: %w", op.Collection, op.ID, err)
			}
		case BatchDelete:
			if _, err := tx.ExecContext(ctx, `
				DELETE FROM documents WHERE collection = $1 AND id = $2
			`, op.Collection, op.ID); err != nil {
				return fmt.Errorf("docstore: batch delete %s/%s: %w", op.Collection, op.ID, err)
			}
		}
	}

	return tx.Commit()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
