package repo

import (
	"context"
	"fmt"
	"math"
)

const defaultPageSize = 50

// PageRequest carries raw pagination input. Out-of-range values are
// normalized rather than rejected: page below zero becomes zero, limit at or
// below zero becomes the collection default.
type PageRequest struct {
	Page  int
	Limit int

	// BaseURL is the fully qualified scheme://host/path of the requesting
	// URL; next/previous links are built from it. Empty leaves the links
	// unset.
	BaseURL string
}

func (p PageRequest) normalized() PageRequest {
	if p.Page < 0 {
		p.Page = 0
	}
	if p.Limit <= 0 {
		p.Limit = defaultPageSize
	}
	return p
}

// Page is one slice of a collection plus navigation metadata.
type Page[T any] struct {
	Total       int64   `json:"total"`
	Pages       int64   `json:"pages"`
	CurrentPage int     `json:"currentPage"`
	PageSize    int     `json:"pageSize"`
	Next        *string `json:"next"`
	Previous    *string `json:"previous"`
	Data        []T     `json:"data"`
}

// List returns one page of rows matching the filter within the default
// scope, ordered by primary key.
func (r *Repo[T]) List(ctx context.Context, f Filter, req PageRequest) (Page[T], error) {
	req = req.normalized()
	scoped := r.scope(f)

	where, args, idx := scoped.clause(1)
	countQuery := fmt.Sprintf(`select count(*) from %s`, r.schema.Table)
	if where != "" {
		countQuery += " where " + where
	}
	var total int64
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return Page[T]{}, r.internal("count", err)
	}

	query := fmt.Sprintf(`select %s from %s`, r.selectList(), r.schema.Table)
	if where != "" {
		query += " where " + where
	}
	query += fmt.Sprintf(" order by id limit $%d offset $%d", idx, idx+1)
	args = append(args, req.Limit, req.Limit*req.Page)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return Page[T]{}, r.internal("list", err)
	}
	defer rows.Close()

	data := make([]T, 0, req.Limit)
	for rows.Next() {
		item, err := r.schema.Scan(rows)
		if err != nil {
			return Page[T]{}, r.internal("list scan", err)
		}
		data = append(data, item)
	}
	if err := rows.Err(); err != nil {
		return Page[T]{}, r.internal("list", err)
	}

	pages := int64(math.Ceil(float64(total) / float64(req.Limit)))
	page := Page[T]{
		Total:       total,
		Pages:       pages,
		CurrentPage: req.Page,
		PageSize:    req.Limit,
		Data:        data,
	}
	if req.BaseURL != "" {
		if int64(req.Page) < pages-1 {
			next := fmt.Sprintf("%s?page=%d&limit=%d", req.BaseURL, req.Page+1, req.Limit)
			page.Next = &next
		}
		if req.Page > 0 {
			prev := fmt.Sprintf("%s?page=%d&limit=%d", req.BaseURL, req.Page-1, req.Limit)
			page.Previous = &prev
		}
	}
	return page, nil
}
