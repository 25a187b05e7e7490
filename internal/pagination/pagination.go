/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package pagination implements the rows/meta page envelope shared by the
// list endpoints.
package pagination

import (
	"net/http"
	"strconv"

	"gorm.io/gorm"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// Page carries the requested window.
type Page struct {
	Current int
	Size    int
}

// Meta describes the full result set so clients can render pagers.
type Meta struct {
	Count       int64 `json:"count"`
	CurrentPage int   `json:"current_page"`
	PageCount   int   `json:"page_count"`
	PageSize    int   `json:"page_size"`
}

// FromRequest reads current_page and page_size query parameters, clamping
// them to sane values.
func FromRequest(r *http.Request) Page {
	page := Page{Current: 1, Size: defaultPageSize}
	if v := r.URL.Query().Get("current_page"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			page.Current = parsed
		}
	}
	if v := r.URL.Query().Get("page_size"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			page.Size = parsed
		}
	}
	if page.Size > maxPageSize {
		page.Size = maxPageSize
	}
	return page
}

// Scope returns a gorm scope applying the page window.
func (p Page) Scope() func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(p.Size * (p.Current - 1)).Limit(p.Size)
	}
}

// MetaFor derives Meta from the total row count.
func (p Page) MetaFor(count int64) Meta {
	pages := int(count) / p.Size
	if int(count)%p.Size != 0 {
		pages++
	}
	return Meta{
		Count:       count,
		CurrentPage: p.Current,
		PageCount:   pages,
		PageSize:    p.Size,
	}
}

// InRange reports whether the requested page exists. Page 1 always exists
// so empty result sets still render an empty first page.
func (p Page) InRange(count int64) bool {
	if p.Current == 1 {
		return true
	}
	return int64(p.Size*(p.Current-1)) < count
}
