package query

import "github.com/gnames/genomcat/pkg/ent/model"

// Result is one page of a listing.
type Result struct {
	Records   []model.Record `json:"records"`
	Total     int64          `json:"total"`
	Page      int            `json:"page"`
	PageSize  int            `json:"page_size"`
	PageCount int            `json:"page_count"`
	NextPage  *int           `json:"next_page"`
}

// NewResult wraps a page of records with pagination data.
func NewResult(q *Query, recs []model.Record, total int64) Result {
	if recs == nil {
		recs = []model.Record{}
	}
	res := Result{
		Records:  recs,
		Total:    total,
		Page:     q.Page,
		PageSize: q.PageSize,
	}
	if q.PageSize > 0 {
		res.PageCount = int((total + int64(q.PageSize) - 1) / int64(q.PageSize))
	}
	if q.Page < res.PageCount {
		next := q.Page + 1
		res.NextPage = &next
	}
	return res
}
