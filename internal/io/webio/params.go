package webio

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gnames/genomcat/internal/ent/query"
	"github.com/gnames/genomcat/pkg/ent/model"
)

// partition reads taxon and MAG status path values. Unknown values are
// not found.
func partition(r *http.Request) (model.Partition, error) {
	var res model.Partition
	t, err := model.NewTaxon(r.PathValue("taxon"))
	if err != nil {
		return res, fmt.Errorf("%w: %w", query.ErrNotFound, err)
	}
	m, err := model.NewMAGStatus(r.PathValue("mag"))
	if err != nil {
		return res, fmt.Errorf("%w: %w", query.ErrNotFound, err)
	}
	return model.Partition{Taxon: t, MAG: m}, nil
}

func recordID(r *http.Request) (int64, error) {
	res, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || res < 1 {
		return 0, &query.ValidationError{Field: "id",
			Msg: "must be a positive integer"}
	}
	return res, nil
}

// listRequest reads pagination, filter, search and ordering parameters.
func listRequest(r *http.Request) (query.Request, error) {
	var res query.Request
	var err error
	v := r.URL.Query()

	if res.Page, err = intParam(v.Get("page"), "page"); err != nil {
		return res, err
	}
	if res.PageSize, err = intParam(v.Get("page_size"), "page_size"); err != nil {
		return res, err
	}
	if res.Filter, err = query.ParseFilter(v.Get("filter")); err != nil {
		return res, err
	}
	res.Search = query.Search{
		Field: strings.TrimSpace(v.Get("search_field")),
		Value: v.Get("search"),
	}
	res.Sort.Field = strings.TrimSpace(v.Get("order_by"))
	switch strings.ToLower(strings.TrimSpace(v.Get("order_dir"))) {
	case "", "asc":
	case "desc":
		res.Sort.Desc = true
	default:
		return res, &query.ValidationError{Field: "order_dir",
			Msg: "must be asc or desc"}
	}
	return res, nil
}

func intParam(s, name string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	res, err := strconv.Atoi(s)
	if err != nil {
		return 0, &query.ValidationError{Field: name, Msg: "must be an integer"}
	}
	return res, nil
}
