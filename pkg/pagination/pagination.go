package pagination

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Params holds pagination parameters extracted from a request.
type Params struct {
	Limit  int
	Offset int
}

// FromContext extracts pagination parameters from the echo context.
func FromContext(c echo.Context) Params {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	if offset < 0 {
		offset = 0
	}

	return Params{Limit: limit, Offset: offset}
}

// Response wraps a paginated API response. NextOffset and PreviousOffset are
// omitted when there is no such page.
type Response[T any] struct {
	Data           []T  `json:"data"`
	Total          int  `json:"total"`
	Limit          int  `json:"limit"`
	Offset         int  `json:"offset"`
	HasMore        bool `json:"has_more"`
	NextOffset     *int `json:"next_offset,omitempty"`
	PreviousOffset *int `json:"previous_offset,omitempty"`
}

// NewResponse builds a Response for one page of total results.
func NewResponse[T any](data []T, total, limit, offset int) *Response[T] {
	if data == nil {
		data = []T{}
	}
	p := Params{Limit: limit, Offset: offset}
	resp := &Response[T]{
		Data:    data,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: p.HasNext(total),
	}
	if resp.HasMore {
		next := p.NextOffset()
		resp.NextOffset = &next
	}
	if p.HasPrevious() {
		prev := p.PreviousOffset()
		resp.PreviousOffset = &prev
	}
	return resp
}

// Page cuts the window described by p out of items and wraps it.
func Page[T any](items []T, p Params) *Response[T] {
	total := len(items)
	start := min(p.Offset, total)
	end := min(start+p.Limit, total)
	return NewResponse(items[start:end], total, p.Limit, p.Offset)
}

// HasNext returns true if there are more results after the current page.
func (p Params) HasNext(total int) bool {
	return p.Offset+p.Limit < total
}

// HasPrevious returns true if there are results before the current page.
func (p Params) HasPrevious() bool {
	return p.Offset > 0
}

// NextOffset returns the offset for the next page.
func (p Params) NextOffset() int {
	return p.Offset + p.Limit
}

// PreviousOffset returns the offset for the previous page.
// Returns 0 if the result would be negative.
func (p Params) PreviousOffset() int {
	prev := p.Offset - p.Limit
	if prev < 0 {
		return 0
	}
	return prev
}
