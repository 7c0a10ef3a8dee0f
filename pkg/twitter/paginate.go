package twitter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	errs "roost/pkg/errors"
	"roost/pkg/logger"
)

// Termination says why a paginated collection stopped.
type Termination int

const (
	SourceExhausted Termination = iota
	ItemCapReached
	Unavailable
	Fatal
	Cancelled
)

func (t Termination) String() string {
	switch t {
	case SourceExhausted:
		return "source_exhausted"
	case ItemCapReached:
		return "item_cap_reached"
	case Unavailable:
		return "unavailable"
	case Fatal:
		return "fatal"
	case Cancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("termination(%d)", int(t))
	}
}

// Result is the outcome of a paginated collection. Items is empty unless
// Termination is SourceExhausted or ItemCapReached.
type Result[T any] struct {
	Items       []T
	Termination Termination
	Pages       int
	Requests    int
	Err         error
}

// Get returns the items and the error, if any.
func (r *Result[T]) Get() ([]T, error) {
	return r.Items, r.Err
}

// pager describes one paginated listing. position writes the current
// position into the query; decode parses a page and moves the position
// forward, reporting whether more pages follow.
type pager[T any] struct {
	path     string
	params   url.Values
	limit    int
	position func(v url.Values)
	decode   func(body []byte) (items []T, more bool, err error)
}

// cursorPager walks next_cursor from -1 until it reaches 0.
func cursorPager(path string, params url.Values, limit int) pager[int64] {
	cursor := firstCursor
	return pager[int64]{
		path:   path,
		params: params,
		limit:  limit,
		position: func(v url.Values) {
			v.Set("cursor", strconv.FormatInt(cursor, 10))
		},
		decode: func(body []byte) ([]int64, bool, error) {
			var page idPage
			if err := json.Unmarshal(body, &page); err != nil {
				return nil, false, err
			}
			if page.IDs == nil {
				return nil, false, nil
			}
			if page.NextCursor <= 0 {
				return *page.IDs, false, nil
			}
			cursor = page.NextCursor
			return *page.IDs, true, nil
		},
	}
}

// pagePager walks numbered pages of PageSize items until an empty one.
func pagePager[T any](path string, params url.Values, limit int) pager[T] {
	page := firstPage
	params.Set("count", strconv.Itoa(PageSize))
	return pager[T]{
		path:   path,
		params: params,
		limit:  limit,
		position: func(v url.Values) {
			v.Set("page", strconv.Itoa(page))
		},
		decode: func(body []byte) ([]T, bool, error) {
			var items []T
			if err := json.Unmarshal(body, &items); err != nil {
				return nil, false, err
			}
			if len(items) == 0 {
				return nil, false, nil
			}
			page++
			return items, true, nil
		},
	}
}

// collect drives p to completion. Retryable outcomes repeat the same
// position; unavailable and fatal outcomes discard everything collected.
func collect[T any](ctx context.Context, c *Client, p pager[T]) *Result[T] {
	res := &Result[T]{}
	attempts := 0

	finish := func(t Termination, err error) *Result[T] {
		res.Termination = t
		res.Err = err
		if err != nil {
			res.Items = nil
		}
		c.logger.DebugWithFields("finished collecting", map[string]interface{}{
			"endpoint":    p.path,
			"termination": t.String(),
			"pages":       res.Pages,
			"requests":    res.Requests,
			"items":       len(res.Items),
		})
		return res
	}

	for {
		v := make(url.Values, len(p.params)+1)
		for k, vals := range p.params {
			v[k] = append([]string(nil), vals...)
		}
		p.position(v)

		res.Requests++
		o := c.execute(ctx, p.path, v, false)
		if o.cancelled() {
			return finish(Cancelled, o.Err)
		}

		switch o.Kind {
		case errs.Success:
			attempts = 0
			items, more, err := p.decode(o.Body)
			if err != nil {
				return finish(Fatal, malformed(o, err))
			}
			res.Pages++

			if p.limit > 0 && len(res.Items)+len(items) >= p.limit {
				res.Items = append(res.Items, items[:p.limit-len(res.Items)]...)
				return finish(ItemCapReached, nil)
			}
			res.Items = append(res.Items, items...)
			logger.LogPage(c.logger, p.path, res.Pages, len(res.Items))

			if !more {
				return finish(SourceExhausted, nil)
			}

		case errs.Retryable:
			attempts++
			if err := c.backoffWait(ctx, p.path, o.Reason, attempts); err != nil {
				return finish(Cancelled, err)
			}

		case errs.AccountUnavailable:
			return finish(Unavailable, o.asError())

		default:
			return finish(Fatal, o.asError())
		}
	}
}
