package clients

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"frontdesk/internal/domain/checkin"
)

var (
	ErrNoNextPage = errors.New("no next page")
	ErrNoPrevPage = errors.New("no previous page")
)

type PageLink struct {
	URL    string `json:"url"`
	Label  string `json:"label"`
	Active bool   `json:"active"`
}

type Page[T any] struct {
	Items       []T        `json:"items"`
	CurrentPage int        `json:"current_page"`
	LastPage    int        `json:"last_page"`
	Total       int        `json:"total"`
	Links       []PageLink `json:"links"`
	NextPageURL string     `json:"next_page_url,omitempty"`
	PrevPageURL string     `json:"prev_page_url,omitempty"`
}

func (p Page[T]) HasNext() bool { return p.NextPageURL != "" }
func (p Page[T]) HasPrev() bool { return p.PrevPageURL != "" }

type pageDTO[W any] struct {
	Data        []W        `json:"data"`
	CurrentPage flexInt    `json:"current_page"`
	LastPage    flexInt    `json:"last_page"`
	Total       flexInt    `json:"total"`
	Links       []PageLink `json:"links"`
	NextPageURL *string    `json:"next_page_url"`
	PrevPageURL *string    `json:"prev_page_url"`
}

func fetchPage[W any, T any](ctx context.Context, c *BackendClient, op, rawURL string, convert func(W) T) (Page[T], error) {
	env, err := c.do(ctx, op, http.MethodGet, rawURL, false)
	if err != nil {
		return Page[T]{}, err
	}

	var dto pageDTO[W]
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &dto); err != nil {
			return Page[T]{}, &APIError{Op: op, StatusCode: http.StatusOK, Err: checkin.ErrServer, Message: "malformed page", cause: err}
		}
	}

	page := Page[T]{
		Items:       make([]T, 0, len(dto.Data)),
		CurrentPage: int(dto.CurrentPage),
		LastPage:    int(dto.LastPage),
		Total:       int(dto.Total),
		Links:       dto.Links,
	}
	if dto.NextPageURL != nil {
		page.NextPageURL = *dto.NextPageURL
	}
	if dto.PrevPageURL != nil {
		page.PrevPageURL = *dto.PrevPageURL
	}
	for _, w := range dto.Data {
		page.Items = append(page.Items, convert(w))
	}

	return page, nil
}

func (c *BackendClient) pageURL(resource string, page int) string {
	if page < 1 {
		page = 1
	}
	return c.endpoint(resource) + "?page=" + strconv.Itoa(page)
}

func (c *BackendClient) ListTransactions(ctx context.Context, page int) (Page[checkin.Transaction], error) {
	return fetchPage(ctx, c, "list transactions", c.pageURL("transactions", page), transactionDTO.toDomain)
}

func (c *BackendClient) ListBookings(ctx context.Context, page int) (Page[checkin.BookingRecord], error) {
	return fetchPage(ctx, c, "list bookings", c.pageURL("bookings", page), bookingDTO.toDomain)
}

// Pager walks a paginated listing by following the server's next/prev links.
type Pager[T any] struct {
	current Page[T]
	fetch   func(ctx context.Context, rawURL string) (Page[T], error)
}

func (c *BackendClient) TransactionsPager(first Page[checkin.Transaction]) *Pager[checkin.Transaction] {
	return &Pager[checkin.Transaction]{
		current: first,
		fetch: func(ctx context.Context, rawURL string) (Page[checkin.Transaction], error) {
			if err := c.sameOrigin(rawURL); err != nil {
				return Page[checkin.Transaction]{}, err
			}
			return fetchPage(ctx, c, "list transactions", rawURL, transactionDTO.toDomain)
		},
	}
}

func (c *BackendClient) BookingsPager(first Page[checkin.BookingRecord]) *Pager[checkin.BookingRecord] {
	return &Pager[checkin.BookingRecord]{
		current: first,
		fetch: func(ctx context.Context, rawURL string) (Page[checkin.BookingRecord], error) {
			if err := c.sameOrigin(rawURL); err != nil {
				return Page[checkin.BookingRecord]{}, err
			}
			return fetchPage(ctx, c, "list bookings", rawURL, bookingDTO.toDomain)
		},
	}
}

func (p *Pager[T]) Current() Page[T] { return p.current }

// Next never issues a request when the current page has no next link.
func (p *Pager[T]) Next(ctx context.Context) (Page[T], error) {
	if !p.current.HasNext() {
		return p.current, ErrNoNextPage
	}
	return p.move(ctx, p.current.NextPageURL)
}

func (p *Pager[T]) Prev(ctx context.Context) (Page[T], error) {
	if !p.current.HasPrev() {
		return p.current, ErrNoPrevPage
	}
	return p.move(ctx, p.current.PrevPageURL)
}

func (p *Pager[T]) move(ctx context.Context, rawURL string) (Page[T], error) {
	page, err := p.fetch(ctx, rawURL)
	if err != nil {
		return p.current, err
	}

	p.current = page
	return page, nil
}
