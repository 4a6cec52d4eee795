// Package types holds the JSON envelopes shared by every handler.
package types

// SuccessEnvelope wraps every 2xx payload as {"data": ...}.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// ErrorEnvelope wraps every error payload as {"error": {...}}.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Page is one slice of a keyset-paginated list. NextCursor is empty on the
// last page.
type Page[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"next_cursor,omitempty"`
}

// NewPage never serializes items as null.
func NewPage[T any](items []T, nextCursor string) *Page[T] {
	if items == nil {
		items = []T{}
	}
	return &Page[T]{Items: items, NextCursor: nextCursor}
}
