// Package paginate splits record lists into fixed-size pages.
package paginate

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// DefaultPageSize is used when a caller passes a non-positive size.
const DefaultPageSize = 5

type Page[T any] struct {
	Items  []T `json:"items"`
	Number int `json:"page"`
	Count  int `json:"pages"`
	Total  int `json:"total"`
	Start  int `json:"start"`
	End    int `json:"end"`
}

// PageCount is ceil(n/size); zero items yield zero pages.
func PageCount(n, size int) int {
	if size <= 0 {
		size = DefaultPageSize
	}
	if n <= 0 {
		return 0
	}
	pages := n / size
	if n%size != 0 {
		pages++
	}
	return pages
}

// Clamp moves page into [1, max(1, PageCount(n, size))].
func Clamp(page, n, size int) int {
	last := PageCount(n, size)
	if last < 1 {
		last = 1
	}
	if page < 1 {
		return 1
	}
	if page > last {
		return last
	}
	return page
}

// Paginate returns the clamped page of items. Start and End are the 1-based
// positions of the first and last item shown, both zero for an empty list.
func Paginate[T any](items []T, size, page int) Page[T] {
	if size <= 0 {
		size = DefaultPageSize
	}
	n := len(items)
	page = Clamp(page, n, size)
	lo := (page - 1) * size
	hi := n
	if size < n-lo {
		hi = lo + size
	}
	p := Page[T]{
		Items:  items[lo:hi],
		Number: page,
		Count:  PageCount(n, size),
		Total:  n,
	}
	if hi > lo {
		p.Start = lo + 1
		p.End = hi
	}
	return p
}

// Cursor is the per-viewer pagination state. It is bound to the record set it
// was created for through Fingerprint.
type Cursor struct {
	Page        int    `json:"page"`
	Fingerprint string `json:"fp"`
}

// For returns the cursor to use with items: unchanged when the set is the
// same one, reset to the first page when the set changed.
func (c Cursor) For(items any) Cursor {
	fp := Fingerprint(items)
	if fp != c.Fingerprint {
		return Cursor{Page: 1, Fingerprint: fp}
	}
	if c.Page < 1 {
		c.Page = 1
	}
	return c
}

// Fingerprint is the hex sha256 of the JSON encoding of items.
func Fingerprint(items any) string {
	b, err := json.Marshal(items)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
