package trivia

import (
	"net/url"
	"strconv"
	"strings"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Page selects a window of an ordered result set. Number is 1-based.
type Page struct {
	Number int
	Size   int
}

// Bounds returns the half-open [start, end) window for a collection of length n.
func (p Page) Bounds(n int) (start, end int) {
	p = p.normalize(DefaultPageSize, 0)
	// compare before multiplying so huge page numbers cannot overflow
	if p.Number-1 > n/p.Size {
		return n, n
	}
	start = (p.Number - 1) * p.Size
	if start >= n {
		return n, n
	}
	end = start + p.Size
	if end > n {
		end = n
	}
	return start, end
}

// Paginate returns the slice of items covered by page. An out of range
// page yields an empty, non-nil slice.
func Paginate[T any](items []T, page Page) []T {
	start, end := page.Bounds(len(items))
	out := make([]T, end-start)
	copy(out, items[start:end])
	return out
}

// PageParser reads paging parameters from a query string.
type PageParser struct {
	DefaultSize int
	MaxSize     int
}

// Parse reads `page` and `questions_per_page`. Missing, malformed and
// non-positive values fall back to the defaults; it never fails.
func (p PageParser) Parse(query url.Values) Page {
	page := Page{
		Number: positiveInt(query.Get("page"), 1),
		Size:   positiveInt(query.Get("questions_per_page"), p.DefaultSize),
	}
	return page.normalize(p.DefaultSize, p.MaxSize)
}

// normalize replaces non-positive fields with defaults. maxSize <= 0 disables clamping.
func (p Page) normalize(defaultSize, maxSize int) Page {
	if defaultSize <= 0 {
		defaultSize = DefaultPageSize
	}
	if p.Number <= 0 {
		p.Number = 1
	}
	if p.Size <= 0 {
		p.Size = defaultSize
	}
	if maxSize > 0 && p.Size > maxSize {
		p.Size = maxSize
	}
	return p
}

func positiveInt(raw string, fallback int) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
