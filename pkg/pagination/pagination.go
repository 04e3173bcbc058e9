// Package pagination computes page bounds and page metadata shared by every paged listing.
package pagination

import (
	"math"
	"net/url"
	"strconv"

	"github.com/noah-isme/unirate/internal/models"
)

// MaxPageSize caps any requested page size.
const MaxPageSize = 100

// MaxPage caps page numbers so the row offset of any page fits in an int.
const MaxPage = math.MaxInt / MaxPageSize

// windowRadius is how many pages around the current one stay visible in page links.
const windowRadius = 2

// Normalize clamps page to at least 1 and size into (0, MaxPageSize], using fallback when size is unset.
func Normalize(page, size, fallback int) (int, int) {
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}
	if size <= 0 {
		size = fallback
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return page, size
}

// Offset returns the zero-based row offset of the first item on page.
func Offset(page, size int) int {
	if page < 1 {
		page = 1
	}
	if size > 0 && page-1 > math.MaxInt/size {
		return math.MaxInt
	}
	return (page - 1) * size
}

// New builds pagination metadata for a page of a result set with totalCount rows.
func New(page, limit, totalCount int) models.Pagination {
	totalPages := 0
	if limit > 0 && totalCount > 0 {
		totalPages = (totalCount + limit - 1) / limit
	}
	return models.Pagination{
		CurrentPage: page,
		TotalPages:  totalPages,
		TotalCount:  totalCount,
		HasNext:     page < totalPages,
		HasPrevious: page > 1,
		Limit:       limit,
	}
}

// Empty returns metadata for a page with no results.
func Empty(page, limit int) models.Pagination {
	return New(page, limit, 0)
}

// Item is one entry of a rendered page-number strip.
type Item struct {
	Number   int
	Active   bool
	Ellipsis bool
}

// Window returns the page numbers to render: the first and last page plus those within
// two of current, with an ellipsis item wherever numbers are skipped.
func Window(current, totalPages int) []Item {
	if totalPages <= 0 {
		return nil
	}
	items := make([]Item, 0, 2*windowRadius+5)
	prev := 0
	for n := 1; n <= totalPages; n++ {
		distance := n - current
		if distance < 0 {
			distance = -distance
		}
		if distance > windowRadius && n != 1 && n != totalPages {
			continue
		}
		if prev > 0 && n-prev > 1 {
			items = append(items, Item{Ellipsis: true})
		}
		items = append(items, Item{Number: n, Active: n == current})
		prev = n
	}
	return items
}

// URL returns path with params encoded, adding page only when it is past the first page.
// Empty parameter values are dropped so links stay canonical.
func URL(path string, params url.Values, page int) string {
	q := url.Values{}
	for key, values := range params {
		for _, v := range values {
			if v != "" {
				q.Add(key, v)
			}
		}
	}
	if page > 1 {
		q.Set("page", strconv.Itoa(page))
	} else {
		q.Del("page")
	}
	if encoded := q.Encode(); encoded != "" {
		return path + "?" + encoded
	}
	return path
}
