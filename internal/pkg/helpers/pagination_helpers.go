package helpers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/destinpq/destinpq-lms-sub000/internal/app/models/dto"
)

// Listing endpoints take ?page= (1-based) and ?size=.
const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// NormalizeSize maps out-of-range sizes to DefaultPageSize.
func NormalizeSize(size int) int {
	if size < 1 || size > MaxPageSize {
		return DefaultPageSize
	}
	return size
}

func normalizePage(page int) int {
	if page < 1 {
		return DefaultPage
	}
	return page
}

// CalculateOffsetLimit converts a page into the OFFSET/LIMIT pair squirrel takes.
func CalculateOffsetLimit(page, size int) (offset, limit uint64) {
	size = NormalizeSize(size)
	return uint64((normalizePage(page) - 1) * size), uint64(size)
}

// NewPaginationInfo reports at least one page, and never a current page past
// the last one.
func NewPaginationInfo(totalItems int64, page, size int) dto.PaginationInfo {
	size = NormalizeSize(size)
	pages := int((totalItems + int64(size) - 1) / int64(size))
	if pages == 0 {
		pages = 1
	}
	return dto.PaginationInfo{
		CurrentPage: min(normalizePage(page), pages),
		TotalPages:  pages,
		PageSize:    size,
		TotalItems:  totalItems,
	}
}

func NewPaginatedResponse(items interface{}, totalItems int64, page, size int) dto.PaginatedResponse {
	return dto.PaginatedResponse{Items: items, Pagination: NewPaginationInfo(totalItems, page, size)}
}

// ParsePaginationParams reads page and size from the query string. Bad values
// fall back to the defaults rather than failing the request.
func ParsePaginationParams(c *gin.Context) (page, size int) {
	page, _ = strconv.Atoi(c.Query("page"))
	size, _ = strconv.Atoi(c.Query("size"))
	return normalizePage(page), NormalizeSize(size)
}
