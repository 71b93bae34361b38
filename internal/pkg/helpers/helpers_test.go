package helpers

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestCalculateOffsetLimit(t *testing.T) {
	offset, limit := CalculateOffsetLimit(3, 10)
	assert.Equal(t, uint64(20), offset)
	assert.Equal(t, uint64(10), limit)

	offset, limit = CalculateOffsetLimit(0, 1000)
	assert.Equal(t, uint64(0), offset)
	assert.Equal(t, uint64(DefaultPageSize), limit)
}

func TestNewPaginationInfo(t *testing.T) {
	info := NewPaginationInfo(25, 2, 10)
	assert.Equal(t, 3, info.TotalPages)
	assert.Equal(t, 2, info.CurrentPage)
	assert.Equal(t, int64(25), info.TotalItems)

	empty := NewPaginationInfo(0, 1, 10)
	assert.Equal(t, 1, empty.TotalPages)

	clamped := NewPaginationInfo(5, 9, 10)
	assert.Equal(t, 1, clamped.CurrentPage)
}

func TestParsePaginationParams(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/x?page=4&size=500", nil)

	page, size := ParsePaginationParams(c)
	assert.Equal(t, 4, page)
	assert.Equal(t, DefaultPageSize, size)

	c, _ = gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/x?page=abc&size=5", nil)
	page, size = ParsePaginationParams(c)
	assert.Equal(t, 1, page)
	assert.Equal(t, 5, size)
}

func TestParseDurationAndLocation(t *testing.T) {
	assert.Equal(t, 2*time.Hour, ParseDuration("2h", time.Minute))
	assert.Equal(t, time.Minute, ParseDuration("later", time.Minute))

	assert.Equal(t, time.UTC, ParseLocation(""))
	assert.Equal(t, time.UTC, ParseLocation("Mars/Olympus"))
	assert.Equal(t, "Europe/Berlin", ParseLocation("Europe/Berlin").String())
}
