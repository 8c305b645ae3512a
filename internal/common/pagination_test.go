package common

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestGetPaginationParams(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name         string
		query        string
		wantPage     int
		wantPageSize int
	}{
		{"defaults", "", DefaultPage, DefaultPageSize},
		{"explicit", "?page=3&page_size=25", 3, 25},
		{"invalid values fall back", "?page=abc&page_size=-4", DefaultPage, DefaultPageSize},
		{"page size capped", "?page_size=1000", DefaultPage, MaxPageSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest("GET", "/notifications"+tt.query, nil)

			page, pageSize := GetPaginationParams(c)
			assert.Equal(t, tt.wantPage, page)
			assert.Equal(t, tt.wantPageSize, pageSize)
		})
	}
}

func TestPageSlice(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	page, p := PageSlice(items, 2, 2)
	assert.Equal(t, []int{3, 4}, page)
	assert.Equal(t, int64(5), p.TotalItems)
	assert.Equal(t, 3, p.TotalPages)
	assert.True(t, p.HasNext)
	assert.True(t, p.HasPrev)

	page, p = PageSlice(items, 3, 2)
	assert.Equal(t, []int{5}, page)
	assert.False(t, p.HasNext)

	page, _ = PageSlice(items, 9, 2)
	assert.NotNil(t, page)
	assert.Empty(t, page)

	page, p = PageSlice([]int(nil), 1, 10)
	assert.Empty(t, page)
	assert.Equal(t, 0, p.TotalPages)
	assert.False(t, p.HasNext)
}
