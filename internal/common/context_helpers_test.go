package common

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"crm_dashboard_backend/internal/domain"
)

func TestGetTokenFromContext(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc.def", "abc.def"},
		{"bearer xyz", "xyz"},
		{"Basic dXNlcg==", ""},
		{"Bearer", ""},
		{"", ""},
	}
	for _, tt := range tests {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest("GET", "/", nil)
		if tt.header != "" {
			c.Request.Header.Set(AuthorizationHeader, tt.header)
		}
		assert.Equal(t, tt.want, GetTokenFromContext(c), "header %q", tt.header)
	}
}

func TestViewerRoundTrip(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	_, ok := GetViewerFromContext(c)
	assert.False(t, ok)

	SetViewer(c, domain.Viewer{UserID: "u-1", Role: domain.RoleSales})
	viewer, ok := GetViewerFromContext(c)
	assert.True(t, ok)
	assert.Equal(t, "u-1", viewer.UserID)
	assert.Equal(t, domain.RoleSales, viewer.Role)

	c.Set(ViewerKey, "not a viewer")
	_, ok = GetViewerFromContext(c)
	assert.False(t, ok)
}
