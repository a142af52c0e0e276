package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestSlugValidation(t *testing.T) {
	gin.SetMode(gin.TestMode)
	SetupValidator()

	type payload struct {
		Slug string `json:"slug" binding:"required,slug"`
	}

	r := gin.New()
	r.POST("/", func(c *gin.Context) {
		var req payload
		if err := c.ShouldBindJSON(&req); err != nil {
			c.Status(http.StatusBadRequest)
			return
		}
		c.Status(http.StatusOK)
	})

	tests := []struct {
		name     string
		slug     string
		expected int
	}{
		{name: "simple slug", slug: "widget", expected: http.StatusOK},
		{name: "hyphenated slug", slug: "blue-widget-2", expected: http.StatusOK},
		{name: "digits only", slug: "42", expected: http.StatusOK},
		{name: "uppercase rejected", slug: "Widget", expected: http.StatusBadRequest},
		{name: "spaces rejected", slug: "blue widget", expected: http.StatusBadRequest},
		{name: "leading hyphen rejected", slug: "-widget", expected: http.StatusBadRequest},
		{name: "trailing hyphen rejected", slug: "widget-", expected: http.StatusBadRequest},
		{name: "double hyphen rejected", slug: "blue--widget", expected: http.StatusBadRequest},
		{name: "slash rejected", slug: "a/b", expected: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"slug":"`+tt.slug+`"}`))
			req.Header.Set("Content-Type", "application/json")
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.expected, w.Code, "slug %q", tt.slug)
		})
	}
}
