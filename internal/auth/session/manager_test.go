package session

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/autoparts/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestReadToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewManager(config.Config{})

	cases := []struct {
		name   string
		setup  func(r *http.Request)
		token  string
		wantOK bool
	}{
		{name: "none", setup: func(*http.Request) {}},
		{
			name:   "cookie",
			setup:  func(r *http.Request) { r.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: "abc"}) },
			token:  "abc",
			wantOK: true,
		},
		{
			name:   "bearer",
			setup:  func(r *http.Request) { r.Header.Set("Authorization", "Bearer xyz") },
			token:  "xyz",
			wantOK: true,
		},
		{
			name: "cookie wins",
			setup: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: "abc"})
				r.Header.Set("Authorization", "Bearer xyz")
			},
			token:  "abc",
			wantOK: true,
		},
		{name: "basic ignored", setup: func(r *http.Request) { r.Header.Set("Authorization", "Basic Zm9v") }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			tc.setup(c.Request)

			token, ok := m.ReadToken(c)
			assert.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.token, token)
		})
	}
}
