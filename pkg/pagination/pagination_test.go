package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func paramsFor(t *testing.T, query string) Params {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/?"+query, nil)
	return Parse(c)
}

func TestParse(t *testing.T) {
	cases := []struct {
		name  string
		query string
		want  Params
	}{
		{"defaults", "", Params{Page: 1, Limit: 20, Offset: 0}},
		{"explicit", "page=3&limit=10", Params{Page: 3, Limit: 10, Offset: 20}},
		{"zero page", "page=0&limit=10", Params{Page: 1, Limit: 10, Offset: 0}},
		{"negative limit", "page=2&limit=-5", Params{Page: 2, Limit: 20, Offset: 20}},
		{"limit capped", "limit=9999", Params{Page: 1, Limit: 200, Offset: 0}},
		{"garbage", "page=abc&limit=xyz", Params{Page: 1, Limit: 20, Offset: 0}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := paramsFor(t, tc.query); got != tc.want {
				t.Fatalf("Parse(%q) = %+v, want %+v", tc.query, got, tc.want)
			}
		})
	}
}
