package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/Roeeht/Agent-Messiah/internal/auth"
)

func withRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if role != "" {
			c.Request = c.Request.WithContext(auth.WithIdentity(c.Request.Context(), auth.Identity{UserID: "u", Role: role}))
		}
		c.Next()
	}
}

func TestRequireAnyRole(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name    string
		role    string
		allowed []string
		want    int
	}{
		{"admin bypasses", RoleAdmin, []string{RoleOperator}, http.StatusOK},
		{"allowed role", RoleOperator, []string{RoleOperator, RoleViewer}, http.StatusOK},
		{"viewer denied", RoleViewer, []string{RoleOperator}, http.StatusForbidden},
		{"unknown role denied", "super_admin", []string{"super_admin"}, http.StatusForbidden},
		{"missing role", "", []string{RoleViewer}, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/x", withRole(tc.role), RequireAnyRole(tc.allowed...), func(c *gin.Context) {
				c.Status(http.StatusOK)
			})
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
			if w.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, w.Code)
			}
		})
	}
}
