// README: Auth middleware tests.
package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/basgenix4u/fuw-campus-shuttle/internal/auth"
)

type stubValidator struct {
	sess auth.Session
	err  error
}

func (s stubValidator) ValidateToken(string) (auth.Session, error) {
	return s.sess, s.err
}

func testRouter(v TokenValidator, role string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	grp := r.Group("/", Auth(v))
	if role != "" {
		grp.Use(RequireRole(role))
	}
	grp.GET("/ok", func(c *gin.Context) {
		sess, _ := Session(c)
		c.JSON(http.StatusOK, gin.H{"user_id": sess.UserID})
	})
	return r
}

func TestAuthRejectsMissingToken(t *testing.T) {
	r := testRouter(stubValidator{}, "")
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthRejectsInvalidToken(t *testing.T) {
	r := testRouter(stubValidator{err: errors.New("bad")}, "")
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set("Authorization", "Bearer nope")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthAcceptsBearerHeader(t *testing.T) {
	r := testRouter(stubValidator{sess: auth.Session{UserID: "u1", Role: auth.RolePassenger}}, "")
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set("Authorization", "Bearer good")
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "u1")
}

func TestAuthAcceptsQueryToken(t *testing.T) {
	r := testRouter(stubValidator{sess: auth.Session{UserID: "u1", Role: auth.RolePassenger}}, "")
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ok?token=good", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireRole(t *testing.T) {
	v := stubValidator{sess: auth.Session{UserID: "u1", Role: auth.RolePassenger}}

	r := testRouter(v, auth.RoleDriver)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set("Authorization", "Bearer good")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	r = testRouter(v, auth.RolePassenger)
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set("Authorization", "Bearer good")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
