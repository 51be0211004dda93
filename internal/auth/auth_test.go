package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func testCredentials(t *testing.T) *StaticCredentials {
	t.Helper()
	sc, err := parseCredentials("1:admin:admin:admin, 2:teacher1:123:teacher,3:student1:123:student", bcrypt.MinCost)
	require.NoError(t, err)
	return sc
}

func TestAuthenticate(t *testing.T) {
	sc := testCredentials(t)

	u, ok := sc.Authenticate("teacher1", "123", "teacher")
	require.True(t, ok)
	assert.Equal(t, User{ID: "2", Username: "teacher1", Role: "teacher"}, u)

	_, ok = sc.Authenticate("teacher1", "123", "student")
	assert.False(t, ok, "role must match")

	_, ok = sc.Authenticate("teacher1", "wrong", "teacher")
	assert.False(t, ok)

	_, ok = sc.Authenticate("ghost", "123", "student")
	assert.False(t, ok)
}

func TestUsername(t *testing.T) {
	sc := testCredentials(t)

	name, ok := sc.Username("3")
	assert.True(t, ok)
	assert.Equal(t, "student1", name)

	_, ok = sc.Username("42")
	assert.False(t, ok)
}

func TestParseCredentialsRejectsMalformed(t *testing.T) {
	_, err := parseCredentials("1:admin:admin", bcrypt.MinCost)
	assert.Error(t, err)

	_, err = parseCredentials(" , ", bcrypt.MinCost)
	assert.Error(t, err)
}

func TestIssueAndParse(t *testing.T) {
	iss := NewIssuer("classroom", "secret", time.Hour)

	token, exp, err := iss.Issue(User{ID: "2", Username: "teacher1", Role: "teacher"})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	claims, err := iss.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "2", claims.Subject)
	assert.Equal(t, "teacher1", claims.Username)
	assert.Equal(t, "teacher", claims.Role)

	_, err = NewIssuer("classroom", "other-secret", time.Hour).Parse(token)
	assert.Error(t, err)

	_, err = NewIssuer("elsewhere", "secret", time.Hour).Parse(token)
	assert.Error(t, err)
}

func TestParseRejectsExpired(t *testing.T) {
	iss := NewIssuer("classroom", "secret", -time.Minute)
	token, _, err := iss.Issue(User{ID: "1", Username: "admin", Role: "admin"})
	require.NoError(t, err)

	_, err = iss.Parse(token)
	assert.Error(t, err)
}

func TestBearerMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	iss := NewIssuer("classroom", "secret", time.Hour)

	r := gin.New()
	r.GET("/private", Bearer(iss), func(c *gin.Context) {
		claims := c.MustGet(ClaimsKey).(Claims)
		c.String(http.StatusOK, claims.Username)
	})

	token, _, err := iss.Issue(User{ID: "1", Username: "admin", Role: "admin"})
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		code   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"garbage", "Bearer abc", http.StatusUnauthorized},
		{"valid", "Bearer " + token, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/private", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			assert.Equal(t, tt.code, rec.Code)
		})
	}
}
