package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

func TestGenerateTokenRoundTrip(t *testing.T) {
	t.Parallel()

	signed, expiresAt, err := GenerateToken("7", "admin@example.com", "test-secret", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, signed)
	require.True(t, expiresAt.After(time.Now()))

	parsed, err := jwt.Parse(signed, func(token *jwt.Token) (any, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	require.True(t, parsed.Valid)

	claims, ok := parsed.Claims.(jwt.MapClaims)
	require.True(t, ok)
	require.Equal(t, "7", claims["sub"])
	require.Equal(t, "admin@example.com", claims["email"])
}

func TestAdminIDFromContext(t *testing.T) {
	t.Parallel()

	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	_, err := AdminIDFromContext(c)
	require.Error(t, err)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "7"})
	token.Valid = true
	c.Set("user", token)

	id, err := AdminIDFromContext(c)
	require.NoError(t, err)
	require.Equal(t, "7", id)
}

func TestGenerateTokenValidation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		adminID   string
		secret    string
		expiresIn time.Duration
	}{
		{name: "missing admin id", adminID: "", secret: "s", expiresIn: time.Hour},
		{name: "missing secret", adminID: "1", secret: "", expiresIn: time.Hour},
		{name: "non-positive expiry", adminID: "1", secret: "s", expiresIn: 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := GenerateToken(tc.adminID, "a@b.c", tc.secret, tc.expiresIn)
			require.Error(t, err)
		})
	}
}
