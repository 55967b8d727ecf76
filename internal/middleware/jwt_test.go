package middleware

import (
    "net/http"
    "net/http/httptest"
    "testing"
    "time"

    "github.com/golang-jwt/jwt/v5"
    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/crowdsafe/internal/utils"
)

const secret = "test-secret"

func sign(t *testing.T, claims jwt.MapClaims, method jwt.SigningMethod, key interface{}) string {
    t.Helper()
    s, err := jwt.NewWithClaims(method, claims).SignedString(key)
    require.NoError(t, err)
    return s
}

func TestParseToken(t *testing.T) {
    tok, err := utils.NewAccessToken(secret, 7, RoleScanner, time.Hour)
    require.NoError(t, err)
    id, err := ParseToken(secret, tok.Token)
    require.NoError(t, err)
    assert.Equal(t, Identity{Subject: "7", Role: RoleScanner}, id)

    numeric := sign(t, jwt.MapClaims{"sub": float64(12), "role": RoleOrganizer, "exp": time.Now().Add(time.Hour).Unix()}, jwt.SigningMethodHS256, []byte(secret))
    id, err = ParseToken(secret, numeric)
    require.NoError(t, err)
    assert.Equal(t, "12", id.Subject)
}

func TestParseTokenRejects(t *testing.T) {
    expired := sign(t, jwt.MapClaims{"sub": "1", "exp": time.Now().Add(-time.Minute).Unix()}, jwt.SigningMethodHS256, []byte(secret))
    noSub := sign(t, jwt.MapClaims{"role": RoleScanner, "exp": time.Now().Add(time.Hour).Unix()}, jwt.SigningMethodHS256, []byte(secret))
    other := sign(t, jwt.MapClaims{"sub": "1"}, jwt.SigningMethodHS256, []byte("other"))
    none := sign(t, jwt.MapClaims{"sub": "1"}, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType)

    for name, raw := range map[string]string{"expired": expired, "no sub": noSub, "wrong key": other, "alg none": none, "garbage": "abc"} {
        _, err := ParseToken(secret, raw)
        assert.ErrorIs(t, err, ErrInvalidToken, name)
    }
}

func serve(t *testing.T, h echo.HandlerFunc, mw ...echo.MiddlewareFunc) func(auth string) *httptest.ResponseRecorder {
    e := echo.New()
    e.GET("/v1/events/:id/zones/capacity", h, mw...)
    return func(auth string) *httptest.ResponseRecorder {
        req := httptest.NewRequest(http.MethodGet, "/v1/events/3/zones/capacity", nil)
        if auth != "" {
            req.Header.Set("Authorization", auth)
        }
        rec := httptest.NewRecorder()
        e.ServeHTTP(rec, req)
        return rec
    }
}

func TestJWTAuthAndRoles(t *testing.T) {
    ok := func(c echo.Context) error {
        return c.String(http.StatusOK, c.Get("user_id").(string)+"/"+c.Get("role").(string))
    }
    do := serve(t, ok, JWTAuth(secret), RequireRole(RoleOrganizer))

    org, _ := utils.NewAccessToken(secret, 1, RoleOrganizer, time.Hour)
    scan, _ := utils.NewAccessToken(secret, 2, RoleScanner, time.Hour)

    rec := do("Bearer " + org.Token)
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, "1/ORGANIZER", rec.Body.String())

    rec = do("Bearer " + scan.Token)
    assert.Equal(t, http.StatusForbidden, rec.Code)
    assert.JSONEq(t, `{"ok":false,"error":"forbidden"}`, rec.Body.String())

    rec = do("")
    assert.Equal(t, http.StatusUnauthorized, rec.Code)
    assert.Contains(t, rec.Body.String(), "missing bearer token")

    rec = do("Bearer nope")
    assert.Equal(t, http.StatusUnauthorized, rec.Code)
    assert.Contains(t, rec.Body.String(), "invalid token")
}

func TestRequireRoleWithoutAuth(t *testing.T) {
    do := serve(t, func(c echo.Context) error { return c.NoContent(http.StatusOK) }, RequireRole(RoleScanner))
    assert.Equal(t, http.StatusForbidden, do("").Code)
}
