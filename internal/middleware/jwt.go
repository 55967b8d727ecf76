package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "errors"
    "fmt"
    "net/http"
    "strings"

    "github.com/golang-jwt/jwt/v5"
    "github.com/labstack/echo/v4"
)

// Roles issued by the auth service that the monitor recognises.
const (
    RoleOrganizer = "ORGANIZER"
    RoleScanner   = "SCANNER"
)

// Identity is what the monitor needs from a verified access token.
type Identity struct {
    Subject string
    Role    string
}

// ErrInvalidToken covers any token that fails parsing or verification.
var ErrInvalidToken = errors.New("invalid token")

// ParseToken verifies an HS256 access token and extracts its subject and
// role.  Numeric subjects are rendered in decimal.
func ParseToken(secret, raw string) (Identity, error) {
    tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
        if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, ErrInvalidToken
        }
        return []byte(secret), nil
    })
    if err != nil || !tok.Valid {
        return Identity{}, ErrInvalidToken
    }
    claims, ok := tok.Claims.(jwt.MapClaims)
    if !ok {
        return Identity{}, ErrInvalidToken
    }
    id := Identity{}
    switch sub := claims["sub"].(type) {
    case string:
        id.Subject = sub
    case float64:
        id.Subject = fmt.Sprintf("%.0f", sub)
    }
    id.Role, _ = claims["role"].(string)
    if id.Subject == "" {
        return Identity{}, ErrInvalidToken
    }
    return id, nil
}

// JWTAuth validates the Bearer access token and stores the subject and
// role under "user_id" and "role" for handlers and RequireRole.
func JWTAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            auth := c.Request().Header.Get("Authorization")
            if !strings.HasPrefix(auth, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{"ok": false, "error": "missing bearer token"})
            }
            id, err := ParseToken(secret, strings.TrimPrefix(auth, "Bearer "))
            if err != nil {
                return c.JSON(http.StatusUnauthorized, echo.Map{"ok": false, "error": "invalid token"})
            }
            c.Set("user_id", id.Subject)
            c.Set("role", id.Role)
            return next(c)
        }
    }
}

// currentUserID returns the authenticated subject, or "anon".
func currentUserID(c echo.Context) string {
    if s, ok := c.Get("user_id").(string); ok && s != "" {
        return s
    }
    return "anon"
}
