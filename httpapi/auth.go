package httpapi

import (
	"crypto/subtle"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/AntonStoeckl/library-inventory/shell/httpx"
)

const userIDKey = "user_id"

// InternalAuth rejects requests whose X-Internal-Auth header does not match secret.
func InternalAuth(secret string) echo.MiddlewareFunc {
	expected := []byte(secret)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			given := []byte(c.Request().Header.Get(httpx.InternalAuthHeader))
			if len(expected) == 0 || subtle.ConstantTimeCompare(given, expected) != 1 {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid internal credential")
			}

			return next(c)
		}
	}
}

// UserAuth validates the bearer JWT and stores the "sub" claim as the user ID.
func UserAuth(secret string) []echo.MiddlewareFunc {
	return []echo.MiddlewareFunc{
		echojwt.WithConfig(echojwt.Config{
			SigningKey:    []byte(secret),
			NewClaimsFunc: func(echo.Context) jwt.Claims { return jwt.MapClaims{} },
			TokenLookup:   "header:Authorization:Bearer ",
			ErrorHandler: func(echo.Context, error) error {
				return echo.NewHTTPError(http.StatusUnauthorized, "unauthenticated")
			},
		}),
		func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error {
				token, ok := c.Get("user").(*jwt.Token)
				if !ok || token == nil {
					return echo.NewHTTPError(http.StatusUnauthorized, "unauthenticated")
				}

				claims, ok := token.Claims.(jwt.MapClaims)
				if !ok {
					return echo.NewHTTPError(http.StatusUnauthorized, "unauthenticated")
				}

				sub, ok := claims["sub"].(float64)
				if !ok || sub <= 0 {
					return echo.NewHTTPError(http.StatusUnauthorized, "unauthenticated")
				}

				c.Set(userIDKey, int64(sub))

				return next(c)
			}
		},
	}
}

func currentUser(c echo.Context) int64 {
	userID, _ := c.Get(userIDKey).(int64)
	return userID
}
