package gateway

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/platefeed/stories/internal/domain"
)

const currentUserKey = "currentUser"

// identify resolves the current user from a bearer token. Identity is an
// external collaborator: only the subject, display name and picture
// claims are consumed here, nothing is issued.
func (s *Server) identify(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		split := strings.Split(authHeader, " ")
		if len(split) != 2 || split[0] != "Bearer" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
		}

		token, err := jwt.Parse(split[1], func(t *jwt.Token) (interface{}, error) {
			return []byte(s.Config.App.JwtSecret), nil
		}, jwt.WithValidMethods([]string{"HS256"}))
		if err != nil || !token.Valid {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid claims")
		}

		sub, _ := claims["sub"].(string)
		if sub == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing subject")
		}

		name, _ := claims["name"].(string)
		picture, _ := claims["picture"].(string)
		kind, _ := claims["kind"].(string)
		if kind != string(domain.AuthorOrganization) {
			kind = string(domain.AuthorPerson)
		}

		c.Set(currentUserKey, domain.Author{
			ID:          sub,
			DisplayName: name,
			ImageURL:    picture,
			Kind:        domain.AuthorKind(kind),
		})
		return next(c)
	}
}

func currentUser(c echo.Context) domain.Author {
	u, _ := c.Get(currentUserKey).(domain.Author)
	return u
}
