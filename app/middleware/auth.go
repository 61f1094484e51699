package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	httpdto "github.com/vibast-solutions/ms-go-taskboard-auth/app/dto/http"
	"github.com/vibast-solutions/ms-go-taskboard-auth/app/entity"
	"github.com/vibast-solutions/ms-go-taskboard-auth/app/service"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

const (
	contextUserID = "user_id"
	contextUser   = "user"
)

type authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*entity.Profile, error)
}

type accessTokenCookie interface {
	AccessToken(r *http.Request) string
}

type AuthMiddleware struct {
	authService authenticator
	cookies     accessTokenCookie
}

func NewAuthMiddleware(authService authenticator, cookies accessTokenCookie) *AuthMiddleware {
	return &AuthMiddleware{authService: authService, cookies: cookies}
}

// RequireAuth resolves the caller from the access token cookie or, when no
// valid cookie is present, from the Authorization bearer header.
func (m *AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := m.cookies.AccessToken(c.Request())
		if token == "" {
			token = BearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
		}
		if token == "" {
			logrus.Debug("Missing access token")
			return c.JSON(http.StatusUnauthorized, httpdto.NewError(httpdto.CodeUnauthenticated, "access token is missing"))
		}

		profile, err := m.authService.Authenticate(c.Request().Context(), token)
		if err != nil {
			if errors.Is(err, service.ErrUnauthenticated) {
				logrus.Debug("Invalid or expired access token")
				return c.JSON(http.StatusUnauthorized, httpdto.NewError(httpdto.CodeUnauthenticated, "invalid or expired access token"))
			}
			logrus.WithError(err).Error("Failed to authenticate request")
			return c.JSON(http.StatusInternalServerError, httpdto.InternalError())
		}

		c.Set(contextUserID, profile.ID)
		c.Set(contextUser, profile)

		return next(c)
	}
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header value, or returns "".
func BearerToken(header string) string {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}

// UserID returns the id set by RequireAuth.
func UserID(c echo.Context) (uint64, bool) {
	id, ok := c.Get(contextUserID).(uint64)
	return id, ok
}

func CurrentUser(c echo.Context) *entity.Profile {
	profile, _ := c.Get(contextUser).(*entity.Profile)
	return profile
}
