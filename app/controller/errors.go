package controller

import (
	"errors"
	"net/http"

	httpdto "github.com/vibast-solutions/ms-go-taskboard-auth/app/dto/http"
	"github.com/vibast-solutions/ms-go-taskboard-auth/app/service"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type errorMapping struct {
	target error
	status int
	code   string
}

// Ordered: the first match wins.
var serviceErrors = []errorMapping{
	{service.ErrUserExists, http.StatusConflict, httpdto.CodeConflict},
	{service.ErrMemberExists, http.StatusConflict, httpdto.CodeConflict},
	{service.ErrInvalidCredentials, http.StatusUnauthorized, httpdto.CodeInvalidCredentials},
	{service.ErrUnauthenticated, http.StatusUnauthorized, httpdto.CodeUnauthenticated},
	{service.ErrInvalidToken, http.StatusUnauthorized, httpdto.CodeInvalidToken},
	{service.ErrTokenInvalidOrExpired, http.StatusBadRequest, httpdto.CodeTokenInvalidOrExpired},
	{service.ErrForbidden, http.StatusForbidden, httpdto.CodeForbidden},
	{service.ErrDeliveryFailed, http.StatusBadGateway, httpdto.CodeDeliveryFailed},
	{service.ErrSamePassword, http.StatusBadRequest, httpdto.CodeSamePassword},
	{service.ErrAccountAlreadyVerified, http.StatusBadRequest, httpdto.CodeAlreadyVerified},
	{service.ErrWeakPassword, http.StatusBadRequest, httpdto.CodeBadRequest},
	{service.ErrInvalidRole, http.StatusBadRequest, httpdto.CodeBadRequest},
	{service.ErrUserNotFound, http.StatusNotFound, httpdto.CodeNotFound},
	{service.ErrMemberNotFound, http.StatusNotFound, httpdto.CodeNotFound},
}

// writeServiceError answers a failed service call. Known business errors are
// logged at Warn with their own message; anything else is a 500.
func writeServiceError(ctx echo.Context, log *logrus.Entry, action string, err error) error {
	for _, m := range serviceErrors {
		if errors.Is(err, m.target) {
			log.WithField("reason", m.code).Warn(action + " failed: " + m.target.Error())
			return ctx.JSON(m.status, httpdto.NewError(m.code, err.Error()))
		}
	}

	log.WithError(err).Error(action + " failed")
	return ctx.JSON(http.StatusInternalServerError, httpdto.InternalError())
}

func badRequest(ctx echo.Context, message string) error {
	return ctx.JSON(http.StatusBadRequest, httpdto.NewError(httpdto.CodeBadRequest, message))
}

func invalidBody(ctx echo.Context) error {
	return badRequest(ctx, "invalid request body")
}
