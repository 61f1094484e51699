package controller

import (
	"errors"
	"net/http"

	httpdto "github.com/vibast-solutions/ms-go-taskboard-auth/app/dto/http"
	"github.com/vibast-solutions/ms-go-taskboard-auth/app/middleware"
	"github.com/vibast-solutions/ms-go-taskboard-auth/app/service"
	"github.com/vibast-solutions/ms-go-taskboard-auth/app/types"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

const forgotPasswordAck = "if an account exists for this email, a password reset link has been sent"

type tokenCookies interface {
	SetTokens(w http.ResponseWriter, accessToken, refreshToken string) error
	Clear(w http.ResponseWriter)
	RefreshToken(r *http.Request) string
}

type UserAuthController struct {
	userAuthService service.UserAuthService
	cookies         tokenCookies
}

func NewUserAuthController(userAuthService service.UserAuthService, cookies tokenCookies) *UserAuthController {
	return &UserAuthController{userAuthService: userAuthService, cookies: cookies}
}

func (c *UserAuthController) Register(ctx echo.Context) error {
	req, err := types.NewRegisterRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind register request")
		return invalidBody(ctx)
	}

	if err = req.Validate(); err != nil {
		logrus.WithField("email", req.Email).Debug("Register validation failed")
		return badRequest(ctx, err.Error())
	}

	log := logrus.WithField("email", req.Email)
	log.Info("Register request received")

	result, err := c.userAuthService.Register(ctx.Request().Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrDeliveryFailed) && result != nil {
			log.WithField("user_id", result.UserID).Warn("User registered but the verification email was not delivered")
			return ctx.JSON(http.StatusBadGateway, httpdto.NewError(httpdto.CodeDeliveryFailed,
				"account created but the verification email could not be sent, request a new one"))
		}
		return writeServiceError(ctx, log, "Register", err)
	}

	log.WithField("user_id", result.UserID).Info("User registered")
	return ctx.JSON(http.StatusCreated, result)
}

func (c *UserAuthController) Login(ctx echo.Context) error {
	req, err := types.NewLoginRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind login request")
		return invalidBody(ctx)
	}

	if err = req.Validate(); err != nil {
		logrus.WithField("email", req.Email).Debug("Login validation failed")
		return badRequest(ctx, err.Error())
	}

	log := logrus.WithField("email", req.Email)
	log.Info("Login request received")

	result, err := c.userAuthService.Login(ctx.Request().Context(), req)
	if err != nil {
		return writeServiceError(ctx, log, "Login", err)
	}

	if err = c.cookies.SetTokens(ctx.Response(), result.AccessToken, result.RefreshToken); err != nil {
		log.WithError(err).Error("Failed to set token cookies")
		return ctx.JSON(http.StatusInternalServerError, httpdto.InternalError())
	}

	log.WithField("user_id", result.User.ID).Info("Login successful")
	return ctx.JSON(http.StatusOK, result)
}

// RefreshToken takes the refresh token from the refresh cookie, then the
// Authorization header, then the request body.
func (c *UserAuthController) RefreshToken(ctx echo.Context) error {
	req := &types.RefreshTokenRequest{RefreshToken: c.cookies.RefreshToken(ctx.Request())}
	if req.RefreshToken == "" {
		req.RefreshToken = middleware.BearerToken(ctx.Request().Header.Get(echo.HeaderAuthorization))
	}
	if req.RefreshToken == "" {
		if err := ctx.Bind(req); err != nil {
			logrus.WithError(err).Debug("Failed to bind refresh token request")
			return invalidBody(ctx)
		}
	}

	log := logrus.NewEntry(logrus.StandardLogger())
	log.Debug("Refresh token request received")

	result, err := c.userAuthService.RefreshToken(ctx.Request().Context(), req)
	if err != nil {
		return writeServiceError(ctx, log, "Refresh token", err)
	}

	if err = c.cookies.SetTokens(ctx.Response(), result.AccessToken, result.RefreshToken); err != nil {
		log.WithError(err).Error("Failed to set token cookies")
		return ctx.JSON(http.StatusInternalServerError, httpdto.InternalError())
	}

	log.Debug("Access token refreshed")
	return ctx.JSON(http.StatusOK, result)
}

func (c *UserAuthController) Logout(ctx echo.Context) error {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		logrus.Warn("Logout failed: missing user_id in context")
		return ctx.JSON(http.StatusUnauthorized, httpdto.NewError(httpdto.CodeUnauthenticated, "unauthorized"))
	}

	log := logrus.WithField("user_id", userID)
	if err := c.userAuthService.Logout(ctx.Request().Context(), userID); err != nil {
		return writeServiceError(ctx, log, "Logout", err)
	}

	c.cookies.Clear(ctx.Response())
	log.Info("Logout successful")
	return ctx.JSON(http.StatusOK, &types.MessageResponse{Message: "logged out successfully"})
}

func (c *UserAuthController) ChangePassword(ctx echo.Context) error {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		logrus.Warn("Change password failed: missing user_id in context")
		return ctx.JSON(http.StatusUnauthorized, httpdto.NewError(httpdto.CodeUnauthenticated, "unauthorized"))
	}

	req, err := types.NewChangePasswordRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind change password request")
		return invalidBody(ctx)
	}

	if err = req.Validate(); err != nil {
		logrus.WithField("user_id", userID).Debug("Change password validation failed")
		return badRequest(ctx, err.Error())
	}

	log := logrus.WithField("user_id", userID)
	if err = c.userAuthService.ChangePassword(ctx.Request().Context(), userID, req); err != nil {
		return writeServiceError(ctx, log, "Change password", err)
	}

	// The stored refresh token was revoked with the old password.
	c.cookies.Clear(ctx.Response())
	log.Info("Password changed")
	return ctx.JSON(http.StatusOK, &types.MessageResponse{Message: "password changed successfully, please log in again"})
}

func (c *UserAuthController) VerifyEmail(ctx echo.Context) error {
	req, _ := types.NewVerifyEmailRequestFromContext(ctx)
	if err := req.Validate(); err != nil {
		logrus.Debug("Verify email validation failed")
		return ctx.JSON(http.StatusBadRequest, httpdto.NewError(httpdto.CodeTokenInvalidOrExpired, service.ErrTokenInvalidOrExpired.Error()))
	}

	log := logrus.NewEntry(logrus.StandardLogger())
	if err := c.userAuthService.VerifyEmail(ctx.Request().Context(), req); err != nil {
		return writeServiceError(ctx, log, "Verify email", err)
	}

	log.Info("Email verified")
	return ctx.JSON(http.StatusOK, &types.MessageResponse{Message: "email verified successfully"})
}

func (c *UserAuthController) ResendVerification(ctx echo.Context) error {
	req, err := types.NewEmailRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind resend verification request")
		return invalidBody(ctx)
	}

	if err = req.Validate(); err != nil {
		logrus.WithField("email", req.Email).Debug("Resend verification validation failed")
		return badRequest(ctx, err.Error())
	}

	log := logrus.WithField("email", req.Email)
	if err = c.userAuthService.ResendVerification(ctx.Request().Context(), req); err != nil {
		return writeServiceError(ctx, log, "Resend verification", err)
	}

	log.Info("Verification email sent")
	return ctx.JSON(http.StatusOK, &types.MessageResponse{Message: "verification email sent"})
}

// ForgotPassword answers unknown addresses with the same acknowledgement as
// known ones.
func (c *UserAuthController) ForgotPassword(ctx echo.Context) error {
	req, err := types.NewEmailRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind forgot password request")
		return invalidBody(ctx)
	}

	if err = req.Validate(); err != nil {
		logrus.WithField("email", req.Email).Debug("Forgot password validation failed")
		return badRequest(ctx, err.Error())
	}

	log := logrus.WithField("email", req.Email)
	err = c.userAuthService.ForgotPassword(ctx.Request().Context(), req)
	if err != nil && !errors.Is(err, service.ErrUserNotFound) {
		return writeServiceError(ctx, log, "Forgot password", err)
	}
	if err != nil {
		log.Info("Forgot password requested for unknown email")
	} else {
		log.Info("Password reset email sent")
	}

	return ctx.JSON(http.StatusOK, &types.MessageResponse{Message: forgotPasswordAck})
}

func (c *UserAuthController) ResetPassword(ctx echo.Context) error {
	req, err := types.NewResetPasswordRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind reset password request")
		return invalidBody(ctx)
	}

	if err = req.Validate(); err != nil {
		logrus.Debug("Reset password validation failed")
		return badRequest(ctx, err.Error())
	}

	log := logrus.NewEntry(logrus.StandardLogger())
	if err = c.userAuthService.ResetPassword(ctx.Request().Context(), req); err != nil {
		return writeServiceError(ctx, log, "Reset password", err)
	}

	log.Info("Password reset")
	return ctx.JSON(http.StatusOK, &types.MessageResponse{Message: "password reset successfully"})
}

func (c *UserAuthController) Me(ctx echo.Context) error {
	if user := middleware.CurrentUser(ctx); user != nil {
		return ctx.JSON(http.StatusOK, user)
	}

	userID, ok := middleware.UserID(ctx)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, httpdto.NewError(httpdto.CodeUnauthenticated, "unauthorized"))
	}

	profile, err := c.userAuthService.GetProfile(ctx.Request().Context(), userID)
	if err != nil {
		return writeServiceError(ctx, logrus.WithField("user_id", userID), "Get profile", err)
	}
	return ctx.JSON(http.StatusOK, profile)
}

func (c *UserAuthController) UpdateMe(ctx echo.Context) error {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		logrus.Warn("Update profile failed: missing user_id in context")
		return ctx.JSON(http.StatusUnauthorized, httpdto.NewError(httpdto.CodeUnauthenticated, "unauthorized"))
	}

	req, err := types.NewUpdateProfileRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind update profile request")
		return invalidBody(ctx)
	}

	if err = req.Validate(); err != nil {
		logrus.WithField("user_id", userID).Debug("Update profile validation failed")
		return badRequest(ctx, err.Error())
	}

	log := logrus.WithField("user_id", userID)
	profile, err := c.userAuthService.UpdateProfile(ctx.Request().Context(), userID, req)
	if err != nil {
		return writeServiceError(ctx, log, "Update profile", err)
	}

	log.Info("Profile updated")
	return ctx.JSON(http.StatusOK, profile)
}
