package cmd

import (
	"net/http"

	"github.com/vibast-solutions/ms-go-taskboard-auth/app/controller"
	"github.com/vibast-solutions/ms-go-taskboard-auth/app/entity"
	"github.com/vibast-solutions/ms-go-taskboard-auth/app/middleware"

	"github.com/labstack/echo/v4"
)

type routeDeps struct {
	userAuth       *controller.UserAuthController
	projectMembers *controller.ProjectMemberController
	auth           *middleware.AuthMiddleware
	project        *middleware.ProjectMiddleware
}

func registerRoutes(e *echo.Echo, d routeDeps) {
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	api := e.Group("/api/v1")

	auth := api.Group("/auth")
	auth.POST("/register", d.userAuth.Register)
	auth.POST("/login", d.userAuth.Login)
	auth.GET("/verify-email/:token", d.userAuth.VerifyEmail)
	auth.POST("/verify-email/:token", d.userAuth.VerifyEmail)
	auth.POST("/resend-verification-email", d.userAuth.ResendVerification)
	auth.POST("/forgot-password", d.userAuth.ForgotPassword)
	auth.POST("/reset-password/:token", d.userAuth.ResetPassword)
	auth.POST("/refresh-access-token", d.userAuth.RefreshToken)

	authProtected := auth.Group("", d.auth.RequireAuth)
	authProtected.POST("/logout", d.userAuth.Logout)
	authProtected.POST("/change-password", d.userAuth.ChangePassword)
	authProtected.GET("/me", d.userAuth.Me)
	authProtected.PUT("/me", d.userAuth.UpdateMe)

	projects := api.Group("/projects/:projectId", d.auth.RequireAuth)
	projects.GET("/access", d.projectMembers.Access,
		d.project.RequireProjectRole(entity.AvailableRoles...))
	projects.GET("/members", d.projectMembers.List,
		d.project.RequireProjectRole(entity.RoleAdmin, entity.RoleProjectAdmin, entity.RoleMember))
	projects.POST("/members", d.projectMembers.Add,
		d.project.RequireProjectRole(entity.RoleAdmin))
	projects.PATCH("/members/:userId/role", d.projectMembers.UpdateRole,
		d.project.RequireProjectRole(entity.RoleAdmin))
	projects.DELETE("/members/:userId", d.projectMembers.Remove,
		d.project.RequireProjectRole(entity.RoleAdmin, entity.RoleProjectAdmin))
}
