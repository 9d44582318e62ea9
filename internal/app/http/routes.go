package routes

import (
	adminapi "nitpickr-api/internal/api/admin"
	authapi "nitpickr-api/internal/api/auth"
	"nitpickr-api/internal/api/billing"
	filesapi "nitpickr-api/internal/api/files"
	"nitpickr-api/internal/api/issues"
	"nitpickr-api/internal/api/listings"
	"nitpickr-api/internal/api/nitpicks"
	stripewebhooks "nitpickr-api/internal/api/stripewebhook"
	teamsapi "nitpickr-api/internal/api/teams"
	"nitpickr-api/internal/api/users"
	"nitpickr-api/internal/app/http/middleware"
	"nitpickr-api/internal/domain/tiers"
	"nitpickr-api/internal/usage"

	"github.com/gin-gonic/gin"
)

// Deps are the long-lived services the handlers are built from.
type Deps struct {
	Usage    *usage.Service
	Listings *listings.Handler
	Users    *users.Handler
	Teams    *teamsapi.Handler
	Billing  *billing.Handler
	Files    *filesapi.Handler
	Admin    *adminapi.Handler
	// UploadsDir is served under /uploads when files are stored locally.
	UploadsDir string
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	r.POST("/webhook", stripewebhooks.StripeWebhook)
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	if d.UploadsDir != "" {
		r.Static("/uploads", d.UploadsDir)
	}

	public := r.Group("/")
	public.Use(middleware.SanitizeAndCleanInputMiddleware())

	public.POST("/register", authapi.Register)
	public.POST("/login", authapi.Login)
	public.GET("/verify", authapi.VerifyEmail)
	public.POST("/resend-verification", authapi.ResendVerification)
	public.POST("/request-password-reset", authapi.RequestPasswordReset)
	public.POST("/reset-password", authapi.ResetPassword)

	public.GET("/auth/google", authapi.GoogleStart)
	public.GET("/auth/google/callback", authapi.GoogleCallback)

	r.GET("/listings", middleware.OptionalAuth(), d.Listings.Listings)

	views := middleware.UsageOptions{ResourceType: tiers.ResourceViews}
	analysis := middleware.UsageOptions{ResourceType: tiers.ResourceAnalysis, JSONErrors: true}

	// Authenticated
	auth := r.Group("/")
	auth.Use(middleware.AuthMiddleware())
	auth.GET("/me", d.Users.GetCurrentUser)
	auth.POST("/change-password", authapi.ChangePassword)

	auth.POST("/search", middleware.WithAPITrackingOnly(d.Usage, views), d.Listings.Search)
	auth.POST("/geosearch", middleware.WithAPITrackingOnly(d.Usage, views), d.Listings.GeoSearch)
	auth.POST("/nitpick", middleware.WithAPIUsage(d.Usage, analysis), d.Listings.Nitpick)
	auth.POST("/history", listings.History)

	auth.GET("/nitpicks", nitpicks.List)
	auth.POST("/nitpicks", nitpicks.Create)
	auth.DELETE("/nitpicks/:id", nitpicks.Delete)

	issueRoutes := auth.Group("/issues")
	issueRoutes.Use(middleware.SanitizeAndCleanInputMiddleware())
	issueRoutes.POST("", issues.Create)
	issueRoutes.DELETE("/:issueId", issues.Delete)
	issueRoutes.POST("/comment", issues.AddComment)
	issueRoutes.DELETE("/comment/:commentId", issues.DeleteComment)
	issueRoutes.POST("/vote", issues.Vote)

	teamRoutes := auth.Group("/teams")
	teamRoutes.Use(middleware.SanitizeAndCleanInputMiddleware())
	teamRoutes.GET("", d.Teams.List)
	teamRoutes.POST("", d.Teams.Create)
	teamRoutes.GET("/:slug", d.Teams.Get)
	teamRoutes.PUT("/:slug", d.Teams.Update)
	teamRoutes.DELETE("/:slug", d.Teams.Delete)
	teamRoutes.GET("/:slug/members", d.Teams.Members)
	teamRoutes.DELETE("/:slug/members", d.Teams.RemoveMember)
	teamRoutes.PUT("/:slug/members", d.Teams.Leave)
	teamRoutes.PATCH("/:slug/members", d.Teams.UpdateMemberRole)
	teamRoutes.GET("/:slug/invitations", d.Teams.Invitations)
	teamRoutes.POST("/:slug/invitations", d.Teams.Invite)
	teamRoutes.DELETE("/:slug/invitations", d.Teams.DeleteInvitation)
	teamRoutes.PUT("/:slug/invitations", d.Teams.AcceptInvitation)
	teamRoutes.POST("/:slug/payments/create-portal-link", d.Billing.TeamPortalLink)

	payments := auth.Group("/payments")
	payments.POST("/create-checkout-session", d.Billing.CreateCheckoutSession)
	payments.POST("/create-portal-link", d.Billing.CreatePortalLink)
	payments.GET("/products", d.Billing.Products)
	payments.POST("/change-plan", d.Billing.ChangePlan)
	payments.POST("/cancel-downgrade", d.Billing.CancelDowngrade)

	auth.GET("/files", d.Files.List)
	auth.POST("/files/upload", d.Files.Upload)
	auth.DELETE("/files/:id", d.Files.Delete)

	// Admin routes
	admin := r.Group("/admin")
	admin.Use(middleware.AuthMiddleware(), middleware.RequireRole("admin"))
	admin.GET("/users", adminapi.ListAllUsers)
	admin.GET("/subscriptions", adminapi.ListAllSubscriptions)
	admin.GET("/usage/:entityType/:entityId/:resourceType", d.Admin.GetUsage)
	admin.DELETE("/usage/:entityType/:entityId/:resourceType", d.Admin.ResetUsage)
	admin.POST("/sync-stripe", d.Admin.SyncStripe)
}
