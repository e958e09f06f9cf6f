package router

import (
	"net/http"
	"time"

	"taskboard/backend/internal/auth"
	"taskboard/backend/internal/database"
	"taskboard/backend/internal/handlers"
	"taskboard/backend/internal/middleware"
	"taskboard/backend/internal/store"
	"taskboard/backend/pkg/config"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Deps are the collaborators the HTTP layer needs.
type Deps struct {
	Config *config.Config
	DB     *gorm.DB
	Store  store.Store
	Auth   *auth.Service
	Issuer *auth.Issuer
	Log    *zap.Logger
}

// SetupRouter builds the gin engine with every route and global middleware.
func SetupRouter(d Deps) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Metrics())
	router.Use(middleware.GinZap(d.Log, time.RFC3339, true))
	router.Use(middleware.GinRecovery(d.Log, true))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CORS(d.Config.CORSOrigin))
	router.Use(middleware.RateLimit(d.Config.RateLimit.Max, d.Config.RateLimit.Window))

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/health", healthCheckHandler(d.DB, d.Log))
	router.GET("/", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte("<h1>Hi there!</h1>"))
	})

	api := router.Group("/api")
	gate := auth.Gate(d.Issuer, d.Store.Accounts())
	validID := middleware.ValidateUUIDParam("id")

	setupAccountRoutes(api, handlers.NewAccountHandler(d.Auth, d.Store.Accounts(), d.Log), gate, validID)

	workspaces := handlers.NewWorkspaceHandler(d.DB, d.Log)
	setupCRUDRoutes(api.Group("/workspaces", gate), validID, workspaces.List, workspaces.Create, workspaces.Get, workspaces.Update, workspaces.Delete)

	boards := handlers.NewBoardHandler(d.DB, d.Log)
	setupCRUDRoutes(api.Group("/boards", gate), validID, boards.List, boards.Create, boards.Get, boards.Update, boards.Delete)

	todos := handlers.NewTodoHandler(d.DB, d.Log)
	setupCRUDRoutes(api.Group("/todos", gate), validID, todos.List, todos.Create, todos.Get, todos.Update, todos.Delete)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Not Found - " + c.Request.URL.RequestURI()})
	})

	return router
}

func setupAccountRoutes(api *gin.RouterGroup, h *handlers.AccountHandler, gate, validID gin.HandlerFunc) {
	accounts := api.Group("/accounts")
	{
		accounts.POST("", h.Create)
		accounts.POST("/signin", h.SignIn)
		accounts.POST("/confirm-email", h.ConfirmEmail)
		accounts.POST("/forgot-password", h.ForgotPassword)
		accounts.POST("/reset-password", h.ResetPassword)
		accounts.POST("/resend-verify-account-email", h.ResendVerification)

		accounts.GET("", gate, auth.RequireAdmin(), h.List)
		accounts.GET("/:id", gate, validID, h.Get)
		accounts.PUT("/:id", gate, validID, h.Update)
		accounts.PATCH("/:id", gate, validID, h.Update)
	}
}

func setupCRUDRoutes(g *gin.RouterGroup, validID gin.HandlerFunc, list, create, get, update, remove gin.HandlerFunc) {
	g.GET("", list)
	g.POST("", create)
	g.GET("/:id", validID, get)
	g.PUT("/:id", validID, update)
	g.DELETE("/:id", validID, remove)
}

func healthCheckHandler(db *gorm.DB, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := database.Ping(db); err != nil {
			log.Error("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "message": "database unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "ok",
			"database": "connected",
		})
	}
}
