package rest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/KevinKickass/OpenPedalCore/internal/api/websocket"
	"github.com/KevinKickass/OpenPedalCore/internal/auth"
	"github.com/KevinKickass/OpenPedalCore/internal/catalog"
	"github.com/KevinKickass/OpenPedalCore/internal/config"
	"github.com/KevinKickass/OpenPedalCore/internal/interfaces"
	"github.com/KevinKickass/OpenPedalCore/internal/types"
	"github.com/KevinKickass/OpenPedalCore/internal/workbench"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Catalog is the product lookup the API serves from. catalog.Index
// implements it.
type Catalog interface {
	Get(ctx context.Context, id int) (types.Product, error)
	List(ctx context.Context, f catalog.Filter) ([]types.Product, error)
	GetMany(ctx context.Context, ids []int) ([]types.Product, error)
	Counts(ctx context.Context) (map[types.ProductType]int, error)
}

type Server struct {
	router      *gin.Engine
	logger      *zap.Logger
	server      *http.Server
	catalog     Catalog
	workbenches *workbench.Manager
	wsHub       *websocket.Hub
	authService *auth.Service
	lifecycle   interfaces.StatusProvider
	startedAt   time.Time
}

func NewServer(cfg *config.Config, products Catalog, workbenches *workbench.Manager, wsHub *websocket.Hub, authService *auth.Service, logger *zap.Logger) *Server {
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		router:      gin.New(),
		logger:      logger,
		catalog:     products,
		workbenches: workbenches,
		wsHub:       wsHub,
		authService: authService,
		startedAt:   time.Now(),
	}

	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// SetStatusProvider attaches the lifecycle state to /system/status.
func (s *Server) SetStatusProvider(p interfaces.StatusProvider) {
	s.lifecycle = p
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Addr() string {
	return s.server.Addr
}

// Start serves in the background. A listener failure is reported on the
// returned channel.
func (s *Server) Start() <-chan error {
	errCh := make(chan error, 1)
	s.logger.Info("Starting REST API server", zap.String("address", s.server.Addr))
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("REST server failed", zap.Error(err))
			errCh <- err
		}
		close(errCh)
	}()
	return errCh
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down REST API server")
	return s.server.Shutdown(ctx)
}

func (s *Server) setupRoutes() {
	// Middleware
	s.router.Use(gin.Recovery())
	s.router.Use(LoggerMiddleware(s.logger))
	s.router.Use(CORSMiddleware())

	// Public routes (no auth required)
	s.router.GET("/health", s.healthCheck)

	authenticated := s.authService.Middleware()
	read := auth.RequirePermission(auth.PermRead)
	write := auth.RequirePermission(auth.PermWrite)

	// API v1
	v1 := s.router.Group("/api/v1")
	{
		// ==================== AUTH ENDPOINTS (PUBLIC) ====================
		authPublic := v1.Group("/auth")
		{
			authPublic.POST("/login", s.login)
			authPublic.POST("/refresh", s.refreshToken)
		}

		// ==================== AUTH ENDPOINTS (AUTHENTICATED) ====================
		authProtected := v1.Group("/auth")
		authProtected.Use(authenticated)
		{
			authProtected.POST("/logout", s.logout)
			authProtected.GET("/me", s.getCurrentUser)
		}

		// ==================== API TOKENS (ADMIN ONLY) ====================
		apiTokens := v1.Group("/api-tokens")
		apiTokens.Use(authenticated, auth.RequirePermission(auth.PermAdmin))
		{
			apiTokens.POST("", s.createAPIToken)
			apiTokens.GET("", s.listAPITokens)
			apiTokens.PATCH("/:id", s.updateAPIToken)
			apiTokens.DELETE("/:id", s.deleteAPIToken)
		}

		// ==================== USER MANAGEMENT (ADMIN ONLY) ====================
		users := v1.Group("/users")
		users.Use(authenticated, auth.RequirePermission(auth.PermAdmin))
		{
			users.POST("", s.createUser)
			users.GET("", s.listUsers)
			users.PATCH("/:id", s.updateUser)
			users.DELETE("/:id", s.deleteUser)
		}

		// ==================== SYSTEM ====================
		system := v1.Group("/system")
		system.Use(authenticated, read)
		{
			system.GET("/status", s.getSystemStatus)
		}

		// ==================== CATALOG ====================
		products := v1.Group("/products")
		products.Use(authenticated, read)
		{
			products.GET("", s.listProducts)
			products.GET("/:id", s.getProduct)
		}

		// ==================== POWER (STATELESS) ====================
		pwr := v1.Group("/power")
		pwr.Use(authenticated, read)
		{
			pwr.POST("/budget", s.powerBudget)
			pwr.POST("/assignments", s.powerAssignments)
			pwr.POST("/daisy-chains", s.powerDaisyChains)
			pwr.POST("/audit", s.powerAudit)
			pwr.POST("/analyze", s.powerAnalyze)
			pwr.POST("/validate", s.validateConnection)
			pwr.POST("/calculate", s.calculateBudget)
			pwr.GET("/supplies/match", s.matchSupplies)
			pwr.GET("/supply-link", s.supplyLink)
		}

		// ==================== WORKBENCHES ====================
		benches := v1.Group("/workbenches")
		benches.Use(authenticated)
		{
			// Read operations
			benches.GET("", read, s.listWorkbenches)
			benches.GET("/:id", read, s.getWorkbench)
			benches.GET("/:id/products/:product/count", read, s.countProduct)
			benches.GET("/:id/positions/:view", read, s.getViewPositions)
			benches.GET("/:id/power", read, s.getWorkbenchPower)
			benches.GET("/:id/connections", read, s.listConnections)
			benches.GET("/:id/diagram", read, s.getInteraction)

			// Write operations
			benches.POST("", write, s.createWorkbench)
			benches.PATCH("/:id", write, s.renameWorkbench)
			benches.DELETE("/:id", write, s.deleteWorkbench)
			benches.POST("/:id/activate", write, s.activateWorkbench)
			benches.POST("/:id/items", write, s.addItem)
			benches.DELETE("/:id/items/:instance", write, s.removeItem)
			benches.DELETE("/:id/products/:product", write, s.removeProduct)
			benches.POST("/:id/clear", write, s.clearWorkbench)
			benches.PUT("/:id/positions/:view", write, s.setViewPosition)

			benches.POST("/:id/connections", write, s.addConnection)
			benches.PUT("/:id/connections", write, s.setConnections)
			benches.DELETE("/:id/connections/:conn", write, s.removeConnection)
			benches.POST("/:id/connections/:conn/acknowledge", write, s.acknowledgeWarning)
			benches.POST("/:id/auto-assign", write, s.autoAssign)

			benches.POST("/:id/diagram/click", write, s.diagramClick)
			benches.POST("/:id/diagram/cancel", write, s.diagramCancel)
			benches.POST("/:id/diagram/select", write, s.diagramSelect)
			benches.POST("/:id/diagram/delete", write, s.diagramDelete)
		}

		// ==================== WEBSOCKET (PUBLIC - Auth via first message) ====================
		ws := v1.Group("/ws")
		{
			ws.GET("/live", s.wsLiveConnection)
			ws.GET("/status", authenticated, read, s.wsStatus)
		}
	}
}

// WebSocket handlers
func (s *Server) wsLiveConnection(c *gin.Context) {
	websocket.ServeWs(s.wsHub, c.Writer, c.Request)
}

func (s *Server) wsStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"connected_clients": s.wsHub.GetClientCount(),
	})
}

// Health check (public)
func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().Unix(),
	})
}

func respondError(c *gin.Context, area string, status int, message string, details any) {
	c.JSON(status, types.NewErrorResponse(types.ErrorCode(area, status), message, details))
}
