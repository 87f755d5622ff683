package routes

import (
	"tow-dispatch-api/handlers"
	"tow-dispatch-api/metrics"
	"tow-dispatch-api/middleware"
	"tow-dispatch-api/services"

	"github.com/gin-gonic/gin"
)

type Deps struct {
	Auth    *services.AuthService
	Orders  *services.OrderService
	Metrics *metrics.Metrics
}

func SetupRoutes(r *gin.Engine, d Deps) {
	authH := &handlers.AuthHandler{Auth: d.Auth}
	orderH := &handlers.OrderHandler{Orders: d.Orders}
	authRequired := middleware.AuthRequired(d.Auth)

	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	}

	// ── Public routes ──────────────────────────────────────────────
	public := r.Group("/api")
	{
		public.GET("/health", handlers.Health)
		public.POST("/auth/register", authH.Register)
		public.POST("/auth/login", authH.Login)
		public.POST("/orders/quote", orderH.Quote)
		public.GET("/state-machine", handlers.GetStateMachineInfo)
	}

	// ── Authenticated routes ───────────────────────────────────────
	auth := r.Group("/api")
	auth.Use(authRequired)
	{
		auth.GET("/auth/me", authH.GetProfile)
		auth.GET("/orders", orderH.GetMyOrders)
		auth.POST("/orders", orderH.PlaceOrder)
	}

	// ── Admin routes ───────────────────────────────────────────────
	admin := r.Group("/api/orders/admin")
	admin.Use(authRequired, middleware.AdminRequired())
	{
		admin.GET("/all", orderH.AdminGetAllOrders)
		admin.PUT("/:id/status", orderH.AdminSetOrderStatus)
		admin.GET("/:id/history", orderH.AdminGetOrderHistory)
	}
}
