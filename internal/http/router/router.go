package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ignatzorin/parcel-trip-backend/internal/config"
	"github.com/ignatzorin/parcel-trip-backend/internal/http/middleware"
	"github.com/ignatzorin/parcel-trip-backend/internal/interface/http/handler"
	"github.com/ignatzorin/parcel-trip-backend/internal/service"
)

// Handlers - все HTTP обработчики приложения.
type Handlers struct {
	Shipment *handler.ShipmentHandler
	Bid      *handler.BidHandler
	Trip     *handler.TripHandler
	Geo      *handler.GeoHandler
	Wallet   *handler.WalletHandler
	WS       *handler.WSHandler
	Health   *handler.HealthHandler
}

func SetupRouter(
	cfg *config.Config,
	h Handlers,
	tokens *service.TokenManager,
	users middleware.UserEnsurer,
	cache *service.CacheService,
) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.RequestLogger())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", h.Health.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")

	// WebSocket авторизуется токеном в query, заголовок браузер передать не может
	api.GET("/ws", h.WS.Handle)

	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(tokens, users, cache))
	protected.Use(middleware.RateLimitMiddleware("api", cfg.RateLimitLimit, cfg.RateLimitPeriod))

	// поиск по коридору и геокодер ходят во внешние сервисы с квотами
	upstreamLimit := middleware.RateLimitMiddleware("upstream", upstreamLimitFor(cfg.RateLimitLimit), cfg.RateLimitPeriod)

	shipments := protected.Group("/shipments")
	{
		shipments.POST("", h.Shipment.CreateShipment)
		shipments.GET("/my", h.Shipment.ListMyShipments)
		shipments.GET("/:id", middleware.UUIDValidator("id"), h.Shipment.GetShipment)
		shipments.POST("/:id/bids", middleware.UUIDValidator("id"), h.Bid.CreateBid)
		shipments.GET("/:id/bids", middleware.UUIDValidator("id"), h.Bid.ListShipmentBids)
		shipments.POST("/:id/bids/reject-all", middleware.UUIDValidator("id"), h.Bid.RejectAllBids)
		shipments.POST("/:id/accept-initial-price", middleware.UUIDValidator("id"), h.Bid.AcceptInitialPrice)
		shipments.POST("/:id/claim", middleware.UUIDValidator("id"), h.Shipment.ClaimShipment)
		shipments.POST("/:id/pickup", middleware.UUIDValidator("id"), h.Shipment.ConfirmPickup)
		shipments.POST("/:id/deliver", middleware.UUIDValidator("id"), h.Shipment.ConfirmDelivery)
		shipments.GET("/:id/cancellation", middleware.UUIDValidator("id"), h.Shipment.QuoteCancellation)
		shipments.POST("/:id/cancel", middleware.UUIDValidator("id"), h.Shipment.CancelShipment)
	}

	bids := protected.Group("/bids")
	{
		bids.GET("/my", h.Bid.ListMyBids)
		bids.POST("/:id/accept", middleware.UUIDValidator("id"), h.Bid.AcceptBid)
		bids.POST("/:id/reject", middleware.UUIDValidator("id"), h.Bid.RejectBid)
		bids.POST("/:id/withdraw", middleware.UUIDValidator("id"), h.Bid.WithdrawBid)
	}

	trips := protected.Group("/trips")
	{
		trips.GET("/current", h.Trip.GetTrip)
		trips.POST("/can-modify", h.Trip.CanModify)
		trips.POST("/release", h.Trip.ReleaseTrip)
		trips.POST("/search", upstreamLimit, h.Trip.SearchCorridor)
	}

	geo := protected.Group("/geo")
	geo.Use(upstreamLimit)
	{
		geo.GET("/search", h.Geo.Search)
		geo.GET("/reverse", h.Geo.Reverse)
	}

	walletGroup := protected.Group("/wallet")
	{
		walletGroup.GET("", h.Wallet.GetBalance)
		walletGroup.POST("/topup", h.Wallet.TopUp)
		walletGroup.GET("/transactions", h.Wallet.ListTransactions)
	}

	return r
}

func upstreamLimitFor(apiLimit int64) int64 {
	limit := apiLimit / 4
	if limit < 5 {
		limit = 5
	}
	return limit
}
