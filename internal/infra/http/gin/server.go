package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"parkshare/internal/infra/config"
	"parkshare/internal/infra/obs"
)

type SessionHTTP interface {
	Open(c *gin.Context)
	Get(c *gin.Context)
	SelectDate(c *gin.Context)
	SelectSlot(c *gin.Context)
	SelectMode(c *gin.Context)
	SetTimes(c *gin.Context)
	Quote(c *gin.Context)
	Confirm(c *gin.Context)
	Cancel(c *gin.Context)
	Close(c *gin.Context)
}

type SpotHTTP interface {
	List(c *gin.Context)
	Get(c *gin.Context)
	Availability(c *gin.Context)
	Reservations(c *gin.Context)
}

type ReservationHTTP interface {
	Mine(c *gin.Context)
	Cancel(c *gin.Context)
	UpdateStatus(c *gin.Context)
}

type Handlers struct {
	Sessions     SessionHTTP
	Spots        SpotHTTP
	Reservations ReservationHTTP
	// Metrics serves the Prometheus exposition; nil disables /metrics.
	Metrics http.Handler
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewRouter(cfg, obsMW, health, h),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func NewRouter(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *gin.Engine {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}))

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)
	if h.Metrics != nil {
		router.GET("/metrics", gin.WrapH(h.Metrics))
	}

	api := router.Group("/api/v1")
	if h.Sessions != nil {
		sg := api.Group("/sessions")
		sg.POST("", h.Sessions.Open)
		sg.GET("/:id", h.Sessions.Get)
		sg.DELETE("/:id", h.Sessions.Close)
		sg.POST("/:id/dates", h.Sessions.SelectDate)
		sg.POST("/:id/slot", h.Sessions.SelectSlot)
		sg.POST("/:id/mode", h.Sessions.SelectMode)
		sg.POST("/:id/times", h.Sessions.SetTimes)
		sg.GET("/:id/quote", h.Sessions.Quote)
		sg.POST("/:id/confirm", h.Sessions.Confirm)
		sg.POST("/:id/cancel", h.Sessions.Cancel)
	}
	if h.Spots != nil {
		api.GET("/spots", h.Spots.List)
		api.GET("/spots/:id", h.Spots.Get)
		api.GET("/spots/:id/availability", h.Spots.Availability)
		api.GET("/spots/:id/reservations", h.Spots.Reservations)
	}
	if h.Reservations != nil {
		api.GET("/reservations/mine", h.Reservations.Mine)
		api.DELETE("/reservations/:id", h.Reservations.Cancel)
		api.POST("/reservations/:id/status", h.Reservations.UpdateStatus)
	}

	return router
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
