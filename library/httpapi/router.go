package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/AntonStoeckl/library-circulation-go/library/shared/shell"
)

const (
	defaultRateLimitRPS   = 50
	defaultRateLimitBurst = 100
)

// Log messages and attributes of the request log.
const (
	LogMsgRequestServed = "http request served"
	LogAttrMethod       = "method"
	LogAttrPath         = "path"
	LogAttrHTTPStatus   = "http_status"
)

// RouterConfig configures NewRouter. Zero values select defaults.
type RouterConfig struct {
	AllowedOrigins []string
	RateLimitRPS   float64
	RateLimitBurst int

	// Clock supplies the occurrence time of commands.
	Clock func() time.Time

	// Ready reports whether the service can serve traffic, typically by pinging the database.
	Ready func(ctx context.Context) error

	Logger shell.ContextualLogger
}

type server struct {
	handlers Handlers
	now      func() time.Time
}

// NewRouter creates the gin engine serving the circulation API.
func NewRouter(handlers Handlers, cfg RouterConfig) *gin.Engine {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	if cfg.RateLimitRPS <= 0 {
		cfg.RateLimitRPS = defaultRateLimitRPS
	}

	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = defaultRateLimitBurst
	}

	s := server{handlers: handlers, now: cfg.Clock}

	r := gin.New()
	r.Use(gin.Recovery())

	if cfg.Logger != nil {
		r.Use(requestLog(cfg.Logger))
	}

	if len(cfg.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:  cfg.AllowedOrigins,
			AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowHeaders:  []string{"Content-Type", HeaderUserID, HeaderUserRole},
			ExposeHeaders: []string{HeaderIdempotentReplay, "Retry-After"},
			MaxAge:        12 * time.Hour,
		}))
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": s.now().UTC().Format(time.RFC3339)})
	})

	r.GET("/ready", func(c *gin.Context) {
		if cfg.Ready != nil {
			if err := cfg.Ready(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "reason": err.Error()})
				return
			}
		}

		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	limiter := NewClientRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	api := r.Group("/api", limiter.Middleware(), RequireActor())
	{
		api.POST("/borrow-requests", s.createBorrowRequest)
		api.POST("/borrow-requests/:id/approve", s.approveRequest)
		api.POST("/borrow-requests/:id/reject", s.rejectRequest)
		api.POST("/borrow-requests/:id/cancel", s.cancelRequest)
		api.POST("/borrow-requests/:id/fulfill", s.fulfillRequest)
		api.GET("/borrow-requests/:id/queue-position", s.queuePosition)

		api.POST("/loans/:id/renew", s.renewLoan)
		api.POST("/loans/:id/return", s.returnLoan)
		api.POST("/loans/:id/return-ebook", s.returnEbook)

		api.POST("/books", s.addBook)
		api.GET("/books/:id/availability", s.bookAvailability)
		api.POST("/books/:id/promote", s.promoteQueueHead)
		api.POST("/ebooks/:id/borrow", s.borrowEbook)

		api.POST("/book-items/:id/status", s.changeItemStatus)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, errorBody{Error: "route not found", Code: "not_found"})
	})

	return r
}

func requestLog(logger shell.ContextualLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		logger.InfoContext(c.Request.Context(), LogMsgRequestServed,
			LogAttrMethod, c.Request.Method,
			LogAttrPath, c.FullPath(),
			LogAttrHTTPStatus, c.Writer.Status(),
			shell.LogAttrDurationMS, shell.ToMilliseconds(time.Since(start)),
		)
	}
}
