package httpapi

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
)

// Identity headers set by the authentication proxy.
const (
	HeaderUserID   = "X-User-ID"
	HeaderUserRole = "X-User-Role"
)

const actorKey = "circulation.actor"

// RequireActor reads the caller from the identity headers and rejects requests without a valid identity.
func RequireActor() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := uuid.Parse(c.GetHeader(HeaderUserID))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody{Error: "missing or malformed " + HeaderUserID, Code: "unauthenticated"})
			return
		}

		role := circulation.Role(strings.ToUpper(strings.TrimSpace(c.GetHeader(HeaderUserRole))))
		switch role {
		case circulation.RoleReader, circulation.RoleLibrarian, circulation.RoleAdmin:
		default:
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody{Error: "missing or unknown " + HeaderUserRole, Code: "unauthenticated"})
			return
		}

		c.Set(actorKey, circulation.Actor{UserID: userID, Role: role})
		c.Next()
	}
}

func actorFrom(c *gin.Context) circulation.Actor {
	actor, _ := c.MustGet(actorKey).(circulation.Actor)
	return actor
}

// ClientRateLimiter keeps one token bucket per caller.
type ClientRateLimiter struct {
	limiters sync.Map
	rate     rate.Limit
	burst    int
}

// NewClientRateLimiter creates a limiter allowing rps requests per second per caller with the given burst.
func NewClientRateLimiter(rps float64, burst int) *ClientRateLimiter {
	return &ClientRateLimiter{
		rate:  rate.Limit(rps),
		burst: burst,
	}
}

// Limiter returns the token bucket of a caller.
func (l *ClientRateLimiter) Limiter(key string) *rate.Limiter {
	if limiter, ok := l.limiters.Load(key); ok {
		return limiter.(*rate.Limiter)
	}

	limiter, _ := l.limiters.LoadOrStore(key, rate.NewLimiter(l.rate, l.burst))

	return limiter.(*rate.Limiter)
}

// Middleware rejects callers that exceeded their rate with 429 and a Retry-After header.
// Callers are keyed by user ID when the identity header is present, by client IP otherwise.
func (l *ClientRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(HeaderUserID)
		if key == "" {
			key = c.ClientIP()
		}

		reservation := l.Limiter(key).Reserve()
		if !reservation.OK() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, errorBody{Error: "rate limit exceeded", Code: "rate_limited"})
			return
		}

		if delay := reservation.Delay(); delay > 0 {
			reservation.Cancel()
			c.Header("Retry-After", strconv.Itoa(int(delay.Round(time.Second)/time.Second)+1))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, errorBody{Error: "rate limit exceeded", Code: "rate_limited"})
			return
		}

		c.Next()
	}
}
