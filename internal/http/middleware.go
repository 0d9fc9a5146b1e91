package http

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/example/govsol/internal/models"
)

const userContextKey = "govsol.user"

// authRequired rejects the request unless it carries a valid bearer token for
// an active account.
func (s *Server) authRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := s.authenticate(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		c.Set(userContextKey, user)
		c.Next()
	}
}

// authOptional attaches the account when a valid token is present and lets the
// request through either way. Issue filing accepts guests.
func (s *Server) authOptional() gin.HandlerFunc {
	return func(c *gin.Context) {
		if user, err := s.authenticate(c); err == nil {
			c.Set(userContextKey, user)
		}
		c.Next()
	}
}

func (s *Server) authenticate(c *gin.Context) (*models.User, error) {
	const prefix = "Bearer "
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, prefix) {
		return nil, errors.New("missing bearer token")
	}
	claims, err := s.tokens.Verify(strings.TrimPrefix(header, prefix))
	if err != nil {
		return nil, err
	}
	user, err := s.users.FindByID(c.Request.Context(), claims.UserID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, errors.New("account disabled")
	}
	return user, nil
}

// currentUser returns the authenticated account, or nil for guests.
func currentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(userContextKey); ok {
		if u, ok := v.(*models.User); ok {
			return u
		}
	}
	return nil
}

// RateLimiter caps issue submissions per account (or per client IP for
// guests) over a rolling window, counted in Redis.
type RateLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
}

// NewRateLimiter builds a limiter allowing limit submissions per window.
func NewRateLimiter(client *redis.Client, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{client: client, limit: limit, window: window}
}

// Allow increments the counter for key and reports whether the caller is
// still under the cap. Redis failures fail open.
func (l *RateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	n, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return true, errors.WithStack(err)
	}
	if n == 1 {
		l.client.Expire(ctx, key, l.window)
	}
	return n <= int64(l.limit), nil
}

// issueCap enforces the daily submission cap when a limiter is configured.
func (s *Server) issueCap() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.limiter == nil {
			c.Next()
			return
		}
		key := "issue-cap:ip:" + c.ClientIP()
		if u := currentUser(c); u != nil {
			key = fmt.Sprintf("issue-cap:user:%d", u.ID)
		}
		ok, err := s.limiter.Allow(c.Request.Context(), key)
		if err != nil {
			log.Printf("issue cap check failed, allowing request: %v", err)
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "daily issue limit reached"})
			return
		}
		c.Next()
	}
}
