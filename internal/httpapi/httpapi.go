// Package httpapi wires the gin HTTP surface (spec.md §6.5): health check,
// CORS, JWT auth middleware, and the websocket upgrade route. Grounded on
// rakaoran-GuessTheObject's backend/main.go CreateServer (trusted proxies,
// origin allowlist, gin-contrib/cors config) and api/auth/handlers.go's
// RequireAuthMiddleware (verify-then-abort-with-status pattern), adapted
// from a cookie-carried token to an Authorization: Bearer header since this
// server's only client surface is the websocket upgrade request.
package httpapi

import (
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"triviaarena/internal/applog"
	"triviaarena/internal/identity"
)

// NewRouter builds the gin.Engine: trusted proxies, origin allowlist, CORS,
// and the health endpoint. Callers attach route groups afterward.
func NewRouter(allowedOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.SetTrustedProxies([]string{"127.0.0.1", "10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"})

	r.GET("/api/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{
			"status":    "UP",
			"timestamp": time.Now().UTC(),
			"message":   "trivia-arena is accepting connections",
		})
	})

	r.Use(func(ctx *gin.Context) {
		origin := ctx.Request.Header.Get("Origin")
		if origin == "" || slices.Contains(allowedOrigins, origin) {
			ctx.Next()
			return
		}
		ctx.String(http.StatusForbidden, "forbidden origin")
		ctx.Abort()
	})

	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowCredentials: true,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{
			"Content-Type",
			"Authorization",
			"Upgrade",
			"Connection",
			"Sec-WebSocket-Key",
			"Sec-WebSocket-Version",
			"Sec-WebSocket-Extensions",
			"Sec-WebSocket-Protocol",
		},
	}))

	return r
}

const identityContextKey = "verifiedIdentity"

// RequireAuth verifies the Authorization: Bearer <token> header and stores
// the resolved identity.Verified in the gin context for handlers to read.
func RequireAuth(verifier identity.Verifier) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		header := ctx.GetHeader("Authorization")
		token := strings.TrimPrefix(header, "Bearer ")
		if token == "" || token == header {
			ctx.String(http.StatusUnauthorized, "unauthenticated")
			ctx.Abort()
			return
		}

		verified, err := verifier.Verify(ctx.Request.Context(), token)
		if err != nil {
			applog.Warn("auth: token rejected", map[string]any{"ip": ctx.ClientIP(), "error": err.Error()})
			ctx.String(http.StatusUnauthorized, "unauthenticated")
			ctx.Abort()
			return
		}

		ctx.Set(identityContextKey, verified)
		ctx.Next()
	}
}

// VerifiedFromContext reads the identity.Verified a prior RequireAuth call
// attached.
func VerifiedFromContext(ctx *gin.Context) (identity.Verified, bool) {
	v, ok := ctx.Get(identityContextKey)
	if !ok {
		return identity.Verified{}, false
	}
	verified, ok := v.(identity.Verified)
	return verified, ok
}

// Upgrader is shared across connect handlers; buffer sizes mirror
// rakaoran-GuessTheObject's game/handlers.go upgrader.
var Upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true }, // origin already enforced by the gin middleware above
}
