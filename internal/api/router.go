// Package api serves the REST surface of the resolver with gin.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/anatolykoptev/go_spotitube/internal/engine"
	"github.com/anatolykoptev/go_spotitube/internal/engine/history"
	"github.com/anatolykoptev/go_spotitube/internal/engine/sources"
	"github.com/anatolykoptev/go_spotitube/internal/toolutil"
)

const (
	requestIDHeader = "X-Request-ID"

	reasonNotFound    = "Ressource not found"
	reasonInvalidForm = "Invalid form"
)

// TokenProxy exchanges and refreshes Spotify user tokens.
type TokenProxy interface {
	Create(ctx context.Context, authCode string) (sources.CreateTokenResponse, error)
	Refresh(ctx context.Context, refreshToken string) (sources.RefreshTokenResponse, error)
}

// Handler carries the dependencies of every route. History and Tokens may be nil.
type Handler struct {
	Searcher toolutil.TrackSearcher
	History  history.Store
	Tokens   TokenProxy
}

// NewRouter builds the gin engine with all routes and catchers.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestID(), accessLog())

	r.GET("/", emptyPage)
	r.GET("/robots.txt", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", func(c *gin.Context) { c.String(http.StatusOK, engine.FormatMetrics()) })

	yt := r.Group("/api/youtube")
	yt.GET("/search", h.HandleSearch)
	yt.GET("/history", h.HandleHistory)

	sp := r.Group("/api/spotify")
	sp.GET("/callback", emptyPage)
	sp.POST("/create", h.HandleSpotifyCreate)
	sp.POST("/refresh", h.HandleSpotifyRefresh)

	r.NoRoute(func(c *gin.Context) {
		abortWithReason(c, http.StatusNotFound, reasonNotFound)
	})
	return r
}

func emptyPage(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte("<!DOCTYPE html><html><head></head><body></body></html>"))
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Info("http request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("elapsed", time.Since(start)),
			slog.String("request_id", c.GetString("request_id")),
		)
	}
}

// abortWithReason writes an untagged {"status":"error","reason":...} envelope.
func abortWithReason(c *gin.Context, code int, reason string) {
	c.AbortWithStatusJSON(code, engine.ErrorResponse{Status: "error", Reason: reason})
}

func abortWithError(c *gin.Context, code int, err error) {
	c.AbortWithStatusJSON(code, engine.NewErrorResponse(err))
}
