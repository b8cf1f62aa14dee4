package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/anatolykoptev/go_spotitube/internal/engine"
	"github.com/anatolykoptev/go_spotitube/internal/toolutil"
)

type SearchRequest struct {
	Query string `form:"q" binding:"required"`
}

type HistoryRequest struct {
	Limit int `form:"limit"`
}

type CreateTokenRequest struct {
	AuthCode string `form:"auth_code" binding:"required"`
}

type RefreshTokenRequest struct {
	Token string `form:"token" binding:"required"`
}

func (h *Handler) HandleSearch(c *gin.Context) {
	c.Header("Access-Control-Allow-Origin", "*")

	var req SearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		abortWithReason(c, http.StatusUnprocessableEntity, reasonInvalidForm)
		return
	}

	res, err := toolutil.ResolveTrack(c.Request.Context(), h.Searcher, h.History, req.Query)
	if err != nil {
		slog.Warn("search failed", slog.String("query", engine.TruncateRunes(req.Query, 200, "...")),
			slog.String("request_id", c.GetString("request_id")), slog.Any("error", err))
		abortWithError(c, http.StatusBadGateway, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": res.ID})
}

func (h *Handler) HandleHistory(c *gin.Context) {
	var req HistoryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		abortWithReason(c, http.StatusUnprocessableEntity, reasonInvalidForm)
		return
	}
	if h.History == nil {
		abortWithReason(c, http.StatusServiceUnavailable, "history disabled")
		return
	}
	entries, err := h.History.Recent(c.Request.Context(), req.Limit)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

func (h *Handler) HandleSpotifyCreate(c *gin.Context) {
	var req CreateTokenRequest
	if err := c.ShouldBind(&req); err != nil {
		abortWithReason(c, http.StatusUnprocessableEntity, reasonInvalidForm)
		return
	}
	if h.Tokens == nil {
		abortWithError(c, http.StatusBadRequest, errTokensDisabled)
		return
	}
	out, err := h.Tokens.Create(c.Request.Context(), req.AuthCode)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) HandleSpotifyRefresh(c *gin.Context) {
	var req RefreshTokenRequest
	if err := c.ShouldBind(&req); err != nil {
		abortWithReason(c, http.StatusUnprocessableEntity, reasonInvalidForm)
		return
	}
	if h.Tokens == nil {
		abortWithError(c, http.StatusBadRequest, errTokensDisabled)
		return
	}
	out, err := h.Tokens.Refresh(c.Request.Context(), req.Token)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

var errTokensDisabled = errors.New("spotify token proxy disabled")
