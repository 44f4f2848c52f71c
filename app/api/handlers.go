package api

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/spaces-comb/app/feed"
	"github.com/lysyi3m/spaces-comb/app/spaces"
	"github.com/lysyi3m/spaces-comb/app/twitter"
)

func NewHandler(service SpaceInfoService, guest GuestActivator, opts Options) *Handler {
	return &Handler{
		service:   service,
		guest:     guest,
		generator: feed.NewGenerator(),
		opts:      opts,
	}
}

func (h *Handler) GetUserSpaces(c *gin.Context) {
	resp, ok := h.fetchSpaces(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, SpacesResponse{
		Success: true,
		Count:   resp.Count,
		Data:    resp.Spaces,
		Cursor:  resp.Cursor,
	})
}

func (h *Handler) GetUserSpacesRSS(c *gin.Context) {
	resp, ok := h.fetchSpaces(c)
	if !ok {
		return
	}

	userID := c.Param("userId")
	channel := feed.Channel{
		UserID:   userID,
		SelfLink: h.rssLink(userID, c.Query("count"), c.Query("cursor")),
		Version:  h.opts.Version,
	}
	if resp.Cursor != "" {
		channel.NextLink = h.rssLink(userID, c.Query("count"), resp.Cursor)
	}

	rss, err := h.generator.Run(channel, resp.Spaces)
	if err != nil {
		requestLogger(c).Error("RSS generation error", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate feed"})
		return
	}

	c.Header("Content-Type", "application/rss+xml; charset=utf-8")
	c.Header("X-Spaces-Count", strconv.Itoa(resp.Count))
	c.String(http.StatusOK, rss)
}

func (h *Handler) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"version":   h.opts.Version,
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	})
}

func (h *Handler) GetIndex(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service":     "Spaces Comb",
		"version":     h.opts.Version,
		"description": "Audio spaces hosted by a user, with replay playlists, as JSON or RSS",
		"endpoints": map[string]string{
			"spaces":  "/spaces/<userId>?count=<n>&cursor=<cursor>",
			"rss":     "/spaces/<userId>/rss?count=<n>&cursor=<cursor>",
			"health":  "/health",
			"metrics": "/metrics",
		},
		"documentation": "https://github.com/lysyi3m/spaces-comb",
	})
}

func (h *Handler) fetchSpaces(c *gin.Context) (*spaces.Response, bool) {
	userID := c.Param("userId")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing userId parameter"})
		return nil, false
	}

	count := h.parseCount(c.Query("count"))
	cursor := c.Query("cursor")
	log := requestLogger(c).With("user_id", userID, "count", count)

	ctx := c.Request.Context()
	if h.opts.UpstreamTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.opts.UpstreamTimeout)
		defer cancel()
	}

	creds, err := h.credentials(ctx)
	if err != nil {
		log.Error("Failed to obtain upstream credentials", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to obtain upstream credentials"})
		return nil, false
	}

	resp, err := h.service.GetUserSpaceInfos(ctx, creds, userID, count, cursor)
	if err != nil {
		log.Error("Failed to fetch spaces", "cursor", cursor, "error", err)
		status, message := upstreamError(err)
		c.JSON(status, gin.H{"error": message})
		return nil, false
	}

	log.Debug("Spaces fetched", "returned", resp.Count, "has_more", resp.Cursor != "")
	return resp, true
}

func (h *Handler) credentials(ctx context.Context) (twitter.Credentials, error) {
	creds := h.opts.Credentials
	if creds.AuthToken != "" || h.guest == nil {
		return creds, nil
	}

	token, err := h.guest.ActivateGuest(ctx)
	if err != nil {
		return twitter.Credentials{}, err
	}
	return twitter.Credentials{GuestToken: token}, nil
}

// parseCount falls back to the default for missing, malformed or
// non-positive values and clamps to the configured maximum
func (h *Handler) parseCount(raw string) int {
	count, err := strconv.Atoi(raw)
	if err != nil || count <= 0 {
		return h.opts.DefaultCount
	}
	if h.opts.MaxCount > 0 && count > h.opts.MaxCount {
		return h.opts.MaxCount
	}
	return count
}

func (h *Handler) rssLink(userID, count, cursor string) string {
	base := cmp.Or(h.opts.BaseUrl, fmt.Sprintf("http://localhost:%s", h.opts.Port))

	query := url.Values{}
	if count != "" {
		query.Set("count", count)
	}
	if cursor != "" {
		query.Set("cursor", cursor)
	}

	link := fmt.Sprintf("%s/spaces/%s/rss", base, url.PathEscape(userID))
	if encoded := query.Encode(); encoded != "" {
		link += "?" + encoded
	}
	return link
}

func upstreamError(err error) (int, string) {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "Upstream request timed out"
	case twitter.IsStatus(err, http.StatusUnauthorized), twitter.IsStatus(err, http.StatusForbidden):
		return http.StatusBadGateway, "Upstream rejected the configured credentials"
	default:
		return http.StatusBadGateway, "Failed to fetch spaces"
	}
}

func requestLogger(c *gin.Context) *slog.Logger {
	if id := c.GetString(requestIDKey); id != "" {
		return slog.Default().With("request_id", id)
	}
	return slog.Default()
}
