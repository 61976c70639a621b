// Package server serves the repository cards over HTTP.
package server

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/naka-gawa/repo-cards/internal/domain"
	"github.com/naka-gawa/repo-cards/internal/render"
	"github.com/naka-gawa/repo-cards/internal/usecase"
)

const defaultSettleTimeout = 10 * time.Second

// Handler handles HTTP requests
type Handler struct {
	loader        *usecase.Loader
	formatter     *render.Formatter
	locale        string
	settleTimeout time.Duration
	logger        *log.Logger
}

// NewHandler creates a new handler. settleTimeout bounds how long a request
// waits for the fetch cycle; zero selects a default.
func NewHandler(loader *usecase.Loader, formatter *render.Formatter, locale string, settleTimeout time.Duration, logger *log.Logger) *Handler {
	if settleTimeout <= 0 {
		settleTimeout = defaultSettleTimeout
	}
	return &Handler{
		loader:        loader,
		formatter:     formatter,
		locale:        locale,
		settleTimeout: settleTimeout,
		logger:        logger,
	}
}

// SetupRoutes sets up the HTTP routes
func SetupRoutes(handler *Handler) *gin.Engine {
	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(RequestID())
	router.Use(gin.Logger())

	router.GET("/healthz", handler.HealthCheck)
	router.GET("/repos", handler.ReposPage)
	router.GET("/api/repos", handler.ReposAPI)

	return router
}

// RequestID tags every request and response with an X-Request-ID.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

// HealthCheck reports liveness.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ReposPage renders the cards as an HTML document.
func (h *Handler) ReposPage(c *gin.Context) {
	ids, err := identifiersFromQuery(c)
	if err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}

	state := h.settle(c.Request.Context(), c.GetString("request_id"), ids)

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := render.HTMLPage(c.Writer, "GitHub repositories", h.locale, state, h.formatter); err != nil {
		h.logger.Printf("Server: %v", err)
	}
}

// ReposAPI returns the cards as JSON. A failed fetch cycle answers 502.
func (h *Handler) ReposAPI(c *gin.Context) {
	ids, err := identifiersFromQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	state := h.settle(c.Request.Context(), c.GetString("request_id"), ids)

	status := http.StatusOK
	switch state.Status {
	case domain.StatusError:
		status = http.StatusBadGateway
	case domain.StatusLoading:
		status = http.StatusAccepted
	}
	c.JSON(status, render.NewJSONView(state))
}

// settle mounts a component for the request, waits for its cycle and tears it down.
func (h *Handler) settle(ctx context.Context, requestID string, ids []domain.RepoIdentifier) domain.State {
	component := usecase.NewRepoStats(h.loader, h.logger)
	component.Mount(ctx, ids)
	defer component.Unmount()

	waitCtx, cancel := context.WithTimeout(ctx, h.settleTimeout)
	defer cancel()
	state := component.Wait(waitCtx)
	h.logger.Printf("Server: request %s settled %d repositories as %s", requestID, len(ids), state.Status)
	return state
}

// identifiersFromQuery accepts ?ids=a/b,c/d and repeated ?repo=a/b, in that order.
func identifiersFromQuery(c *gin.Context) ([]domain.RepoIdentifier, error) {
	var raw []string
	for _, list := range c.QueryArray("ids") {
		for _, s := range strings.Split(list, ",") {
			if s = strings.TrimSpace(s); s != "" {
				raw = append(raw, s)
			}
		}
	}
	raw = append(raw, c.QueryArray("repo")...)
	return domain.ParseIdentifiers(raw)
}
