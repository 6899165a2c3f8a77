package api

import (
	"context"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/linklet/linklet/internal/model"
	"github.com/linklet/linklet/internal/service"
)

// Handler holds HTTP handlers and dependencies. It receives interfaces
// rather than concrete implementations for testability.
type Handler struct {
	links    service.LinkServiceInterface
	resolver service.ResolverInterface
	db       DBInterface
	cache    CacheInterface
	logger   *slog.Logger
}

// DBInterface defines the database operations needed by the handler.
type DBInterface interface {
	Ping(ctx context.Context) error
	Close()
}

// CacheInterface defines the cache operations needed by the handler.
type CacheInterface interface {
	Ping(ctx context.Context) error
}

// NewHandler creates a new handler instance with the provided dependencies.
func NewHandler(links service.LinkServiceInterface, resolver service.ResolverInterface,
	db DBInterface, cache CacheInterface, logger *slog.Logger) *Handler {
	return &Handler{
		links:    links,
		resolver: resolver,
		db:       db,
		cache:    cache,
		logger:   logger,
	}
}

// RegisterRoutes registers all route definitions on the given Gin
// engine. The caller creates the engine and adds middleware first so
// middleware runs in the correct order. The public redirect route is
// registered last to avoid conflicts.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.healthCheck)

	v1 := r.Group("/api/v1")
	{
		v1.POST("/links", h.createLink)
		v1.GET("/links/:code", h.getLink)
		v1.PATCH("/links/:code", h.updateLink)
		v1.DELETE("/links/:code", h.deleteLink)
	}

	r.GET("/:code/password", h.passwordPage)
	r.GET("/:code", h.redirect)
}

// healthCheck handles GET /health.
// Returns 200 when all dependencies are reachable, 503 otherwise.
func (h *Handler) healthCheck(c *gin.Context) {
	ctx := c.Request.Context()

	cacheErr := h.cache.Ping(ctx)
	dbErr := h.db.Ping(ctx)

	status := "ok"
	code := http.StatusOK
	deps := gin.H{"cache": "up", "database": "up"}

	if cacheErr != nil {
		status = "degraded"
		code = http.StatusServiceUnavailable
		deps["cache"] = "down"
	}
	if dbErr != nil {
		status = "degraded"
		code = http.StatusServiceUnavailable
		deps["database"] = "down"
	}

	c.JSON(code, gin.H{"status": status, "dependencies": deps})
}

// createLink handles POST /api/v1/links.
// Response codes:
//   - 201 Created: link created
//   - 400 Bad Request: invalid body, URL or alias
//   - 409 Conflict: custom alias already exists
//   - 500 Internal Server Error: unexpected error
func (h *Handler) createLink(c *gin.Context) {
	ctx := c.Request.Context()
	var req model.CreateLinkRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid request body",
			slog.String("error", err.Error()),
			slog.String("path", c.Request.URL.Path))
		h.errorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.links.CreateLink(ctx, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidURL):
			h.errorResponse(c, http.StatusBadRequest, "invalid URL")
		case errors.Is(err, service.ErrInvalidAlias):
			h.errorResponse(c, http.StatusBadRequest, "invalid custom alias")
		case errors.Is(err, service.ErrCodeExists):
			h.errorResponse(c, http.StatusConflict, "custom alias already exists")
		default:
			h.logger.ErrorContext(ctx, "unexpected error creating link",
				slog.String("error", err.Error()))
			h.errorResponse(c, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// getLink handles GET /api/v1/links/:code.
// Retrieves metadata without incrementing the click count.
func (h *Handler) getLink(c *gin.Context) {
	ctx := c.Request.Context()
	code := c.Param("code")

	resp, err := h.links.GetLink(ctx, code)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrLinkNotFound):
			h.errorResponse(c, http.StatusNotFound, "link not found")
		default:
			h.logger.ErrorContext(ctx, "unexpected error fetching link",
				slog.String("error", err.Error()),
				slog.String("code", code))
			h.errorResponse(c, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	c.JSON(http.StatusOK, resp)
}

// updateLink handles PATCH /api/v1/links/:code.
func (h *Handler) updateLink(c *gin.Context) {
	ctx := c.Request.Context()
	code := c.Param("code")

	var req model.UpdateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.links.UpdateLink(ctx, code, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrLinkNotFound):
			h.errorResponse(c, http.StatusNotFound, "link not found")
		case errors.Is(err, service.ErrInvalidURL):
			h.errorResponse(c, http.StatusBadRequest, "invalid URL")
		default:
			h.logger.ErrorContext(ctx, "unexpected error updating link",
				slog.String("error", err.Error()),
				slog.String("code", code))
			h.errorResponse(c, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	c.JSON(http.StatusOK, resp)
}

// deleteLink handles DELETE /api/v1/links/:code. Soft-deletes: the
// redirect path treats the link as not found from here on.
func (h *Handler) deleteLink(c *gin.Context) {
	ctx := c.Request.Context()
	code := c.Param("code")

	if err := h.links.DeleteLink(ctx, code); err != nil {
		switch {
		case errors.Is(err, service.ErrLinkNotFound):
			h.errorResponse(c, http.StatusNotFound, "link not found")
		default:
			h.logger.ErrorContext(ctx, "unexpected error deleting link",
				slog.String("error", err.Error()),
				slog.String("code", code))
			h.errorResponse(c, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	c.Status(http.StatusNoContent)
}

// redirect handles GET /:code, the public resolution endpoint.
// Response codes:
//   - 301 Moved Permanently: to the (possibly UTM-augmented) destination
//   - 302 Found: to /{code}/password when protection gates the request
//   - 404 Not Found: code unknown, inactive or expired
//   - 500 Internal Server Error: unexpected failure
func (h *Handler) redirect(c *gin.Context) {
	ctx := c.Request.Context()
	code := c.Param("code")

	req := &service.ResolveRequest{
		Code:     code,
		Password: c.Query("password"),
		UTM: model.UTMParams{
			Source:   c.Query("utm_source"),
			Medium:   c.Query("utm_medium"),
			Campaign: c.Query("utm_campaign"),
			Term:     c.Query("utm_term"),
			Content:  c.Query("utm_content"),
		},
		IPAddress: clientIP(c),
		UserAgent: c.Request.UserAgent(),
		Referrer:  referrer(c),
	}

	destination, err := h.resolver.Resolve(ctx, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrLinkNotFound):
			c.JSON(http.StatusNotFound, model.ErrorResponse{Error: "Link not found or expired"})
		case errors.Is(err, service.ErrPasswordRequired):
			c.Redirect(http.StatusFound, "/"+url.PathEscape(code)+"/password")
		case errors.Is(err, service.ErrPasswordInvalid):
			c.Redirect(http.StatusFound, "/"+url.PathEscape(code)+"/password?error=invalid")
		default:
			h.logger.ErrorContext(ctx, "unexpected error during redirect",
				slog.String("error", err.Error()),
				slog.String("code", code))
			c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: err.Error()})
		}
		return
	}

	// 301: the short link is canonically equivalent to its
	// destination. The password prompt above is a 302 because it is a
	// workflow step, not the destination.
	c.Redirect(http.StatusMovedPermanently, destination)
}

var passwordPageTmpl = template.Must(template.New("password").Parse(`<!DOCTYPE html>
<html>
<head><title>Protected link</title></head>
<body>
  <h1>This link is password protected</h1>
  {{if .Invalid}}<p>Incorrect password, please try again.</p>{{end}}
  <form method="GET" action="/{{.Code}}">
    <input type="password" name="password" autofocus>
    <button type="submit">Continue</button>
  </form>
</body>
</html>
`))

// passwordPage handles GET /:code/password. The form re-issues
// GET /{code}?password=... so the gate itself stays in the resolver.
func (h *Handler) passwordPage(c *gin.Context) {
	data := struct {
		Code    string
		Invalid bool
	}{
		Code:    c.Param("code"),
		Invalid: c.Query("error") == "invalid",
	}

	c.Status(http.StatusOK)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := passwordPageTmpl.Execute(c.Writer, data); err != nil {
		h.logger.ErrorContext(c.Request.Context(), "failed to render password page",
			slog.String("error", err.Error()))
	}
}

// clientIP extracts the best-effort client address: first entry of
// X-Forwarded-For, then X-Real-IP, then the peer address.
func clientIP(c *gin.Context) string {
	if fwd := c.GetHeader("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.SplitN(fwd, ",", 2)[0])
	}
	if real := c.GetHeader("X-Real-IP"); real != "" {
		return real
	}
	return c.ClientIP()
}

func referrer(c *gin.Context) string {
	if ref := c.GetHeader("Referer"); ref != "" {
		return ref
	}
	return c.GetHeader("Referrer")
}

// errorResponse sends a standardized JSON error body.
func (h *Handler) errorResponse(c *gin.Context, status int, message string) {
	c.JSON(status, model.ErrorResponse{Error: message})
}
