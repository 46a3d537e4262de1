package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/Sivanthsiv/food-ecommerce/config"
	"github.com/Sivanthsiv/food-ecommerce/internal/apperr"
	"github.com/Sivanthsiv/food-ecommerce/internal/auth"
	"github.com/Sivanthsiv/food-ecommerce/internal/ratelimit"
	"github.com/Sivanthsiv/food-ecommerce/internal/service"
	"github.com/Sivanthsiv/food-ecommerce/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const orderPlacedMessage = "Order placed. Your payment is pending verification."

// multipartOverhead leaves room for form boundaries and the orderId field
const multipartOverhead = 64 << 10

// Pinger reports whether a dependency is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services groups the operations the HTTP layer exposes
type Services struct {
	Orders  *service.OrderService
	Proofs  *service.ProofService
	Reviews *service.ReviewService
	Queries *service.QueryService
}

// Handler contains HTTP handlers
type Handler struct {
	svc           Services
	verifier      *auth.Verifier
	limiter       *ratelimit.Limiter
	db            Pinger
	limits        config.RateLimitConfig
	maxProofBytes int64
	logger        *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(svc Services, verifier *auth.Verifier, limiter *ratelimit.Limiter, db Pinger, limits config.RateLimitConfig, maxProofBytes int64) *Handler {
	return &Handler{
		svc:           svc,
		verifier:      verifier,
		limiter:       limiter,
		db:            db,
		limits:        limits,
		maxProofBytes: maxProofBytes,
		logger:        util.GetLogger(),
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api", h.verifier.Middleware())
	{
		orders := api.Group("/orders")
		orders.POST("", h.placeOrder)
		orders.POST("/upload-proof", h.limiter.Middleware("proof_upload", h.limits.ProofUploadLimit, h.limits.Window), h.uploadProof)
		orders.GET("/proof/:name", h.serveProof)
		orders.POST("/track", h.trackOrder)
		orders.GET("/my", h.myOrders)
		orders.POST("/review", h.submitReview)

		admin := api.Group("/admin/orders")
		admin.GET("", h.adminListOrders)
		admin.GET("/summary", h.adminSummary)
		admin.PUT("/:id", h.adminUpdateOrder)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck reports ready once the database answers
func (h *Handler) readinessCheck(c *gin.Context) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			h.logger.Warn("Readiness check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unavailable",
				"time":   time.Now().Unix(),
			})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// writeError maps err onto its status code. Only the client-safe message is
// sent; server-side failures are logged with their cause.
func (h *Handler) writeError(c *gin.Context, err error) {
	status := apperr.KindOf(err).HTTPStatus()
	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", status),
			zap.Error(err))
	}
	c.JSON(status, gin.H{"error": apperr.MessageOf(err)})
}

func (h *Handler) bindJSON(c *gin.Context, v interface{}) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		h.writeError(c, apperr.InvalidInput("Invalid request body"))
		return false
	}
	return true
}

// placeOrder handles checkout
func (h *Handler) placeOrder(c *gin.Context) {
	var req service.PlaceOrderInput
	if !h.bindJSON(c, &req) {
		return
	}

	order, err := h.svc.Orders.PlaceOrder(c.Request.Context(), req, auth.FromContext(c))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"orderId":     order.ID,
		"orderNumber": order.OrderNumber,
		"message":     orderPlacedMessage,
	})
}

// uploadProof stores a payment screenshot from the multipart "file" field
func (h *Handler) uploadProof(c *gin.Context) {
	caller := auth.FromContext(c)
	if !caller.Authenticated() {
		h.writeError(c, apperr.Unauthorized("Sign in to upload a payment screenshot"))
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxProofBytes+multipartOverhead)
	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(c, apperr.InvalidInput(fmt.Sprintf("Screenshot too large (max %dMB)", h.maxProofBytes>>20)))
			return
		}
		h.writeError(c, apperr.InvalidInput("No screenshot uploaded"))
		return
	}
	f, err := fh.Open()
	if err != nil {
		h.writeError(c, apperr.InvalidInput("No screenshot uploaded"))
		return
	}
	defer f.Close()

	// One byte past the limit is enough to reject the file as too large.
	data, err := io.ReadAll(io.LimitReader(f, h.maxProofBytes+1))
	if err != nil {
		h.writeError(c, apperr.InvalidInput("Uploaded file failed validation"))
		return
	}

	upload, err := h.svc.Proofs.Upload(c.Request.Context(), service.UploadInput{
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, caller, c.PostForm("orderId"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, upload)
}

// serveProof streams a stored payment screenshot
func (h *Handler) serveProof(c *gin.Context) {
	proof, err := h.svc.Proofs.Serve(c.Request.Context(), c.Param("name"), auth.FromContext(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	defer proof.Body.Close()

	c.DataFromReader(http.StatusOK, -1, proof.ContentType, proof.Body, map[string]string{
		"Cache-Control":          "private, max-age=0",
		"X-Content-Type-Options": "nosniff",
	})
}

// trackOrder handles the public order lookup
func (h *Handler) trackOrder(c *gin.Context) {
	var req service.TrackInput
	if !h.bindJSON(c, &req) {
		return
	}

	order, err := h.svc.Queries.Track(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": order})
}

func (h *Handler) myOrders(c *gin.Context) {
	orders, err := h.svc.Queries.MyOrders(c.Request.Context(), auth.FromContext(c))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func (h *Handler) submitReview(c *gin.Context) {
	var req service.ReviewInput
	if !h.bindJSON(c, &req) {
		return
	}

	if err := h.svc.Queries.SubmitReview(c.Request.Context(), req, auth.FromContext(c)); err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) adminListOrders(c *gin.Context) {
	orders, err := h.svc.Queries.AdminListOrders(c.Request.Context(), auth.FromContext(c))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func (h *Handler) adminSummary(c *gin.Context) {
	summary, err := h.svc.Queries.AdminSummary(c.Request.Context(), auth.FromContext(c))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// adminUpdateOrder applies a payment decision and/or fulfillment stage
func (h *Handler) adminUpdateOrder(c *gin.Context) {
	caller := auth.FromContext(c)
	if !caller.Admin() {
		h.writeError(c, apperr.Unauthorized("Unauthorized"))
		return
	}

	var req service.AdminUpdateInput
	if !h.bindJSON(c, &req) {
		return
	}

	order, err := h.svc.Reviews.AdminUpdate(c.Request.Context(), c.Param("id"), req, caller)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": order})
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
