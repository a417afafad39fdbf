package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"checkout-service/internal/pricing"
	"checkout-service/internal/refdata"
	"checkout-service/internal/service"
	"checkout-service/internal/session"
	"checkout-service/internal/shipping"
	"checkout-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Handler contains HTTP handlers
type Handler struct {
	checkout *service.CheckoutService
	logger   *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(checkout *service.CheckoutService) *Handler {
	return &Handler{
		checkout: checkout,
		logger:   util.ComponentLogger("api"),
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

	v1 := router.Group("/api/v1")
	{
		v1.GET("/catalog", h.getCatalog)

		v1.POST("/sessions", h.startSession)
		v1.GET("/sessions/:id", h.getSession)
		v1.PUT("/sessions/:id/cart", h.updateCart)
		v1.PUT("/sessions/:id/shipping", h.chooseShipping)
		v1.PUT("/sessions/:id/address", h.submitAddress)
		v1.POST("/sessions/:id/review", h.review)
		v1.POST("/sessions/:id/payment", h.pay)
		v1.POST("/sessions/:id/complete", h.complete)
		v1.POST("/sessions/:id/resend", h.resend)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck reports ready once reference data is loaded
func (h *Handler) readinessCheck(c *gin.Context) {
	if !h.checkout.Ready() {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "loading",
			"time":   time.Now().Unix(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

func (h *Handler) getCatalog(c *gin.Context) {
	groups, err := h.checkout.CatalogGroups()
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"groups": groups})
}

func (h *Handler) startSession(c *gin.Context) {
	sess, err := h.checkout.StartSession(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, sess)
}

func (h *Handler) getSession(c *gin.Context) {
	sess, err := h.checkout.GetSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (h *Handler) updateCart(c *gin.Context) {
	var req service.CartRequest
	if !bind(c, &req) {
		return
	}

	resp, err := h.checkout.UpdateCart(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) chooseShipping(c *gin.Context) {
	var req service.ShippingRequest
	if !bind(c, &req) {
		return
	}

	resp, err := h.checkout.ChooseShipping(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) submitAddress(c *gin.Context) {
	var form shipping.AddressForm
	if !bind(c, &form) {
		return
	}

	resp, err := h.checkout.SubmitAddress(c.Request.Context(), c.Param("id"), &form)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) review(c *gin.Context) {
	sess, err := h.checkout.Review(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (h *Handler) pay(c *gin.Context) {
	sess, err := h.checkout.Pay(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (h *Handler) complete(c *gin.Context) {
	sess, err := h.checkout.Complete(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"order_id":      sess.OrderID,
		"customer_info": sess.Contact,
		"stage":         sess.Stage,
	})
}

func (h *Handler) resend(c *gin.Context) {
	if err := h.checkout.ResendConfirmation(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusAccepted)
}

func bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"details": err.Error(),
		})
		return false
	}
	return true
}

// fail maps a service error onto a status code and error code
func (h *Handler) fail(c *gin.Context, err error) {
	status, code := classify(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}

	body := gin.H{
		"error":   code,
		"details": err.Error(),
	}

	var compErr *pricing.CompositionError
	if errors.As(err, &compErr) {
		body["family"] = compErr.Family
	}

	c.JSON(status, body)
}

func classify(err error) (int, string) {
	var compErr *pricing.CompositionError
	switch {
	case errors.As(err, &compErr):
		return http.StatusUnprocessableEntity, "composition_error"
	case errors.Is(err, shipping.ErrRateNotFound):
		return http.StatusUnprocessableEntity, "rate_not_found"
	case errors.Is(err, shipping.ErrRegionUnresolved):
		return http.StatusUnprocessableEntity, "region_unresolved"
	case errors.Is(err, shipping.ErrInvalidContact):
		return http.StatusUnprocessableEntity, "invalid_contact"
	case errors.Is(err, session.ErrMethodNotOffered):
		return http.StatusUnprocessableEntity, "method_not_offered"
	case errors.Is(err, session.ErrEmptyCart):
		return http.StatusUnprocessableEntity, "empty_cart"
	case errors.Is(err, session.ErrStaleFee):
		return http.StatusConflict, "stale_fee"
	case errors.Is(err, session.ErrSessionIncomplete):
		return http.StatusConflict, "session_incomplete"
	case errors.Is(err, session.ErrCompleted):
		return http.StatusConflict, "session_completed"
	case errors.Is(err, session.ErrStagePassed):
		return http.StatusConflict, "stage_passed"
	case errors.Is(err, session.ErrBusy):
		return http.StatusConflict, "session_busy"
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound, "session_not_found"
	case errors.Is(err, service.ErrReferenceDataUnavailable), refdata.IsDataSourceError(err):
		return http.StatusServiceUnavailable, "data_source_unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
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
