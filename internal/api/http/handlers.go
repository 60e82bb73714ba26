package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/jsgate/internal/api/middleware"
	"github.com/GriffinCanCode/jsgate/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/jsgate/internal/service"
)

// EvalRequest is the body of POST /eval. Code must be present but may be
// empty.
type EvalRequest struct {
	Code      *string `json:"code" binding:"required"`
	TimeoutMS *int64  `json:"timeout_ms"`
}

// CallRequest is the body of POST /call.
type CallRequest struct {
	Function  string `json:"function" binding:"required"`
	Args      []any  `json:"args"`
	TimeoutMS *int64 `json:"timeout_ms"`
}

// Handlers contains all HTTP handlers
type Handlers struct {
	svc     *service.Service
	metrics *monitoring.Metrics
	logger  *zap.Logger
	version string
}

// NewHandlers creates a new handler set. metrics may be nil.
func NewHandlers(svc *service.Service, metrics *monitoring.Metrics, logger *zap.Logger, version string) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		svc:     svc,
		metrics: metrics,
		logger:  logger,
		version: version,
	}
}

// Register mounts the handlers on r.
func (h *Handlers) Register(r gin.IRouter) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)
	r.POST("/eval", h.Eval)
	r.POST("/call", h.Call)
	r.POST("/reset", h.Reset)
}

// Root reports service status
func (h *Handlers) Root(c *gin.Context) {
	body := gin.H{
		"status":  "online",
		"service": "jsgate",
		"version": h.version,
		"engine":  h.svc.State().String(),
		"breaker": h.svc.BreakerState(),
	}
	if h.metrics != nil {
		body["stats"] = h.metrics.Snapshot()
	}
	c.JSON(http.StatusOK, body)
}

// Health handles liveness checks
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"engine": h.svc.State().String(),
	})
}

// Eval evaluates a script
func (h *Handlers) Eval(c *gin.Context) {
	var req EvalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "kind": service.KindInvalid})
		return
	}

	result, err := h.svc.Eval(c.Request.Context(), *req.Code, req.TimeoutMS)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": result})
}

// Call invokes a global guest function
func (h *Handlers) Call(c *gin.Context) {
	var req CallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "kind": service.KindInvalid})
		return
	}

	result, err := h.svc.Call(c.Request.Context(), req.Function, req.Args, req.TimeoutMS)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": result})
}

// Reset discards the engine
func (h *Handlers) Reset(c *gin.Context) {
	if err := h.svc.Reset(); err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"engine":  h.svc.State().String(),
	})
}

func (h *Handlers) fail(c *gin.Context, err error) {
	status, kind := service.Classify(err)
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		h.logger.Error("evaluation failed",
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.Error(err))
	}
	_ = c.Error(err)
	c.JSON(status, gin.H{
		"error": err.Error(),
		"kind":  kind,
	})
}
