package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-order-lifecycle/internal/idempotency"
	"github.com/imrishuroy/go-order-lifecycle/internal/lifecycle"
	"github.com/imrishuroy/go-order-lifecycle/internal/validation"
)

// HandlerConfig groups dependencies for the orders handler.
type HandlerConfig struct {
	Service *lifecycle.Service
	Logger  *zap.Logger
}

// RegisterOrdersRoutes registers routes for the order API.
func RegisterOrdersRoutes(r *gin.Engine, cfg HandlerConfig) {
	v := validation.New()
	h := &ordersHandler{svc: cfg.Service, log: cfg.Logger}

	g := r.Group("/orders", RequireUser())
	g.POST("", func(c *gin.Context) { h.create(c, v) })
	g.GET("", h.list)
	g.GET("/:orderId", h.get)
	g.PUT("/:orderId", func(c *gin.Context) { h.edit(c, v) })
	g.DELETE("/:orderId", h.cancel)
}

type ordersHandler struct {
	svc *lifecycle.Service
	log *zap.Logger
}

func (h *ordersHandler) create(c *gin.Context, v *validatorv10.Validate) {
	ctx := c.Request.Context()
	userID := UserID(c)

	var req validation.CreateOrderRequest
	if err := validation.BindAndValidate(c, &req, v); err != nil {
		// BindAndValidate already wrote a 400
		return
	}

	order, err := h.svc.Create(ctx, userID, lifecycle.CreateInput{
		OrderID:      req.OrderID,
		RestaurantID: req.RestaurantID,
		TotalAmount:  req.TotalAmount,
		OrderItems:   itemsToMaps(req.OrderItems),
		Metadata:     req.Metadata,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

func (h *ordersHandler) get(c *gin.Context) {
	order, err := h.svc.Get(c.Request.Context(), UserID(c), c.Param("orderId"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *ordersHandler) list(c *gin.Context) {
	result, err := h.svc.List(c.Request.Context(), UserID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": result})
}

func (h *ordersHandler) edit(c *gin.Context, v *validatorv10.Validate) {
	var req validation.EditOrderRequest
	if err := validation.BindAndValidate(c, &req, v); err != nil {
		return
	}

	order, err := h.svc.Edit(c.Request.Context(), UserID(c), c.Param("orderId"), lifecycle.EditInput{
		RestaurantID: req.RestaurantID,
		TotalAmount:  req.TotalAmount,
		OrderItems:   itemsToMaps(req.OrderItems),
		Metadata:     req.Metadata,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *ordersHandler) cancel(c *gin.Context) {
	order, err := h.svc.Cancel(c.Request.Context(), UserID(c), c.Param("orderId"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// writeError translates domain errors into structured responses. Unexpected
// errors are logged and surfaced as 500 without masking the taxonomy.
func (h *ordersHandler) writeError(c *gin.Context, err error) {
	var (
		nf  *lifecycle.NotFoundError
		ise *lifecycle.InvalidStateError
		we  *lifecycle.WindowExpiredError
	)
	switch {
	case errors.As(err, &nf):
		c.JSON(http.StatusNotFound, gin.H{"message": err.Error()})
	case errors.As(err, &ise), errors.As(err, &we):
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
	case errors.Is(err, idempotency.ErrInProgress):
		c.JSON(http.StatusAccepted, gin.H{"message": "request already in progress"})
	default:
		h.log.Error("request failed",
			zap.String("request_id", RequestIDFrom(c)),
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
	}
}

func itemsToMaps(items []validation.OrderItem) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(items))
	for _, it := range items {
		m := map[string]interface{}{
			"name":     it.Name,
			"price":    it.Price,
			"quantity": it.Quantity,
		}
		if it.ID != "" {
			m["id"] = it.ID
		}
		out = append(out, m)
	}
	return out
}
