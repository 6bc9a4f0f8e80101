package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/moa/backend/internal/application/order"
	"github.com/moa/backend/internal/interfaces/http/middleware"
)

// IdempotencyKeyHeader carries the client-chosen key that makes order
// creation safe to retry.
const IdempotencyKeyHeader = "Idempotency-Key"

// OrderHandler handles order, payment and receipt HTTP requests
type OrderHandler struct {
	BaseHandler
	orderService   *order.OrderService
	paymentService *order.PaymentService
	receiptService *order.ReceiptService
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(
	orderService *order.OrderService,
	paymentService *order.PaymentService,
	receiptService *order.ReceiptService,
) *OrderHandler {
	return &OrderHandler{
		orderService:   orderService,
		paymentService: paymentService,
		receiptService: receiptService,
	}
}

// currentActor resolves the acting user. Back-office staff with
// orders.manage or platform admins may act on any customer's order.
func (h *OrderHandler) currentActor(c *gin.Context) (order.Actor, bool) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return order.Actor{}, false
	}
	return order.Actor{
		UserID:    userID,
		CanManage: middleware.HasAnyPermission(c, "orders.manage", "system.manage"),
	}, true
}

// Create godoc
// @ID           createOrder
// @Summary      Place an order
// @Description  Create an order from the given items, reserving stock and computing totals server-side. Send an Idempotency-Key header to make retries safe; a replayed key returns the originally created order.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key header string false "Client-chosen idempotency key"
// @Param        request body order.CreateOrderRequest true "Order creation request"
// @Success      201 {object} APIResponse[order.OrderResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /orders [post]
func (h *OrderHandler) Create(c *gin.Context) {
	customerID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req order.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	created, err := h.orderService.Create(c.Request.Context(), customerID, c.GetHeader(IdempotencyKeyHeader), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, created)
}

// Get godoc
// @ID           getOrder
// @Summary      Get an order
// @Description  Retrieve an order. Visible to its customer, to sellers with items in it and to back-office staff.
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} APIResponse[order.OrderResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /orders/{id} [get]
func (h *OrderHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID")
		return
	}

	actor, ok := h.currentActor(c)
	if !ok {
		return
	}

	result, err := h.orderService.Get(c.Request.Context(), id, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// List godoc
// @ID           listOrders
// @Summary      List orders
// @Description  Get a paginated order list. Customers see their own orders; sellers can pass their own seller_id to see orders containing their items; back-office staff see everything.
// @Tags         orders
// @Produce      json
// @Param        customer_id query string false "Filter by customer" format(uuid)
// @Param        seller_id query string false "Filter by seller" format(uuid)
// @Param        status query string false "Order status" Enums(pending, paid, shipped, delivered, cancelled)
// @Param        start_date query string false "Created from (RFC 3339)" format(date-time)
// @Param        end_date query string false "Created until (RFC 3339)" format(date-time)
// @Param        sort_by query string false "Sort column" default(created_at)
// @Param        sort_dir query string false "Sort direction" Enums(asc, desc)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Items per page" default(20) maximum(100)
// @Success      200 {object} APIResponse[[]order.OrderListItemResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /orders [get]
func (h *OrderHandler) List(c *gin.Context) {
	actor, ok := h.currentActor(c)
	if !ok {
		return
	}

	var filter order.OrderListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}

	orders, total, err := h.orderService.List(c.Request.Context(), filter, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	page, pageSize := filter.Page, filter.PageSize
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	h.SuccessWithMeta(c, orders, total, page, pageSize)
}

// Cancel godoc
// @ID           cancelOrder
// @Summary      Cancel an order
// @Description  Cancel a pending order and release its reserved stock. Customers may cancel their own pending orders; back-office staff may also cancel paid orders.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Param        request body order.CancelOrderRequest true "Cancellation reason"
// @Success      200 {object} APIResponse[order.OrderResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /orders/{id}/cancel [post]
func (h *OrderHandler) Cancel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID")
		return
	}

	actor, ok := h.currentActor(c)
	if !ok {
		return
	}

	var req order.CancelOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.orderService.Cancel(c.Request.Context(), id, actor, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// Ship godoc
// @ID           shipOrder
// @Summary      Mark an order as shipped
// @Description  Move a paid order to shipped. Allowed for sellers with items in the order and for back-office staff.
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} APIResponse[order.OrderResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /orders/{id}/ship [post]
func (h *OrderHandler) Ship(c *gin.Context) {
	h.transition(c, h.orderService.MarkShipped)
}

// Deliver godoc
// @ID           deliverOrder
// @Summary      Mark an order as delivered
// @Description  Move a shipped order to delivered, completing the fulfilment flow
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} APIResponse[order.OrderResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /orders/{id}/deliver [post]
func (h *OrderHandler) Deliver(c *gin.Context) {
	h.transition(c, h.orderService.MarkDelivered)
}

func (h *OrderHandler) transition(c *gin.Context, fn func(ctx context.Context, id uuid.UUID, actor order.Actor) (*order.OrderResponse, error)) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID")
		return
	}

	actor, ok := h.currentActor(c)
	if !ok {
		return
	}

	result, err := fn(c.Request.Context(), id, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// Stats godoc
// @ID           getOrderStats
// @Summary      Get order statistics
// @Description  Order counts per status and revenue over an optional date range
// @Tags         orders
// @Produce      json
// @Param        from query string false "Range start (RFC 3339)" format(date-time)
// @Param        to query string false "Range end (RFC 3339)" format(date-time)
// @Success      200 {object} APIResponse[order.OrderStatsResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /orders/stats [get]
func (h *OrderHandler) Stats(c *gin.Context) {
	// Platform-wide totals, not scoped to the caller.
	if !middleware.HasPermission(c, "orders.manage") {
		h.Forbidden(c, "Access denied: insufficient permissions")
		return
	}

	from, ok := h.timeQuery(c, "from")
	if !ok {
		return
	}
	to, ok := h.timeQuery(c, "to")
	if !ok {
		return
	}

	stats, err := h.orderService.Stats(c.Request.Context(), from, to)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, stats)
}

func (h *OrderHandler) timeQuery(c *gin.Context, name string) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		h.BadRequest(c, "Invalid "+name+" timestamp, expected RFC 3339")
		return nil, false
	}
	return &t, true
}

// CreatePaymentIntent godoc
// @ID           createOrderPaymentIntent
// @Summary      Create a payment intent
// @Description  Create (or refresh) the Stripe PaymentIntent for a pending order and return its client secret
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} APIResponse[order.PaymentIntentResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /orders/{id}/payment-intent [post]
func (h *OrderHandler) CreatePaymentIntent(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID")
		return
	}

	actor, ok := h.currentActor(c)
	if !ok {
		return
	}

	intent, err := h.paymentService.CreatePaymentIntent(c.Request.Context(), id, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, intent)
}

// Receipt godoc
// @ID           getOrderReceipt
// @Summary      Download the order receipt
// @Description  Generate the receipt PDF for a paid, shipped or delivered order
// @Tags         orders
// @Produce      application/pdf
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {file} file "PDF receipt"
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /orders/{id}/receipt [get]
func (h *OrderHandler) Receipt(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID")
		return
	}

	actor, ok := h.currentActor(c)
	if !ok {
		return
	}

	receipt, err := h.receiptService.GenerateReceipt(c.Request.Context(), id, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+receipt.FileName+`"`)
	c.Data(http.StatusOK, "application/pdf", receipt.PDF)
}
