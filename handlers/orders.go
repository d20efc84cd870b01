package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"storefront/internal/orders"
	"storefront/internal/stores/kafka"
	"storefront/pkg/ctxmanage"
	"storefront/pkg/logkey"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func (h *Handler) ListOrders(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	userId, ok := userID(c)
	if !ok {
		return
	}

	list, err := h.Orders.ListByUser(c.Request.Context(), userId)
	if err != nil {
		slog.Error("error fetching orders", slog.String(logkey.TraceID, traceId), slog.String(logkey.UserID, userId),
			slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch orders"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": list})
}

func (h *Handler) GetOrder(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	userId, ok := userID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	o, err := h.Orders.Get(c.Request.Context(), userId, id)
	if err != nil {
		if errors.Is(err, orders.ErrOrderNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "Order not found"})
			return
		}
		slog.Error("error fetching order", slog.String(logkey.TraceID, traceId), slog.Int64(logkey.OrderID, id),
			slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch order"})
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *Handler) GetTracking(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	userId, ok := userID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	t, err := h.Orders.Tracking(c.Request.Context(), userId, id)
	if err != nil {
		if errors.Is(err, orders.ErrTrackingNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "Tracking not available"})
			return
		}
		slog.Error("error fetching tracking", slog.String(logkey.TraceID, traceId), slog.Int64(logkey.OrderID, id),
			slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch tracking"})
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req orders.StatusUpdate
	if !h.bindJSON(c, &req) {
		return
	}

	owner, err := h.Orders.UpdateStatus(c.Request.Context(), id, req)
	if err != nil {
		switch {
		case errors.Is(err, orders.ErrInvalidStatus):
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid order status"})
		case errors.Is(err, orders.ErrOrderNotFound):
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "Order not found"})
		default:
			slog.Error("error updating order status", slog.String(logkey.TraceID, traceId), slog.Int64(logkey.OrderID, id),
				slog.String(logkey.ERROR, err.Error()))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Failed to update order status"})
		}
		return
	}

	status, _ := orders.ParseStatus(req.Status)
	h.publishStatusChanged(c.Request.Context(), id, owner, status)

	slog.Info("order status updated", slog.String(logkey.TraceID, traceId), slog.Int64(logkey.OrderID, id),
		slog.String("Status", status))
	c.JSON(http.StatusOK, gin.H{"message": "Order status updated", "status": status})
}

func (h *Handler) publishStatusChanged(ctx context.Context, orderID int64, userID, status string) {
	if h.Events == nil {
		return
	}
	traceId := ctxmanage.GetTraceId(ctx)

	data, err := json.Marshal(kafka.OrderStatusChangedEvent{
		EventID:   uuid.NewString(),
		OrderID:   orderID,
		UserID:    userID,
		Status:    status,
		ChangedAt: time.Now().UTC(),
	})
	if err != nil {
		slog.Error("failed to marshal OrderStatusChangedEvent", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		return
	}
	key := []byte(strconv.FormatInt(orderID, 10))
	if err := h.Events.ProduceMessage(ctx, kafka.TopicOrderStatusChanged, key, data); err != nil {
		slog.Error("failed to produce OrderStatusChangedEvent", slog.String(logkey.TraceID, traceId),
			slog.Int64(logkey.OrderID, orderID), slog.String(logkey.ERROR, err.Error()))
	}
}
