package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"storefront/internal/checkout"
	"storefront/pkg/ctxmanage"
	"storefront/pkg/logkey"

	"github.com/gin-gonic/gin"
)

func (h *Handler) Checkout(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	userId, ok := userID(c)
	if !ok {
		return
	}

	var req checkout.Request
	if !decodeJSON(c, &req) {
		return
	}
	req.UserID = userId
	if err := req.Validate(); err != nil {
		slog.Error("checkout validation failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	res, err := h.Confs.Checkout.Checkout(c.Request.Context(), req)
	if err != nil {
		var (
			vErr *checkout.ValidationError
			sErr *checkout.InsufficientStockError
		)
		switch {
		case errors.As(err, &vErr):
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": vErr.Error()})
		case errors.Is(err, checkout.ErrEmptyCart):
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Cart is empty"})
		case errors.As(err, &sErr):
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{
				"message":    sErr.Error(),
				"product_id": sErr.ProductID,
				"product":    sErr.ProductName,
				"available":  sErr.Available,
			})
		default:
			slog.Error("checkout failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.UserID, userId),
				slog.String(logkey.ERROR, err.Error()))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Checkout failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     "Order placed successfully",
		"order_id":    res.OrderID,
		"final_total": res.FinalTotal,
	})
}
