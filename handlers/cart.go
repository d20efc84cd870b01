package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/pkg/ctxmanage"
	"storefront/pkg/logkey"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ViewCart(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	userId, ok := userID(c)
	if !ok {
		return
	}

	view, err := h.Cart.View(c.Request.Context(), userId)
	if err != nil {
		slog.Error("error fetching cart", slog.String(logkey.TraceID, traceId), slog.String(logkey.UserID, userId),
			slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch cart"})
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) AddProductToCart(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	userId, ok := userID(c)
	if !ok {
		return
	}

	var req cart.AddItem
	if !h.bindJSON(c, &req) {
		return
	}

	err := h.Cart.AddProduct(c.Request.Context(), userId, req.ID, req.Quantity)
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrProductNotFound):
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "Product not found"})
		case errors.Is(err, cart.ErrOutOfStock):
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"message": "Product not available"})
		default:
			slog.Error("error adding product to cart", slog.String(logkey.TraceID, traceId),
				slog.String(logkey.ERROR, err.Error()), slog.Int64(logkey.ProductID, req.ID), slog.Int("Quantity", req.Quantity))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Failed to add product to cart"})
		}
		return
	}

	slog.Info("product added to cart", slog.String(logkey.TraceID, traceId),
		slog.Int64(logkey.ProductID, req.ID), slog.Int("Quantity", req.Quantity), slog.String(logkey.UserID, userId))
	c.JSON(http.StatusOK, gin.H{"message": "Product added to cart successfully"})
}

func (h *Handler) AddPackageToCart(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	userId, ok := userID(c)
	if !ok {
		return
	}

	var req cart.AddItem
	if !h.bindJSON(c, &req) {
		return
	}

	err := h.Cart.AddPackage(c.Request.Context(), userId, req.ID, req.Quantity)
	if err != nil {
		if errors.Is(err, catalog.ErrPackageNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "Package not found"})
			return
		}
		slog.Error("error adding package to cart", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()), slog.Int64(logkey.PackageID, req.ID), slog.Int("Quantity", req.Quantity))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Failed to add package to cart"})
		return
	}

	slog.Info("package added to cart", slog.String(logkey.TraceID, traceId),
		slog.Int64(logkey.PackageID, req.ID), slog.Int("Quantity", req.Quantity), slog.String(logkey.UserID, userId))
	c.JSON(http.StatusOK, gin.H{"message": "Package added to cart successfully"})
}

func (h *Handler) UpdateCartProduct(c *gin.Context) {
	h.updateCartLine(c, h.Cart.UpdateProduct)
}

func (h *Handler) UpdateCartPackage(c *gin.Context) {
	h.updateCartLine(c, h.Cart.UpdatePackage)
}

func (h *Handler) RemoveCartProduct(c *gin.Context) {
	h.removeCartLine(c, h.Cart.RemoveProduct)
}

func (h *Handler) RemoveCartPackage(c *gin.Context) {
	h.removeCartLine(c, h.Cart.RemovePackage)
}

type cartUpdater func(ctx context.Context, userID string, id int64, quantity int) error

type cartRemover func(ctx context.Context, userID string, id int64) error

func (h *Handler) updateCartLine(c *gin.Context, update cartUpdater) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	userId, ok := userID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req cart.UpdateItem
	if !decodeJSON(c, &req) {
		return
	}

	if err := update(c.Request.Context(), userId, id, req.Quantity); err != nil {
		if errors.Is(err, cart.ErrItemNotInCart) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "Item not in cart"})
			return
		}
		slog.Error("error updating cart", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()),
			slog.Int64("ID", id), slog.Int("Quantity", req.Quantity))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Failed to update cart"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cart updated"})
}

func (h *Handler) removeCartLine(c *gin.Context, remove cartRemover) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	userId, ok := userID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := remove(c.Request.Context(), userId, id); err != nil {
		if errors.Is(err, cart.ErrItemNotInCart) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "Item not in cart"})
			return
		}
		slog.Error("error removing cart item", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()),
			slog.Int64("ID", id))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Failed to remove item from cart"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Item removed from cart"})
}
