package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"storefront/internal/catalog"
	"storefront/pkg/ctxmanage"
	"storefront/pkg/logkey"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ListPackages(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	packages, err := h.Catalog.ListPackages(c.Request.Context())
	if err != nil {
		slog.Error("error in fetching packages", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch packages"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"packages": packages})
}

func (h *Handler) GetPackage(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	pkg, err := h.Catalog.GetPackage(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, catalog.ErrPackageNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "Package not found"})
			return
		}
		slog.Error("error in retrieving package", slog.String(logkey.TraceID, traceId), slog.Int64(logkey.PackageID, id),
			slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch package"})
		return
	}
	c.JSON(http.StatusOK, pkg)
}

// DeleteProduct removes a product, or blocks it if it was ever ordered.
func (h *Handler) DeleteProduct(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	blocked, err := h.Catalog.DeleteProduct(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "Product not found"})
			return
		}
		slog.Error("error in deleting the product", slog.String(logkey.TraceID, traceId), slog.Int64(logkey.ProductID, id),
			slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Product deletion failed"})
		return
	}

	if blocked {
		c.JSON(http.StatusOK, gin.H{"message": "Product has orders and was blocked instead of deleted", "blocked": true})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product successfully deleted", "blocked": false})
}
