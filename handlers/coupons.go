package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"storefront/internal/coupons"
	"storefront/pkg/ctxmanage"
	"storefront/pkg/logkey"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type verifyCouponRequest struct {
	Code  string          `json:"code" validate:"required"`
	Total decimal.Decimal `json:"total"`
}

type useCouponRequest struct {
	Code string `json:"code" validate:"required"`
}

func (h *Handler) VerifyCoupon(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	userId, ok := userID(c)
	if !ok {
		return
	}

	var req verifyCouponRequest
	if !h.bindJSON(c, &req) {
		return
	}
	if req.Total.IsNegative() {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Total must not be negative"})
		return
	}

	ev, err := h.Coupons.Verify(c.Request.Context(), userId, req.Code, req.Total)
	if err != nil {
		if couponRejected(c, err) {
			return
		}
		slog.Error("error verifying coupon", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Failed to verify coupon"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": true, "code": ev.Code, "discount": ev.Discount, "final_total": ev.FinalTotal})
}

func (h *Handler) UseCoupon(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	userId, ok := userID(c)
	if !ok {
		return
	}

	var req useCouponRequest
	if !h.bindJSON(c, &req) {
		return
	}

	if err := h.Coupons.Use(c.Request.Context(), userId, req.Code); err != nil {
		if couponRejected(c, err) {
			return
		}
		slog.Error("error using coupon", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Failed to use coupon"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Coupon applied"})
}

func (h *Handler) ListCoupons(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	list, err := h.Coupons.List(c.Request.Context())
	if err != nil {
		slog.Error("error listing coupons", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch coupons"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"coupons": list})
}

func (h *Handler) CreateCoupon(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	var req coupons.NewCoupon
	if !h.bindJSON(c, &req) {
		return
	}
	if err := req.Check(); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	cp, err := h.Coupons.Create(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, coupons.ErrDuplicateCode) {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"message": "Coupon code already exists"})
			return
		}
		slog.Error("error creating coupon", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Coupon creation failed"})
		return
	}
	c.JSON(http.StatusCreated, cp)
}

func (h *Handler) DeleteCoupon(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.Coupons.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, coupons.ErrCouponNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "Coupon not found"})
			return
		}
		slog.Error("error deleting coupon", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Coupon deletion failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Coupon deleted"})
}

// couponRejected answers business rejections of a coupon and reports
// whether it did.
func couponRejected(c *gin.Context, err error) bool {
	switch {
	case errors.Is(err, coupons.ErrCouponNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"valid": false, "message": "Coupon not found"})
	case errors.Is(err, coupons.ErrCouponInactive),
		errors.Is(err, coupons.ErrCouponNotStarted),
		errors.Is(err, coupons.ErrCouponExpired),
		errors.Is(err, coupons.ErrCouponExhausted),
		errors.Is(err, coupons.ErrCouponAlreadyUsed),
		errors.Is(err, coupons.ErrBelowMinimum):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"valid": false, "message": err.Error()})
	default:
		return false
	}
	return true
}
