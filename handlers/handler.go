package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"storefront/internal/auth"
	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/internal/checkout"
	"storefront/internal/coupons"
	"storefront/internal/orders"
	"storefront/middleware"
	"storefront/pkg/ctxmanage"
	"storefront/pkg/logkey"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// Checkouter settles a user's cart into an order.
type Checkouter interface {
	Checkout(ctx context.Context, req checkout.Request) (checkout.Result, error)
}

// Confs are the stores and services the HTTP handlers work with.
// Events may be nil.
type Confs struct {
	Checkout Checkouter
	Cart     *cart.Conf
	Catalog  *catalog.Conf
	Coupons  *coupons.Conf
	Orders   *orders.Conf
	Events   checkout.Publisher
}

type Handler struct {
	Confs
	validate *validator.Validate
}

func NewHandler(c Confs) *Handler {
	return &Handler{Confs: c, validate: validator.New()}
}

func API(endpointPrefix string, mode string, a *auth.Keys, c Confs) (*gin.Engine, error) {
	if mode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	} else if mode == gin.TestMode {
		gin.SetMode(gin.TestMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	m, err := middleware.NewMid(a)
	if err != nil {
		return nil, err
	}
	h := NewHandler(c)

	r := gin.New()
	r.Use(middleware.Logger(), gin.Recovery())
	r.GET("/ping", healthCheck)

	v1 := r.Group(endpointPrefix)
	{
		v1.GET("/packages", h.ListPackages)
		v1.GET("/packages/:id", h.GetPackage)

		v1.Use(m.Authentication())

		v1.POST("/checkout", m.Authorize(h.Checkout, auth.RoleUser))

		v1.GET("/cart", m.Authorize(h.ViewCart, auth.RoleUser))
		v1.POST("/cart/products", m.Authorize(h.AddProductToCart, auth.RoleUser))
		v1.PUT("/cart/products/:id", m.Authorize(h.UpdateCartProduct, auth.RoleUser))
		v1.DELETE("/cart/products/:id", m.Authorize(h.RemoveCartProduct, auth.RoleUser))
		v1.POST("/cart/packages", m.Authorize(h.AddPackageToCart, auth.RoleUser))
		v1.PUT("/cart/packages/:id", m.Authorize(h.UpdateCartPackage, auth.RoleUser))
		v1.DELETE("/cart/packages/:id", m.Authorize(h.RemoveCartPackage, auth.RoleUser))

		v1.POST("/coupons/verify", m.Authorize(h.VerifyCoupon, auth.RoleUser))
		v1.POST("/coupons/use", m.Authorize(h.UseCoupon, auth.RoleUser))

		v1.GET("/orders", m.Authorize(h.ListOrders, auth.RoleUser))
		v1.GET("/orders/:id", m.Authorize(h.GetOrder, auth.RoleUser))
		v1.GET("/orders/:id/tracking", m.Authorize(h.GetTracking, auth.RoleUser))

		admin := v1.Group("/admin")
		admin.PUT("/orders/:id/status", m.Authorize(h.UpdateOrderStatus, auth.RoleAdmin))
		admin.GET("/coupons", m.Authorize(h.ListCoupons, auth.RoleAdmin))
		admin.POST("/coupons", m.Authorize(h.CreateCoupon, auth.RoleAdmin))
		admin.DELETE("/coupons/:id", m.Authorize(h.DeleteCoupon, auth.RoleAdmin))
		admin.DELETE("/products/:id", m.Authorize(h.DeleteProduct, auth.RoleAdmin))
	}

	return r, nil
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// userID returns the subject of the authenticated caller, aborting with 401
// when there is none.
func userID(c *gin.Context) (string, bool) {
	claims, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
	if !ok {
		slog.Error("claims not found", slog.String(logkey.TraceID, ctxmanage.GetTraceIdOfRequest(c)))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": http.StatusText(http.StatusUnauthorized)})
		return "", false
	}
	return claims.Subject, true
}

// pathID parses a positive numeric path parameter, aborting with 400 when
// it is not one.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		slog.Error("invalid id parameter", slog.String(logkey.TraceID, ctxmanage.GetTraceIdOfRequest(c)),
			slog.String("Param", c.Param(name)))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid " + name})
		return 0, false
	}
	return id, true
}

// bindJSON decodes and validates the body into v, aborting with 400 on
// failure.
func (h *Handler) bindJSON(c *gin.Context, v any) bool {
	if !decodeJSON(c, v) {
		return false
	}
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	if err := h.validate.Struct(v); err != nil {
		msg := http.StatusText(http.StatusBadRequest)
		var vErrs validator.ValidationErrors
		if errors.As(err, &vErrs) && len(vErrs) > 0 {
			vErr := vErrs[0]
			switch vErr.Tag() {
			case "required":
				msg = vErr.Field() + " value missing"
			case "min":
				msg = vErr.Field() + " value is less than " + vErr.Param()
			case "oneof":
				msg = vErr.Field() + " must be one of " + vErr.Param()
			default:
				msg = vErr.Field() + " is invalid"
			}
		}
		slog.Error("validation failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": msg})
		return false
	}
	return true
}

func decodeJSON(c *gin.Context, v any) bool {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	if c.Request.ContentLength > maxBodyBytes {
		slog.Error("request body limit breached", slog.String(logkey.TraceID, traceId), slog.Int64("Size Received", c.Request.ContentLength))
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"message": "Request body too large"})
		return false
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)

	if err := c.ShouldBindJSON(v); err != nil {
		slog.Error("invalid request body", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return false
	}
	return true
}

const maxBodyBytes = 16 * 1024
