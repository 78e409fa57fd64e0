package v1

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/duynhne/marketplace/internal/core/domain"
	logicv1 "github.com/duynhne/marketplace/internal/logic/v1"
	pkgzerolog "github.com/duynhne/marketplace/pkg/logger/zerolog"
)

// ListProducts handles GET /products?city=&limit=&offset=.
func (h *Handler) ListProducts(c *gin.Context) {
	span := startHTTPSpan(c)
	defer span.End()

	ctx := c.Request.Context()
	filter := domain.ProductFilter{
		City:   c.Query("city"),
		Limit:  queryInt(c, "limit"),
		Offset: queryInt(c, "offset"),
	}

	products, err := h.products.List(ctx, filter)
	if err != nil {
		span.RecordError(err)
		pkgzerolog.FromContext(ctx).Error().Err(err).Msg("List products failed")
		abortJSON(c, http.StatusInternalServerError, "Internal server error")
		return
	}
	c.JSON(http.StatusOK, products)
}

// GetProduct handles GET /products/:id.
func (h *Handler) GetProduct(c *gin.Context) {
	span := startHTTPSpan(c)
	defer span.End()

	id, ok := productID(c)
	if !ok {
		return
	}

	p, err := h.products.Get(c.Request.Context(), id)
	if err != nil {
		h.productError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// CreateProduct handles POST /products for the logged-in seller.
func (h *Handler) CreateProduct(c *gin.Context) {
	span := startHTTPSpan(c)
	defer span.End()

	sellerID, ok := currentUserID(c)
	if !ok {
		abortJSON(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req domain.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortJSON(c, http.StatusBadRequest, err.Error())
		return
	}

	p, err := h.products.Create(c.Request.Context(), sellerID, req)
	if err != nil {
		span.RecordError(err)
		h.productError(c, err)
		return
	}

	pkgzerolog.FromContext(c.Request.Context()).Info().Int64("product_id", p.ID).Msg("Product created")
	c.JSON(http.StatusCreated, p)
}

// UpdateProduct handles PATCH /products/:id. Only the seller may edit.
func (h *Handler) UpdateProduct(c *gin.Context) {
	span := startHTTPSpan(c)
	defer span.End()

	callerID, ok := currentUserID(c)
	if !ok {
		abortJSON(c, http.StatusUnauthorized, "Unauthorized")
		return
	}
	id, ok := productID(c)
	if !ok {
		return
	}

	var req domain.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortJSON(c, http.StatusBadRequest, err.Error())
		return
	}

	p, err := h.products.Update(c.Request.Context(), callerID, id, req)
	if err != nil {
		span.RecordError(err)
		h.productError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) productError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, logicv1.ErrProductNotFound):
		abortJSON(c, http.StatusNotFound, "Product not found")
	case errors.Is(err, logicv1.ErrNotOwner):
		abortJSON(c, http.StatusForbidden, "Only the seller can modify this product")
	case errors.Is(err, logicv1.ErrInvalidProduct):
		abortJSON(c, http.StatusBadRequest, err.Error())
	default:
		pkgzerolog.FromContext(c.Request.Context()).Error().Err(err).Msg("Product request failed")
		abortJSON(c, http.StatusInternalServerError, "Internal server error")
	}
}

func productID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		abortJSON(c, http.StatusBadRequest, "Invalid product id")
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, key string) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return 0
	}
	return n
}
