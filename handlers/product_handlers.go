// api/handlers/product_handlers.go
package handlers

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"bazario/api/models"
	"bazario/api/search"

	"github.com/gin-gonic/gin"
)

// catalogLister is the slice of the product store these handlers need.
type catalogLister interface {
	ListApproved(ctx context.Context, page, pageSize int) ([]models.Product, int64, error)
}

type ProductHandlers struct {
	Products catalogLister
	Index    *search.Index
}

func NewProductHandlers(products catalogLister, index *search.Index) *ProductHandlers {
	return &ProductHandlers{
		Products: products,
		Index:    index,
	}
}

// ListApproved returns one page of approved products. The storefront
// fetches this once per session to build its catalog snapshot.
func (h *ProductHandlers) ListApproved(c *gin.Context) {
	page := 1
	if pageParam := c.Query("page"); pageParam != "" {
		parsed, err := strconv.Atoi(pageParam)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid 'page' parameter. Must be a positive integer."})
			return
		}
		page = parsed
	}

	pageSize := 50
	if sizeParam := c.Query("pageSize"); sizeParam != "" {
		parsed, err := strconv.Atoi(sizeParam)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid 'pageSize' parameter. Must be a positive integer."})
			return
		}
		pageSize = parsed
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	products, total, err := h.Products.ListApproved(ctx, page, pageSize)
	if err != nil {
		log.Printf("Error listing approved products: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to list products"})
		return
	}

	if products == nil {
		products = []models.Product{}
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"products": products,
		"total":    total,
		"page":     page,
		"pageSize": pageSize,
	})
}

// InstantSearch answers search-as-you-type queries from the in-memory
// catalog snapshot. No datastore access on this path.
func (h *ProductHandlers) InstantSearch(c *gin.Context) {
	query := c.Query("q")

	results := []models.Product{}
	for p := range h.Index.Search(query) {
		results = append(results, p)
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "products": results})
}
