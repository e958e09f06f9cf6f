package handlers

import (
	"net/http"
	"strconv"

	"taskboard/backend/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GetPaginationParams reads page and page_size from the query string,
// falling back to the defaults for missing or invalid values.
func GetPaginationParams(c *gin.Context) (page int, pageSize int) {
	page, err := strconv.Atoi(c.Query("page"))
	if err != nil {
		page = 1
	}
	pageSize, err = strconv.Atoi(c.Query("page_size"))
	if err != nil {
		pageSize = store.DefaultPageSize
	}
	return store.NormalizePage(page, pageSize)
}

// PaginateScope returns a GORM scope function to apply pagination.
func PaginateScope(page, pageSize int) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		offset := (page - 1) * pageSize
		return db.Offset(offset).Limit(pageSize)
	}
}

// newestFirst orders by creation time, latest first.
func newestFirst(db *gorm.DB) *gorm.DB {
	return db.Order("created_at DESC")
}

// parseID reads the :id path parameter. Routes also run the UUID guard
// middleware, so failing here means a route was wired without it.
func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid id format"})
		return uuid.Nil, false
	}
	return id, true
}
