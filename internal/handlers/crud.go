package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// collection implements the list/get/create/update/delete plumbing shared
// by workspaces, boards and todos.
type collection[T any] struct {
	db  *gorm.DB
	log *zap.Logger

	notFound      string // 404 message
	parentMissing string // 400 message on foreign key violation
}

func (r collection[T]) list(c *gin.Context) {
	page, pageSize := GetPaginationParams(c)

	items := make([]T, 0)
	if err := r.db.WithContext(c.Request.Context()).
		Scopes(newestFirst, PaginateScope(page, pageSize)).
		Find(&items).Error; err != nil {
		respondInternal(c, r.log, err, "Failed to list records")
		return
	}
	c.JSON(http.StatusOK, items)
}

func (r collection[T]) get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var item T
	err := r.db.WithContext(c.Request.Context()).Where("id = ?", id).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": r.notFound})
		return
	}
	if err != nil {
		respondInternal(c, r.log, err, "Failed to fetch record")
		return
	}
	c.JSON(http.StatusOK, item)
}

func (r collection[T]) create(c *gin.Context, item *T, status int) {
	if err := r.db.WithContext(c.Request.Context()).Create(item).Error; err != nil {
		r.writeError(c, err, "Failed to create record")
		return
	}
	c.JSON(status, item)
}

func (r collection[T]) update(c *gin.Context, id uuid.UUID, columns map[string]interface{}) {
	var item T
	res := r.db.WithContext(c.Request.Context()).
		Model(&item).
		Clauses(clause.Returning{}).
		Where("id = ?", id).
		Updates(columns)
	if res.Error != nil {
		r.writeError(c, res.Error, "Failed to update record")
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"message": r.notFound})
		return
	}
	c.JSON(http.StatusOK, item)
}

func (r collection[T]) delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	res := r.db.WithContext(c.Request.Context()).Where("id = ?", id).Delete(new(T))
	if res.Error != nil {
		respondInternal(c, r.log, res.Error, "Failed to delete record")
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"message": r.notFound})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (r collection[T]) writeError(c *gin.Context, err error, what string) {
	if errors.Is(err, gorm.ErrForeignKeyViolated) && r.parentMissing != "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": r.parentMissing})
		return
	}
	respondInternal(c, r.log, err, what)
}
