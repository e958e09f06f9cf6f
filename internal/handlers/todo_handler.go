package handlers

import (
	"net/http"

	"taskboard/backend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TodoHandler serves /api/todos.
type TodoHandler struct {
	todos collection[models.Todo]
}

func NewTodoHandler(db *gorm.DB, log *zap.Logger) *TodoHandler {
	return &TodoHandler{todos: collection[models.Todo]{
		db:            db,
		log:           log.Named("todos"),
		notFound:      "Todo not found",
		parentMissing: "Board not found",
	}}
}

type todoPayload struct {
	BoardID     string   `json:"boardId" binding:"required,uuid"`
	Name        string   `json:"name" binding:"required,max=200"`
	Position    *float64 `json:"position" binding:"required"`
	Description string   `json:"description" binding:"max=2500"`
}

func (h *TodoHandler) List(c *gin.Context) { h.todos.list(c) }

func (h *TodoHandler) Get(c *gin.Context) { h.todos.get(c) }

func (h *TodoHandler) Delete(c *gin.Context) { h.todos.delete(c) }

func (h *TodoHandler) Create(c *gin.Context) {
	var payload todoPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBindingError(c, err)
		return
	}

	h.todos.create(c, &models.Todo{
		BoardID:     uuid.MustParse(payload.BoardID), // validated by the uuid binding
		Name:        payload.Name,
		Position:    *payload.Position,
		Description: payload.Description,
	}, http.StatusCreated)
}

func (h *TodoHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var payload todoPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBindingError(c, err)
		return
	}

	h.todos.update(c, id, map[string]interface{}{
		"board_id":    uuid.MustParse(payload.BoardID),
		"name":        payload.Name,
		"position":    *payload.Position,
		"description": payload.Description,
	})
}
