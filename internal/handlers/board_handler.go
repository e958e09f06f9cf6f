package handlers

import (
	"net/http"

	"taskboard/backend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// BoardHandler serves /api/boards.
type BoardHandler struct {
	boards collection[models.Board]
}

func NewBoardHandler(db *gorm.DB, log *zap.Logger) *BoardHandler {
	return &BoardHandler{boards: collection[models.Board]{
		db:            db,
		log:           log.Named("boards"),
		notFound:      "Board not found",
		parentMissing: "Workspace not found",
	}}
}

type boardPayload struct {
	WorkspaceID string `json:"workspaceId" binding:"required,uuid"`
	Name        string `json:"name" binding:"required,max=200"`
}

func (h *BoardHandler) List(c *gin.Context) { h.boards.list(c) }

func (h *BoardHandler) Get(c *gin.Context) { h.boards.get(c) }

func (h *BoardHandler) Delete(c *gin.Context) { h.boards.delete(c) }

func (h *BoardHandler) Create(c *gin.Context) {
	var payload boardPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBindingError(c, err)
		return
	}

	h.boards.create(c, &models.Board{
		WorkspaceID: uuid.MustParse(payload.WorkspaceID),
		Name:        payload.Name,
	}, http.StatusCreated)
}

func (h *BoardHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var payload boardPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBindingError(c, err)
		return
	}

	h.boards.update(c, id, map[string]interface{}{
		"workspace_id": uuid.MustParse(payload.WorkspaceID),
		"name":         payload.Name,
	})
}
