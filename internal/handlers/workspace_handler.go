package handlers

import (
	"net/http"

	"taskboard/backend/internal/auth"
	"taskboard/backend/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// WorkspaceHandler serves /api/workspaces.
type WorkspaceHandler struct {
	workspaces collection[models.Workspace]
}

func NewWorkspaceHandler(db *gorm.DB, log *zap.Logger) *WorkspaceHandler {
	return &WorkspaceHandler{workspaces: collection[models.Workspace]{
		db:       db,
		log:      log.Named("workspaces"),
		notFound: "Workspace not found",
	}}
}

type workspacePayload struct {
	Name        string `json:"name" binding:"required,max=150"`
	Description string `json:"description" binding:"max=2500"`
}

func (h *WorkspaceHandler) List(c *gin.Context) { h.workspaces.list(c) }

func (h *WorkspaceHandler) Get(c *gin.Context) { h.workspaces.get(c) }

func (h *WorkspaceHandler) Delete(c *gin.Context) { h.workspaces.delete(c) }

// Create stores a workspace owned by the caller. Responds 200, not 201.
func (h *WorkspaceHandler) Create(c *gin.Context) {
	owner, ok := auth.CurrentAccount(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Authentication credentials were not provided"})
		return
	}

	var payload workspacePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBindingError(c, err)
		return
	}

	h.workspaces.create(c, &models.Workspace{
		Name:        payload.Name,
		Description: payload.Description,
		UserID:      owner.ID,
	}, http.StatusOK)
}

func (h *WorkspaceHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var payload workspacePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBindingError(c, err)
		return
	}

	h.workspaces.update(c, id, map[string]interface{}{
		"name":        payload.Name,
		"description": payload.Description,
	})
}
