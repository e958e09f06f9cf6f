package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Account is a registered user. PasswordHash never leaves the process.
type Account struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key;" json:"id"`
	FirstName     string    `gorm:"size:30;not null" json:"firstName"`
	LastName      string    `gorm:"size:255;not null" json:"lastName"`
	Email         string    `gorm:"size:255;not null;uniqueIndex" json:"email"`
	EmailVerified bool      `gorm:"not null;default:false" json:"emailVerified"`
	IsAdmin       bool      `gorm:"not null;default:false" json:"isAdmin"`
	PasswordHash  string    `gorm:"size:255;not null" json:"-"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (a *Account) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return
}

// AccountChanges lists the mutable account fields. Nil means "leave as is".
// Password carries plaintext; the credential store hashes it on write.
type AccountChanges struct {
	FirstName     *string
	LastName      *string
	Email         *string
	Password      *string
	EmailVerified *bool
}

// Workspace groups boards for one account. The owner is not serialized.
type Workspace struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key;" json:"id"`
	Name        string    `gorm:"size:150;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;index" json:"-"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (w *Workspace) BeforeCreate(tx *gorm.DB) (err error) {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return
}

type Board struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key;" json:"id"`
	WorkspaceID uuid.UUID `gorm:"type:uuid;not null;index" json:"workspaceId"`
	Name        string    `gorm:"size:200;not null" json:"name"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (b *Board) BeforeCreate(tx *gorm.DB) (err error) {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return
}

type Todo struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key;" json:"id"`
	BoardID     uuid.UUID `gorm:"type:uuid;not null;index" json:"boardId"`
	Name        string    `gorm:"size:200;not null" json:"name"`
	Position    float64   `gorm:"not null" json:"position"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (t *Todo) BeforeCreate(tx *gorm.DB) (err error) {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return
}
