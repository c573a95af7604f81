package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BaseModel handles ID (UUID) and standard audit trails for master data.
type BaseModel struct {
	ID        uuid.UUID      `gorm:"type:uuid;primary_key;" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"` // Soft delete support

	// Audit user tracking
	CreatedBy string `gorm:"type:varchar(255)" json:"created_by"`
	UpdatedBy string `gorm:"type:varchar(255)" json:"updated_by"`
}

// BeforeCreate assigns a UUID when the caller did not provide one.
func (base *BaseModel) BeforeCreate(tx *gorm.DB) (err error) {
	if base.ID == uuid.Nil {
		base.ID = uuid.New()
	}
	return
}

// IsDeleted reports whether the row carries a soft-delete marker.
func (base *BaseModel) IsDeleted() bool {
	return base.DeletedAt.Valid
}
