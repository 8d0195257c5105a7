package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

// Career is an entry of the career catalog the matcher retrieves candidates from.
type Career struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string          `gorm:"type:varchar(255);uniqueIndex" json:"title"`
	Cluster     string          `gorm:"type:varchar(128)" json:"cluster"`
	Description string          `gorm:"type:text" json:"description"`
	Embedding   pgvector.Vector `gorm:"type:vector(3072)" json:"-"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (c *Career) TableName() string {
	return "careers"
}

func (c *Career) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
