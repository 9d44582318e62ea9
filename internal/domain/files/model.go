package files

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// File is the metadata of an uploaded object.
type File struct {
	ID          string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name        string    `gorm:"not null" json:"name"`
	Key         string    `gorm:"not null;uniqueIndex:idx_files_key" json:"key"`
	Size        int64     `gorm:"not null" json:"size"`
	ContentType string    `json:"contentType"`
	UserID      string    `gorm:"type:varchar(36);not null;index" json:"userId"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (f *File) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return nil
}
