package shift

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Shift is working-hours master data. Times are HH:MM strings so the rows
// carry no date or zone; the attendance derivations anchor them to the
// record's own date.
type Shift struct {
	ID                 uuid.UUID      `gorm:"type:uuid;primaryKey"`
	Name               string         `gorm:"size:100;not null;uniqueIndex:uq_shift_name"`
	StartTime          string         `gorm:"type:varchar(8);not null"`
	EndTime            string         `gorm:"type:varchar(8);not null"`
	GracePeriodMinutes int            `gorm:"not null;default:15"`
	IsNightShift       bool           `gorm:"not null;default:false"`
	CreatedAt          time.Time      `gorm:"autoCreateTime"`
	UpdatedAt          time.Time      `gorm:"autoUpdateTime"`
	DeletedAt          gorm.DeletedAt `gorm:"index"`
}

func (Shift) TableName() string {
	return "shifts"
}
