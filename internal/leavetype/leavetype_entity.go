package leavetype

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LeaveType struct {
	ID                         uuid.UUID      `gorm:"type:uuid;primaryKey"`
	Name                       string         `gorm:"size:100;not null"`
	Code                       string         `gorm:"size:20;not null;uniqueIndex:uq_leave_type_code"`
	MaxDaysPerYear             int            `gorm:"not null"`
	IsPaid                     bool           `gorm:"not null;default:true"`
	RequiresMedicalCertificate bool           `gorm:"not null;default:false"`
	IsActive                   bool           `gorm:"not null;default:true"`
	CreatedAt                  time.Time      `gorm:"autoCreateTime"`
	UpdatedAt                  time.Time      `gorm:"autoUpdateTime"`
	DeletedAt                  gorm.DeletedAt `gorm:"index"`
}

func (LeaveType) TableName() string {
	return "leave_types"
}
