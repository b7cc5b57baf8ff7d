package employee

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	StatusActive     = "active"
	StatusOnLeave    = "on-leave"
	StatusInactive   = "inactive"
	StatusTerminated = "terminated"
)

type Employee struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EmployeeCode string    `gorm:"type:varchar(20);not null;uniqueIndex:uq_employee_code"`

	FirstName string  `gorm:"type:varchar(100);not null"`
	LastName  string  `gorm:"type:varchar(100);not null"`
	Email     string  `gorm:"type:varchar(255);not null;uniqueIndex:uq_employee_email"`
	Phone     *string `gorm:"type:varchar(30)"`

	Department string `gorm:"type:varchar(100)"`
	Position   string `gorm:"type:varchar(100);not null"`

	EmploymentType string     `gorm:"type:varchar(30);not null;default:'permanent'"`
	ShiftID        *uuid.UUID `gorm:"type:uuid"`
	ManagerID      *uuid.UUID `gorm:"type:uuid"`

	// Status is a cached, derived field. Its source of truth is the
	// approved-leave overlap predicate; the reconciler corrects it lazily.
	Status string `gorm:"type:varchar(20);not null;default:'active';index"`

	JoiningDate     *time.Time `gorm:"type:date"`
	TerminationDate *time.Time `gorm:"type:date"`

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (Employee) TableName() string {
	return "employees"
}
