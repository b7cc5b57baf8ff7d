package leave

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type LeaveRequest struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EmployeeID  uuid.UUID `gorm:"type:uuid;not null;index:idx_leave_requests_employee_dates"`
	LeaveTypeID uuid.UUID `gorm:"type:uuid;not null"`

	StartDate time.Time       `gorm:"type:date;not null;index:idx_leave_requests_employee_dates"`
	EndDate   time.Time       `gorm:"type:date;not null;index:idx_leave_requests_employee_dates"`
	TotalDays decimal.Decimal `gorm:"type:numeric(4,1);not null"`

	Reason             string  `gorm:"type:text;not null"`
	ContactDuringLeave *string `gorm:"type:varchar(100)"`

	Status          string     `gorm:"type:varchar(20);not null;default:'pending';index:idx_leave_requests_status"`
	ApprovedBy      *uuid.UUID `gorm:"type:uuid"`
	ApprovedAt      *time.Time
	RejectionReason *string `gorm:"type:text"`

	MedicalCertificatePath *string `gorm:"type:varchar(255)"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (LeaveRequest) TableName() string {
	return "leave_requests"
}

type LeaveBalance struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EmployeeID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_employee_leave_year"`
	LeaveTypeID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_employee_leave_year"`
	Year        int       `gorm:"not null;uniqueIndex:uq_employee_leave_year"`

	TotalAllocated decimal.Decimal `gorm:"type:numeric(4,1);not null"`
	Used           decimal.Decimal `gorm:"type:numeric(4,1);not null;default:0"`
	Pending        decimal.Decimal `gorm:"type:numeric(4,1);not null;default:0"`
	Balance        decimal.Decimal `gorm:"type:numeric(4,1);not null"`

	UpdatedAt time.Time
}

func (LeaveBalance) TableName() string {
	return "leave_balances"
}

// LeaveTypeRef mirrors the columns of leave_types this package reads when
// seeding a balance or validating a submission.
type LeaveTypeRef struct {
	ID                         uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name                       string
	Code                       string
	MaxDaysPerYear             int
	RequiresMedicalCertificate bool
	IsActive                   bool
}

func (LeaveTypeRef) TableName() string {
	return "leave_types"
}
