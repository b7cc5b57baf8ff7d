package attendance

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	StatusPresent = "present"
	StatusAbsent  = "absent"
	StatusLate    = "late"
	StatusHalfDay = "half-day"
	StatusOnLeave = "on-leave"
)

type Attendance struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EmployeeID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:uq_employee_date"`
	Date       time.Time  `gorm:"type:date;not null;uniqueIndex:uq_employee_date"`
	ShiftID    *uuid.UUID `gorm:"type:uuid"`

	CheckInTime  *time.Time `gorm:"type:timestamptz"`
	CheckOutTime *time.Time `gorm:"type:timestamptz"`

	TotalHours decimal.Decimal `gorm:"type:numeric(4,2);not null;default:0"`
	Status     string          `gorm:"type:varchar(20);not null"`

	IsLate         bool `gorm:"not null;default:false"`
	LateByMinutes  int  `gorm:"not null;default:0"`
	IsEarlyLeave   bool `gorm:"not null;default:false"`
	EarlyByMinutes int  `gorm:"not null;default:0"`

	Location *string `gorm:"type:varchar(100)"`

	VerifiedBy *uuid.UUID `gorm:"type:uuid"`
	VerifiedAt *time.Time
	Remarks    *string `gorm:"type:text"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Attendance) TableName() string {
	return "attendance"
}

type AttendanceSummary struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EmployeeID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_employee_month_year"`
	Month      int       `gorm:"not null;uniqueIndex:uq_employee_month_year"`
	Year       int       `gorm:"not null;uniqueIndex:uq_employee_month_year"`

	TotalWorkingDays int `gorm:"not null;default:0"`
	DaysPresent      int `gorm:"not null;default:0"`
	DaysAbsent       int `gorm:"not null;default:0"`
	DaysHalfDay      int `gorm:"not null;default:0"`
	DaysOnLeave      int `gorm:"not null;default:0"`
	DaysLate         int `gorm:"not null;default:0"`
	DaysEarlyLeave   int `gorm:"not null;default:0"`

	TotalHoursWorked     decimal.Decimal `gorm:"type:numeric(6,2);not null;default:0"`
	OvertimeHours        decimal.Decimal `gorm:"type:numeric(6,2);not null;default:0"`
	AttendancePercentage decimal.Decimal `gorm:"type:numeric(5,2);not null;default:0"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (AttendanceSummary) TableName() string {
	return "attendance_summary"
}

// ShiftRef mirrors the columns of shifts this package reads for lateness
// derivation. Times are stored as HH:MM strings.
type ShiftRef struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name               string
	StartTime          string
	EndTime            string
	GracePeriodMinutes int
}

func (ShiftRef) TableName() string {
	return "shifts"
}
