package leavetype

type CreateLeaveTypeRequest struct {
	Name                       string `json:"name" binding:"required"`
	Code                       string `json:"code" binding:"required"`
	MaxDaysPerYear             int    `json:"max_days_per_year" binding:"required,min=1"`
	IsPaid                     *bool  `json:"is_paid"`
	RequiresMedicalCertificate bool   `json:"requires_medical_certificate"`
}

type UpdateLeaveTypeRequest struct {
	Name                       *string `json:"name"`
	MaxDaysPerYear             *int    `json:"max_days_per_year" binding:"omitempty,min=1"`
	IsPaid                     *bool   `json:"is_paid"`
	RequiresMedicalCertificate *bool   `json:"requires_medical_certificate"`
	IsActive                   *bool   `json:"is_active"`
}

type LeaveTypeResponse struct {
	ID                         string `json:"id"`
	Name                       string `json:"name"`
	Code                       string `json:"code"`
	MaxDaysPerYear             int    `json:"max_days_per_year"`
	IsPaid                     bool   `json:"is_paid"`
	RequiresMedicalCertificate bool   `json:"requires_medical_certificate"`
	IsActive                   bool   `json:"is_active"`
}
