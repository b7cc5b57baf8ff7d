package employee

type CreateEmployeeRequest struct {
	FirstName      string  `json:"first_name" binding:"required"`
	LastName       string  `json:"last_name" binding:"required"`
	Email          string  `json:"email" binding:"required,email"`
	Phone          *string `json:"phone"`
	Department     string  `json:"department"`
	Position       string  `json:"position" binding:"required"`
	EmploymentType string  `json:"employment_type"`
	ShiftID        *string `json:"shift_id" binding:"omitempty,uuid"`
	ManagerID      *string `json:"manager_id" binding:"omitempty,uuid"`
	JoiningDate    *string `json:"joining_date"`
}

type UpdateEmployeeRequest struct {
	FirstName      *string `json:"first_name"`
	LastName       *string `json:"last_name"`
	Phone          *string `json:"phone"`
	Department     *string `json:"department"`
	Position       *string `json:"position"`
	EmploymentType *string `json:"employment_type"`
	ShiftID        *string `json:"shift_id" binding:"omitempty,uuid"`
	ManagerID      *string `json:"manager_id" binding:"omitempty,uuid"`
	// Status only accepts the administrative states. The leave-derived
	// states are owned by the reconciler.
	Status          *string `json:"status" binding:"omitempty,oneof=active inactive terminated"`
	TerminationDate *string `json:"termination_date"`
}

type EmployeeResponse struct {
	ID             string  `json:"id"`
	EmployeeCode   string  `json:"employee_code"`
	FirstName      string  `json:"first_name"`
	LastName       string  `json:"last_name"`
	Email          string  `json:"email"`
	Phone          *string `json:"phone,omitempty"`
	Department     string  `json:"department,omitempty"`
	Position       string  `json:"position"`
	EmploymentType string  `json:"employment_type"`
	ShiftID        *string `json:"shift_id,omitempty"`
	ManagerID      *string `json:"manager_id,omitempty"`
	Status         string  `json:"status"`
	JoiningDate    *string `json:"joining_date,omitempty"`
}

type StatsResponse struct {
	TotalEmployees int64 `json:"total_employees"`
	ActiveToday    int64 `json:"active_today"`
	PresentToday   int64 `json:"present_today"`
	OnLeaveToday   int64 `json:"on_leave_today"`
}
