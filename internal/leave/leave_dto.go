package leave

type SubmitLeaveRequest struct {
	EmployeeID         string  `json:"employee_id" binding:"required,uuid"`
	LeaveTypeID        string  `json:"leave_type_id" binding:"required,uuid"`
	StartDate          string  `json:"start_date" binding:"required"`
	EndDate            string  `json:"end_date" binding:"required"`
	Reason             string  `json:"reason" binding:"required"`
	ContactDuringLeave *string `json:"contact_during_leave"`
	// TotalDays overrides the inclusive calendar-day count, allowing
	// half-day requests such as "0.5" or "2.5".
	TotalDays              *string `json:"total_days"`
	MedicalCertificatePath *string `json:"medical_certificate_path"`
}

type DecideLeaveRequest struct {
	Status          string  `json:"status" binding:"required"`
	RejectionReason *string `json:"rejection_reason"`
}

type LeaveRequestResponse struct {
	ID                 string  `json:"id"`
	EmployeeID         string  `json:"employee_id"`
	LeaveTypeID        string  `json:"leave_type_id"`
	StartDate          string  `json:"start_date"`
	EndDate            string  `json:"end_date"`
	TotalDays          string  `json:"total_days"`
	Reason             string  `json:"reason"`
	ContactDuringLeave *string `json:"contact_during_leave,omitempty"`
	Status             string  `json:"status"`
	ApprovedBy         *string `json:"approved_by,omitempty"`
	ApprovedAt         *string `json:"approved_at,omitempty"`
	RejectionReason    *string `json:"rejection_reason,omitempty"`
}

type LeaveBalanceResponse struct {
	ID             string `json:"id"`
	EmployeeID     string `json:"employee_id"`
	LeaveTypeID    string `json:"leave_type_id"`
	Year           int    `json:"year"`
	TotalAllocated string `json:"total_allocated"`
	Used           string `json:"used"`
	Pending        string `json:"pending"`
	Balance        string `json:"balance"`
}
