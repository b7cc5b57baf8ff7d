package attendance

type RecordAttendanceRequest struct {
	EmployeeID   string  `json:"employee_id" binding:"required,uuid"`
	Date         string  `json:"date" binding:"required"`
	ShiftID      *string `json:"shift_id"`
	CheckInTime  *string `json:"check_in_time"`
	CheckOutTime *string `json:"check_out_time"`
	Status       *string `json:"status"`
	Location     *string `json:"location"`
	Remarks      *string `json:"remarks"`
}

type AttendanceResponse struct {
	ID             string  `json:"id"`
	EmployeeID     string  `json:"employee_id"`
	Date           string  `json:"date"`
	ShiftID        *string `json:"shift_id,omitempty"`
	CheckInTime    *string `json:"check_in_time,omitempty"`
	CheckOutTime   *string `json:"check_out_time,omitempty"`
	TotalHours     string  `json:"total_hours"`
	Status         string  `json:"status"`
	IsLate         bool    `json:"is_late"`
	LateByMinutes  int     `json:"late_by_minutes"`
	IsEarlyLeave   bool    `json:"is_early_leave"`
	EarlyByMinutes int     `json:"early_by_minutes"`
	Location       *string `json:"location,omitempty"`
	Remarks        *string `json:"remarks,omitempty"`
}

type PunctualityResponse struct {
	EmployeeID    string `json:"employee_id"`
	LateArrivals  int64  `json:"late_arrivals"`
	EarlyLeaves   int64  `json:"early_leaves"`
	WindowStart   string `json:"window_start"`
	WindowEnd     string `json:"window_end"`
}

type SummaryResponse struct {
	ID                   string `json:"id"`
	EmployeeID           string `json:"employee_id"`
	Month                int    `json:"month"`
	Year                 int    `json:"year"`
	TotalWorkingDays     int    `json:"total_working_days"`
	DaysPresent          int    `json:"days_present"`
	DaysAbsent           int    `json:"days_absent"`
	DaysHalfDay          int    `json:"days_half_day"`
	DaysOnLeave          int    `json:"days_on_leave"`
	DaysLate             int    `json:"days_late"`
	DaysEarlyLeave       int    `json:"days_early_leave"`
	TotalHoursWorked     string `json:"total_hours_worked"`
	OvertimeHours        string `json:"overtime_hours"`
	AttendancePercentage string `json:"attendance_percentage"`
}

type AggregateRequest struct {
	EmployeeID string `json:"employee_id" binding:"omitempty,uuid"`
	Month      int    `json:"month" binding:"required,min=1,max=12"`
	Year       int    `json:"year" binding:"required,min=2000"`
}
