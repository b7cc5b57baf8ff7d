package shift

type CreateShiftRequest struct {
	Name               string `json:"name" binding:"required"`
	StartTime          string `json:"start_time" binding:"required"`
	EndTime            string `json:"end_time" binding:"required"`
	GracePeriodMinutes *int   `json:"grace_period_minutes"`
	IsNightShift       bool   `json:"is_night_shift"`
}

type UpdateShiftRequest struct {
	Name               *string `json:"name"`
	StartTime          *string `json:"start_time"`
	EndTime            *string `json:"end_time"`
	GracePeriodMinutes *int    `json:"grace_period_minutes"`
	IsNightShift       *bool   `json:"is_night_shift"`
}

type ShiftResponse struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	StartTime          string `json:"start_time"`
	EndTime            string `json:"end_time"`
	GracePeriodMinutes int    `json:"grace_period_minutes"`
	IsNightShift       bool   `json:"is_night_shift"`
}
