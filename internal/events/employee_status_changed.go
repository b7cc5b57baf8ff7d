package events

import "time"

const EmployeeStatusChangedTopic = "hr.employee.status.v1"

type EmployeeStatusChangedEvent struct {
	EventType  string    `json:"event_type"`
	EmployeeID string    `json:"employee_id"`
	OldStatus  string    `json:"old_status"`
	NewStatus  string    `json:"new_status"`
	OccurredAt time.Time `json:"occurred_at"`
}
