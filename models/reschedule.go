package models

import (
	"fmt"
	"time"
)

// RescheduleRequest - zahtev za promenu vremena preuzimanja.
// Write-only audit record: the lifecycle manager never consumes these, a
// coordinator reviews them out of band.
type RescheduleRequest struct {
	ID          string    `json:"id" bson:"_id,omitempty"`
	TaskID      string    `json:"taskId" bson:"taskId"`
	NewTime     time.Time `json:"newTime" bson:"newTime"`
	Reason      string    `json:"reason" bson:"reason"`
	RequestedBy string    `json:"requestedBy" bson:"requestedBy"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
}

func (r *RescheduleRequest) Validate() error {
	if r.TaskID == "" {
		return fmt.Errorf("taskId is required")
	}
	if r.NewTime.IsZero() {
		return fmt.Errorf("newTime is required")
	}
	if r.RequestedBy == "" {
		return fmt.Errorf("requestedBy is required")
	}
	return nil
}
