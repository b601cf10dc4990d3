package models

import (
	"fmt"
	"time"
)

type TaskStatus string

const (
	StatusAssigned   TaskStatus = "assigned"
	StatusAccepted   TaskStatus = "accepted"
	StatusInProgress TaskStatus = "in_progress"
	StatusCompleted  TaskStatus = "completed"
	StatusCancelled  TaskStatus = "cancelled"
)

// IsTerminal - da li je status terminalan (nema daljih prelaza).
func (s TaskStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

func (s TaskStatus) IsValid() bool {
	switch s {
	case StatusAssigned, StatusAccepted, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

type TaskPriority string

const (
	PriorityHigh   TaskPriority = "high"
	PriorityMedium TaskPriority = "medium"
	PriorityLow    TaskPriority = "low"
)

func (p TaskPriority) IsValid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

type ContactInfo struct {
	Name          string `json:"name" bson:"name"`
	Address       string `json:"address" bson:"address"`
	Phone         string `json:"phone" bson:"phone"`
	ContactPerson string `json:"contactPerson" bson:"contactPerson"`
}

type FoodDetails struct {
	FoodType            string    `json:"foodType" bson:"foodType"`
	Quantity            string    `json:"quantity" bson:"quantity"`
	ExpiryTime          time.Time `json:"expiryTime" bson:"expiryTime"`
	SpecialInstructions string    `json:"specialInstructions,omitempty" bson:"specialInstructions,omitempty"`
}

type Task struct {
	ID                string       `json:"id" bson:"_id,omitempty"`
	DonorInfo         ContactInfo  `json:"donorInfo" bson:"donorInfo"`
	NGOInfo           ContactInfo  `json:"ngoInfo" bson:"ngoInfo"`
	FoodDetails       FoodDetails  `json:"foodDetails" bson:"foodDetails"`
	PickupTime        time.Time    `json:"pickupTime" bson:"pickupTime"`
	DeliveryTime      time.Time    `json:"deliveryTime" bson:"deliveryTime"`
	Status            TaskStatus   `json:"status" bson:"status"`
	Priority          TaskPriority `json:"priority" bson:"priority"`
	Distance          string       `json:"distance,omitempty" bson:"distance,omitempty"`
	EstimatedDuration string       `json:"estimatedDuration,omitempty" bson:"estimatedDuration,omitempty"`
	CancelReason      string       `json:"cancelReason,omitempty" bson:"cancelReason,omitempty"`
	CreatedAt         time.Time    `json:"createdAt" bson:"createdAt"`
	UpdatedAt         time.Time    `json:"updatedAt" bson:"updatedAt"`
}

// Validate proverava zadatak pre upisa u bazu. Applied at assignment intake only;
// tasks already stored are trusted as-is.
func (t *Task) Validate() error {
	if !t.Status.IsValid() {
		return fmt.Errorf("invalid task status: %q", t.Status)
	}
	if !t.Priority.IsValid() {
		return fmt.Errorf("invalid task priority: %q", t.Priority)
	}
	if t.PickupTime.IsZero() || t.DeliveryTime.IsZero() {
		return fmt.Errorf("pickupTime and deliveryTime are required")
	}
	if !t.PickupTime.Before(t.DeliveryTime) {
		return fmt.Errorf("pickupTime must be before deliveryTime")
	}
	if t.FoodDetails.FoodType == "" || t.FoodDetails.Quantity == "" {
		return fmt.Errorf("foodType and quantity are required")
	}
	return nil
}
