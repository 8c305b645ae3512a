// File: internal/snapshot/model.go
package snapshot

import (
	"time"

	"crm_dashboard_backend/internal/domain"
)

// The record types mirror the hosted backend's tables. They are read-only
// here; the CRUD side of the dashboard owns the schema.

// TaskRecord is a row of the tasks table.
type TaskRecord struct {
	ID         string     `gorm:"column:id;primaryKey"`
	Title      string     `gorm:"column:title"`
	AssigneeID *string    `gorm:"column:assignee_id"`
	DueDate    *time.Time `gorm:"column:due_date"`
	Status     string     `gorm:"column:status"`
}

// TableName specifies the table name for GORM.
func (TaskRecord) TableName() string { return "tasks" }

// RenewalRecord is a row of the renewals table.
type RenewalRecord struct {
	ID         string     `gorm:"column:id;primaryKey"`
	CustomerID *string    `gorm:"column:customer_id"`
	ExpiryDate *time.Time `gorm:"column:expiry_date"`
	Status     string     `gorm:"column:status"`
	Amount     *float64   `gorm:"column:amount"`
}

// TableName specifies the table name for GORM.
func (RenewalRecord) TableName() string { return "renewals" }

// CustomerRecord is a row of the customers table.
type CustomerRecord struct {
	ID              string     `gorm:"column:id;primaryKey"`
	Name            string     `gorm:"column:name"`
	Status          string     `gorm:"column:status"`
	OwnerID         *string    `gorm:"column:owner_id"`
	StatusChangedAt *time.Time `gorm:"column:status_changed_at"`
}

// TableName specifies the table name for GORM.
func (CustomerRecord) TableName() string { return "customers" }

// PartnerRecord is a row of the partners table.
type PartnerRecord struct {
	ID              string     `gorm:"column:id;primaryKey"`
	Name            string     `gorm:"column:name"`
	OnboardingStage string     `gorm:"column:onboarding_stage"`
	OwnerID         *string    `gorm:"column:owner_id"`
	StageEnteredAt  *time.Time `gorm:"column:stage_entered_at"`
}

// TableName specifies the table name for GORM.
func (PartnerRecord) TableName() string { return "partners" }

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// ToDomain converts the row into the engine's Task.
func (r TaskRecord) ToDomain() domain.Task {
	return domain.Task{
		ID:         r.ID,
		Title:      r.Title,
		AssigneeID: deref(r.AssigneeID),
		DueDate:    r.DueDate,
		Status:     domain.TaskStatus(r.Status),
	}
}

// ToDomain converts the row into the engine's Renewal.
func (r RenewalRecord) ToDomain() domain.Renewal {
	renewal := domain.Renewal{
		ID:         r.ID,
		CustomerID: deref(r.CustomerID),
		ExpiryDate: r.ExpiryDate,
		Status:     domain.RenewalStatus(r.Status),
	}
	if r.Amount != nil {
		renewal.Amount = *r.Amount
	}
	return renewal
}

// ToDomain converts the row into the engine's Customer.
func (r CustomerRecord) ToDomain() domain.Customer {
	return domain.Customer{
		ID:              r.ID,
		Name:            r.Name,
		Status:          domain.CustomerStatus(r.Status),
		OwnerID:         deref(r.OwnerID),
		StatusChangedAt: r.StatusChangedAt,
	}
}

// ToDomain converts the row into the engine's Partner.
func (r PartnerRecord) ToDomain() domain.Partner {
	return domain.Partner{
		ID:              r.ID,
		Name:            r.Name,
		OnboardingStage: domain.OnboardingStage(r.OnboardingStage),
		OwnerID:         deref(r.OwnerID),
		StageEnteredAt:  r.StageEnteredAt,
	}
}
