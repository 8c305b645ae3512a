package domain

import (
	"time"
)

// TaskStatus is the workflow state of a task.
type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusBlocked    TaskStatus = "blocked"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusCancelled  TaskStatus = "cancelled"
)

// IsClosed reports whether the task no longer needs attention.
func (s TaskStatus) IsClosed() bool {
	return s == TaskStatusCompleted || s == TaskStatusCancelled
}

// RenewalStatus is the state of a contract renewal.
type RenewalStatus string

const (
	RenewalStatusPending       RenewalStatus = "pending"
	RenewalStatusInNegotiation RenewalStatus = "in_negotiation"
	RenewalStatusRenewed       RenewalStatus = "renewed"
	RenewalStatusChurned       RenewalStatus = "churned"
	RenewalStatusCancelled     RenewalStatus = "cancelled"
)

// IsOpen reports whether the renewal is still unresolved.
func (s RenewalStatus) IsOpen() bool {
	return s == RenewalStatusPending || s == RenewalStatusInNegotiation
}

// CustomerStatus is the account health flag of a customer.
type CustomerStatus string

const (
	CustomerStatusActive    CustomerStatus = "active"
	CustomerStatusInactive  CustomerStatus = "inactive"
	CustomerStatusChurnRisk CustomerStatus = "churn_risk"
)

// OnboardingStage is where a partner sits in the onboarding pipeline.
type OnboardingStage string

const (
	StageApplication   OnboardingStage = "application"
	StageContracting   OnboardingStage = "contracting"
	StageTraining      OnboardingStage = "training"
	StageCertification OnboardingStage = "certification"
	StageReady         OnboardingStage = "ready" // awaiting activation
	StageActive        OnboardingStage = "active"
	StageDeclined      OnboardingStage = "declined"
)

// IsTerminal reports whether onboarding has finished one way or another.
func (s OnboardingStage) IsTerminal() bool {
	return s == StageActive || s == StageDeclined
}

// Task is a unit of work assigned to a dashboard user.
type Task struct {
	ID         string
	Title      string
	AssigneeID string
	DueDate    *time.Time
	Status     TaskStatus
}

// Renewal is an upcoming contract renewal for a customer.
type Renewal struct {
	ID         string
	CustomerID string
	ExpiryDate *time.Time
	Status     RenewalStatus
	Amount     float64
}

// Customer is an account managed by an owner.
type Customer struct {
	ID              string
	Name            string
	Status          CustomerStatus
	OwnerID         string
	StatusChangedAt *time.Time
}

// Partner is a reseller or integration partner going through onboarding.
type Partner struct {
	ID              string
	Name            string
	OnboardingStage OnboardingStage
	OwnerID         string
	StageEnteredAt  *time.Time
}

// Snapshot is a read-only view of the domain collections at one point in time.
type Snapshot struct {
	Tasks     []Task
	Renewals  []Renewal
	Customers []Customer
	Partners  []Partner
	LoadedAt  time.Time
}

// CustomerByID indexes the snapshot's customers. Entries with an empty ID are skipped.
func (s *Snapshot) CustomerByID() map[string]Customer {
	index := make(map[string]Customer, len(s.Customers))
	for _, c := range s.Customers {
		if c.ID == "" {
			continue
		}
		index[c.ID] = c
	}
	return index
}
