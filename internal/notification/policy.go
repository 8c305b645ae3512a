package notification

import (
	"fmt"

	"crm_dashboard_backend/internal/config"
)

// Default rule thresholds, in days.
const (
	DefaultTaskLeadDays              = 2
	DefaultTaskHighOverdueDays       = 1
	DefaultTaskUrgentOverdueDays     = 5
	DefaultTaskEscalationOverdueDays = 10

	DefaultRenewalLeadDays       = 30
	DefaultRenewalMediumDays     = 14
	DefaultRenewalHighDays       = 3
	DefaultRenewalUrgentDays     = 1
	DefaultRenewalEscalationDays = 0

	DefaultPartnerStallDays        = 14
	DefaultCustomerChurnWindowDays = 30

	// DefaultDigestMinItems is a count of notifications, not days.
	DefaultDigestMinItems = 3
)

// Policy holds the thresholds the rule evaluator applies. All values except
// DigestMinItems are whole days.
type Policy struct {
	TaskLeadDays              int
	TaskHighOverdueDays       int
	TaskUrgentOverdueDays     int
	TaskEscalationOverdueDays int

	RenewalLeadDays       int
	RenewalMediumDays     int
	RenewalHighDays       int
	RenewalUrgentDays     int
	RenewalEscalationDays int

	PartnerStallDays        int
	CustomerChurnWindowDays int

	// DigestMinItems is how many other notifications trigger the daily digest. Zero disables it.
	DigestMinItems int
}

// DefaultPolicy returns the built-in thresholds.
func DefaultPolicy() Policy {
	return Policy{
		TaskLeadDays:              DefaultTaskLeadDays,
		TaskHighOverdueDays:       DefaultTaskHighOverdueDays,
		TaskUrgentOverdueDays:     DefaultTaskUrgentOverdueDays,
		TaskEscalationOverdueDays: DefaultTaskEscalationOverdueDays,
		RenewalLeadDays:           DefaultRenewalLeadDays,
		RenewalMediumDays:         DefaultRenewalMediumDays,
		RenewalHighDays:           DefaultRenewalHighDays,
		RenewalUrgentDays:         DefaultRenewalUrgentDays,
		RenewalEscalationDays:     DefaultRenewalEscalationDays,
		PartnerStallDays:          DefaultPartnerStallDays,
		CustomerChurnWindowDays:   DefaultCustomerChurnWindowDays,
		DigestMinItems:            DefaultDigestMinItems,
	}
}

// NewPolicy reads the thresholds from the application configuration.
func NewPolicy(cfg *config.Config) (Policy, error) {
	p := Policy{
		TaskLeadDays:              cfg.NotifyTaskLeadDays,
		TaskHighOverdueDays:       cfg.NotifyTaskHighOverdueDays,
		TaskUrgentOverdueDays:     cfg.NotifyTaskUrgentOverdueDays,
		TaskEscalationOverdueDays: cfg.NotifyTaskEscalationOverdueDays,
		RenewalLeadDays:           cfg.NotifyRenewalLeadDays,
		RenewalMediumDays:         cfg.NotifyRenewalMediumDays,
		RenewalHighDays:           cfg.NotifyRenewalHighDays,
		RenewalUrgentDays:         cfg.NotifyRenewalUrgentDays,
		RenewalEscalationDays:     cfg.NotifyRenewalEscalationDays,
		PartnerStallDays:          cfg.NotifyPartnerStallDays,
		CustomerChurnWindowDays:   cfg.NotifyCustomerChurnWindowDays,
		DigestMinItems:            cfg.NotifyDigestMinItems,
	}
	if err := p.Validate(); err != nil {
		return Policy{}, err
	}
	return p, nil
}

// Validate checks that the thresholds are non-negative and escalate in order.
func (p Policy) Validate() error {
	if p.TaskLeadDays < 0 || p.RenewalLeadDays < 0 || p.PartnerStallDays < 0 || p.CustomerChurnWindowDays < 0 || p.DigestMinItems < 0 {
		return fmt.Errorf("notification policy: thresholds must not be negative")
	}
	if p.TaskHighOverdueDays < 1 {
		return fmt.Errorf("notification policy: task high threshold must be at least 1 day overdue, got %d", p.TaskHighOverdueDays)
	}
	if p.TaskUrgentOverdueDays < p.TaskHighOverdueDays {
		return fmt.Errorf("notification policy: task urgent threshold (%d) is below high threshold (%d)", p.TaskUrgentOverdueDays, p.TaskHighOverdueDays)
	}
	if p.TaskEscalationOverdueDays < p.TaskUrgentOverdueDays {
		return fmt.Errorf("notification policy: task escalation threshold (%d) is below urgent threshold (%d)", p.TaskEscalationOverdueDays, p.TaskUrgentOverdueDays)
	}
	if !(p.RenewalEscalationDays <= p.RenewalUrgentDays &&
		p.RenewalUrgentDays <= p.RenewalHighDays &&
		p.RenewalHighDays <= p.RenewalMediumDays &&
		p.RenewalMediumDays <= p.RenewalLeadDays) {
		return fmt.Errorf("notification policy: renewal thresholds must satisfy escalation <= urgent <= high <= medium <= lead")
	}
	return nil
}
