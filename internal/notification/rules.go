package notification

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"crm_dashboard_backend/internal/deeplink"
	"crm_dashboard_backend/internal/domain"
)

// Evaluator turns a domain snapshot into candidate notifications.
// It holds no state between calls.
type Evaluator struct {
	policy   Policy
	linkPath string
}

// NewEvaluator creates an evaluator applying policy. Action URLs are built
// under linkPath, or deeplink.DefaultPath when it is empty.
func NewEvaluator(policy Policy, linkPath string) *Evaluator {
	if linkPath == "" {
		linkPath = deeplink.DefaultPath
	}
	return &Evaluator{policy: policy, linkPath: linkPath}
}

// Policy returns the thresholds the evaluator applies.
func (e *Evaluator) Policy() Policy {
	return e.policy
}

// Visible reports whether an entity owned by (or assigned to) ownerID may
// produce notifications for viewer. Elevated roles see everything; anyone
// else only sees entities they own.
func Visible(ownerID string, viewer domain.Viewer) bool {
	if viewer.IsElevated() {
		return true
	}
	return ownerID != "" && viewer.UserID != "" && ownerID == viewer.UserID
}

// Generate evaluates every rule against snap for viewer at time now. The
// result is sorted the same way Store.List sorts. Entities missing a field a
// rule needs are skipped by that rule.
func (e *Evaluator) Generate(snap domain.Snapshot, viewer domain.Viewer, now time.Time) []Notification {
	var out []Notification
	out = append(out, e.taskRules(snap.Tasks, viewer, now)...)
	out = append(out, e.renewalRules(snap, viewer, now)...)
	out = append(out, e.partnerRules(snap.Partners, viewer, now)...)
	out = append(out, e.customerRules(snap.Customers, viewer, now)...)
	if digest, ok := e.digest(out, now); ok {
		out = append(out, digest)
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

// ActionURL encodes t under the evaluator's dashboard path.
func (e *Evaluator) ActionURL(t deeplink.Target) string {
	return deeplink.EncodePath(e.linkPath, t)
}

func (e *Evaluator) taskRules(tasks []domain.Task, viewer domain.Viewer, now time.Time) []Notification {
	p := e.policy
	var out []Notification
	for _, task := range tasks {
		if task.ID == "" || task.DueDate == nil || task.Status.IsClosed() {
			continue
		}
		if !Visible(task.AssigneeID, viewer) {
			continue
		}
		due := *task.DueDate
		days := daysBetween(now, due)
		if days > p.TaskLeadDays {
			continue
		}
		title := task.Title
		if title == "" {
			title = "Untitled task"
		}
		target := e.ActionURL(deeplink.Target{Tab: deeplink.TabTasks, TaskID: task.ID})

		if days >= 0 {
			when := "today"
			if days > 0 {
				when = "in " + dayCount(days)
			}
			out = append(out, Notification{
				ID:        NotificationID(TypeTask, task.ID, "due-soon"),
				Type:      TypeTask,
				Priority:  PriorityMedium,
				Title:     "Task due soon",
				Message:   fmt.Sprintf("%q is due %s.", title, when),
				CreatedAt: notAfter(due.AddDate(0, 0, -p.TaskLeadDays), now),
				ActionURL: target,
			})
			continue
		}

		overdue := -days
		out = append(out, Notification{
			ID:        NotificationID(TypeTask, task.ID, "overdue"),
			Type:      TypeTask,
			Priority:  e.taskPriority(overdue),
			Title:     "Task overdue",
			Message:   fmt.Sprintf("%q is %s overdue.", title, dayCount(overdue)),
			CreatedAt: notAfter(due, now),
			ActionURL: target,
		})
		if overdue >= p.TaskEscalationOverdueDays {
			out = append(out, Notification{
				ID:        NotificationID(TypeEscalation, string(TypeTask)+":"+task.ID, "overdue"),
				Type:      TypeEscalation,
				Priority:  PriorityUrgent,
				Title:     "Escalation: task long overdue",
				Message:   fmt.Sprintf("%q has been overdue for %s and needs escalation.", title, dayCount(overdue)),
				CreatedAt: notAfter(due.AddDate(0, 0, p.TaskEscalationOverdueDays), now),
				ActionURL: target,
			})
		}
	}
	return out
}

func (e *Evaluator) taskPriority(overdueDays int) Priority {
	switch {
	case overdueDays >= e.policy.TaskUrgentOverdueDays:
		return PriorityUrgent
	case overdueDays >= e.policy.TaskHighOverdueDays:
		return PriorityHigh
	default:
		return PriorityMedium
	}
}

func (e *Evaluator) renewalRules(snap domain.Snapshot, viewer domain.Viewer, now time.Time) []Notification {
	p := e.policy
	customers := snap.CustomerByID()
	var out []Notification
	for _, renewal := range snap.Renewals {
		if renewal.ID == "" || renewal.ExpiryDate == nil || !renewal.Status.IsOpen() {
			continue
		}
		customer, known := customers[renewal.CustomerID]
		if !Visible(customer.OwnerID, viewer) {
			continue
		}
		expiry := *renewal.ExpiryDate
		days := daysBetween(now, expiry)
		if days > p.RenewalLeadDays {
			continue
		}
		name := renewal.CustomerID
		if known && customer.Name != "" {
			name = customer.Name
		}
		if name == "" {
			name = "unknown customer"
		}

		title, message := "Renewal expiring", ""
		switch {
		case days > 0:
			message = fmt.Sprintf("Renewal for %s expires in %s.", name, dayCount(days))
		case days == 0:
			message = fmt.Sprintf("Renewal for %s expires today.", name)
		default:
			title = "Renewal lapsed"
			message = fmt.Sprintf("Renewal for %s lapsed %s ago and is still open.", name, dayCount(-days))
		}
		target := e.ActionURL(deeplink.Target{
			Tab:        deeplink.TabRenewals,
			RenewalID:  renewal.ID,
			CustomerID: renewal.CustomerID,
		})
		out = append(out, Notification{
			ID:        NotificationID(TypeRenewal, renewal.ID, "expiring"),
			Type:      TypeRenewal,
			Priority:  e.renewalPriority(days),
			Title:     title,
			Message:   message,
			CreatedAt: notAfter(expiry.AddDate(0, 0, -p.RenewalLeadDays), now),
			ActionURL: target,
		})
		if days <= p.RenewalEscalationDays {
			out = append(out, Notification{
				ID:        NotificationID(TypeEscalation, string(TypeRenewal)+":"+renewal.ID, "expiry"),
				Type:      TypeEscalation,
				Priority:  PriorityUrgent,
				Title:     "Escalation: renewal at risk",
				Message:   fmt.Sprintf("Renewal for %s reached its expiry date without being resolved.", name),
				CreatedAt: notAfter(expiry.AddDate(0, 0, p.RenewalEscalationDays), now),
				ActionURL: target,
			})
		}
	}
	return out
}

func (e *Evaluator) renewalPriority(daysToExpiry int) Priority {
	switch {
	case daysToExpiry <= e.policy.RenewalUrgentDays:
		return PriorityUrgent
	case daysToExpiry <= e.policy.RenewalHighDays:
		return PriorityHigh
	case daysToExpiry <= e.policy.RenewalMediumDays:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

func (e *Evaluator) partnerRules(partners []domain.Partner, viewer domain.Viewer, now time.Time) []Notification {
	if viewer.IsRestricted() {
		return nil
	}
	var out []Notification
	for _, partner := range partners {
		if partner.ID == "" || partner.OnboardingStage == "" || partner.OnboardingStage.IsTerminal() {
			continue
		}
		if !Visible(partner.OwnerID, viewer) {
			continue
		}
		name := partner.Name
		if name == "" {
			name = partner.ID
		}
		target := e.ActionURL(deeplink.Target{Tab: deeplink.TabPartners, PartnerID: partner.ID})
		stage := string(partner.OnboardingStage)

		if partner.OnboardingStage == domain.StageReady {
			createdAt := now
			if partner.StageEnteredAt != nil {
				createdAt = notAfter(*partner.StageEnteredAt, now)
			}
			out = append(out, Notification{
				ID:        NotificationID(TypePartnerOnboarding, partner.ID, "milestone "+stage),
				Type:      TypePartnerOnboarding,
				Priority:  PriorityMedium,
				Title:     "Partner ready for activation",
				Message:   fmt.Sprintf("%s finished onboarding and is waiting to be activated.", name),
				CreatedAt: createdAt,
				ActionURL: target,
			})
			continue
		}

		if partner.StageEnteredAt == nil {
			continue
		}
		held := daysBetween(*partner.StageEnteredAt, now)
		if held < e.policy.PartnerStallDays {
			continue
		}
		out = append(out, Notification{
			ID:        NotificationID(TypePartnerOnboarding, partner.ID, "stalled "+stage),
			Type:      TypePartnerOnboarding,
			Priority:  PriorityMedium,
			Title:     "Partner onboarding stalled",
			Message:   fmt.Sprintf("%s has been in %s for %s.", name, strings.ReplaceAll(stage, "_", " "), dayCount(held)),
			CreatedAt: notAfter(partner.StageEnteredAt.AddDate(0, 0, e.policy.PartnerStallDays), now),
			ActionURL: target,
		})
	}
	return out
}

func (e *Evaluator) customerRules(customers []domain.Customer, viewer domain.Viewer, now time.Time) []Notification {
	var out []Notification
	for _, customer := range customers {
		if customer.ID == "" || !Visible(customer.OwnerID, viewer) {
			continue
		}
		name := customer.Name
		if name == "" {
			name = customer.ID
		}
		createdAt := now
		if customer.StatusChangedAt != nil {
			createdAt = notAfter(*customer.StatusChangedAt, now)
		}
		target := e.ActionURL(deeplink.Target{Tab: deeplink.TabCustomers, CustomerID: customer.ID})

		switch customer.Status {
		case domain.CustomerStatusInactive:
			out = append(out, Notification{
				ID:        NotificationID(TypeCustomerActivity, customer.ID, "inactive"),
				Type:      TypeCustomerActivity,
				Priority:  PriorityLow,
				Title:     "Customer inactive",
				Message:   fmt.Sprintf("%s has been flagged as inactive.", name),
				CreatedAt: createdAt,
				ActionURL: target,
			})
		case domain.CustomerStatusChurnRisk:
			if customer.StatusChangedAt != nil && daysBetween(*customer.StatusChangedAt, now) > e.policy.CustomerChurnWindowDays {
				continue
			}
			out = append(out, Notification{
				ID:        NotificationID(TypeCustomerActivity, customer.ID, "churn-risk"),
				Type:      TypeCustomerActivity,
				Priority:  PriorityMedium,
				Title:     "Customer at risk of churn",
				Message:   fmt.Sprintf("%s was flagged as a churn risk.", name),
				CreatedAt: createdAt,
				ActionURL: target,
			})
		}
	}
	return out
}

// digest summarises the other notifications in one low-priority system
// notification per day once at least DigestMinItems of them are pending.
func (e *Evaluator) digest(others []Notification, now time.Time) (Notification, bool) {
	if e.policy.DigestMinItems <= 0 || len(others) < e.policy.DigestMinItems {
		return Notification{}, false
	}
	counts := make(map[NotificationType]int)
	for _, n := range others {
		counts[n.Type]++
	}
	var parts []string
	for _, t := range []NotificationType{TypeEscalation, TypeTask, TypeRenewal, TypePartnerOnboarding, TypeCustomerActivity} {
		if c := counts[t]; c > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", c, strings.ReplaceAll(string(t), "-", " ")))
		}
	}
	day := startOfDay(now)
	return Notification{
		ID:        NotificationID(TypeSystem, "digest", day.Format("2006-01-02")),
		Type:      TypeSystem,
		Priority:  PriorityLow,
		Title:     "Daily digest",
		Message:   fmt.Sprintf("%d items need attention: %s.", len(others), strings.Join(parts, ", ")),
		CreatedAt: day,
		ActionURL: e.ActionURL(deeplink.Target{Tab: deeplink.TabOverview}),
	}, true
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// daysBetween counts calendar days from from to to, in from's location.
// Negative when to is on an earlier day.
func daysBetween(from, to time.Time) int {
	a := startOfDay(from)
	b := startOfDay(to.In(from.Location()))
	return int(math.Round(b.Sub(a).Hours() / 24))
}

func notAfter(t, limit time.Time) time.Time {
	if t.After(limit) {
		return limit
	}
	return t
}

func dayCount(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}
