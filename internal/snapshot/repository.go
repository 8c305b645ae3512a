// File: internal/snapshot/repository.go
package snapshot

import (
	"context"
	"fmt"
	"time"

	"crm_dashboard_backend/internal/domain"

	"gorm.io/gorm"
)

// Repository loads domain snapshots for the notification engine.
type Repository interface {
	LoadSnapshot(ctx context.Context) (*domain.Snapshot, error)
}

// GORMRepository implements the Repository interface using GORM.
type GORMRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGORMRepository creates a new GORM snapshot repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &GORMRepository{db: db, now: time.Now}
}

// LoadSnapshot reads the four domain tables in one read-only transaction so
// the collections are consistent with each other.
func (r *GORMRepository) LoadSnapshot(ctx context.Context) (*domain.Snapshot, error) {
	var (
		tasks     []TaskRecord
		renewals  []RenewalRecord
		customers []CustomerRecord
		partners  []PartnerRecord
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Order("id").Find(&tasks).Error; err != nil {
			return fmt.Errorf("loading tasks failed: %w", err)
		}
		if err := tx.Order("id").Find(&renewals).Error; err != nil {
			return fmt.Errorf("loading renewals failed: %w", err)
		}
		if err := tx.Order("id").Find(&customers).Error; err != nil {
			return fmt.Errorf("loading customers failed: %w", err)
		}
		if err := tx.Order("id").Find(&partners).Error; err != nil {
			return fmt.Errorf("loading partners failed: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load dashboard snapshot: %w", err)
	}

	snap := &domain.Snapshot{
		Tasks:     make([]domain.Task, 0, len(tasks)),
		Renewals:  make([]domain.Renewal, 0, len(renewals)),
		Customers: make([]domain.Customer, 0, len(customers)),
		Partners:  make([]domain.Partner, 0, len(partners)),
		LoadedAt:  r.now(),
	}
	for _, t := range tasks {
		snap.Tasks = append(snap.Tasks, t.ToDomain())
	}
	for _, rn := range renewals {
		snap.Renewals = append(snap.Renewals, rn.ToDomain())
	}
	for _, c := range customers {
		snap.Customers = append(snap.Customers, c.ToDomain())
	}
	for _, p := range partners {
		snap.Partners = append(snap.Partners, p.ToDomain())
	}
	return snap, nil
}
