// Package store persists the consultation audit log.
package store

import (
	"context"
	"time"

	"github.com/taste-karachi/advisor-cli/internal/model"
)

// Filter narrows a consultation listing.
type Filter struct {
	Status       model.AdviceStatus `json:"status,omitempty"`
	Area         string             `json:"area,omitempty"`
	CreatedAfter time.Time          `json:"created_after,omitempty"`
	Limit        int                `json:"limit,omitempty"`
	Offset       int                `json:"offset,omitempty"`
}

// Store defines the persistence interface for consultation audit records.
type Store interface {
	SaveConsultation(ctx context.Context, c model.Consultation) error
	GetConsultation(ctx context.Context, id string) (*model.Consultation, error)
	ListConsultations(ctx context.Context, filter Filter) ([]model.Consultation, error)
	CountByStatus(ctx context.Context) (map[model.AdviceStatus]int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
