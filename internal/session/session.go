// Package session keeps the per-browser state of a storefront visit: the cart lines, the
// checkout wizard and the pending hosted-gateway attempt.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/google/uuid"
)

var ErrSessionNotFound = errors.New("session not found")

// Session is the state of one visit. RowsReconciledFor names the signed-in user whose saved
// cart rows have already been merged in.
type Session struct {
	ID                string                 `json:"id"`
	Lines             []domain.CartLine      `json:"lines"`
	TokenReconciled   bool                   `json:"token_reconciled"`
	RowsReconciledFor string                 `json:"rows_reconciled_for,omitempty"`
	Wizard            domain.WizardState     `json:"wizard"`
	Attempt           *domain.PaymentAttempt `json:"attempt,omitempty"`
	UpdatedAt         time.Time              `json:"updated_at"`
}

func New(id string) *Session {
	if id == "" {
		id = NewID()
	}
	return &Session{ID: id, Wizard: domain.NewWizardState()}
}

func NewID() string {
	return uuid.NewString()
}

// DropPendingOrder forgets the order written in this checkout, and its gateway attempt,
// once that order no longer matches the cart or address. The order itself stays pending.
// It reports whether anything was dropped.
func (s *Session) DropPendingOrder() bool {
	if s.Wizard.Completed || s.Wizard.OrderID == "" {
		return false
	}
	s.Wizard.OrderID = ""
	s.Attempt = nil
	return true
}

// ResetWizard starts a fresh checkout, dropping any previous order id and attempt.
func (s *Session) ResetWizard() {
	s.Wizard = domain.NewWizardState()
	s.Attempt = nil
}

type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
}
