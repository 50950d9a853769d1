// Package services contains the application services of the LeadKeeper
// client. They combine the state stores with the external collaborators
// and are what the CLI calls.
package services

import (
	"context"

	"github.com/dmitrijs2005/leadkeeper/internal/client/models"
)

// CreditLedger is the part of the Session Store the services spend from.
// *session.Store implements it.
type CreditLedger interface {
	State() models.SessionState
	DeductCredit(ctx context.Context) (bool, error)
	AddCredits(ctx context.Context, amount int) error
	UpdateSubscription(ctx context.Context, sub models.Subscription) error
}
