// Package leadapi is the client side of the lead-data API: company search
// and contact enrichment.
package leadapi

import (
	"context"

	"github.com/dmitrijs2005/leadkeeper/internal/client/models"
)

// Service is the lead-data API.
type Service interface {
	SearchLeads(ctx context.Context, query models.SearchQuery) ([]models.Lead, error)
	EnrichContact(ctx context.Context, email string) (*models.Enrichment, error)
}
