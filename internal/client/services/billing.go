package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/leadkeeper/internal/client/billing"
	"github.com/dmitrijs2005/leadkeeper/internal/client/models"
	"github.com/dmitrijs2005/leadkeeper/internal/client/payment"
	"github.com/dmitrijs2005/leadkeeper/internal/common"
	"github.com/dmitrijs2005/leadkeeper/internal/logging"
)

// billingPeriod is how far ahead a plan change moves the next billing date.
const billingPeriod = 30 * 24 * time.Hour

// ErrPaymentDeclined is returned when the processor rejects a charge.
var ErrPaymentDeclined = errors.New("payment declined")

// PaymentProcessor is the payment backend used for purchases.
// *payment.MockService implements it.
type PaymentProcessor interface {
	CreatePaymentIntent(ctx context.Context, amount int, currency string) (*models.PaymentIntent, error)
	Charge(ctx context.Context, amount int, description string) (*models.PaymentResult, error)
}

type transactionLister interface {
	Transactions() []payment.Transaction
}

// BillingService sells credit packages and changes subscription plans.
type BillingService interface {
	Plans() []models.PlanInfo
	Packages() []models.CreditPackage
	PurchaseCredits(ctx context.Context, packageID string) (*models.PaymentResult, models.CreditPackage, error)
	ChangePlan(ctx context.Context, planID string) (models.Subscription, error)
	Transactions() []payment.Transaction
}

type billingService struct {
	ledger   CreditLedger
	catalog  *billing.Catalog
	payments PaymentProcessor
	now      func() time.Time
	log      logging.Logger
}

// NewBillingService constructs a BillingService charging through payments
// and crediting ledger.
func NewBillingService(ledger CreditLedger, catalog *billing.Catalog, payments PaymentProcessor, log logging.Logger) BillingService {
	return &billingService{
		ledger:   ledger,
		catalog:  catalog,
		payments: payments,
		now:      time.Now,
		log:      log,
	}
}

// Plans returns the catalog plans.
func (s *billingService) Plans() []models.PlanInfo {
	return append([]models.PlanInfo(nil), s.catalog.Plans...)
}

// Packages returns the catalog credit packages.
func (s *billingService) Packages() []models.CreditPackage {
	return append([]models.CreditPackage(nil), s.catalog.Packages...)
}

func (s *billingService) pay(ctx context.Context, amount int, description string) (*models.PaymentResult, error) {
	if _, err := s.payments.CreatePaymentIntent(ctx, amount, payment.DefaultCurrency); err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}
	res, err := s.payments.Charge(ctx, amount, description)
	if err != nil {
		return nil, fmt.Errorf("process payment: %w", err)
	}
	if !res.Success {
		return nil, ErrPaymentDeclined
	}
	return res, nil
}

// PurchaseCredits charges the package price and then adds its credits.
func (s *billingService) PurchaseCredits(ctx context.Context, packageID string) (*models.PaymentResult, models.CreditPackage, error) {
	if !s.ledger.State().LoggedIn() {
		return nil, models.CreditPackage{}, common.ErrNotLoggedIn
	}

	pkg, err := s.catalog.Package(packageID)
	if err != nil {
		return nil, models.CreditPackage{}, err
	}

	res, err := s.pay(ctx, pkg.Price, fmt.Sprintf("Credit Top-up - %d credits", pkg.Credits))
	if err != nil {
		return nil, pkg, err
	}

	if err := s.ledger.AddCredits(context.WithoutCancel(ctx), pkg.Credits); err != nil {
		s.log.Error(ctx, "payment taken but credits not added", "txn", res.TransactionID, "error", err)
		return res, pkg, fmt.Errorf("add credits: %w", err)
	}

	s.log.Info(ctx, "credits purchased", "package", pkg.ID, "credits", pkg.Credits, "txn", res.TransactionID)
	return res, pkg, nil
}

// ChangePlan charges the plan price, if any, and activates the plan for the
// next billing period.
func (s *billingService) ChangePlan(ctx context.Context, planID string) (models.Subscription, error) {
	if !s.ledger.State().LoggedIn() {
		return models.Subscription{}, common.ErrNotLoggedIn
	}

	plan, err := s.catalog.Plan(planID)
	if err != nil {
		return models.Subscription{}, err
	}

	if plan.Price > 0 {
		if _, err := s.pay(ctx, plan.Price, fmt.Sprintf("%s Plan - Monthly", plan.Name)); err != nil {
			return models.Subscription{}, err
		}
	}

	next := s.now().Add(billingPeriod)
	sub := models.Subscription{Plan: plan.ID, Status: models.StatusActive, NextBillingDate: &next}
	if err := s.ledger.UpdateSubscription(context.WithoutCancel(ctx), sub); err != nil {
		return models.Subscription{}, fmt.Errorf("update subscription: %w", err)
	}

	s.log.Info(ctx, "plan changed", "plan", plan.ID)
	return sub, nil
}

// Transactions lists past payments when the processor keeps a history.
func (s *billingService) Transactions() []payment.Transaction {
	if l, ok := s.payments.(transactionLister); ok {
		return l.Transactions()
	}
	return nil
}
