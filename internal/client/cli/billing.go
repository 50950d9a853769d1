package cli

import (
	"context"
	"io"
	"strings"

	"github.com/dmitrijs2005/leadkeeper/internal/client/models"
)

// Credits prints the balance.
func (a *App) Credits(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	a.printf("You have %d credits. A search or a saved contact costs 1 credit.\n", a.auth.State().Credits)
	a.println("Type 'packages' to see top-up options.")
	return nil
}

// Packages lists the credit packages.
func (a *App) Packages(ctx context.Context) error {
	a.table(func(w io.Writer) {
		a.printer.Fprintf(w, "ID\tNAME\tCREDITS\tPRICE\tPER CREDIT\t\n")
		for _, p := range a.billing.Packages() {
			popular := ""
			if p.Popular {
				popular = "popular"
			}
			a.printer.Fprintf(w, "%s\t%s\t%d\t$%d\t$%.2f\t%s\n", p.ID, p.Name, p.Credits, p.Price, perCredit(p), popular)
		}
	})
	return nil
}

func perCredit(p models.CreditPackage) float64 {
	if p.Credits == 0 {
		return 0
	}
	return float64(p.Price) / float64(p.Credits)
}

// Buy purchases a credit package.
func (a *App) Buy(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("buy <package>")
	}
	if err := a.requireLogin(); err != nil {
		return err
	}

	a.println("Processing payment...")
	res, pkg, err := a.billing.PurchaseCredits(ctx, args[0])
	if err != nil {
		return err
	}

	a.printf("Payment %s succeeded: $%d for %d credits. Balance: %d\n",
		res.TransactionID, res.Amount, pkg.Credits, a.auth.State().Credits)
	return nil
}

// Plans lists the subscription plans.
func (a *App) Plans(ctx context.Context) error {
	var current models.Plan
	if st := a.auth.State(); st.Subscription != nil {
		current = st.Subscription.Plan
	}

	for _, p := range a.billing.Plans() {
		marker := ""
		switch {
		case p.ID == current:
			marker = " [current]"
		case p.Popular:
			marker = " [popular]"
		}
		a.printf("%s (%s): $%d/month, %d credits%s\n", p.Name, p.ID, p.Price, p.Credits, marker)
		if len(p.Features) > 0 {
			a.println("  + " + strings.Join(p.Features, "\n  + "))
		}
		if len(p.Limitations) > 0 {
			a.println("  - " + strings.Join(p.Limitations, "\n  - "))
		}
	}
	return nil
}

// Plan switches the subscription, charging the plan price when it has one.
func (a *App) Plan(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("plan <id>")
	}
	if err := a.requireLogin(); err != nil {
		return err
	}

	sub, err := a.billing.ChangePlan(ctx, args[0])
	if err != nil {
		return err
	}

	a.printf("You are now on the %s plan.", sub.Plan)
	if sub.NextBillingDate != nil {
		a.printf(" Next billing date: %s.", sub.NextBillingDate.Format(dateLayout))
	}
	a.println()
	return nil
}

// Transactions lists the payments made in this run.
func (a *App) Transactions(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	list := a.billing.Transactions()
	if len(list) == 0 {
		a.println("No transactions yet")
		return nil
	}

	a.table(func(w io.Writer) {
		a.printer.Fprintf(w, "ID\tDATE\tDESCRIPTION\tAMOUNT\n")
		for _, t := range list {
			a.printer.Fprintf(w, "%s\t%s\t%s\t$%d\n", t.ID, t.Date.Local().Format(dateLayout), t.Description, t.Amount)
		}
	})
	return nil
}
