package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/leadkeeper/internal/client/models"
	"github.com/dmitrijs2005/leadkeeper/internal/common"
)

// getSimpleText, getOptionalText and getPassword are indirections used to
// facilitate testing. They point to interactive input helpers and can be
// swapped in tests.
var (
	getSimpleText   = GetSimpleText
	getOptionalText = GetOptionalText
	getPassword     = GetPassword
)

// readCredentials prompts for an email and a password. The caller owns the
// returned password and must wipe it.
func (a *App) readCredentials() (string, []byte, error) {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return "", nil, err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return "", nil, err
	}
	return email, password, nil
}

// Register prompts for email, password, name and company and creates the
// account. A fresh account starts on the free plan.
func (a *App) Register(ctx context.Context) error {
	if err := a.requireLogout(); err != nil {
		return err
	}
	email, password, err := a.readCredentials()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	name, err := getSimpleText(a.reader, "Enter your name", a.out)
	if err != nil {
		return err
	}
	company, err := getOptionalText(a.reader, "Enter company", a.out)
	if err != nil {
		return err
	}

	u, err := a.auth.Register(ctx, email, string(password), models.Profile{Name: name, Company: company})
	if err != nil {
		return err
	}
	a.claimLeads(u.ID)

	a.printf("Welcome, %s! You have %d free credits.\n", displayName(u), a.auth.State().Credits)
	return nil
}

// Login prompts for credentials and signs in.
func (a *App) Login(ctx context.Context) error {
	if err := a.requireLogout(); err != nil {
		return err
	}
	email, password, err := a.readCredentials()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	u, err := a.auth.Login(ctx, email, string(password))
	if err != nil {
		return err
	}
	a.claimLeads(u.ID)

	a.printf("Logged in as %s. Credits: %d\n", displayName(u), a.auth.State().Credits)
	return nil
}

// Logout ends the session. Local state is cleared even when the provider
// call fails; that failure is still reported.
func (a *App) Logout(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	err := a.auth.Logout(ctx)
	a.leads.Reset()
	a.leadsOwner = ""
	a.println("Logged out")
	return err
}

// Profile updates the display name and company of the signed-in user. An
// empty answer keeps the current value.
func (a *App) Profile(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	cur := a.auth.State().User

	name, err := getSimpleText(a.reader, fmt.Sprintf("Name [%s] (Enter to keep)", cur.Name), a.out)
	if err != nil {
		return err
	}
	company, err := getSimpleText(a.reader, fmt.Sprintf("Company [%s] (Enter to keep)", cur.Company), a.out)
	if err != nil {
		return err
	}

	p := models.Profile{Name: cur.Name, Company: cur.Company}
	if name != "" {
		p.Name = name
	}
	if company != "" {
		p.Company = company
	}

	u, err := a.auth.UpdateProfile(ctx, p)
	if err != nil {
		return err
	}
	if u.Company != "" {
		a.printf("Profile updated: %s (%s)\n", displayName(u), u.Company)
	} else {
		a.printf("Profile updated: %s\n", displayName(u))
	}
	return nil
}

// Status prints the account, plan, balance and connectivity.
func (a *App) Status(ctx context.Context) error {
	st := a.auth.State()
	if !st.LoggedIn() {
		a.println("Not logged in. Connectivity:", a.Mode())
		return nil
	}

	a.printf("User:    %s <%s>\n", displayName(st.User), st.User.Email)
	if st.User.Company != "" {
		a.printf("Company: %s\n", st.User.Company)
	}
	if sub := st.Subscription; sub != nil {
		a.printf("Plan:    %s (%s)\n", sub.Plan, sub.Status)
		if sub.NextBillingDate != nil {
			a.printf("Next billing: %s\n", sub.NextBillingDate.Format(dateLayout))
		}
	}
	a.printf("Credits: %d\n", st.Credits)
	a.printf("Mode:    %s\n", a.Mode())
	return nil
}

// getStatus renders the prompt decoration: user, plan, credits and mode.
func (a *App) getStatus() string {
	var parts []string
	st := a.auth.State()
	if st.LoggedIn() {
		parts = append(parts, st.User.Email)
		if st.Subscription != nil {
			parts = append(parts, string(st.Subscription.Plan))
		}
		parts = append(parts, fmt.Sprintf("%dcr", st.Credits))
	}
	if m := a.Mode(); m != "" {
		parts = append(parts, string(m))
	}
	if len(parts) == 0 {
		return ""
	}
	return " (" + strings.Join(parts, " ") + ")"
}

func displayName(u *models.User) string {
	if u == nil {
		return ""
	}
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}
