package cli

import (
	"context"
	"errors"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/leadkeeper/internal/client/models"
	"github.com/dmitrijs2005/leadkeeper/internal/common"
)

const dateLayout = "2006-01-02"

// table renders rows through a tabwriter while holding the output lock.
func (a *App) table(render func(w io.Writer)) {
	a.outMu.Lock()
	defer a.outMu.Unlock()
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	render(tw)
	_ = tw.Flush()
}

// Search prompts for the filters and runs a paid lead search.
func (a *App) Search(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}

	var q models.SearchQuery
	fields := []struct {
		prompt string
		dst    *string
	}{
		{"Company", &q.Company},
		{"Job title", &q.Title},
		{"Location", &q.Location},
		{"Industry", &q.Industry},
		{"Company size", &q.CompanySize},
	}
	for _, f := range fields {
		v, err := getOptionalText(a.reader, f.prompt, a.out)
		if err != nil {
			return err
		}
		*f.dst = v
	}

	a.println("Searching...")
	results, err := a.leadSvc.Search(ctx, q)
	if err != nil {
		return err
	}

	a.printf("Found %d leads (1 credit used, %d left)\n", len(results), a.auth.State().Credits)
	a.printLeads(results)
	return nil
}

// Results shows the leads of the last search.
func (a *App) Results(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	list := a.leads.Leads()
	if len(list) == 0 {
		a.println("No results yet, run 'search' first")
		return nil
	}
	a.printLeads(list)
	return nil
}

func (a *App) printLeads(list []models.Lead) {
	a.table(func(w io.Writer) {
		a.printer.Fprintf(w, "#\tNAME\tTITLE\tCOMPANY\tEMAIL\tLOCATION\tSAVED\n")
		for i, l := range list {
			saved := ""
			if a.leads.IsSaved(l.Email) {
				saved = "yes"
			}
			a.printer.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n", i+1, l.Name, l.Title, l.Company, l.Email, l.Location, saved)
		}
	})
}

// Save stores result number n (1-based) in the contact book for one credit.
func (a *App) Save(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("save <n>")
	}
	if err := a.requireLogin(); err != nil {
		return err
	}

	list := a.leads.Leads()
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 || n > len(list) {
		return usageError("save <n>, where n is a result number from 1 to " + strconv.Itoa(len(list)))
	}
	lead := list[n-1]

	if err := a.leadSvc.SaveContact(ctx, lead); err != nil {
		if errors.Is(err, common.ErrAlreadySaved) {
			a.printf("%s is already in your contacts\n", lead.Email)
			return nil
		}
		return err
	}

	a.printf("Saved %s (%d credits left)\n", lead.Name, a.auth.State().Credits)
	return nil
}

// Contacts lists saved contacts, optionally filtered by name, email or company.
func (a *App) Contacts(ctx context.Context, args []string) error {
	if err := a.requireLogin(); err != nil {
		return err
	}

	list := a.leads.FilterContacts(strings.Join(args, " "))
	if len(list) == 0 {
		a.println("No saved contacts")
		return nil
	}

	a.table(func(w io.Writer) {
		a.printer.Fprintf(w, "ID\tNAME\tTITLE\tCOMPANY\tEMAIL\tPHONE\tSAVED\n")
		for _, c := range list {
			a.printer.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n", c.ID, c.Name, c.Title, c.Company, c.Email, c.Phone, c.SavedAt.Format(dateLayout))
		}
	})
	return nil
}

// Remove deletes a saved contact by lead id. Credits are not returned.
func (a *App) Remove(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("remove <id>")
	}
	if err := a.requireLogin(); err != nil {
		return err
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return usageError("remove <id>")
	}

	before := len(a.leads.SavedContacts())
	a.leads.RemoveContact(id)
	if len(a.leads.SavedContacts()) == before {
		a.printf("No saved contact with id %d\n", id)
		return nil
	}
	a.printf("Removed contact %d\n", id)
	return nil
}

// History lists the recent searches, newest first.
func (a *App) History(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	list := a.leads.SearchHistory()
	if len(list) == 0 {
		a.println("No searches yet")
		return nil
	}

	a.table(func(w io.Writer) {
		a.printer.Fprintf(w, "WHEN\tCOMPANY\tTITLE\tLOCATION\tINDUSTRY\tSIZE\n")
		for _, h := range list {
			a.printer.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				h.Timestamp.Local().Format("2006-01-02 15:04"), h.Company, h.Title, h.Location, h.Industry, h.CompanySize)
		}
	})
	return nil
}

// Enrich looks up verification and social data for an email. It is free.
func (a *App) Enrich(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("enrich <email>")
	}

	e, err := a.leadSvc.Enrich(ctx, args[0])
	if err != nil {
		return err
	}

	verified := "no"
	if e.Verified {
		verified = "yes"
	}
	a.printf("Email:       %s\n", e.Email)
	a.printf("Verified:    %s\n", verified)
	a.printf("LinkedIn:    %s\n", e.SocialProfiles.LinkedIn)
	a.printf("Twitter:     %s\n", e.SocialProfiles.Twitter)
	a.printf("Last active: %s\n", e.LastActive.Format(dateLayout))
	return nil
}

// describeQuery renders the non-empty filters of q, or "all leads".
func describeQuery(q models.SearchQuery) string {
	var parts []string
	for _, f := range []struct{ label, v string }{
		{"company", q.Company},
		{"title", q.Title},
		{"location", q.Location},
		{"industry", q.Industry},
		{"size", q.CompanySize},
	} {
		if f.v != "" {
			parts = append(parts, f.label+"="+f.v)
		}
	}
	if len(parts) == 0 {
		return "all leads"
	}
	return strings.Join(parts, ", ")
}
