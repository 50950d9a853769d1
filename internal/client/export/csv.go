// Package export writes search results and saved contacts as CSV files and
// optionally uploads them to S3-compatible object storage.
package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/dmitrijs2005/leadkeeper/internal/client/models"
	"github.com/dmitrijs2005/leadkeeper/internal/filex"
)

const (
	LeadsFileName    = "leads.csv"
	ContactsFileName = "contacts.csv"

	savedDateLayout = "2006-01-02"
)

// ErrNothingToExport is returned for an empty export.
var ErrNothingToExport = errors.New("nothing to export")

var (
	leadHeader    = []string{"Name", "Email", "Company", "Title", "Phone", "Location"}
	contactHeader = append(append([]string(nil), leadHeader...), "Saved Date")
)

func leadRecord(l models.Lead) []string {
	return []string{l.Name, l.Email, l.Company, l.Title, l.Phone, l.Location}
}

// WriteLeads writes leads as CSV to w.
func WriteLeads(w io.Writer, leads []models.Lead) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(leadHeader); err != nil {
		return err
	}
	for _, l := range leads {
		if err := cw.Write(leadRecord(l)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteContacts writes saved contacts as CSV to w, with the save date as an
// extra column.
func WriteContacts(w io.Writer, contacts []models.SavedContact) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(contactHeader); err != nil {
		return err
	}
	for _, c := range contacts {
		rec := append(leadRecord(c.Lead), c.SavedAt.Format(savedDateLayout))
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// LeadsCSV renders leads into memory. It returns ErrNothingToExport for an
// empty list.
func LeadsCSV(leads []models.Lead) ([]byte, error) {
	if len(leads) == 0 {
		return nil, ErrNothingToExport
	}
	var buf bytes.Buffer
	if err := WriteLeads(&buf, leads); err != nil {
		return nil, fmt.Errorf("write leads csv: %w", err)
	}
	return buf.Bytes(), nil
}

// ContactsCSV renders contacts with WriteContacts.
func ContactsCSV(contacts []models.SavedContact) ([]byte, error) {
	if len(contacts) == 0 {
		return nil, ErrNothingToExport
	}
	var buf bytes.Buffer
	if err := WriteContacts(&buf, contacts); err != nil {
		return nil, fmt.Errorf("write contacts csv: %w", err)
	}
	return buf.Bytes(), nil
}

// SaveFile writes data as name inside dir, creating dir if needed, and
// returns the absolute path of the file.
func SaveFile(dir, name string, data []byte) (string, error) {
	abs, err := filex.EnsureDir(dir)
	if err != nil {
		return "", err
	}
	path := filepath.Join(abs, name)
	if err := filex.WriteFileAtomic(path, data, 0o640); err != nil {
		return "", fmt.Errorf("save %s: %w", name, err)
	}
	return path, nil
}
