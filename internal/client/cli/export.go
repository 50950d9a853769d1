package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/leadkeeper/internal/client/export"
)

const exportUsage = "export leads|contacts [s3]"

// Export writes the current results or the saved contacts as CSV into the
// export directory and, with the s3 argument, also uploads the file.
func (a *App) Export(ctx context.Context, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return usageError(exportUsage)
	}
	upload := len(args) == 2
	if upload && args[1] != "s3" {
		return usageError(exportUsage)
	}
	if err := a.requireLogin(); err != nil {
		return err
	}
	if upload && a.uploader == nil {
		return export.ErrNoBucket
	}

	var (
		name string
		data []byte
		err  error
	)
	switch args[0] {
	case "leads":
		name = export.LeadsFileName
		data, err = export.LeadsCSV(a.leads.Leads())
	case "contacts":
		name = export.ContactsFileName
		data, err = export.ContactsCSV(a.leads.SavedContacts())
	default:
		return usageError(exportUsage)
	}
	if err != nil {
		return err
	}

	path, err := export.SaveFile(a.config.ExportDir, name, data)
	if err != nil {
		return err
	}
	a.println("Exported to", path)

	if !upload {
		return nil
	}

	key := a.uploader.ObjectKey(a.auth.State().User.ID, name)
	uri, err := a.uploader.Upload(ctx, key, data)
	if err != nil {
		return fmt.Errorf("upload export: %w", err)
	}
	a.println("Uploaded to", uri)
	return nil
}
