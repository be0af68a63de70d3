package cli

import (
	"context"
	"time"
)

func (c *Cli) runList(ctx context.Context) error {
	if _, err := c.authService.EnsureAuthenticated(ctx); err != nil {
		return err
	}

	resp, err := c.apiClient.ListDocuments(ctx)
	if err != nil {
		return err
	}

	if len(resp.Documents) == 0 {
		c.io.Println("No boards yet. Run 'drawboard create <name>' to create one.")
		return nil
	}

	c.io.Printf("%-36s  %-24s  %s\n", "ID", "NAME", "UPDATED")
	for _, doc := range resp.Documents {
		name := doc.Name
		if len(name) > 24 {
			name = name[:21] + "..."
		}
		c.io.Printf("%-36s  %-24s  %s\n", doc.ID, name, doc.UpdatedAt.Format(time.RFC3339))
	}

	return nil
}
