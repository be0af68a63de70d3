package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/iudanet/drawboard/pkg/api"
)

func (c *Cli) runCreate(ctx context.Context, args []string) error {
	name := strings.TrimSpace(strings.Join(args, " "))
	if name == "" {
		var err error
		name, err = c.io.ReadInput("Board name: ")
		if err != nil {
			return fmt.Errorf("failed to read board name: %w", err)
		}
	}

	if _, err := c.authService.EnsureAuthenticated(ctx); err != nil {
		return err
	}

	doc, err := c.apiClient.CreateDocument(ctx, api.CreateDocumentRequest{Name: name})
	if err != nil {
		return err
	}

	c.io.Println("✓ Board created!")
	c.io.Printf("ID:   %s\n", doc.ID)
	c.io.Printf("Name: %s\n", doc.Name)
	c.io.Println()
	c.io.Printf("Run 'drawboard watch %s' to open it.\n", doc.ID)

	return nil
}
