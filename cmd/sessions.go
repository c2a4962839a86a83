package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/docchat-ai/docchat/internal/sidebar"
)

// newSessionsCmd lists the server's session directory; with --delete it
// removes a session instead.
func newSessionsCmd() *cobra.Command {
	var deleteID string

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List or delete conversations on the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := buildCore()
			if err != nil {
				return err
			}
			defer c.log.Sync() //nolint:errcheck
			ctx := context.Background()

			if deleteID != "" {
				if err := c.client.DeleteSession(ctx, deleteID); err != nil {
					return err
				}
				if _, changed, err := c.ctrl.SessionDeleted(deleteID); err != nil {
					return err
				} else if changed {
					fmt.Printf("deleted %s; next run starts a fresh conversation\n", deleteID)
				} else {
					fmt.Printf("deleted %s\n", deleteID)
				}
				return nil
			}

			sessions, err := c.client.ListSessions(ctx)
			if err != nil {
				return err
			}
			for _, it := range sidebar.Derive(sessions, c.ids.CurrentID()) {
				mark := " "
				if it.Active {
					mark = "*"
				}
				fmt.Printf("%s %s  %s\n", mark, it.ID, it.Title)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&deleteID, "delete", "", "delete the session with this id")
	return cmd
}
