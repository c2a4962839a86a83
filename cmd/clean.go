package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// newCleanCmd wipes all server-side data. The wipe is global, not scoped to
// the active session, so it always asks unless --yes is given.
func newCleanCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Wipe ALL conversations and uploads on the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				fmt.Print("This wipes every conversation and upload on the server. Continue? [y/N] ")
				line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
				if strings.TrimSpace(strings.ToLower(line)) != "y" {
					fmt.Println("aborted")
					return nil
				}
			}

			c, err := buildCore()
			if err != nil {
				return err
			}
			defer c.log.Sync() //nolint:errcheck

			if err := c.client.Clean(context.Background(), c.ids.CurrentID()); err != nil {
				return err
			}
			// Start over on a fresh session; the old id points at wiped data.
			id, err := c.ids.CreateNew()
			if err != nil {
				return err
			}
			fmt.Println("server wiped; new session", id)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}
