package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/docchat-ai/docchat/internal/api"
)

// newUploadCmd attaches files to the active session from the command line.
func newUploadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file> [file…]",
		Short: "Attach documents to the active conversation",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := buildCore()
			if err != nil {
				return err
			}
			defer c.log.Sync() //nolint:errcheck
			ctx := context.Background()

			var files []api.File
			for _, p := range args {
				data, err := os.ReadFile(p)
				if err != nil {
					return err
				}
				files = append(files, api.File{Name: filepath.Base(p), Data: data})
			}

			if err := c.scope.Activate(ctx, c.ids.CurrentID()); err != nil {
				return err
			}
			res, err := c.scope.Upload(ctx, files)
			if err != nil {
				return err
			}

			for _, f := range res.ProcessedFiles {
				fmt.Println("processed:", f)
			}
			for _, e := range res.Errors {
				fmt.Fprintln(os.Stderr, "failed:", e)
			}
			if len(res.Errors) > 0 {
				return fmt.Errorf("%d file(s) rejected", len(res.Errors))
			}
			return nil
		},
	}
}
