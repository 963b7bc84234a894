package cli

import (
	"fmt"

	"github.com/UkralStul/threaducate/internal/seed"

	"github.com/spf13/cobra"
)

func (a *app) seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Fill an empty storage with demo threads and lists",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := a.openStorage(ctx, false)
			if err != nil {
				return err
			}
			defer store.Close()

			res, err := seed.Fill(ctx, store, a.log)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d profiles, %d posts, %d comments, %d lists\n",
				res.Profiles, res.Posts, res.Comments, res.Lists)
			return nil
		},
	}
}
