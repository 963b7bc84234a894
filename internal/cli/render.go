package cli

import (
	"github.com/UkralStul/threaducate/internal/events"
	"github.com/UkralStul/threaducate/internal/render"
	"github.com/UkralStul/threaducate/internal/service"

	"github.com/spf13/cobra"
)

func (a *app) renderCmd() *cobra.Command {
	var (
		session string
		plain   bool
		width   int
		style   string
	)

	cmd := &cobra.Command{
		Use:   "render <post-id>",
		Short: "Print a thread with its comment tree",
		Long: `Print a thread post and its visible comments.

With --session the branches collapsed in that session stay hidden and the
reply target is marked.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := a.openStorage(ctx, true)
			if err != nil {
				return err
			}
			defer store.Close()

			svc := service.New(store, events.NewCommentObserver(), a.log)
			thread, rows, err := svc.RenderThread(ctx, args[0], session)
			if err != nil {
				return err
			}

			r, err := render.New(cmd.OutOrStdout(), render.Options{
				Width:    width,
				Markdown: !plain,
				Style:    style,
			})
			if err != nil {
				return err
			}
			return r.Thread(thread.Post, rows)
		},
	}
	cmd.Flags().StringVarP(&session, "session", "s", "", "presentation session id")
	cmd.Flags().BoolVar(&plain, "plain", false, "print bodies without markdown rendering")
	cmd.Flags().IntVarP(&width, "width", "w", 80, "wrap width")
	cmd.Flags().StringVar(&style, "style", "auto", "glamour style (auto, dark, light, notty)")
	return cmd
}
