package main

import (
	"github.com/spf13/cobra"

	"github.com/xraph/howa/engine"
	"github.com/xraph/howa/task"
)

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var (
		theme     string
		audiences []string
	)

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Queue a sermon request and print its task ID",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := task.Request{Theme: theme, Audiences: audiences}
			return ctx.withEngine(func(eng *engine.Engine) error {
				receipt, err := eng.Submit(cmd.Context(), req)
				if err != nil {
					return err
				}
				return writeJSON(cmd, receipt)
			})
		},
	}

	cmd.Flags().StringVarP(&theme, "theme", "t", "", "Sermon theme")
	cmd.Flags().StringSliceVarP(&audiences, "audience", "a", nil, "Target audience (repeatable)")

	return cmd
}
