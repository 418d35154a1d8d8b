package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/xraph/howa/engine"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status <task-id>",
		Short: "Show the state and result of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(func(eng *engine.Engine) error {
				view, err := eng.Status(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if asJSON || !isTerminal(cmd.OutOrStdout()) {
					return writeJSON(cmd, view)
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderStatus(view))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the status as JSON")

	return cmd
}

func renderStatus(view *engine.StatusView) string {
	rows := [][]string{
		{"Task", view.TaskID.String()},
		{"Status", string(view.Status)},
		{"Created", view.CreatedAt.Local().Format(time.DateTime)},
		{"Updated", view.UpdatedAt.Local().Format(time.DateTime)},
	}
	if view.Error != "" {
		rows = append(rows, []string{"Error", view.Error})
	}
	if r := view.Result; r != nil {
		rows = append(rows,
			[]string{"Title", r.Title},
			[]string{"Introduction", r.Introduction},
			[]string{"Problem", r.ProblemStatement},
			[]string{"Sutra", fmt.Sprintf("%s (%s)", r.SutraQuote.Text, r.SutraQuote.Source)},
			[]string{"Example", r.ModernExample},
			[]string{"Conclusion", r.Conclusion},
		)
	}
	return renderTable([]string{"Field", "Value"}, rows)
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
