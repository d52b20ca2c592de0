package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/c9s/chartdesk/pkg/chart"
	"github.com/c9s/chartdesk/pkg/session"
	"github.com/c9s/chartdesk/pkg/style"
	"github.com/c9s/chartdesk/pkg/types"
)

func init() {
	AnnotationsCmd.AddCommand(AnnotationsListCmd, AnnotationsRemoveCmd, AnnotationsClearCmd)
	RootCmd.AddCommand(AnnotationsCmd)
}

var AnnotationsCmd = &cobra.Command{
	Use:     "annotations",
	Aliases: []string{"annotation"},
	Short:   "inspect and remove the saved annotations of a symbol",
}

// go run ./cmd/chartdesk annotations list AAPL
var AnnotationsListCmd = &cobra.Command{
	Use:   "list SYMBOL",
	Short: "list the annotations of a symbol",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(context.Background(), args[0], func(sess *session.Session) error {
			annotations := sess.Store().List()
			if len(annotations) == 0 {
				fmt.Printf("%s has no annotations\n", sess.Symbol())
				return nil
			}

			tw := table.NewWriter()
			tw.SetOutputMirror(os.Stdout)
			tw.SetStyle(*style.NewDefaultTableStyle())
			tw.SetTitle("%s annotations", sess.Symbol())
			tw.AppendHeader(table.Row{"ID", "Type", "Time", "Value", "Text"})
			for _, a := range annotations {
				tw.AppendRow(annotationRow(a))
			}
			tw.Render()
			return nil
		})
	},
}

func annotationRow(a types.Annotation) table.Row {
	if a.Type == types.AnnotationPercentage {
		return table.Row{
			a.ID, a.Type,
			a.StartTime + " -> " + a.EndTime,
			style.ChangeColor(a.Percentage).Sprint(chart.FormatChange(a.Percentage)),
			"",
		}
	}

	return table.Row{a.ID, a.Type, a.Time, chart.FormatValue(a.Price, a.Unit), a.Text}
}

var AnnotationsRemoveCmd = &cobra.Command{
	Use:   "remove SYMBOL ID...",
	Short: "remove annotations by id",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(context.Background(), args[0], func(sess *session.Session) error {
			for _, id := range args[1:] {
				if err := sess.Store().Remove(id); err != nil {
					return err
				}
				color.Green("removed %s", id)
			}
			return nil
		})
	},
}

var AnnotationsClearCmd = &cobra.Command{
	Use:   "clear SYMBOL",
	Short: "remove every annotation of a symbol",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(context.Background(), args[0], func(sess *session.Session) error {
			n := len(sess.Store().List())
			sess.Store().RemoveAll()
			color.Green("removed %d annotations from %s", n, sess.Symbol())
			return nil
		})
	},
}
