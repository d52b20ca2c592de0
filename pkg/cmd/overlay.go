package cmd

import (
	"context"
	"os"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/c9s/chartdesk/pkg/cmd/cmdutil"
	"github.com/c9s/chartdesk/pkg/datasource/csvsource"
	"github.com/c9s/chartdesk/pkg/session"
	"github.com/c9s/chartdesk/pkg/types"
	"github.com/c9s/chartdesk/pkg/util"
)

func init() {
	OverlayApplyCmd.Flags().String("name", "", "overlay name, defaults to the file name")
	OverlayCmd.AddCommand(OverlayValidateCmd, OverlayApplyCmd, OverlayClearCmd)
	RootCmd.AddCommand(OverlayCmd)
}

var OverlayCmd = &cobra.Command{
	Use:   "overlay",
	Short: "manage the csv sentiment overlay of a symbol",
}

// go run ./cmd/chartdesk overlay validate sentiment.csv
var OverlayValidateCmd = &cobra.Command{
	Use:   "validate FILE",
	Short: "validate an overlay csv file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		overlay, err := readOverlay(args[0])
		if err != nil {
			return err
		}

		first, last := overlay.Points[0], overlay.Points[overlay.Len()-1]
		color.Green("%s: %d points from %s to %s", args[0], overlay.Len(),
			first.Date.Format(types.DateLayout), last.Date.Format(types.DateLayout))
		return nil
	},
}

var OverlayApplyCmd = &cobra.Command{
	Use:   "apply SYMBOL FILE",
	Short: "replace the overlay of a symbol with a csv file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		name, err := cmd.Flags().GetString("name")
		if err != nil {
			return err
		}
		if name == "" {
			name = args[1]
		}

		f, err := os.Open(args[1])
		if err != nil {
			return err
		}
		defer f.Close()

		return withSession(ctx, args[0], func(sess *session.Session) error {
			overlay, err := sess.ApplyOverlay(name, f)
			if err != nil {
				printOverlayErrors(err)
				return err
			}

			color.Green("applied %d overlay points to %s", overlay.Len(), sess.Symbol())
			return nil
		})
	},
}

var OverlayClearCmd = &cobra.Command{
	Use:   "clear SYMBOL",
	Short: "remove the overlay of a symbol",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		return withSession(ctx, args[0], func(sess *session.Session) error {
			sess.ClearOverlay()
			return nil
		})
	},
}

func readOverlay(file string) (types.Overlay, error) {
	f, err := os.Open(file)
	if err != nil {
		return types.Overlay{}, err
	}
	defer f.Close()

	overlay, err := csvsource.ParseOverlay(f)
	if err != nil {
		printOverlayErrors(err)
		return overlay, errors.Wrapf(err, "%s", file)
	}

	return overlay, nil
}

func printOverlayErrors(err error) {
	var overlayErr *csvsource.OverlayError
	if !errors.As(err, &overlayErr) {
		return
	}

	for _, rowErr := range overlayErr.Errors() {
		color.Red("  %s", rowErr.Error())
	}
}

// withSession builds the environment and closes it after fn, so pending
// session changes are flushed to the persistence backend.
func withSession(ctx context.Context, symbol string, fn func(sess *session.Session) error) error {
	env, err := cmdutil.NewEnvironment(ctx, userConfig)
	if err != nil {
		return err
	}

	defer func() {
		util.LogErr(env.Close(), "can not save the session of %s", symbol)
	}()

	sess, err := env.Sessions.Get(ctx, symbol)
	if err != nil {
		return err
	}

	return fn(sess)
}
