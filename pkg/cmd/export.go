package cmd

import (
	"context"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/c9s/chartdesk/pkg/chart"
	"github.com/c9s/chartdesk/pkg/cmd/cmdutil"
	"github.com/c9s/chartdesk/pkg/types"
	"github.com/c9s/chartdesk/pkg/util"
)

func init() {
	exportFlags(ExportCmd, "png")
	ExportCmd.Flags().String("unit", "", "display unit: price or percentage")
	RootCmd.AddCommand(ExportCmd)
}

// go run ./cmd/chartdesk export AAPL --timeframe 1Y --format svg
var ExportCmd = &cobra.Command{
	Use:   "export SYMBOL",
	Short: "export the annotated chart of a symbol",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		formatName, err := cmd.Flags().GetString("format")
		if err != nil {
			return err
		}

		format, err := chart.ParseFormat(formatName)
		if err != nil {
			return err
		}

		r, err := parseRange(cmd)
		if err != nil {
			return err
		}

		timeframe, err := cmd.Flags().GetString("timeframe")
		if err != nil {
			return err
		}

		unit, err := cmd.Flags().GetString("unit")
		if err != nil {
			return err
		}

		env, err := cmdutil.NewEnvironment(ctx, userConfig)
		if err != nil {
			return err
		}

		defer func() {
			util.LogErr(env.Close(), "can not close the environment")
		}()

		sess, err := env.Sessions.Get(ctx, args[0])
		if err != nil {
			return err
		}

		switch {
		case r != nil:
			err = sess.SetRange(ctx, *r)
		case timeframe != "":
			err = sess.SetTimeframe(ctx, types.Timeframe(timeframe))
		}
		if err != nil {
			return err
		}

		if unit != "" {
			if err := sess.SetDisplayUnit(types.DisplayUnit(unit)); err != nil {
				return err
			}
		}

		if sess.Series().Empty() {
			log.Warnf("no data for %s, exporting an empty chart", sess.Symbol())
		}

		data, err := sess.Export(format)
		if err != nil {
			return errors.Wrapf(err, "can not export %s", sess.Symbol())
		}

		return deliver(ctx, cmd, env, sess.Symbol(), format, data)
	},
}
