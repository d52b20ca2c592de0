package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/c9s/chartdesk/pkg/chart"
	"github.com/c9s/chartdesk/pkg/cmd/cmdutil"
	"github.com/c9s/chartdesk/pkg/compare"
	"github.com/c9s/chartdesk/pkg/style"
	"github.com/c9s/chartdesk/pkg/types"
	"github.com/c9s/chartdesk/pkg/util"
)

func init() {
	exportFlags(CompareCmd, "table")
	CompareCmd.Flags().Int("rows", 20, "number of trailing rows printed by the table format, 0 prints all")
	RootCmd.AddCommand(CompareCmd)
}

// go run ./cmd/chartdesk compare AAPL MSFT GOOG --timeframe 6M
var CompareCmd = &cobra.Command{
	Use:   "compare SYMBOL...",
	Short: "compare the percentage change of up to five symbols",
	Args:  cobra.RangeArgs(1, compare.MaxSymbols),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		formatName, err := cmd.Flags().GetString("format")
		if err != nil {
			return err
		}

		r, err := parseRange(cmd)
		if err != nil {
			return err
		}

		timeframeName, err := cmd.Flags().GetString("timeframe")
		if err != nil {
			return err
		}

		timeframe := userConfig.Datasource.DefaultTimeframe
		if timeframeName != "" {
			timeframe = types.Timeframe(timeframeName)
		}
		if r != nil {
			timeframe = types.TimeframeCustom
		}

		env, err := cmdutil.NewEnvironment(ctx, userConfig)
		if err != nil {
			return err
		}

		defer func() {
			util.LogErr(env.Close(), "can not close the environment")
		}()

		cs, err := env.Sessions.CompareSession(ctx, args, timeframe, r)
		if err != nil {
			return err
		}

		comparison := cs.Comparison()

		if len(comparison.Missing) > 0 {
			color.Yellow("no data for %s", strings.Join(comparison.Missing, ", "))
		}

		if formatName == "table" {
			rows, err := cmd.Flags().GetInt("rows")
			if err != nil {
				return err
			}

			if comparison.Table.Empty() {
				color.Red("no overlapping dates to compare")
				return nil
			}

			printComparison(comparison.Table, rows)
			return nil
		}

		format, err := chart.ParseFormat(formatName)
		if err != nil {
			return err
		}

		data, err := cs.Export(format)
		if err != nil {
			return err
		}

		return deliver(ctx, cmd, env, strings.Join(comparison.Table.Symbols(), "-"), format, data)
	},
}

func printComparison(t *compare.Table, maxRows int) {
	symbols := t.Symbols()

	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.SetStyle(*style.NewDefaultTableStyle())
	tw.SetTitle("%s (%d dates)", strings.Join(symbols, " vs "), t.Len())

	header := table.Row{"Date"}
	var configs []table.ColumnConfig
	for i, symbol := range symbols {
		header = append(header, symbol)
		configs = append(configs, table.ColumnConfig{Number: i + 2, Align: text.AlignRight})
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	rows := t.Rows()
	if maxRows > 0 && len(rows) > maxRows {
		rows = rows[len(rows)-maxRows:]
	}

	for _, row := range rows {
		tableRow := table.Row{row.Label}
		for _, symbol := range symbols {
			v := row.Values[symbol]
			tableRow = append(tableRow, fmt.Sprintf("%s %s",
				v.Price.StringFixed(2),
				style.ChangeColor(v.Percentage).Sprint(style.ChangeSignString(v.Percentage))))
		}
		tw.AppendRow(tableRow)
	}

	footer := table.Row{"Change"}
	all := t.Rows()
	last := all[len(all)-1]
	for _, symbol := range symbols {
		p := last.Values[symbol].Percentage
		footer = append(footer, style.ChangeSignString(p)+" "+style.ChangeEmoji(p))
	}
	tw.AppendFooter(footer)

	tw.Render()
}
