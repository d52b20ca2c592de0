package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/c9s/chartdesk/pkg/blob/s3blob"
	"github.com/c9s/chartdesk/pkg/chart"
	"github.com/c9s/chartdesk/pkg/cmd/cmdutil"
	"github.com/c9s/chartdesk/pkg/types"
)

func exportFlags(cmd *cobra.Command, defaultFormat string) {
	cmd.Flags().String("timeframe", "", "timeframe of the series: 1D, 5D, 1M, 3M, 6M, 1Y, 5Y, MAX")
	cmd.Flags().String("from", "", "custom range start date, e.g. 2024-01-01")
	cmd.Flags().String("to", "", "custom range end date, e.g. 2024-06-30")
	cmd.Flags().String("format", defaultFormat, "output format: png, svg, html, pdf or csv")
	cmd.Flags().StringP("output", "o", "", "output file, - for stdout")
	cmd.Flags().Bool("upload", false, "upload the export to the configured s3 bucket")
}

// parseRange reads the --from/--to flags. Both or neither must be given.
func parseRange(cmd *cobra.Command) (*types.DateRange, error) {
	from, err := cmd.Flags().GetString("from")
	if err != nil {
		return nil, err
	}

	to, err := cmd.Flags().GetString("to")
	if err != nil {
		return nil, err
	}

	if from == "" && to == "" {
		return nil, nil
	}

	if from == "" || to == "" {
		return nil, errors.New("--from and --to must be given together")
	}

	fromTime, err := time.Parse(types.DateLayout, from)
	if err != nil {
		return nil, errors.Wrap(err, "--from")
	}

	toTime, err := time.Parse(types.DateLayout, to)
	if err != nil {
		return nil, errors.Wrap(err, "--to")
	}

	return &types.DateRange{From: fromTime, To: toTime}, nil
}

// deliver writes the export to --output, or uploads it when --upload is set.
func deliver(ctx context.Context, cmd *cobra.Command, env *cmdutil.Environment, name string, format chart.Format, data []byte) error {
	upload, err := cmd.Flags().GetBool("upload")
	if err != nil {
		return err
	}

	if upload {
		if env.Uploader == nil {
			return errors.New("upload.s3 is not configured")
		}

		key := s3blob.ObjectKey(name, time.Now(), format.Extension())
		if err := env.Uploader.Put(ctx, key, bytes.NewReader(data), format.ContentType()); err != nil {
			return err
		}

		color.Green("uploaded s3://%s/%s (%d bytes)", env.Uploader.Bucket(), key, len(data))
		return nil
	}

	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	if output == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}

	if output == "" {
		output = name + format.Extension()
	}

	if err := os.WriteFile(output, data, 0644); err != nil {
		return err
	}

	fmt.Printf("wrote %s (%d bytes)\n", output, len(data))
	return nil
}
