package cmd

import (
	"context"
	"strings"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/c9s/chartdesk/pkg/cmd/cmdutil"
	"github.com/c9s/chartdesk/pkg/server"
	"github.com/c9s/chartdesk/pkg/util"
)

func init() {
	ServeCmd.Flags().String("bind", "", "the address to listen on, overrides server.bind")
	RootCmd.AddCommand(ServeCmd)
}

// go run ./cmd/chartdesk serve --config chartdesk.yaml
var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "serve the chart session api",
	RunE: func(cmd *cobra.Command, args []string) error {
		bind, err := cmd.Flags().GetString("bind")
		if err != nil {
			return err
		}

		if bind == "" {
			bind = userConfig.Server.Bind
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		env, err := cmdutil.NewEnvironment(ctx, userConfig)
		if err != nil {
			return err
		}

		defer func() {
			util.LogErr(env.Close(), "can not close the environment")
		}()

		if err := env.ScheduleRefresh(); err != nil {
			return err
		}

		srv := &server.Server{
			Bind:         bind,
			AllowOrigins: userConfig.Server.AllowOrigins,
			Sessions:     env.Sessions,
		}

		if env.Uploader != nil {
			srv.Uploader = env.Uploader
		}

		go func() {
			cmdutil.WaitForSignal(ctx, syscall.SIGINT, syscall.SIGTERM)
			cancel()
		}()

		go server.PingUntil(ctx, localURL(bind), 5*time.Second, func() {
			log.Infof("chartdesk is ready at %s", localURL(bind))
		})

		return srv.Run(ctx)
	},
}

func localURL(bind string) string {
	if strings.HasPrefix(bind, ":") {
		return "http://127.0.0.1" + bind
	}
	return "http://" + bind
}
