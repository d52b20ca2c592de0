package cmdutil

import (
	"context"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
	"go.uber.org/multierr"

	"github.com/c9s/chartdesk/pkg/blob/s3blob"
	"github.com/c9s/chartdesk/pkg/config"
	"github.com/c9s/chartdesk/pkg/datasource"
	"github.com/c9s/chartdesk/pkg/datasource/csvsource"
	"github.com/c9s/chartdesk/pkg/service"
	"github.com/c9s/chartdesk/pkg/session"
)

// Environment holds the services built from the config file.
type Environment struct {
	Config *config.Config

	Fetcher     *datasource.CachedFetcher
	Persistence *service.PersistenceServiceFacade
	Sessions    *session.Manager

	// Uploader is nil unless upload.s3 is configured
	Uploader *s3blob.Client

	cron *cron.Cron
}

func NewEnvironment(ctx context.Context, cfg *config.Config) (*Environment, error) {
	ladder, err := cfg.Zoom.Ladder()
	if err != nil {
		return nil, err
	}

	source := csvsource.NewDirectoryFetcher(cfg.Datasource.Directory)
	fetcher := datasource.NewCachedFetcher(source,
		datasource.WithExpiry(cfg.Datasource.CacheExpiry),
		datasource.WithRetry(cfg.Datasource.Retries),
		datasource.WithSourceName("csv"),
	)

	persistence, err := service.NewPersistenceServiceFacade(cfg.Persistence)
	if err != nil {
		return nil, err
	}

	log.Infof("using %s persistence", persistence.Type())

	if persistence.Redis != nil {
		if err := persistence.Redis.Ping(ctx); err != nil {
			return nil, errors.Wrap(err, "redis persistence is not reachable")
		}
	}

	env := &Environment{
		Config:      cfg,
		Fetcher:     fetcher,
		Persistence: persistence,
		Sessions: session.NewManager(fetcher, persistence.Get(),
			session.WithZoomLadder(ladder),
			session.WithLayout(cfg.Export),
			session.WithTolerances(cfg.Interaction),
			session.WithQuietPeriod(cfg.AutoSave.QuietPeriod),
			session.WithSaveRetries(cfg.AutoSave.Retries),
			session.WithDefaultTimeframe(cfg.Datasource.DefaultTimeframe),
		),
	}

	if cfg.Upload.S3 != nil {
		uploader, err := s3blob.New(ctx, *cfg.Upload.S3)
		if err != nil {
			return nil, errors.Wrap(err, "can not create the s3 uploader")
		}

		log.Infof("export uploads go to s3 bucket %s", uploader.Bucket())
		env.Uploader = uploader
	}

	return env, nil
}

// ScheduleRefresh drops the fetch cache on datasource.refreshSchedule so
// long-running servers pick up updated csv files.
func (e *Environment) ScheduleRefresh() error {
	spec := e.Config.Datasource.RefreshSchedule
	if spec == "" {
		return nil
	}

	e.cron = cron.New()
	if _, err := e.cron.AddFunc(spec, func() {
		log.Infof("refreshing the series cache")
		e.Fetcher.Invalidate()
	}); err != nil {
		return errors.Wrapf(err, "invalid refresh schedule %q", spec)
	}

	e.cron.Start()
	return nil
}

// Close flushes every open session and releases the persistence backend.
func (e *Environment) Close() error {
	if e.cron != nil {
		e.cron.Stop()
	}

	var err error
	err = multierr.Append(err, e.Sessions.Close())
	if e.Persistence.Redis != nil {
		err = multierr.Append(err, e.Persistence.Redis.Close())
	}
	return err
}
