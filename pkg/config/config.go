package config

import (
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"github.com/c9s/chartdesk/pkg/blob/s3blob"
	"github.com/c9s/chartdesk/pkg/chart"
	"github.com/c9s/chartdesk/pkg/coord"
	"github.com/c9s/chartdesk/pkg/datasource"
	"github.com/c9s/chartdesk/pkg/interact"
	"github.com/c9s/chartdesk/pkg/service"
	"github.com/c9s/chartdesk/pkg/types"
)

type ZoomConfig struct {
	Multipliers []float64 `json:"multipliers,omitempty" yaml:"multipliers,omitempty"`
}

func (c ZoomConfig) Ladder() (*coord.ZoomLadder, error) {
	if len(c.Multipliers) == 0 {
		return coord.DefaultZoomLadder(), nil
	}
	return coord.NewZoomLadder(c.Multipliers)
}

type AutoSaveConfig struct {
	QuietPeriod time.Duration `json:"quietPeriod" yaml:"quietPeriod"`
	Retries     uint64        `json:"retries" yaml:"retries"`
}

type DatasourceConfig struct {
	Directory        string          `json:"directory" yaml:"directory" env:"CHARTDESK_DATA_DIR"`
	DefaultTimeframe types.Timeframe `json:"defaultTimeframe" yaml:"defaultTimeframe"`
	CacheExpiry      time.Duration   `json:"cacheExpiry" yaml:"cacheExpiry"`
	Retries          uint64          `json:"retries" yaml:"retries"`

	// RefreshSchedule is a cron spec that drops the fetch cache, e.g. "30 21 * * 1-5"
	RefreshSchedule string `json:"refreshSchedule,omitempty" yaml:"refreshSchedule,omitempty"`
}

type UploadConfig struct {
	S3 *s3blob.Config `json:"s3,omitempty" yaml:"s3,omitempty"`
}

type ServerConfig struct {
	Bind         string      `json:"bind" yaml:"bind" env:"CHARTDESK_BIND"`
	AllowOrigins StringSlice `json:"allowOrigins,omitempty" yaml:"allowOrigins,omitempty"`
}

type Config struct {
	Export      chart.Layout              `json:"export" yaml:"export"`
	Interaction interact.Tolerances       `json:"interaction" yaml:"interaction"`
	Zoom        ZoomConfig                `json:"zoom" yaml:"zoom"`
	AutoSave    AutoSaveConfig            `json:"autosave" yaml:"autosave"`
	Persistence service.PersistenceConfig `json:"persistence" yaml:"persistence"`
	Datasource  DatasourceConfig          `json:"datasource" yaml:"datasource"`
	Upload      UploadConfig              `json:"upload" yaml:"upload"`
	Server      ServerConfig              `json:"server" yaml:"server"`
}

func Default() *Config {
	return &Config{
		Export:      chart.DefaultLayout(),
		Interaction: interact.DefaultTolerances(),
		Zoom:        ZoomConfig{Multipliers: coord.DefaultZoomMultipliers},
		AutoSave: AutoSaveConfig{
			QuietPeriod: 750 * time.Millisecond,
			Retries:     3,
		},
		Persistence: service.PersistenceConfig{Type: service.PersistenceTypeMemory},
		Datasource: DatasourceConfig{
			Directory:        "data",
			DefaultTimeframe: types.Timeframe1Y,
			CacheExpiry:      datasource.DefaultCacheExpiry,
		},
		Server: ServerConfig{Bind: ":8080"},
	}
}

func (c *Config) Validate() error {
	if err := c.Export.Validate(); err != nil {
		return errors.Wrap(err, "export")
	}

	if _, err := c.Zoom.Ladder(); err != nil {
		return errors.Wrap(err, "zoom")
	}

	if c.AutoSave.QuietPeriod < 0 {
		return errors.Errorf("autosave: negative quiet period %s", c.AutoSave.QuietPeriod)
	}

	if tf := c.Datasource.DefaultTimeframe; !tf.Valid() || tf == types.TimeframeCustom {
		return errors.Errorf("datasource: invalid default timeframe %q", tf)
	}

	if spec := c.Datasource.RefreshSchedule; spec != "" {
		if _, err := cron.ParseStandard(spec); err != nil {
			return errors.Wrapf(err, "datasource: invalid refresh schedule %q", spec)
		}
	}

	switch c.Persistence.Type {
	case service.PersistenceTypeJson, service.PersistenceTypeRedis, service.PersistenceTypeMemory, "":
	default:
		return errors.Wrapf(service.ErrUnknownPersistence, "%q", c.Persistence.Type)
	}

	if c.Upload.S3 != nil {
		if err := c.Upload.S3.Validate(); err != nil {
			return errors.Wrap(err, "upload.s3")
		}
	}

	return nil
}
