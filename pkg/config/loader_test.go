package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c9s/chartdesk/pkg/service"
	"github.com/c9s/chartdesk/pkg/types"
)

func TestLoadConfig(t *testing.T) {
	type args struct {
		configFile string
	}

	tests := []struct {
		name    string
		args    args
		wantErr bool
		f       func(t *testing.T, config *Config)
	}{
		{
			name:    "defaults",
			args:    args{configFile: ""},
			wantErr: false,
			f: func(t *testing.T, config *Config) {
				assert.Equal(t, 1760, config.Export.Width)
				assert.Equal(t, 750*time.Millisecond, config.AutoSave.QuietPeriod)
				assert.Equal(t, service.PersistenceTypeMemory, config.Persistence.Type)
				assert.Equal(t, types.Timeframe1Y, config.Datasource.DefaultTimeframe)
				assert.Nil(t, config.Upload.S3)
			},
		},
		{
			name:    "full",
			args:    args{configFile: "testdata/chartdesk.yaml"},
			wantErr: false,
			f: func(t *testing.T, config *Config) {
				assert.Equal(t, 1200, config.Export.Width)
				assert.Equal(t, 1100.0, config.Export.Content.Width)
				assert.Equal(t, 0.015, config.Interaction.PriceFraction)
				assert.Equal(t, 16.0, config.Interaction.LabelRadius)
				// untouched fields keep their defaults
				assert.Equal(t, 2, config.Interaction.MinIndex)

				ladder, err := config.Zoom.Ladder()
				require.NoError(t, err)
				assert.Equal(t, 5, ladder.Len())
				assert.Equal(t, 2, ladder.DefaultLevel())

				assert.Equal(t, time.Second, config.AutoSave.QuietPeriod)
				assert.Equal(t, uint64(5), config.AutoSave.Retries)

				assert.Equal(t, service.PersistenceTypeJson, config.Persistence.Type)
				require.NotNil(t, config.Persistence.Json)
				assert.Equal(t, "var/sessions", config.Persistence.Json.Directory)

				assert.Equal(t, types.Timeframe6M, config.Datasource.DefaultTimeframe)
				assert.Equal(t, 10*time.Minute, config.Datasource.CacheExpiry)
				assert.Equal(t, "30 21 * * 1-5", config.Datasource.RefreshSchedule)

				require.NotNil(t, config.Upload.S3)
				assert.Equal(t, "chartdesk-exports", config.Upload.S3.Bucket)

				assert.Equal(t, "127.0.0.1:9090", config.Server.Bind)
				assert.Equal(t, StringSlice{"http://localhost:3000"}, config.Server.AllowOrigins)
			},
		},
		{
			name:    "invalid zoom ladder",
			args:    args{configFile: "testdata/invalid_zoom.yaml"},
			wantErr: true,
		},
		{
			name:    "invalid refresh schedule",
			args:    args{configFile: "testdata/invalid_schedule.yaml"},
			wantErr: true,
		},
		{
			name:    "missing file",
			args:    args{configFile: "testdata/missing.yaml"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := Load(tt.args.configFile)
			if (err != nil) != tt.wantErr {
				t.Errorf("Load() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if tt.f != nil {
				tt.f(t, config)
			}
		})
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("CHARTDESK_DATA_DIR", "/srv/prices")
	t.Setenv("CHARTDESK_BIND", ":7070")
	t.Setenv("S3_BUCKET", "override-bucket")

	config, err := Load("testdata/chartdesk.yaml")
	require.NoError(t, err)
	assert.Equal(t, "/srv/prices", config.Datasource.Directory)
	assert.Equal(t, ":7070", config.Server.Bind)
	assert.Equal(t, "override-bucket", config.Upload.S3.Bucket)
}

func TestLoadDotenv(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, ".env.local")
	require.NoError(t, os.WriteFile(file, []byte("CHARTDESK_TEST_DOTENV=loaded\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("CHARTDESK_TEST_DOTENV") })

	require.NoError(t, LoadDotenv(filepath.Join(dir, ".env"), file))
	assert.Equal(t, "loaded", os.Getenv("CHARTDESK_TEST_DOTENV"))
}
