package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/vsinha/csdm/pkg/domain/entities"
)

// EnvPrefix is prepended to every key when read from the environment,
// e.g. CSDM_SERVER_ADDR
const EnvPrefix = "CSDM"

// DefaultEnvFile is read when present and no config file is given
const DefaultEnvFile = ".env"

const (
	keyServerAddr       = "server_addr"
	keyScenarioDir      = "scenario_dir"
	keyLogLevel         = "log_level"
	keyLogFormat        = "log_format"
	keyForecastWeight   = "forecast_weight"
	keyForecastUplift   = "forecast_uplift"
	keyProtect          = "allocation_protect"
	keyProtectedChannel = "allocation_protected_channel"
	keyProtectedWeek    = "allocation_protected_week"
	keyEventRetention   = "event_retention"
)

type Config struct {
	ServerAddr  string
	ScenarioDir string // empty means the built-in case study
	LogLevel    string
	LogFormat   string
	Forecast    entities.ForecastParams
	Protection  entities.ProtectionRule

	// EventRetention is how many dashboard events are kept in memory
	EventRetention int
}

func setDefaults(v *viper.Viper) {
	defaults := entities.DefaultForecastParams()
	v.SetDefault(keyServerAddr, ":8501")
	v.SetDefault(keyScenarioDir, "")
	v.SetDefault(keyLogLevel, "info")
	v.SetDefault(keyLogFormat, "text")
	v.SetDefault(keyForecastWeight, defaults.Weight.String())
	v.SetDefault(keyForecastUplift, defaults.Uplift.String())
	v.SetDefault(keyProtect, true)
	v.SetDefault(keyProtectedChannel, "Parter-PAC")
	v.SetDefault(keyProtectedWeek, "Jan Wk4")
	v.SetDefault(keyEventRetention, 1000)
}

// Load reads configuration from defaults, an optional config file and
// CSDM_* environment variables, in increasing priority. An empty path reads
// .env from the working directory if one exists. File keys carry no prefix,
// e.g. SERVER_ADDR in .env or server_addr in YAML.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if path == "" {
		if _, err := os.Stat(DefaultEnvFile); err == nil {
			path = DefaultEnvFile
		}
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	weight, err := decimal.NewFromString(v.GetString(keyForecastWeight))
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", keyForecastWeight, err)
	}
	uplift, err := decimal.NewFromString(v.GetString(keyForecastUplift))
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", keyForecastUplift, err)
	}
	params, err := entities.NewForecastParams(weight, uplift)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		ServerAddr:  v.GetString(keyServerAddr),
		ScenarioDir: v.GetString(keyScenarioDir),
		LogLevel:    v.GetString(keyLogLevel),
		LogFormat:   v.GetString(keyLogFormat),
		Forecast:    params,
		Protection: entities.ProtectionRule{
			Enabled: v.GetBool(keyProtect),
			Channel: entities.Channel(v.GetString(keyProtectedChannel)),
			Week:    v.GetString(keyProtectedWeek),
		},
		EventRetention: v.GetInt(keyEventRetention),
	}

	if cfg.ServerAddr == "" {
		return nil, errors.New("server address cannot be empty")
	}
	if cfg.EventRetention <= 0 {
		return nil, fmt.Errorf("%s must be positive, got %d", keyEventRetention, cfg.EventRetention)
	}
	return cfg, nil
}
