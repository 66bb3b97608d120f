package models

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

var ErrInvalidConfig = errors.New("invalid configuration")

const probabilityEpsilon = 1e-6

type RegimeConfig struct {
	SpeedMultiplier     float64 `mapstructure:"speed_multiplier"`
	AccidentProbability float64 `mapstructure:"accident_probability"`
	PriceMultiplier     float64 `mapstructure:"price_multiplier"`
	Probability         float64 `mapstructure:"probability"`
}

// CourierTypeConfig describes one slice of the courier population.
type CourierTypeConfig struct {
	Name       string   `mapstructure:"name"`
	Share      float64  `mapstructure:"share"`
	Speed      float64  `mapstructure:"speed"`
	Routing    string   `mapstructure:"routing"`
	GroundedIn []string `mapstructure:"grounded_in"`
}

type CloudStorageConfig struct {
	Provider   string `mapstructure:"provider"`
	BucketName string `mapstructure:"bucket_name"`
	Region     string `mapstructure:"region"`
}

type DatabaseConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// ConnString renders the settings as a postgres URL.
func (d DatabaseConfig) ConnString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode)
}

type Config struct {
	Seed             int64         `mapstructure:"seed"`
	Steps            int           `mapstructure:"steps"`
	Continuous       bool          `mapstructure:"continuous"`
	StartDate        time.Time     `mapstructure:"start_date"`
	StepDuration     time.Duration `mapstructure:"step_duration"`
	RealtimeInterval time.Duration `mapstructure:"realtime_interval"`
	ProgressInterval int           `mapstructure:"progress_interval"`
	ShowProgressBar  bool          `mapstructure:"show_progress_bar"`

	MapWidth         float64 `mapstructure:"map_width"`
	MapHeight        float64 `mapstructure:"map_height"`
	NumRestaurants   int     `mapstructure:"num_restaurants"`
	NumCouriers      int     `mapstructure:"num_couriers"`
	RestaurantMargin float64 `mapstructure:"restaurant_margin"`
	CourierMargin    float64 `mapstructure:"courier_margin"`
	CustomerMargin   float64 `mapstructure:"customer_margin"`

	SpawnProbability         float64 `mapstructure:"spawn_probability"`
	CustomerReuseProbability float64 `mapstructure:"customer_reuse_probability"`

	BaseFee         float64 `mapstructure:"base_fee"`
	PerDistanceRate float64 `mapstructure:"per_distance_rate"`
	SurgeExponent   float64 `mapstructure:"surge_exponent"`
	SurgeCap        float64 `mapstructure:"surge_cap"`
	SurgeFloor      float64 `mapstructure:"surge_floor"`

	BaseCourierSpeed      float64 `mapstructure:"base_courier_speed"`
	ArrivalThreshold      float64 `mapstructure:"arrival_threshold"`
	CourierEarningsShare  float64 `mapstructure:"courier_earnings_share"`
	AccidentRecoverySteps int     `mapstructure:"accident_recovery_steps"`
	PrepTimeMin           int     `mapstructure:"prep_time_min"`
	PrepTimeMax           int     `mapstructure:"prep_time_max"`

	WeatherChangeMin int                     `mapstructure:"weather_change_min"`
	WeatherChangeMax int                     `mapstructure:"weather_change_max"`
	InitialWeather   string                  `mapstructure:"initial_weather"`
	Weather          map[string]RegimeConfig `mapstructure:"weather"`

	CourierTypes []CourierTypeConfig `mapstructure:"courier_types"`

	OutputDestination string             `mapstructure:"output_destination"`
	OutputFormat      string             `mapstructure:"output_format"`
	OutputPath        string             `mapstructure:"output_path"`
	OutputFolder      string             `mapstructure:"output_folder"`
	KafkaBrokerList   string             `mapstructure:"kafka_broker_list"`
	CloudStorage      CloudStorageConfig `mapstructure:"cloud_storage"`
	Database          DatabaseConfig     `mapstructure:"database"`

	LogFile  string `mapstructure:"log_file"`
	LogLevel string `mapstructure:"log_level"`
}

// DefaultConfig returns the stock city: an 800x600 map, five restaurants and
// ten couriers split evenly between drones and bikers.
func DefaultConfig() *Config {
	return &Config{
		Steps:            1000,
		StartDate:        time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC),
		StepDuration:     time.Second,
		ProgressInterval: 100,

		MapWidth:         800,
		MapHeight:        600,
		NumRestaurants:   5,
		NumCouriers:      10,
		RestaurantMargin: 100,
		CourierMargin:    50,
		CustomerMargin:   20,

		SpawnProbability:         0.3,
		CustomerReuseProbability: 0.7,

		BaseFee:         5.0,
		PerDistanceRate: 0.015,
		SurgeExponent:   1.2,
		SurgeCap:        10.0,
		SurgeFloor:      0.5,

		BaseCourierSpeed:      10,
		ArrivalThreshold:      5.0,
		CourierEarningsShare:  0.4,
		AccidentRecoverySteps: 50,
		PrepTimeMin:           20,
		PrepTimeMax:           50,

		WeatherChangeMin: 100,
		WeatherChangeMax: 300,
		InitialWeather:   WeatherClear,
		Weather: map[string]RegimeConfig{
			WeatherClear: {SpeedMultiplier: 1.0, AccidentProbability: 0.0001, PriceMultiplier: 1.0, Probability: 0.40},
			WeatherRain:  {SpeedMultiplier: 0.8, AccidentProbability: 0.001, PriceMultiplier: 1.3, Probability: 0.25},
			WeatherSnow:  {SpeedMultiplier: 0.6, AccidentProbability: 0.003, PriceMultiplier: 1.6, Probability: 0.15},
			WeatherFrost: {SpeedMultiplier: 0.7, AccidentProbability: 0.005, PriceMultiplier: 1.5, Probability: 0.10},
			WeatherIce:   {SpeedMultiplier: 0.4, AccidentProbability: 0.015, PriceMultiplier: 2.5, Probability: 0.10},
		},

		CourierTypes: []CourierTypeConfig{
			{Name: CourierTypeDrone, Share: 0.5, Speed: 15, Routing: RoutingDirect, GroundedIn: []string{WeatherRain, WeatherSnow}},
			{Name: CourierTypeBiker, Share: 0.5, Speed: 8, Routing: RoutingGrid},
		},

		OutputDestination: OutputConsole,
		OutputFormat:      "json",
		OutputPath:        "output",
		OutputFolder:      "events",
		KafkaBrokerList:   "localhost:9092",
		Database: DatabaseConfig{
			Host:    "localhost",
			Port:    "5432",
			User:    "postgres",
			DBName:  "deliverysim",
			SSLMode: "disable",
		},
		LogLevel: "info",
	}
}

// LoadConfig layers the optional config file, DELIVERYSIM_* environment
// variables and any flags already bound on v over DefaultConfig.
func LoadConfig(v *viper.Viper, cfgFile string) (*Config, error) {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("DELIVERYSIM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	config := DefaultConfig()
	registerDefaults(v, config)

	decoderConfigOption := viper.DecoderConfigOption(func(dc *mapstructure.DecoderConfig) {
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			dc.DecodeHook,
			mapstructure.StringToTimeHookFunc(time.RFC3339),
		)
	})
	if err := v.Unmarshal(config, decoderConfigOption); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// scalar keys must be known to viper for AutomaticEnv to resolve them
func registerDefaults(v *viper.Viper, c *Config) {
	defaults := map[string]interface{}{
		"seed":                       c.Seed,
		"steps":                      c.Steps,
		"continuous":                 c.Continuous,
		"start_date":                 c.StartDate.Format(time.RFC3339),
		"step_duration":              c.StepDuration,
		"realtime_interval":          c.RealtimeInterval,
		"progress_interval":          c.ProgressInterval,
		"show_progress_bar":          c.ShowProgressBar,
		"map_width":                  c.MapWidth,
		"map_height":                 c.MapHeight,
		"num_restaurants":            c.NumRestaurants,
		"num_couriers":               c.NumCouriers,
		"restaurant_margin":          c.RestaurantMargin,
		"courier_margin":             c.CourierMargin,
		"customer_margin":            c.CustomerMargin,
		"spawn_probability":          c.SpawnProbability,
		"customer_reuse_probability": c.CustomerReuseProbability,
		"base_fee":                   c.BaseFee,
		"per_distance_rate":          c.PerDistanceRate,
		"surge_exponent":             c.SurgeExponent,
		"surge_cap":                  c.SurgeCap,
		"surge_floor":                c.SurgeFloor,
		"base_courier_speed":         c.BaseCourierSpeed,
		"arrival_threshold":          c.ArrivalThreshold,
		"courier_earnings_share":     c.CourierEarningsShare,
		"accident_recovery_steps":    c.AccidentRecoverySteps,
		"prep_time_min":              c.PrepTimeMin,
		"prep_time_max":              c.PrepTimeMax,
		"weather_change_min":         c.WeatherChangeMin,
		"weather_change_max":         c.WeatherChangeMax,
		"initial_weather":            c.InitialWeather,
		"output_destination":         c.OutputDestination,
		"output_format":              c.OutputFormat,
		"output_path":                c.OutputPath,
		"output_folder":              c.OutputFolder,
		"kafka_broker_list":          c.KafkaBrokerList,
		"cloud_storage.provider":     c.CloudStorage.Provider,
		"cloud_storage.bucket_name":  c.CloudStorage.BucketName,
		"cloud_storage.region":       c.CloudStorage.Region,
		"database.enabled":           c.Database.Enabled,
		"database.host":              c.Database.Host,
		"database.port":              c.Database.Port,
		"database.user":              c.Database.User,
		"database.password":          c.Database.Password,
		"database.dbname":            c.Database.DBName,
		"database.sslmode":           c.Database.SSLMode,
		"log_file":                   c.LogFile,
		"log_level":                  c.LogLevel,
	}
	for name, regime := range c.Weather {
		defaults["weather."+name+".speed_multiplier"] = regime.SpeedMultiplier
		defaults["weather."+name+".accident_probability"] = regime.AccidentProbability
		defaults["weather."+name+".price_multiplier"] = regime.PriceMultiplier
		defaults["weather."+name+".probability"] = regime.Probability
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
}

// Validate reports the first setting that would make the simulation
// ill-defined.
func (c *Config) Validate() error {
	switch {
	case c.MapWidth <= 0 || c.MapHeight <= 0:
		return fmt.Errorf("%w: map dimensions must be positive, got %vx%v", ErrInvalidConfig, c.MapWidth, c.MapHeight)
	case c.NumRestaurants < 1:
		return fmt.Errorf("%w: at least one restaurant is required", ErrInvalidConfig)
	case c.NumCouriers < 0:
		return fmt.Errorf("%w: courier count cannot be negative", ErrInvalidConfig)
	case !unitInterval(c.SpawnProbability):
		return fmt.Errorf("%w: spawn_probability %v outside [0,1]", ErrInvalidConfig, c.SpawnProbability)
	case !unitInterval(c.CustomerReuseProbability):
		return fmt.Errorf("%w: customer_reuse_probability %v outside [0,1]", ErrInvalidConfig, c.CustomerReuseProbability)
	case c.PrepTimeMin < 0 || c.PrepTimeMin > c.PrepTimeMax:
		return fmt.Errorf("%w: preparation range [%d,%d]", ErrInvalidConfig, c.PrepTimeMin, c.PrepTimeMax)
	case c.WeatherChangeMin < 1 || c.WeatherChangeMin > c.WeatherChangeMax:
		return fmt.Errorf("%w: weather change range [%d,%d]", ErrInvalidConfig, c.WeatherChangeMin, c.WeatherChangeMax)
	case c.AccidentRecoverySteps < 1:
		return fmt.Errorf("%w: accident_recovery_steps must be at least 1", ErrInvalidConfig)
	case c.ArrivalThreshold <= 0:
		return fmt.Errorf("%w: arrival_threshold must be positive", ErrInvalidConfig)
	case !unitInterval(c.CourierEarningsShare):
		return fmt.Errorf("%w: courier_earnings_share %v outside [0,1]", ErrInvalidConfig, c.CourierEarningsShare)
	case c.SurgeExponent <= 1:
		return fmt.Errorf("%w: surge_exponent must be greater than 1", ErrInvalidConfig)
	case c.SurgeCap < 1:
		return fmt.Errorf("%w: surge_cap must be at least 1", ErrInvalidConfig)
	case c.SurgeFloor <= 0:
		return fmt.Errorf("%w: surge_floor must be positive", ErrInvalidConfig)
	case !c.Continuous && c.Steps < 1:
		return fmt.Errorf("%w: steps must be positive unless running continuously", ErrInvalidConfig)
	}

	if err := c.validateWeather(); err != nil {
		return err
	}
	return c.validateCourierTypes()
}

func (c *Config) validateWeather() error {
	var total float64
	for _, name := range WeatherRegimes {
		regime, ok := c.Weather[name]
		if !ok {
			return fmt.Errorf("%w: weather regime %q is not configured", ErrInvalidConfig, name)
		}
		if regime.Probability < 0 || !unitInterval(regime.AccidentProbability) || regime.SpeedMultiplier <= 0 {
			return fmt.Errorf("%w: weather regime %q has out of range values", ErrInvalidConfig, name)
		}
		total += regime.Probability
	}
	if len(c.Weather) != len(WeatherRegimes) {
		return fmt.Errorf("%w: unknown weather regimes configured", ErrInvalidConfig)
	}
	if math.Abs(total-1.0) > probabilityEpsilon {
		return fmt.Errorf("%w: weather probabilities sum to %v, want 1.0", ErrInvalidConfig, total)
	}
	if c.InitialWeather != "" && !isRegime(c.InitialWeather) {
		return fmt.Errorf("%w: unknown initial_weather %q", ErrInvalidConfig, c.InitialWeather)
	}
	return nil
}

func (c *Config) validateCourierTypes() error {
	if len(c.CourierTypes) == 0 {
		return fmt.Errorf("%w: at least one courier type is required", ErrInvalidConfig)
	}
	var total float64
	seen := make(map[string]bool, len(c.CourierTypes))
	for _, ct := range c.CourierTypes {
		if ct.Name == "" || seen[ct.Name] {
			return fmt.Errorf("%w: courier type names must be unique and non-empty", ErrInvalidConfig)
		}
		seen[ct.Name] = true
		if ct.Routing != RoutingDirect && ct.Routing != RoutingGrid {
			return fmt.Errorf("%w: courier type %q has unknown routing %q", ErrInvalidConfig, ct.Name, ct.Routing)
		}
		if ct.Share < 0 {
			return fmt.Errorf("%w: courier type %q has a negative share", ErrInvalidConfig, ct.Name)
		}
		for _, regime := range ct.GroundedIn {
			if !isRegime(regime) {
				return fmt.Errorf("%w: courier type %q grounded in unknown regime %q", ErrInvalidConfig, ct.Name, regime)
			}
		}
		total += ct.Share
	}
	if math.Abs(total-1.0) > probabilityEpsilon {
		return fmt.Errorf("%w: courier type shares sum to %v, want 1.0", ErrInvalidConfig, total)
	}
	return nil
}

// SpeedFor returns the configured speed of a courier type, falling back to
// the base courier speed.
func (ct CourierTypeConfig) SpeedFor(base float64) float64 {
	if ct.Speed > 0 {
		return ct.Speed
	}
	return base
}

func unitInterval(p float64) bool {
	return p >= 0 && p <= 1
}

func isRegime(name string) bool {
	for _, r := range WeatherRegimes {
		if r == name {
			return true
		}
	}
	return false
}
