package config

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type Config struct {
	AWS        AWSConfig
	Matching   MatchingConfig
	Queues     QueueConfig
	Validation ValidationConfig
	Results    ResultsConfig
	Database   DatabaseConfig
	Scaling    ScalingConfig
	Dispatch   DispatchConfig
	Log        LogConfig
	Web        WebConfig
}

type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string // custom endpoint, e.g. http://localhost:4566 for localstack
}

type MatchingConfig struct {
	IoUThreshold  float64 // exclusive lower bound for a claim to match a detection
	QualityFilter string  // Rekognition IndexFaces QualityFilter
}

type QueueConfig struct {
	ValidationURL       string
	ReindexURL          string
	ResultsURL          string
	ReindexDelaySeconds int
	ResultsDelaySeconds int
	WaitTimeSeconds     int
	MaxMessages         int
	Workers             int
}

type ValidationConfig struct {
	FirehoseStream string // delivery stream for failed validation records
}

type ResultsConfig struct {
	Store       string // "dynamo" or "postgres"
	DynamoTable string
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL
	MaxOpenConns int
	MaxIdleConns int
}

type ScalingConfig struct {
	FunctionName        string
	MaxConcurrencyLimit int
	ConcurrencyStep     int
}

type DispatchConfig struct {
	StateMachineARN string
	ResultPrefix    string
}

type LogConfig struct {
	Level string
	File  string // optional rotated log file
}

type WebConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string // CORS origins besides loopback
}

// Defaults mirrors defaults.yaml.
type Defaults struct {
	Matching struct {
		IoUThreshold  float64 `yaml:"iou_threshold"`
		QualityFilter string  `yaml:"quality_filter"`
	} `yaml:"matching"`
	Queues struct {
		ReindexDelaySeconds int `yaml:"reindex_delay_seconds"`
		ResultsDelaySeconds int `yaml:"results_delay_seconds"`
		WaitTimeSeconds     int `yaml:"wait_time_seconds"`
		MaxMessages         int `yaml:"max_messages"`
		Workers             int `yaml:"workers"`
	} `yaml:"queues"`
	Scaling struct {
		ConcurrencyStep     int `yaml:"concurrency_step"`
		MaxConcurrencyLimit int `yaml:"max_concurrency_limit"`
	} `yaml:"scaling"`
	Dispatch struct {
		ResultPrefix string `yaml:"result_prefix"`
	} `yaml:"dispatch"`
	Database struct {
		MaxOpenConns int `yaml:"max_open_conns"`
		MaxIdleConns int `yaml:"max_idle_conns"`
	} `yaml:"database"`
}

// LoadDefaults parses the embedded defaults.
func LoadDefaults() Defaults {
	var d Defaults
	if err := yaml.Unmarshal(defaultsYAML, &d); err != nil {
		// Embedded file, so this only fails on a broken build.
		panic("failed to unmarshal embedded defaults.yaml: " + err.Error())
	}
	return d
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envThreshold reads an IoU threshold in [0, 1).
func envThreshold(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f >= 0 && f < 1 {
		return f
	}
	return defaultVal
}

func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

// envList splits a comma separated variable, dropping empty entries.
func envList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func Load() *Config {
	d := LoadDefaults()

	return &Config{
		AWS: AWSConfig{
			Region:          os.Getenv("AWS_REGION"),
			AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
			Endpoint:        os.Getenv("AWS_ENDPOINT"),
		},
		Matching: MatchingConfig{
			IoUThreshold:  envThreshold("IOU_THRESHOLD", d.Matching.IoUThreshold),
			QualityFilter: envString("QUALITY_FILTER", d.Matching.QualityFilter),
		},
		Queues: QueueConfig{
			ValidationURL:       os.Getenv("VALIDATION_QUEUE_URL"),
			ReindexURL:          os.Getenv("REINDEX_QUEUE_URL"),
			ResultsURL:          os.Getenv("RESULTS_QUEUE_URL"),
			ReindexDelaySeconds: envInt("REINDEX_DELAY_SECONDS", d.Queues.ReindexDelaySeconds),
			ResultsDelaySeconds: envInt("RESULTS_DELAY_SECONDS", d.Queues.ResultsDelaySeconds),
			WaitTimeSeconds:     envInt("QUEUE_WAIT_SECONDS", d.Queues.WaitTimeSeconds),
			MaxMessages:         envInt("QUEUE_MAX_MESSAGES", d.Queues.MaxMessages),
			Workers:             envInt("REINDEX_WORKERS", d.Queues.Workers),
		},
		Validation: ValidationConfig{
			FirehoseStream: os.Getenv("FIREHOSE_STREAM"),
		},
		Results: ResultsConfig{
			Store:       envString("RESULT_STORE", "dynamo"),
			DynamoTable: os.Getenv("DYNAMO_TABLE"),
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", d.Database.MaxOpenConns),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", d.Database.MaxIdleConns),
		},
		Scaling: ScalingConfig{
			FunctionName:        os.Getenv("FUNCTION_NAME"),
			MaxConcurrencyLimit: envInt("MAX_CONCURRENCY_LIMIT", d.Scaling.MaxConcurrencyLimit),
			ConcurrencyStep:     envInt("CONCURRENCY_STEP", d.Scaling.ConcurrencyStep),
		},
		Dispatch: DispatchConfig{
			StateMachineARN: os.Getenv("STATE_MACHINE_ARN"),
			ResultPrefix:    envString("DISPATCH_RESULT_PREFIX", d.Dispatch.ResultPrefix),
		},
		Log: LogConfig{
			Level: envString("LOG_LEVEL", "info"),
			File:  os.Getenv("LOG_FILE"),
		},
		Web: WebConfig{
			Host:           envString("WEB_HOST", "0.0.0.0"),
			Port:           envInt("WEB_PORT", 8080),
			AllowedOrigins: envList("WEB_ALLOWED_ORIGINS"),
		},
	}
}

// Require returns an error naming the first empty value.
// Pairs are (environment variable name, value).
func Require(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			return fmt.Errorf("%s environment variable is required", pairs[i])
		}
	}
	return nil
}
