package config

import (
	"fmt"
	"gossip_scan/internal/dataType"
	"gossip_scan/internal/utils"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const envPrefix = "SCAN_"

type MainConfig struct {
	RPCURL              string   `yaml:"rpc_url" validate:"required,url"`
	GeoAPIURL           string   `yaml:"geo_api_url" validate:"required,url"`
	SampleSize          int      `yaml:"sample_size" validate:"min=1"`
	RequestTimeout      string   `yaml:"request_timeout"`
	LookupDelay         string   `yaml:"lookup_delay"`
	LookupRate          string   `yaml:"lookup_rate"`
	RestrictedCountries []string `yaml:"restricted_countries" validate:"min=1,dive,len=2,alpha"`
	HistoryPath         string   `yaml:"history_path" validate:"required"`
	SummaryPath         string   `yaml:"summary_path" validate:"required"`
	LogPath             string   `yaml:"log_path"`
	SkipRanges          []string `yaml:"skip_ranges"`

	// Parsed forms, filled by LoadMainConfig.
	Timeout    time.Duration `yaml:"-"`
	Delay      time.Duration `yaml:"-"`
	RateLimit  int64         `yaml:"-"`
	RateWindow int64         `yaml:"-"`
}

// LoadMainConfig Read the configuration file and return the configuration object
func LoadMainConfig(basePath string) (*MainConfig, error) {

	cfg := MainConfig{
		RPCURL:              "https://api.mainnet-beta.solana.com",
		GeoAPIURL:           "http://ip-api.com/json",
		SampleSize:          150,
		RequestTimeout:      "20s",
		LookupDelay:         "1s",
		LookupRate:          "40/60s",
		RestrictedCountries: []string{"IR", "KP", "CU", "SY", "RU", "BY", "VE", "MM"},
		HistoryPath:         "daily_node_scan.csv",
		SummaryPath:         "daily_summary.txt",
		LogPath:             "log/",
		SkipRanges: []string{
			"10.0.0.0/8",
			"100.64.0.0/10",
			"127.0.0.0/8",
			"169.254.0.0/16",
			"172.16.0.0/12",
			"192.168.0.0/16",
		},
	}

	if basePath == "" {
		exePath, err := os.Executable()
		if err != nil {
			return nil, err
		}
		basePath = filepath.Dir(exePath)
	}
	configPath := filepath.Join(basePath, "config", "scan.yml")

	data, err := os.ReadFile(configPath)
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	// Environment overrides win over file values. A .env next to the
	// config dir is honored when present.
	_ = godotenv.Load(filepath.Join(basePath, ".env"))
	applyEnv(&cfg)

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if err := parseDurations(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyEnv(cfg *MainConfig) {
	if v := os.Getenv(envPrefix + "RPC_URL"); v != "" {
		cfg.RPCURL = v
	}
	if v := os.Getenv(envPrefix + "GEO_API_URL"); v != "" {
		cfg.GeoAPIURL = v
	}
	if v := os.Getenv(envPrefix + "SAMPLE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.SampleSize = n
		}
	}
	if v := os.Getenv(envPrefix + "REQUEST_TIMEOUT"); v != "" {
		cfg.RequestTimeout = v
	}
	if v := os.Getenv(envPrefix + "LOOKUP_DELAY"); v != "" {
		cfg.LookupDelay = v
	}
	if v := os.Getenv(envPrefix + "LOOKUP_RATE"); v != "" {
		cfg.LookupRate = v
	}
	if v := os.Getenv(envPrefix + "RESTRICTED_COUNTRIES"); v != "" {
		var codes []string
		for _, c := range strings.Split(v, ",") {
			c = strings.TrimSpace(c)
			if c != "" {
				codes = append(codes, c)
			}
		}
		if len(codes) > 0 {
			cfg.RestrictedCountries = codes
		}
	}
	if v := os.Getenv(envPrefix + "HISTORY_PATH"); v != "" {
		cfg.HistoryPath = v
	}
	if v := os.Getenv(envPrefix + "SUMMARY_PATH"); v != "" {
		cfg.SummaryPath = v
	}
	if v := os.Getenv(envPrefix + "LOG_PATH"); v != "" {
		cfg.LogPath = v
	}
}

func parseDurations(cfg *MainConfig) error {
	timeout, err := time.ParseDuration(cfg.RequestTimeout)
	if err != nil || timeout <= 0 {
		return fmt.Errorf("invalid request_timeout: %s", cfg.RequestTimeout)
	}
	cfg.Timeout = timeout

	delay, err := time.ParseDuration(cfg.LookupDelay)
	if err != nil || delay < 0 {
		return fmt.Errorf("invalid lookup_delay: %s", cfg.LookupDelay)
	}
	cfg.Delay = delay

	limit, seconds, err := utils.ParseRate(cfg.LookupRate)
	if err != nil {
		return fmt.Errorf("invalid lookup_rate: %w", err)
	}
	cfg.RateLimit = limit
	cfg.RateWindow = seconds

	return nil
}

// LoadSkipRanges builds the trie of gossip addresses that are never
// geolocated. A bare IP without a prefix length counts as a /32.
func LoadSkipRanges(ranges []string) (*dataType.SkipList, error) {
	skip := dataType.NewSkipList()
	for _, line := range ranges {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !strings.Contains(line, "/") {
			if ip := net.ParseIP(line); ip != nil && ip.To4() == nil {
				line = line + "/128"
			} else {
				line = line + "/32"
			}
		}
		_, ipNet, err := net.ParseCIDR(line)
		if err != nil {
			return nil, fmt.Errorf("invalid skip range %q: %w", line, err)
		}
		skip.Insert(ipNet)
	}
	return skip, nil
}
