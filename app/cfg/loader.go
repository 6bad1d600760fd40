package cfg

import (
	"cmp"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
)

// Version is set at build time via -ldflags
var Version = "dev"

// ErrMissingCredentials is returned when the bot token or channel id is unset.
var ErrMissingCredentials = errors.New("missing telegram credentials")

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Telegram configuration
	TelegramToken   string `long:"telegram-token" env:"TELEGRAM_BOT_TOKEN" description:"Telegram bot token (required)"`
	TelegramChannel string `long:"telegram-channel" env:"TELEGRAM_CHANNEL_ID" description:"Target channel: @username or numeric -100... id (required)"`

	// Scheduling configuration
	CheckInterval  int    `long:"check-interval" env:"CHECK_INTERVAL_MINUTES" default:"15" description:"Polling interval in minutes"`
	CronSchedule   string `long:"cron" env:"CRON_SCHEDULE" description:"Six-field cron expression (with seconds); overrides the polling interval"`
	SkipStartupRun bool   `long:"skip-startup-run" env:"SKIP_STARTUP_RUN" description:"Do not run a cycle immediately on start"`
	Once           bool   `long:"once" env:"RUN_ONCE" description:"Run a single cycle and exit (timer-trigger hosting)"`

	// Feed configuration
	FeedsFile          string        `long:"feeds-file" env:"FEEDS_FILE" default:"./feeds.yml" description:"YAML feed registry; built-in sources are used when the file is absent"`
	MaxArticlesPerFeed int           `long:"max-articles-per-feed" env:"MAX_ARTICLES_PER_FEED" default:"3" description:"Entries taken from the top of each feed per cycle"`
	MaxSummaryLength   int           `long:"max-summary-length" env:"MAX_SUMMARY_LENGTH" default:"300" description:"Summary length limit in characters"`
	FetchTimeout       time.Duration `long:"fetch-timeout" env:"FETCH_TIMEOUT" default:"15s" description:"Timeout for a single feed request"`
	FetchWorkers       int           `long:"fetch-workers" env:"FETCH_WORKERS" default:"4" description:"Feeds fetched concurrently"`
	UserAgent          string        `long:"user-agent" env:"USER_AGENT" default:"Mozilla/5.0 (compatible; NasionalNewsBot/1.0; +https://github.com/nationalbot)" description:"User agent string for feed requests"`

	// Delivery configuration
	SendDelay  time.Duration `long:"send-delay" env:"SEND_DELAY" default:"1.5s" description:"Pause after each delivered article"`
	NoAnnounce bool          `long:"no-announce" env:"NO_ANNOUNCE" description:"Do not post the startup announcement"`

	// Dedup store configuration
	StoreDriver     string `long:"store" env:"STORE_DRIVER" default:"sqlite" choice:"sqlite" choice:"redis" description:"Dedup store backend"`
	DBPath          string `long:"db-path" env:"DB_PATH" default:"./data/relay.db" description:"SQLite database file"`
	RedisAddr       string `long:"redis-addr" env:"REDIS_ADDR" default:"localhost:6379" description:"Redis address"`
	RedisPassword   string `long:"redis-password" env:"REDIS_PASSWORD" description:"Redis password"`
	RedisDB         int    `long:"redis-db" env:"REDIS_DB" default:"0" description:"Redis database number"`
	RedisPrefix     string `long:"redis-prefix" env:"REDIS_PREFIX" default:"relay" description:"Redis key prefix"`
	RetentionDays   int    `long:"retention-days" env:"RETENTION_DAYS" default:"30" description:"Days a delivery record is kept"`
	PurgeMode       string `long:"purge-mode" env:"PURGE_MODE" default:"daily" choice:"daily" choice:"every-cycle" description:"When expired delivery records are purged"`
	DedupReadPolicy string `long:"dedup-read-policy" env:"DEDUP_READ_POLICY" default:"fail-open" choice:"fail-open" choice:"fail-closed" description:"Behaviour when a dedup lookup errors"`

	// Presentation
	Timezone      string `long:"timezone" env:"TIMEZONE" default:"Asia/Jakarta" description:"Timezone used for publish timestamps"`
	TimezoneLabel string `long:"timezone-label" env:"TIMEZONE_LABEL" default:"WIB" description:"Label appended to publish timestamps"`

	// Ops
	Port         string `long:"port" env:"PORT" description:"Ops HTTP port (disabled when empty)"`
	APIAccessKey string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`
	Debug        bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

// Load reads .env (when present), environment variables and command-line flags.
// It returns nil, nil when help was requested.
func Load() (*Cfg, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg, err := LoadArgs(os.Args[1:])
	if err != nil || cfg == nil {
		return cfg, err
	}

	globalCfg = cfg
	return cfg, nil
}

func LoadArgs(args []string) (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.ParseArgs(args); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		TelegramToken:      raw.TelegramToken,
		TelegramChannel:    raw.TelegramChannel,
		CheckInterval:      time.Duration(raw.CheckInterval) * time.Minute,
		CronSchedule:       raw.CronSchedule,
		SkipStartupRun:     raw.SkipStartupRun,
		Once:               raw.Once,
		FeedsFile:          raw.FeedsFile,
		MaxArticlesPerFeed: raw.MaxArticlesPerFeed,
		MaxSummaryLength:   raw.MaxSummaryLength,
		FetchTimeout:       raw.FetchTimeout,
		FetchWorkers:       raw.FetchWorkers,
		UserAgent:          raw.UserAgent,
		SendDelay:          raw.SendDelay,
		NoAnnounce:         raw.NoAnnounce,
		StoreDriver:        raw.StoreDriver,
		DBPath:             raw.DBPath,
		RedisAddr:          raw.RedisAddr,
		RedisPassword:      raw.RedisPassword,
		RedisDB:            raw.RedisDB,
		RedisPrefix:        raw.RedisPrefix,
		RetentionDays:      raw.RetentionDays,
		PurgeMode:          raw.PurgeMode,
		DedupReadPolicy:    raw.DedupReadPolicy,
		Timezone:           raw.Timezone,
		TimezoneLabel:      raw.TimezoneLabel,
		Port:               raw.Port,
		APIAccessKey:       raw.APIAccessKey,
		Debug:              raw.Debug,
		Version:            GetVersion(),
	}

	// A single invocation has no "previous day" to compare against.
	if cfg.Once {
		cfg.PurgeMode = PurgeModeEveryCycle
	}

	cfg.Location = loadLocation(cfg.Timezone)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

// Validate checks required credentials and value ranges.
func (c *Cfg) Validate() error {
	if c.TelegramToken == "" {
		return fmt.Errorf("%w: TELEGRAM_BOT_TOKEN is not set", ErrMissingCredentials)
	}
	if c.TelegramChannel == "" {
		return fmt.Errorf("%w: TELEGRAM_CHANNEL_ID is not set", ErrMissingCredentials)
	}

	positive := map[string]int{
		"check interval":        int(c.CheckInterval / time.Minute),
		"max articles per feed": c.MaxArticlesPerFeed,
		"max summary length":    c.MaxSummaryLength,
		"fetch workers":         c.FetchWorkers,
		"retention days":        c.RetentionDays,
	}
	for name, value := range positive {
		if value <= 0 {
			return fmt.Errorf("%s must be positive, got %d", name, value)
		}
	}

	if c.FetchTimeout <= 0 {
		return fmt.Errorf("fetch timeout must be positive, got %s", c.FetchTimeout)
	}
	if c.SendDelay < 0 {
		return fmt.Errorf("send delay must be non-negative, got %s", c.SendDelay)
	}

	if !slices.Contains([]string{StoreDriverSQLite, StoreDriverRedis}, c.StoreDriver) {
		return fmt.Errorf("unknown store driver %q", c.StoreDriver)
	}
	if !slices.Contains([]string{PurgeModeDaily, PurgeModeEveryCycle}, c.PurgeMode) {
		return fmt.Errorf("unknown purge mode %q", c.PurgeMode)
	}
	if !slices.Contains([]string{ReadPolicyFailOpen, ReadPolicyFailClosed}, c.DedupReadPolicy) {
		return fmt.Errorf("unknown dedup read policy %q", c.DedupReadPolicy)
	}

	return nil
}

// loadLocation falls back to a fixed UTC+7 zone when tz data is unavailable,
// which matches the default WIB label.
func loadLocation(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Invalid timezone '%s', using UTC+7: %v\n", name, err)
		return time.FixedZone("WIB", 7*60*60)
	}
	return loc
}
