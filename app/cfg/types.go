package cfg

import "time"

const (
	StoreDriverSQLite = "sqlite"
	StoreDriverRedis  = "redis"

	PurgeModeDaily      = "daily"
	PurgeModeEveryCycle = "every-cycle"

	ReadPolicyFailOpen   = "fail-open"
	ReadPolicyFailClosed = "fail-closed"
)

type Cfg struct {
	// Telegram
	TelegramToken   string
	TelegramChannel string

	// Scheduling
	CheckInterval  time.Duration
	CronSchedule   string
	SkipStartupRun bool
	Once           bool

	// Feeds
	FeedsFile          string
	MaxArticlesPerFeed int
	MaxSummaryLength   int
	FetchTimeout       time.Duration
	FetchWorkers       int
	UserAgent          string

	// Delivery
	SendDelay  time.Duration
	NoAnnounce bool

	// Dedup store
	StoreDriver     string
	DBPath          string
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	RedisPrefix     string
	RetentionDays   int
	PurgeMode       string
	DedupReadPolicy string

	// Presentation
	Timezone      string
	TimezoneLabel string
	Location      *time.Location

	// Ops
	Port         string
	APIAccessKey string
	Debug        bool
	Version      string
}
