package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	Circulation  CirculationConfig
	Reservations ReservationsConfig
	Shelving     ShelvingConfig
	Cron         CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Circulation.validate(); err != nil {
		return nil, err
	}
	if err := cfg.Shelving.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"BOOKHAVEN_APP_ENV" required:"true"`
	Port         string `envconfig:"BOOKHAVEN_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"BOOKHAVEN_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"BOOKHAVEN_LOG_WARN_STACK" default:"false"`
	AutoMigrate  bool   `envconfig:"BOOKHAVEN_AUTO_MIGRATE" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"BOOKHAVEN_DB_DSN"`
	Driver string `envconfig:"BOOKHAVEN_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"BOOKHAVEN_DB_HOST"`
	Port     int    `envconfig:"BOOKHAVEN_DB_PORT" default:"5432"`
	User     string `envconfig:"BOOKHAVEN_DB_USER"`
	Password string `envconfig:"BOOKHAVEN_DB_PASSWORD"`
	Name     string `envconfig:"BOOKHAVEN_DB_NAME"`
	SSLMode  string `envconfig:"BOOKHAVEN_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"BOOKHAVEN_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"BOOKHAVEN_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"BOOKHAVEN_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BOOKHAVEN_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"BOOKHAVEN_REDIS_URL" required:"true"`
	PoolSize     int           `envconfig:"BOOKHAVEN_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BOOKHAVEN_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BOOKHAVEN_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BOOKHAVEN_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BOOKHAVEN_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"BOOKHAVEN_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"BOOKHAVEN_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"BOOKHAVEN_JWT_EXPIRATION_MINUTES" default:"60"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"BOOKHAVEN_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"BOOKHAVEN_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"BOOKHAVEN_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"BOOKHAVEN_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"BOOKHAVEN_ARGON_KEY_LEN" default:"32"`
}

// CirculationConfig carries the lending policy knobs.
type CirculationConfig struct {
	LoanPeriodDays int    `envconfig:"BOOKHAVEN_LOAN_PERIOD_DAYS" default:"14"`
	DailyLateFee   string `envconfig:"BOOKHAVEN_DAILY_LATE_FEE" default:"0.50"`
}

// DailyLateFeeAmount parses the configured daily fee as a decimal.
func (c CirculationConfig) DailyLateFeeAmount() decimal.Decimal {
	amount, err := decimal.NewFromString(c.DailyLateFee)
	if err != nil {
		return decimal.Zero
	}
	return amount
}

// LoanPeriod returns the loan period as a duration.
func (c CirculationConfig) LoanPeriod() time.Duration {
	return time.Duration(c.LoanPeriodDays) * 24 * time.Hour
}

func (c CirculationConfig) validate() error {
	if c.LoanPeriodDays <= 0 {
		return fmt.Errorf("loan period days must be positive")
	}
	if _, err := decimal.NewFromString(c.DailyLateFee); err != nil {
		return fmt.Errorf("invalid daily late fee %q: %w", c.DailyLateFee, err)
	}
	return nil
}

// ReservationsConfig carries the hold queue knobs.
type ReservationsConfig struct {
	WindowDays int `envconfig:"BOOKHAVEN_RESERVATION_WINDOW_DAYS" default:"30"`
}

// Window returns the reservation expiry window as a duration.
func (r ReservationsConfig) Window() time.Duration {
	return time.Duration(r.WindowDays) * 24 * time.Hour
}

// ShelvingConfig bounds the allocator and the safety scanner.
type ShelvingConfig struct {
	// SafetyThreshold is the fraction of a shelf's max weight beyond which a
	// book combination is flagged. 1.0 flags only hard capacity violations.
	SafetyThreshold string `envconfig:"BOOKHAVEN_SHELF_SAFETY_THRESHOLD" default:"1.0"`
	// MaxOptimizeCandidates caps the exact knapsack input size.
	MaxOptimizeCandidates int `envconfig:"BOOKHAVEN_SHELF_MAX_OPTIMIZE_CANDIDATES" default:"40"`
	// MaxCapacityGrams caps the DP table width.
	MaxCapacityGrams int `envconfig:"BOOKHAVEN_SHELF_MAX_CAPACITY_GRAMS" default:"500000"`
	// MaxScanBooks bounds subset enumeration per shelf in the safety scan.
	MaxScanBooks int `envconfig:"BOOKHAVEN_SHELF_MAX_SCAN_BOOKS" default:"20"`
}

// SafetyThresholdRatio parses the configured threshold as a decimal ratio.
func (s ShelvingConfig) SafetyThresholdRatio() decimal.Decimal {
	ratio, err := decimal.NewFromString(s.SafetyThreshold)
	if err != nil {
		return decimal.NewFromInt(1)
	}
	return ratio
}

func (s ShelvingConfig) validate() error {
	ratio, err := decimal.NewFromString(s.SafetyThreshold)
	if err != nil {
		return fmt.Errorf("invalid shelf safety threshold %q: %w", s.SafetyThreshold, err)
	}
	if ratio.Sign() <= 0 {
		return fmt.Errorf("shelf safety threshold must be positive")
	}
	return nil
}

type CronConfig struct {
	Interval time.Duration `envconfig:"BOOKHAVEN_CRON_INTERVAL" default:"1h"`
	LockKey  string        `envconfig:"BOOKHAVEN_CRON_LOCK_KEY" default:"bookhaven:cron:lock"`
	LockTTL  time.Duration `envconfig:"BOOKHAVEN_CRON_LOCK_TTL" default:"55m"`
	Port     string        `envconfig:"BOOKHAVEN_CRON_METRICS_PORT" default:"9090"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range dbEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
