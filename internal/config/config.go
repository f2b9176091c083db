package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database     DatabaseConfig
	Store        StoreConfig
	JWT          JWTConfig
	App          AppConfig
	Attendance   AttendanceConfig
	Leave        LeaveConfig
	Notification NotificationConfig
	SMTP         SMTPConfig
	Telegram     TelegramConfig
	Cron         CronConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// StoreConfig selects the ledger store backend.
type StoreConfig struct {
	Driver     string // postgres, sqlite or memory
	SQLitePath string
	// DirectorySeedFile is an optional JSON list of employees loaded at startup.
	DirectorySeedFile string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port        int
	Env         string
	LogLevel    string
	CORSOrigins []string
}

// AttendanceConfig holds the attendance policy constants.
type AttendanceConfig struct {
	Timezone                 string
	OfficeStart              string // HH:MM
	GracePeriodMinutes       int
	LunchMinutes             int
	ShortBreakMinutes        int
	PermissionDefaultMinutes int
	StandardWorkHours        float64
	LunchWindow              string // HH:MM-HH:MM
	BareCheckoutDefault      string // require or final
}

type LeaveConfig struct {
	CasualEntitlement int
	SickEntitlement   int
}

type NotificationConfig struct {
	QueueSize     int
	Workers       int
	BatchSize     int
	FlushInterval time.Duration
}

type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromEmail string
	FromName  string
}

type TelegramConfig struct {
	Token   string
	Enabled bool
}

type CronConfig struct {
	ReminderInterval time.Duration
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, reading environment only")
	}

	config := &Config{}

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "cmlabs-hris"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
	}

	config.Store = StoreConfig{
		Driver:     getEnv("STORE_DRIVER", "postgres"),
		SQLitePath: getEnv("SQLITE_PATH", "timekeeping.db"),

		DirectorySeedFile: getEnv("DIRECTORY_SEED_FILE", ""),
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Port:        appPort,
		Env:         getEnv("APP_ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		CORSOrigins: getEnvSlice("CORS_ORIGINS"),
	}
	if len(config.App.CORSOrigins) == 0 {
		config.App.CORSOrigins = []string{"http://localhost:3000"}
	}

	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: getEnv("JWT_ACCESS_EXPIRATION_TIME", "1h"),
	}

	// Attendance policy
	config.Attendance = AttendanceConfig{
		Timezone:            getEnv("ATTENDANCE_TIMEZONE", "Asia/Jakarta"),
		OfficeStart:         getEnv("ATTENDANCE_OFFICE_START", "09:00"),
		LunchWindow:         getEnv("ATTENDANCE_LUNCH_WINDOW", "12:00-15:00"),
		BareCheckoutDefault: getEnv("ATTENDANCE_BARE_CHECKOUT_DEFAULT", "require"),
	}
	if config.Attendance.GracePeriodMinutes, err = getEnvInt("ATTENDANCE_GRACE_MINUTES", 10); err != nil {
		return nil, err
	}
	if config.Attendance.LunchMinutes, err = getEnvInt("ATTENDANCE_LUNCH_MINUTES", 60); err != nil {
		return nil, err
	}
	if config.Attendance.ShortBreakMinutes, err = getEnvInt("ATTENDANCE_SHORT_BREAK_MINUTES", 15); err != nil {
		return nil, err
	}
	if config.Attendance.PermissionDefaultMinutes, err = getEnvInt("ATTENDANCE_PERMISSION_DEFAULT_MINUTES", 30); err != nil {
		return nil, err
	}
	config.Attendance.StandardWorkHours, err = strconv.ParseFloat(getEnv("ATTENDANCE_STANDARD_WORK_HOURS", "8"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid ATTENDANCE_STANDARD_WORK_HOURS: %w", err)
	}

	// Leave entitlements
	if config.Leave.CasualEntitlement, err = getEnvInt("LEAVE_CASUAL_ENTITLEMENT", 12); err != nil {
		return nil, err
	}
	if config.Leave.SickEntitlement, err = getEnvInt("LEAVE_SICK_ENTITLEMENT", 12); err != nil {
		return nil, err
	}

	// Notification worker
	if config.Notification.QueueSize, err = getEnvInt("NOTIFICATION_QUEUE_SIZE", 1000); err != nil {
		return nil, err
	}
	if config.Notification.Workers, err = getEnvInt("NOTIFICATION_WORKERS", 3); err != nil {
		return nil, err
	}
	if config.Notification.BatchSize, err = getEnvInt("NOTIFICATION_BATCH_SIZE", 50); err != nil {
		return nil, err
	}
	if config.Notification.FlushInterval, err = time.ParseDuration(getEnv("NOTIFICATION_FLUSH_INTERVAL", "2s")); err != nil {
		return nil, fmt.Errorf("invalid NOTIFICATION_FLUSH_INTERVAL: %w", err)
	}

	smtpPort, err := strconv.Atoi(getEnv("SMTP_PORT", "587"))
	if err != nil {
		return nil, fmt.Errorf("invalid SMTP_PORT: %w", err)
	}
	config.SMTP = SMTPConfig{
		Host:      getEnv("SMTP_HOST", ""),
		Port:      smtpPort,
		Username:  getEnv("SMTP_USERNAME", ""),
		Password:  getEnv("SMTP_PASSWORD", ""),
		FromEmail: getEnv("SMTP_FROM_EMAIL", "noreply@cmlabs.co"),
		FromName:  getEnv("SMTP_FROM_NAME", "HRIS Timekeeping"),
	}

	config.Telegram = TelegramConfig{
		Token:   getEnv("TELEGRAM_BOT_TOKEN", ""),
		Enabled: getEnv("TELEGRAM_ENABLED", "false") == "true",
	}

	if config.Cron.ReminderInterval, err = time.ParseDuration(getEnv("CRON_REMINDER_INTERVAL", "1m")); err != nil {
		return nil, fmt.Errorf("invalid CRON_REMINDER_INTERVAL: %w", err)
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "postgres":
		if c.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD is required")
		}
	case "sqlite", "memory":
	default:
		return fmt.Errorf("STORE_DRIVER must be postgres, sqlite or memory, got %q", c.Store.Driver)
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if _, err := time.LoadLocation(c.Attendance.Timezone); err != nil {
		return fmt.Errorf("invalid ATTENDANCE_TIMEZONE: %w", err)
	}
	if _, err := ParseClock(c.Attendance.OfficeStart); err != nil {
		return fmt.Errorf("invalid ATTENDANCE_OFFICE_START: %w", err)
	}
	if _, _, err := ParseClockRange(c.Attendance.LunchWindow); err != nil {
		return fmt.Errorf("invalid ATTENDANCE_LUNCH_WINDOW: %w", err)
	}
	if c.Attendance.GracePeriodMinutes < 0 {
		return fmt.Errorf("ATTENDANCE_GRACE_MINUTES must not be negative")
	}
	if c.Attendance.PermissionDefaultMinutes < 1 || c.Attendance.PermissionDefaultMinutes > 480 {
		return fmt.Errorf("ATTENDANCE_PERMISSION_DEFAULT_MINUTES must be between 1 and 480")
	}
	if c.Attendance.BareCheckoutDefault != "require" && c.Attendance.BareCheckoutDefault != "final" {
		return fmt.Errorf("ATTENDANCE_BARE_CHECKOUT_DEFAULT must be require or final")
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// ParseClock parses "HH:MM" into minutes since midnight.
func ParseClock(s string) (int, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

// ParseClockRange parses "HH:MM-HH:MM".
func ParseClockRange(s string) (int, int, error) {
	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected HH:MM-HH:MM, got %q", s)
	}
	from, err := ParseClock(parts[0])
	if err != nil {
		return 0, 0, err
	}
	to, err := ParseClock(parts[1])
	if err != nil {
		return 0, 0, err
	}
	if to <= from {
		return 0, 0, fmt.Errorf("window end must be after start")
	}
	return from, to, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v, err := strconv.Atoi(getEnv(key, strconv.Itoa(fallback)))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func getEnvSlice(env string) []string {
	value := getEnv(env, "")
	if value == "" {
		return []string{}
	}
	var result []string = strings.Split(value, ",")
	return result
}
