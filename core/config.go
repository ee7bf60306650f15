package core

import (
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Env          string
		Build        string
		Debug        bool
		TestMode     bool
		AppName      string
		SecretKey    string
		Timezone     string
		RollbarToken string
		WorkDir      string

		FrontendBaseURL string

		Server    ServerConfig
		AI        AIConfig
		Classroom ClassroomConfig
		Calendar  CalendarConfig
		Cache     CacheConfig
		Database  DatabaseConfig
		Push      PushConfig
		Email     EmailConfig
	}

	ServerConfig struct {
		Host               string
		Address            string
		DebugHost          string
		DisableReqLogs     bool
		ShutdownTimeout    time.Duration
		RequestTimeout     time.Duration
		JWTExpirationDelta time.Duration
	}

	AIConfig struct {
		Provider       string // gemini | groq
		SchemaVersion  string // v1 | v2 | v3
		GeminiAPIKey   string
		GeminiModel    string
		GroqAPIKey     string
		GroqModel      string
		GroqBaseURL    string
		Timeout        time.Duration
		Concurrency    int64
		MaxAttempts    int
		InitialBackoff time.Duration
		MaxBackoff     time.Duration
	}

	ClassroomConfig struct {
		Endpoint          string
		CourseConcurrency int
	}

	CalendarConfig struct {
		Endpoint   string
		CalendarID string
		Timezone   string
	}

	CacheConfig struct {
		Driver string // memory | file | postgres
		Path   string
		TTL    time.Duration
	}

	DatabaseConfig struct {
		Engine        string
		Host          string
		Port          string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	PushConfig struct {
		Enabled         bool
		Subscriber      string
		VAPIDPublicKey  string
		VAPIDPrivateKey string
		TTL             int
		Driver          string // memory | postgres
	}

	EmailConfig struct {
		Driver           string // console | sendgrid | smtp
		DefaultFromEmail string
		SendgridAPIKey   string
		SMTPServer       string
		SMTPPort         int
		SMTPUser         string
		SMTPPass         string
	}
)

func (c DatabaseConfig) Address() string {
	return net.JoinHostPort(c.Host, c.Port)
}

func (c *Config) DefaultFromEmail() mail.Address {
	return mail.Address{Name: c.AppName, Address: c.Email.DefaultFromEmail}
}

// Location returns the configured time zone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func setDefaults(v *viper.Viper) {
	v.SetTypeByDefaultValue(true)

	v.SetDefault("debug", true)
	v.SetDefault("build", "develop")
	v.SetDefault("appName", "Student Sync")
	v.SetDefault("secretKey", "d7w!x0ks(3m^o=h5l$1g@2vq9b+8z&j6e*c4u#nyr_tpfia-")
	v.SetDefault("timezone", "Asia/Kolkata")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("frontendBaseUrl", "http://localhost:3000")

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.disableReqLogs", false)
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.requestTimeout", 2*time.Minute)
	v.SetDefault("server.jwtExpirationDelta", 7*24*time.Hour)

	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.schemaVersion", "v2")
	v.SetDefault("ai.geminiApiKey", "")
	v.SetDefault("ai.geminiModel", "gemini-2.0-flash")
	v.SetDefault("ai.groqApiKey", "")
	v.SetDefault("ai.groqModel", "llama-3.3-70b-versatile")
	v.SetDefault("ai.groqBaseUrl", "https://api.groq.com/openai/v1")
	v.SetDefault("ai.timeout", 20*time.Second)
	v.SetDefault("ai.concurrency", 3)
	v.SetDefault("ai.maxAttempts", 3)
	v.SetDefault("ai.initialBackoff", time.Second)
	v.SetDefault("ai.maxBackoff", 8*time.Second)

	v.SetDefault("classroom.endpoint", "")
	v.SetDefault("classroom.courseConcurrency", 4)

	v.SetDefault("calendar.endpoint", "")
	v.SetDefault("calendar.calendarId", "primary")
	v.SetDefault("calendar.timezone", "America/New_York")

	v.SetDefault("cache.driver", "file")
	v.SetDefault("cache.path", filepath.Join(os.TempDir(), "studentsync", "extraction_cache.json"))
	v.SetDefault("cache.ttl", time.Duration(0))

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "studentsync")
	v.SetDefault("database.user", "studentsync")
	v.SetDefault("database.password", "")
	v.SetDefault("database.adminUser", "")
	v.SetDefault("database.adminPassword", "")
	v.SetDefault("database.disableTls", true)

	v.SetDefault("push.enabled", false)
	v.SetDefault("push.subscriber", "mailto:admin@example.com")
	v.SetDefault("push.vapidPublicKey", "")
	v.SetDefault("push.vapidPrivateKey", "")
	v.SetDefault("push.ttl", 60*60*24)
	v.SetDefault("push.driver", "memory")

	v.SetDefault("email.driver", "console")
	v.SetDefault("email.defaultFromEmail", "noreply@localhost")
	v.SetDefault("email.sendgridApiKey", "")
	v.SetDefault("email.smtpServer", "smtp.gmail.com")
	v.SetDefault("email.smtpPort", 587)
	v.SetDefault("email.smtpUser", "")
	v.SetDefault("email.smtpPass", "")
}

// NewConfig loads the app configuration from defaults, `config/.env.<env>` and the environment.
// Environment variables are prefixed with the upper-cased env name, e.g. `DEV_AI_GEMINIAPIKEY`.
func NewConfig() *Config {
	v := viper.New()
	setDefaults(v)

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	wd := Getwd()

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	return &Config{
		Env:          env,
		Build:        v.GetString("build"),
		Debug:        v.GetBool("debug"),
		TestMode:     v.GetBool("testMode"),
		AppName:      v.GetString("appName"),
		SecretKey:    v.GetString("secretKey"),
		Timezone:     v.GetString("timezone"),
		RollbarToken: v.GetString("rollbarToken"),
		WorkDir:      wd,

		FrontendBaseURL: v.GetString("frontendBaseUrl"),
		Server: ServerConfig{
			Host:               v.GetString("server.host"),
			Address:            v.GetString("server.address"),
			DebugHost:          v.GetString("server.debugHost"),
			DisableReqLogs:     v.GetBool("server.disableReqLogs"),
			ShutdownTimeout:    v.GetDuration("server.shutdownTimeout"),
			RequestTimeout:     v.GetDuration("server.requestTimeout"),
			JWTExpirationDelta: v.GetDuration("server.jwtExpirationDelta"),
		},
		AI: AIConfig{
			Provider:       strings.ToLower(v.GetString("ai.provider")),
			SchemaVersion:  strings.ToLower(v.GetString("ai.schemaVersion")),
			GeminiAPIKey:   v.GetString("ai.geminiApiKey"),
			GeminiModel:    v.GetString("ai.geminiModel"),
			GroqAPIKey:     v.GetString("ai.groqApiKey"),
			GroqModel:      v.GetString("ai.groqModel"),
			GroqBaseURL:    v.GetString("ai.groqBaseUrl"),
			Timeout:        v.GetDuration("ai.timeout"),
			Concurrency:    v.GetInt64("ai.concurrency"),
			MaxAttempts:    v.GetInt("ai.maxAttempts"),
			InitialBackoff: v.GetDuration("ai.initialBackoff"),
			MaxBackoff:     v.GetDuration("ai.maxBackoff"),
		},
		Classroom: ClassroomConfig{
			Endpoint:          v.GetString("classroom.endpoint"),
			CourseConcurrency: v.GetInt("classroom.courseConcurrency"),
		},
		Calendar: CalendarConfig{
			Endpoint:   v.GetString("calendar.endpoint"),
			CalendarID: v.GetString("calendar.calendarId"),
			Timezone:   v.GetString("calendar.timezone"),
		},
		Cache: CacheConfig{
			Driver: strings.ToLower(v.GetString("cache.driver")),
			Path:   v.GetString("cache.path"),
			TTL:    v.GetDuration("cache.ttl"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("database.engine"),
			Host:          v.GetString("database.host"),
			Port:          v.GetString("database.port"),
			Name:          v.GetString("database.name"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			DisableTLS:    v.GetBool("database.disableTls"),
		},
		Push: PushConfig{
			Enabled:         v.GetBool("push.enabled"),
			Subscriber:      v.GetString("push.subscriber"),
			VAPIDPublicKey:  v.GetString("push.vapidPublicKey"),
			VAPIDPrivateKey: v.GetString("push.vapidPrivateKey"),
			TTL:             v.GetInt("push.ttl"),
			Driver:          strings.ToLower(v.GetString("push.driver")),
		},
		Email: EmailConfig{
			Driver:           strings.ToLower(v.GetString("email.driver")),
			DefaultFromEmail: v.GetString("email.defaultFromEmail"),
			SendgridAPIKey:   v.GetString("email.sendgridApiKey"),
			SMTPServer:       v.GetString("email.smtpServer"),
			SMTPPort:         v.GetInt("email.smtpPort"),
			SMTPUser:         v.GetString("email.smtpUser"),
			SMTPPass:         v.GetString("email.smtpPass"),
		},
	}
}

// NewTestConfig returns a Config suitable for tests: no files, no env, no network.
func NewTestConfig() *Config {
	v := viper.New()
	setDefaults(v)
	return &Config{
		Env:       "TEST",
		Debug:     false,
		TestMode:  true,
		AppName:   v.GetString("appName"),
		SecretKey: "secret",
		Timezone:  "UTC",

		FrontendBaseURL: "http://localhost:3000",
		Server: ServerConfig{
			DisableReqLogs:     true,
			RequestTimeout:     10 * time.Second,
			JWTExpirationDelta: time.Hour,
		},
		AI: AIConfig{
			Provider:       "gemini",
			SchemaVersion:  "v2",
			Timeout:        time.Second,
			Concurrency:    3,
			MaxAttempts:    2,
			InitialBackoff: time.Millisecond,
			MaxBackoff:     5 * time.Millisecond,
		},
		Classroom: ClassroomConfig{CourseConcurrency: 2},
		Calendar:  CalendarConfig{CalendarID: "primary", Timezone: "America/New_York"},
		Cache:     CacheConfig{Driver: "memory"},
		Push:      PushConfig{Driver: "memory", TTL: 60},
		Email:     EmailConfig{Driver: "console", DefaultFromEmail: "noreply@test.local"},
	}
}
