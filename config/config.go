package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config enthält alle Konfigurationsparameter aus Umgebungsvariablen.
type Config struct {
	DBHost     string `envconfig:"DB_HOST" required:"true"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" required:"true"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" required:"true"`

	HTTPPort     string `envconfig:"HTTP_PORT" default:"8000"`
	APISecretKey string `envconfig:"API_SECRET_KEY"`

	// Staff-Reviewer-Backends. Logician und Innovator laufen über OpenRouter,
	// der Technician direkt gegen DeepSeek.
	OpenRouterAPIKey  string `envconfig:"OPENROUTER_API_KEY"`
	OpenRouterBaseURL string `envconfig:"OPENROUTER_BASE_URL" default:"https://openrouter.ai/api/v1"`
	DeepSeekAPIKey    string `envconfig:"DEEPSEEK_API_KEY"`
	DeepSeekBaseURL   string `envconfig:"DEEPSEEK_BASE_URL" default:"https://api.deepseek.com"`

	LogicianModel   string `envconfig:"LOGICIAN_MODEL" default:"google/gemini-2.0-flash-001"`
	InnovatorModel  string `envconfig:"INNOVATOR_MODEL" default:"meta-llama/llama-3.3-70b-instruct"`
	TechnicianModel string `envconfig:"TECHNICIAN_MODEL" default:"deepseek-chat"`
	EditorModel     string `envconfig:"EDITOR_MODEL" default:"google/gemini-2.0-flash-001"`

	// Community-Reviewer-Konfiguration
	MaxGuestReviewersPerPaper int           `envconfig:"MAX_GUEST_REVIEWERS_PER_PAPER" default:"2"`
	MaxPromptModePerPaper     int           `envconfig:"MAX_PROMPT_MODE_PER_PAPER" default:"1"`
	GuestAPITimeout           time.Duration `envconfig:"GUEST_API_TIMEOUT" default:"120s"`
	GuestAPIKeySecret         string        `envconfig:"GUEST_API_KEY_SECRET" default:"change-me-in-production"`
	PromptModeMonthlyQuota    int           `envconfig:"PROMPT_MODE_MONTHLY_QUOTA" default:"10"`

	// Einreichungslimits pro E-Mail-Adresse
	DailySubmitLimit   int  `envconfig:"DAILY_SUBMIT_LIMIT" default:"2"`
	MonthlySubmitLimit int  `envconfig:"MONTHLY_SUBMIT_LIMIT" default:"5"`
	RequireEmail       bool `envconfig:"REQUIRE_EMAIL" default:"true"`

	// Mail-Benachrichtigung
	SMTPHost     string `envconfig:"SMTP_HOST" default:"smtp.gmail.com"`
	SMTPPort     int    `envconfig:"SMTP_PORT" default:"587"`
	SMTPUser     string `envconfig:"SMTP_USER"`
	SMTPPassword string `envconfig:"SMTP_PASSWORD"`
	SMTPFrom     string `envconfig:"SMTP_FROM" default:"noreply@turing-review.org"`
	SiteURL      string `envconfig:"SITE_URL" default:"http://localhost:8000"`

	// Cron für den Inaktivitäts-Sweep der API-Modus-Reviewer
	CronSchedule string `envconfig:"CRON_SCHEDULE" default:"0 3 * * *"`

	// S3-Archiv für eingereichte Manuskripte
	StratoS3Key    string `envconfig:"STRATO_S3_KEY" required:"true"`
	StratoS3Secret string `envconfig:"STRATO_S3_SECRET" required:"true"`
	StratoS3URL    string `envconfig:"STRATO_S3_URL" required:"true"`
	StratoS3Region string `envconfig:"STRATO_S3_REGION" required:"true"`
	StratoS3Bucket string `envconfig:"STRATO_S3_BUCKET" required:"true"`
}

// DSN gibt den Data Source Name für die PostgreSQL-Verbindung zurück.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
}

// Load lädt die Konfiguration aus den Umgebungsvariablen.
func Load() (*Config, error) {
	_ = godotenv.Load()
	var c Config
	err := envconfig.Process("", &c)
	return &c, err
}
