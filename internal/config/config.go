package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/khoahotran/billing-extractor/pkg/apperror"
)

const DefaultModelName = "default"

type ModelConfig struct {
	Provider string `mapstructure:"provider"`
	Model    string `mapstructure:"model"`
}

type Config struct {
	App struct {
		Port string `mapstructure:"port"`
		Env  string `mapstructure:"env"`
		// TrustedProxies lists proxies whose X-Forwarded-For is honoured.
		// Empty means the peer address is the client.
		TrustedProxies []string `mapstructure:"trusted_proxies"`
	} `mapstructure:"app"`
	OpenAI struct {
		APIKey  string        `mapstructure:"api_key"`
		BaseURL string        `mapstructure:"base_url"`
		Timeout time.Duration `mapstructure:"timeout"`
	} `mapstructure:"openai"`
	Ollama struct {
		Host string `mapstructure:"host"`
	} `mapstructure:"ollama"`
	Models     map[string]ModelConfig `mapstructure:"models"`
	Extraction struct {
		DocumentPath string `mapstructure:"document_path"`
		InspectPDF   bool   `mapstructure:"inspect_pdf"`
	} `mapstructure:"extraction"`
	DB struct {
		DSN string `mapstructure:"dsn"`
	} `mapstructure:"db"`
	Redis struct {
		Addr     string `mapstructure:"addr"`
		Password string `mapstructure:"password"`
	} `mapstructure:"redis"`
	RateLimit struct {
		Requests int           `mapstructure:"requests"`
		Window   time.Duration `mapstructure:"window"`
	} `mapstructure:"ratelimit"`
	Kafka struct {
		Brokers []string `mapstructure:"brokers"`
		GroupID string   `mapstructure:"group_id"`
	} `mapstructure:"kafka"`
	Tracing struct {
		OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	} `mapstructure:"tracing"`
}

// LoadConfig reads .env, then config.yaml from the given paths (or "."), then
// the process environment. Environment values win.
func LoadConfig(paths ...string) (cfg Config, err error) {
	if len(paths) == 0 {
		paths = []string{"."}
	}

	envFiles := make([]string, 0, len(paths))
	for _, p := range paths {
		envFiles = append(envFiles, strings.TrimSuffix(p, "/")+"/.env")
	}
	if err = godotenv.Load(envFiles...); err != nil {
		log.Println("warning: .env file not found, use environment only.")
	}

	v := viper.New()
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if err = v.ReadInConfig(); err != nil {
		log.Printf("note: config.yaml not found, read .env only. Error: %v", err)
	}

	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.BindEnv("app.port", "APP_PORT")
	v.BindEnv("app.env", "APP_ENV")
	v.BindEnv("app.trusted_proxies", "APP_TRUSTED_PROXIES")
	v.BindEnv("openai.api_key", "OPENAI_API_KEY")
	v.BindEnv("openai.base_url", "OPENAI_BASE_URL")
	v.BindEnv("openai.timeout", "OPENAI_TIMEOUT")
	v.BindEnv("ollama.host", "OLLAMA_HOST")
	v.BindEnv("models.default.provider", "MODEL_DEFAULT_PROVIDER")
	v.BindEnv("models.default.model", "MODEL_DEFAULT_NAME")
	v.BindEnv("extraction.document_path", "EXTRACTION_DOCUMENT_PATH")
	v.BindEnv("extraction.inspect_pdf", "EXTRACTION_INSPECT_PDF")
	v.BindEnv("db.dsn", "DB_DSN")
	v.BindEnv("redis.addr", "REDIS_ADDR")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("ratelimit.requests", "RATELIMIT_REQUESTS")
	v.BindEnv("ratelimit.window", "RATELIMIT_WINDOW")
	v.BindEnv("kafka.brokers", "KAFKA_BROKERS")
	v.BindEnv("kafka.group_id", "KAFKA_GROUP_ID")
	v.BindEnv("tracing.otlp_endpoint", "OTEL_EXPORTER_OTLP_ENDPOINT")

	if err = v.Unmarshal(&cfg); err != nil {
		return cfg, apperror.NewConfiguration("cannot decode configuration", err)
	}
	err = cfg.Validate()
	return
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.port", "3000")
	v.SetDefault("app.env", "development")
	v.SetDefault("openai.timeout", 2*time.Minute)
	v.SetDefault("models.default.provider", "openai")
	v.SetDefault("models.default.model", "gpt-4o")
	v.SetDefault("extraction.document_path", "storage/contract.pdf")
	v.SetDefault("extraction.inspect_pdf", true)
	v.SetDefault("ratelimit.requests", 60)
	v.SetDefault("ratelimit.window", time.Minute)
	v.SetDefault("kafka.group_id", "extraction-history-group")
}

// Validate checks the settings every process needs. Provider credentials are
// checked when the model registry is built.
func (c Config) Validate() error {
	if strings.TrimSpace(c.App.Port) == "" {
		return apperror.NewConfiguration("app.port must not be empty", nil)
	}
	if _, ok := c.Models[DefaultModelName]; !ok {
		return apperror.NewConfiguration("no 'default' model configured", nil)
	}
	if strings.TrimSpace(c.Extraction.DocumentPath) == "" {
		return apperror.NewConfiguration("extraction.document_path must not be empty", nil)
	}
	if c.Redis.Addr != "" && (c.RateLimit.Requests <= 0 || c.RateLimit.Window <= 0) {
		return apperror.NewConfiguration("ratelimit.requests and ratelimit.window must be positive", nil)
	}
	return nil
}
