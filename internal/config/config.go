package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Logger    LoggerConfig
	LLM       LLMConfig
	Quiz      QuizConfig
	Document  DocumentConfig
	Redis     RedisConfig
	CacheTTLs CacheTTLConfig
}

// ServerConfig tunes the HTTP listener. The write deadline starts once a handler
// returns, so quiz generation time is bounded by llm.timeout alone.
type ServerConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	BodyLimit    int
}

type LoggerConfig struct {
	Level  string
	Env    string
	Output string // "stdout" or "stderr"
}

// LLMConfig selects the provider used for question generation.
// Provider is one of "googleai", "openai" or "ollama".
type LLMConfig struct {
	Provider    string
	Model       string
	Temperature float64
	Timeout     time.Duration
	APIKey      string
	ServerURL   string // ollama only
}

type QuizConfig struct {
	Variant          string // "case_study" or "flat"
	Mode             string // "document", "per_page" or "chunked"
	NumCaseStudies   int
	QuestionsPerCase int
	NumQuestions     int
	MaxPages         int
	ChunkSize        int
	ChunkOverlap     int
	MaxChunks        int
	MaxParallelCalls int
}

type DocumentConfig struct {
	UploadPath    string
	PageSeparator string
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type CacheTTLConfig struct {
	Session string
	Quiz    string
}

var supportedProviders = map[string]string{
	"googleai": "GOOGLE_API_KEY",
	"openai":   "OPENAI_API_KEY",
	"ollama":   "",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8090)
	v.SetDefault("server.read_timeout", 120)
	v.SetDefault("server.write_timeout", 120)
	v.SetDefault("server.body_limit", 20*1024*1024)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.env", "development")
	v.SetDefault("logger.output", "stdout")

	v.SetDefault("llm.provider", "googleai")
	v.SetDefault("llm.model", "gemini-1.5-flash-001")
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.timeout", "60s")
	v.SetDefault("llm.server_url", "http://localhost:11434")

	v.SetDefault("quiz.variant", "case_study")
	v.SetDefault("quiz.mode", "document")
	v.SetDefault("quiz.num_case_studies", 5)
	v.SetDefault("quiz.questions_per_case", 5)
	v.SetDefault("quiz.num_questions", 10)
	v.SetDefault("quiz.max_pages", 0)
	v.SetDefault("quiz.chunk_size", 12000)
	v.SetDefault("quiz.chunk_overlap", 200)
	v.SetDefault("quiz.max_chunks", 4)
	v.SetDefault("quiz.max_parallel_calls", 2)

	v.SetDefault("document.upload_path", "uploaded_pdf.pdf")
	v.SetDefault("document.page_separator", "\n")

	v.SetDefault("cache_ttls.session", "2h")
	v.SetDefault("cache_ttls.quiz", "24h")
}

// LoadConfig reads .env, config.yaml and the process environment, in that order of precedence (last wins).
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if os.Getenv("ENV") == "test" {
		v.AddConfigPath("../../config")
		v.AddConfigPath("../../")
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if configFile := v.ConfigFileUsed(); configFile != "" {
		absPath, _ := filepath.Abs(configFile)
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", absPath)
	}

	cfg := fromViper(v)

	// Provider keys follow the provider SDK conventions rather than the llm.* tree.
	if keyEnv := supportedProviders[cfg.LLM.Provider]; keyEnv != "" {
		if key := os.Getenv(keyEnv); key != "" {
			cfg.LLM.APIKey = key
		}
	}
	if serverURL := os.Getenv("LLM_SERVER"); serverURL != "" {
		cfg.LLM.ServerURL = serverURL
	}
	if redisAddress := os.Getenv("REDIS_ADDRESS"); redisAddress != "" {
		cfg.Redis.Address = redisAddress
	}
	if redisPassword := os.Getenv("REDIS_PASSWORD"); redisPassword != "" {
		cfg.Redis.Password = redisPassword
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Server: ServerConfig{
			Port:         v.GetInt("server.port"),
			ReadTimeout:  v.GetDuration("server.read_timeout") * time.Second,
			WriteTimeout: v.GetDuration("server.write_timeout") * time.Second,
			BodyLimit:    v.GetInt("server.body_limit"),
		},
		Logger: LoggerConfig{
			Level:  v.GetString("logger.level"),
			Env:    v.GetString("logger.env"),
			Output: v.GetString("logger.output"),
		},
		LLM: LLMConfig{
			Provider:    strings.ToLower(v.GetString("llm.provider")),
			Model:       v.GetString("llm.model"),
			Temperature: v.GetFloat64("llm.temperature"),
			Timeout:     v.GetDuration("llm.timeout"),
			APIKey:      v.GetString("llm.api_key"),
			ServerURL:   v.GetString("llm.server_url"),
		},
		Quiz: QuizConfig{
			Variant:          v.GetString("quiz.variant"),
			Mode:             v.GetString("quiz.mode"),
			NumCaseStudies:   v.GetInt("quiz.num_case_studies"),
			QuestionsPerCase: v.GetInt("quiz.questions_per_case"),
			NumQuestions:     v.GetInt("quiz.num_questions"),
			MaxPages:         v.GetInt("quiz.max_pages"),
			ChunkSize:        v.GetInt("quiz.chunk_size"),
			ChunkOverlap:     v.GetInt("quiz.chunk_overlap"),
			MaxChunks:        v.GetInt("quiz.max_chunks"),
			MaxParallelCalls: v.GetInt("quiz.max_parallel_calls"),
		},
		Document: DocumentConfig{
			UploadPath:    v.GetString("document.upload_path"),
			PageSeparator: v.GetString("document.page_separator"),
		},
		Redis: RedisConfig{
			Address:  v.GetString("redis.address"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		CacheTTLs: CacheTTLConfig{
			Session: v.GetString("cache_ttls.session"),
			Quiz:    v.GetString("cache_ttls.quiz"),
		},
	}
}

// Validate rejects configurations the service cannot start with.
func (c *Config) Validate() error {
	keyEnv, ok := supportedProviders[c.LLM.Provider]
	if !ok {
		return fmt.Errorf("unsupported llm provider: %q", c.LLM.Provider)
	}
	if keyEnv != "" && c.LLM.APIKey == "" {
		return fmt.Errorf("%s is required for llm provider %q", keyEnv, c.LLM.Provider)
	}
	if c.LLM.Provider == "ollama" && c.LLM.ServerURL == "" {
		return fmt.Errorf("llm.server_url is required for llm provider \"ollama\"")
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("llm.model cannot be empty")
	}

	switch c.Quiz.Variant {
	case "case_study":
		if c.Quiz.NumCaseStudies <= 0 || c.Quiz.QuestionsPerCase <= 0 {
			return fmt.Errorf("quiz.num_case_studies and quiz.questions_per_case must be positive")
		}
	case "flat":
		if c.Quiz.NumQuestions < 2 || c.Quiz.NumQuestions > 15 {
			return fmt.Errorf("quiz.num_questions must be between 2 and 15, got %d", c.Quiz.NumQuestions)
		}
	default:
		return fmt.Errorf("unsupported quiz variant: %q", c.Quiz.Variant)
	}

	switch c.Quiz.Mode {
	case "document", "per_page", "chunked":
	default:
		return fmt.Errorf("unsupported quiz mode: %q", c.Quiz.Mode)
	}

	if c.Document.UploadPath == "" {
		return fmt.Errorf("document.upload_path cannot be empty")
	}
	return nil
}

// ParseTTLStringOrDefault parses a duration string, falling back to defaultTTL when empty or invalid.
func (c *Config) ParseTTLStringOrDefault(ttlString string, defaultTTL time.Duration) time.Duration {
	if ttlString == "" {
		return defaultTTL
	}
	duration, err := time.ParseDuration(ttlString)
	if err != nil || duration <= 0 {
		return defaultTTL
	}
	return duration
}

// SessionTTL is how long an idle session and its selections are kept.
func (c *Config) SessionTTL() time.Duration {
	return c.ParseTTLStringOrDefault(c.CacheTTLs.Session, 2*time.Hour)
}

// QuizTTL is how long a generated quiz is reused for an identical upload.
func (c *Config) QuizTTL() time.Duration {
	return c.ParseTTLStringOrDefault(c.CacheTTLs.Quiz, 24*time.Hour)
}
