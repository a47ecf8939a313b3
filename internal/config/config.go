package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`

	Database struct {
		Driver   string `yaml:"driver"` // mysql | postgres
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslMode"`
	} `yaml:"database"`

	Pipeline struct {
		Command        []string `yaml:"command"` // worker argv; payload path is appended
		PayloadDir     string   `yaml:"payloadDir"`
		OutputDir      string   `yaml:"outputDir"`
		TimeoutSeconds int      `yaml:"timeoutSeconds"`
		APIKeyEnv      string   `yaml:"apiKeyEnv"` // env var name the worker reads its credential from
		APIKey         string   `yaml:"apiKey"`    // value injected under APIKeyEnv; never logged
	} `yaml:"pipeline"`

	Minio struct {
		Enabled    bool   `yaml:"enabled"`
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`

	OpenAI struct {
		APIKey string `yaml:"apiKey"`
		Model  string `yaml:"model"`
	} `yaml:"openai"`

	Auth struct {
		// account name -> API key; empty map disables auth
		APIKeys map[string]string `yaml:"apiKeys"`
	} `yaml:"auth"`

	RateLimit struct {
		Capacity   int `yaml:"capacity"`
		RefillRate int `yaml:"refillRate"`
	} `yaml:"rateLimit"`
}

// Load baca file config.yaml
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "mysql"
	}
	if len(c.Pipeline.Command) == 0 {
		c.Pipeline.Command = []string{"python3", "pipeline/main.py", "--input"}
	}
	if c.Pipeline.PayloadDir == "" {
		c.Pipeline.PayloadDir = "./temp"
	}
	if c.Pipeline.OutputDir == "" {
		c.Pipeline.OutputDir = "./out"
	}
	if c.Pipeline.TimeoutSeconds <= 0 {
		c.Pipeline.TimeoutSeconds = 30
	}
	if c.Pipeline.APIKeyEnv == "" {
		c.Pipeline.APIKeyEnv = "GEMINI_API_KEY"
	}
	if c.RateLimit.Capacity <= 0 {
		c.RateLimit.Capacity = 30
	}
	if c.RateLimit.RefillRate <= 0 {
		c.RateLimit.RefillRate = 10
	}
}

// PipelineTimeout returns the wall-clock budget per worker invocation
func (c *Config) PipelineTimeout() time.Duration {
	return time.Duration(c.Pipeline.TimeoutSeconds) * time.Second
}

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// Helper untuk build DSN Postgres
func (c *Config) PostgresDSN() string {
	ssl := c.Database.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		ssl,
	)
}
