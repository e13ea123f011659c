package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Extraction struct {
		LookupKey string `yaml:"lookup_key"`
		Traversal string `yaml:"traversal"`
		TextMode  string `yaml:"text_mode"`
	} `yaml:"extraction"`

	Excision struct {
		Mode       string `yaml:"mode"`
		OutOfRange string `yaml:"out_of_range"`
	} `yaml:"excision"`

	Table struct {
		RawSentences bool `yaml:"raw_sentences"`
	} `yaml:"table"`

	Tokenizer struct {
		Enabled        bool   `yaml:"enabled"`
		MaxTokenLength int    `yaml:"max_token_length"`
		Vocabulary     string `yaml:"vocabulary"`
		VocabPath      string `yaml:"vocab_path"`
		Encoding       string `yaml:"encoding"`
		LowerCase      *bool  `yaml:"lower_case"`
	} `yaml:"tokenizer"`

	LLM struct {
		BaseURL   string  `yaml:"base_url"`
		Model     string  `yaml:"model"`
		BatchSize int     `yaml:"batch_size"`
		RateLimit float64 `yaml:"rate_limit"`
	} `yaml:"llm"`

	Database struct {
		URL       string `yaml:"url"`
		TableName string `yaml:"table_name"`
		VectorDim int    `yaml:"vector_dim"`
		BatchSize int    `yaml:"batch_size"`
	} `yaml:"database"`

	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`

	Workers int `yaml:"workers"`
}

func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Println("Couldn't load .env file:", err)
	}

	// If no path provided, try default locations
	if path == "" {
		locations := []string{
			"config.yaml",
			"config.yml",
			filepath.Join(os.Getenv("HOME"), ".config/s2orc-pdf2text/config.yaml"),
			"/etc/s2orc-pdf2text/config.yaml",
		}

		for _, loc := range locations {
			if _, err := os.Stat(loc); err == nil {
				path = loc
				break
			}
		}
	}

	if path == "" {
		return getDefaultConfig()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %v", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %v", err)
	}

	// Merge with environment variables
	mergeWithEnv(&config)

	// Apply defaults for unset values
	applyDefaults(&config)

	return &config, nil
}

func getDefaultConfig() (*Config, error) {
	config := &Config{}
	mergeWithEnv(config)
	applyDefaults(config)
	return config, nil
}

func applyDefaults(config *Config) {
	if config.Extraction.LookupKey == "" {
		config.Extraction.LookupKey = "text"
	}
	if config.Extraction.Traversal == "" {
		config.Extraction.Traversal = "deep"
	}
	if config.Extraction.TextMode == "" {
		config.Extraction.TextMode = "sections"
	}

	if config.Excision.Mode == "" {
		config.Excision.Mode = "sequential"
	}
	if config.Excision.OutOfRange == "" {
		config.Excision.OutOfRange = "clamp"
	}

	if config.Tokenizer.MaxTokenLength == 0 {
		config.Tokenizer.MaxTokenLength = 128
	}
	if config.Tokenizer.Vocabulary == "" {
		config.Tokenizer.Vocabulary = "wordpiece"
	}
	if config.Tokenizer.Encoding == "" {
		config.Tokenizer.Encoding = "cl100k_base"
	}
	if config.Tokenizer.LowerCase == nil {
		lower := true
		config.Tokenizer.LowerCase = &lower
	}

	if config.LLM.BaseURL == "" {
		config.LLM.BaseURL = "http://localhost:11434"
	}
	if config.LLM.Model == "" {
		config.LLM.Model = "nomic-embed-text"
	}
	if config.LLM.BatchSize == 0 {
		config.LLM.BatchSize = 32
	}
	if config.LLM.RateLimit == 0 {
		config.LLM.RateLimit = 5.0
	}

	if config.Database.TableName == "" {
		config.Database.TableName = "sentences"
	}
	if config.Database.VectorDim == 0 {
		config.Database.VectorDim = 768
	}
	if config.Database.BatchSize == 0 {
		config.Database.BatchSize = 100
	}

	if config.Server.Port == 0 {
		config.Server.Port = 8080
	}

	if config.Workers == 0 {
		config.Workers = 4
	}
}

func mergeWithEnv(config *Config) {
	if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
		config.LLM.BaseURL = baseURL
	}
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		config.Database.URL = dbURL
	}
	if key := os.Getenv("S2ORC_LOOKUP_KEY"); key != "" {
		config.Extraction.LookupKey = key
	}
	if traversal := os.Getenv("S2ORC_TRAVERSAL"); traversal != "" {
		config.Extraction.Traversal = traversal
	}
	if length := os.Getenv("S2ORC_MAX_TOKEN_LENGTH"); length != "" {
		n, err := strconv.Atoi(length)
		if err != nil {
			log.Printf("Ignoring S2ORC_MAX_TOKEN_LENGTH=%q: %v", length, err)
		} else {
			config.Tokenizer.MaxTokenLength = n
		}
	}
}
