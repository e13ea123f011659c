package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	// Create temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configData := `
extraction:
  lookup_key: "section"
  traversal: "shallow"
  text_mode: "lookup"

excision:
  mode: "union"
  out_of_range: "strict"

table:
  raw_sentences: true

tokenizer:
  enabled: true
  max_token_length: 64
  vocabulary: "wordpiece"
  vocab_path: "/models/vocab.txt"
  lower_case: false

llm:
  base_url: "http://ollama:11434"
  model: "all-minilm"
  batch_size: 8
  rate_limit: 1.5

database:
  url: "postgres://localhost:5432/test"
  table_name: "test_sentences"
  vector_dim: 384
  batch_size: 50

server:
  port: 9000

workers: 2
`
	err := os.WriteFile(configPath, []byte(configData), 0644)
	require.NoError(t, err)

	for _, key := range []string{"OLLAMA_BASE_URL", "DATABASE_URL", "S2ORC_LOOKUP_KEY", "S2ORC_TRAVERSAL", "S2ORC_MAX_TOKEN_LENGTH"} {
		t.Setenv(key, "")
	}

	// Test loading config
	config, err := LoadConfig(configPath)
	require.NoError(t, err)

	// Verify loaded values
	assert.Equal(t, "section", config.Extraction.LookupKey)
	assert.Equal(t, "shallow", config.Extraction.Traversal)
	assert.Equal(t, "lookup", config.Extraction.TextMode)
	assert.Equal(t, "union", config.Excision.Mode)
	assert.Equal(t, "strict", config.Excision.OutOfRange)
	assert.True(t, config.Table.RawSentences)
	assert.True(t, config.Tokenizer.Enabled)
	assert.Equal(t, 64, config.Tokenizer.MaxTokenLength)
	assert.Equal(t, "/models/vocab.txt", config.Tokenizer.VocabPath)
	require.NotNil(t, config.Tokenizer.LowerCase)
	assert.False(t, *config.Tokenizer.LowerCase)
	assert.Equal(t, "cl100k_base", config.Tokenizer.Encoding)
	assert.Equal(t, "http://ollama:11434", config.LLM.BaseURL)
	assert.Equal(t, "all-minilm", config.LLM.Model)
	assert.Equal(t, 1.5, config.LLM.RateLimit)
	assert.Equal(t, "postgres://localhost:5432/test", config.Database.URL)
	assert.Equal(t, 384, config.Database.VectorDim)
	assert.Equal(t, 9000, config.Server.Port)
	assert.Equal(t, 2, config.Workers)
	assert.Empty(t, config.Validate())
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("extraction: [unclosed"), 0644))

	_, err := LoadConfig(configPath)
	assert.ErrorContains(t, err, "error parsing config file")
}

func TestDefaults(t *testing.T) {
	config := &Config{}
	applyDefaults(config)

	assert.Equal(t, "text", config.Extraction.LookupKey)
	assert.Equal(t, "deep", config.Extraction.Traversal)
	assert.Equal(t, "sections", config.Extraction.TextMode)
	assert.Equal(t, "sequential", config.Excision.Mode)
	assert.Equal(t, "clamp", config.Excision.OutOfRange)
	assert.False(t, config.Table.RawSentences)
	assert.Equal(t, 128, config.Tokenizer.MaxTokenLength)
	assert.Equal(t, "wordpiece", config.Tokenizer.Vocabulary)
	require.NotNil(t, config.Tokenizer.LowerCase)
	assert.True(t, *config.Tokenizer.LowerCase)
	assert.Equal(t, "http://localhost:11434", config.LLM.BaseURL)
	assert.Equal(t, "sentences", config.Database.TableName)
	assert.Equal(t, 8080, config.Server.Port)
	assert.Equal(t, 4, config.Workers)
	assert.Empty(t, config.Validate())
}

func TestMergeWithEnv(t *testing.T) {
	t.Setenv("OLLAMA_BASE_URL", "http://gpu:11434")
	t.Setenv("DATABASE_URL", "postgres://db/sentences")
	t.Setenv("S2ORC_LOOKUP_KEY", "section")
	t.Setenv("S2ORC_TRAVERSAL", "shallow")
	t.Setenv("S2ORC_MAX_TOKEN_LENGTH", "256")

	config := &Config{}
	mergeWithEnv(config)
	applyDefaults(config)

	assert.Equal(t, "http://gpu:11434", config.LLM.BaseURL)
	assert.Equal(t, "postgres://db/sentences", config.Database.URL)
	assert.Equal(t, "section", config.Extraction.LookupKey)
	assert.Equal(t, "shallow", config.Extraction.Traversal)
	assert.Equal(t, 256, config.Tokenizer.MaxTokenLength)

	t.Setenv("S2ORC_MAX_TOKEN_LENGTH", "many")
	config = &Config{}
	mergeWithEnv(config)
	assert.Equal(t, 0, config.Tokenizer.MaxTokenLength)
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name         string
		modify       func(*Config)
		expectedErrs int
		fields       []string
	}{
		{
			name:         "valid config",
			modify:       func(c *Config) {},
			expectedErrs: 0,
		},
		{
			name: "unknown modes",
			modify: func(c *Config) {
				c.Extraction.Traversal = "wide"
				c.Extraction.TextMode = "raw"
				c.Excision.Mode = "merge"
				c.Excision.OutOfRange = "wrap"
			},
			expectedErrs: 4,
			fields:       []string{"extraction.traversal", "extraction.text_mode", "excision.mode", "excision.out_of_range"},
		},
		{
			name: "max token length too small",
			modify: func(c *Config) {
				c.Tokenizer.MaxTokenLength = 1
			},
			expectedErrs: 1,
			fields:       []string{"tokenizer.max_token_length"},
		},
		{
			name: "wordpiece without vocabulary file",
			modify: func(c *Config) {
				c.Tokenizer.Enabled = true
			},
			expectedErrs: 1,
			fields:       []string{"tokenizer.vocab_path"},
		},
		{
			name: "tiktoken needs no vocabulary file",
			modify: func(c *Config) {
				c.Tokenizer.Enabled = true
				c.Tokenizer.Vocabulary = "tiktoken"
			},
			expectedErrs: 0,
		},
		{
			name: "invalid numbers",
			modify: func(c *Config) {
				c.LLM.BatchSize = 0
				c.LLM.RateLimit = -1
				c.Database.VectorDim = 0
				c.Database.BatchSize = -5
				c.Server.Port = 70000
				c.Workers = 0
			},
			expectedErrs: 6,
			fields:       []string{"llm.batch_size", "llm.rate_limit", "database.vector_dim", "database.batch_size", "server.port", "workers"},
		},
		{
			name: "missing lookup key and base url",
			modify: func(c *Config) {
				c.Extraction.LookupKey = ""
				c.LLM.BaseURL = ""
			},
			expectedErrs: 2,
			fields:       []string{"extraction.lookup_key", "llm.base_url"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := &Config{}
			applyDefaults(config)
			tt.modify(config)

			errors := config.Validate()
			assert.Len(t, errors, tt.expectedErrs)

			var fields []string
			for _, err := range errors {
				fields = append(fields, err.Field)
			}
			for _, field := range tt.fields {
				assert.Contains(t, fields, field)
			}
		})
	}
}
