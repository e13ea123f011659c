package config

import (
	"fmt"
	"net/url"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func oneOf(value string, allowed ...string) bool {
	for _, a := range allowed {
		if value == a {
			return true
		}
	}
	return false
}

func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	// Validate extraction config
	if c.Extraction.LookupKey == "" {
		errors = append(errors, ValidationError{
			Field:   "extraction.lookup_key",
			Message: "lookup_key is required",
		})
	}

	if !oneOf(c.Extraction.Traversal, "deep", "shallow") {
		errors = append(errors, ValidationError{
			Field:   "extraction.traversal",
			Message: fmt.Sprintf("traversal must be deep or shallow, got %q", c.Extraction.Traversal),
		})
	}

	if !oneOf(c.Extraction.TextMode, "sections", "lookup") {
		errors = append(errors, ValidationError{
			Field:   "extraction.text_mode",
			Message: fmt.Sprintf("text_mode must be sections or lookup, got %q", c.Extraction.TextMode),
		})
	}

	// Validate excision config
	if !oneOf(c.Excision.Mode, "sequential", "union") {
		errors = append(errors, ValidationError{
			Field:   "excision.mode",
			Message: fmt.Sprintf("mode must be sequential or union, got %q", c.Excision.Mode),
		})
	}

	if !oneOf(c.Excision.OutOfRange, "clamp", "strict") {
		errors = append(errors, ValidationError{
			Field:   "excision.out_of_range",
			Message: fmt.Sprintf("out_of_range must be clamp or strict, got %q", c.Excision.OutOfRange),
		})
	}

	// Validate tokenizer config
	if c.Tokenizer.MaxTokenLength < 2 {
		errors = append(errors, ValidationError{
			Field:   "tokenizer.max_token_length",
			Message: "max_token_length must be at least 2",
		})
	}

	switch c.Tokenizer.Vocabulary {
	case "wordpiece":
		if c.Tokenizer.Enabled && c.Tokenizer.VocabPath == "" {
			errors = append(errors, ValidationError{
				Field:   "tokenizer.vocab_path",
				Message: "vocab_path is required for the wordpiece vocabulary",
			})
		}
	case "tiktoken":
	default:
		errors = append(errors, ValidationError{
			Field:   "tokenizer.vocabulary",
			Message: fmt.Sprintf("vocabulary must be wordpiece or tiktoken, got %q", c.Tokenizer.Vocabulary),
		})
	}

	// Validate LLM config
	if c.LLM.BaseURL == "" {
		errors = append(errors, ValidationError{
			Field:   "llm.base_url",
			Message: "Ollama base URL is required",
		})
	} else if _, err := url.Parse(c.LLM.BaseURL); err != nil {
		errors = append(errors, ValidationError{
			Field:   "llm.base_url",
			Message: "invalid Ollama base URL",
		})
	}

	if c.LLM.BatchSize < 1 {
		errors = append(errors, ValidationError{
			Field:   "llm.batch_size",
			Message: "batch_size must be positive",
		})
	}

	if c.LLM.RateLimit <= 0 {
		errors = append(errors, ValidationError{
			Field:   "llm.rate_limit",
			Message: "rate_limit must be positive",
		})
	}

	// Validate Database config
	if c.Database.URL != "" {
		if _, err := url.Parse(c.Database.URL); err != nil {
			errors = append(errors, ValidationError{
				Field:   "database.url",
				Message: "invalid database URL",
			})
		}
	}

	if c.Database.VectorDim < 1 {
		errors = append(errors, ValidationError{
			Field:   "database.vector_dim",
			Message: "vector_dim must be positive",
		})
	}

	if c.Database.BatchSize < 1 {
		errors = append(errors, ValidationError{
			Field:   "database.batch_size",
			Message: "batch_size must be positive",
		})
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errors = append(errors, ValidationError{
			Field:   "server.port",
			Message: "port must be between 1 and 65535",
		})
	}

	if c.Workers < 1 {
		errors = append(errors, ValidationError{
			Field:   "workers",
			Message: "workers must be positive",
		})
	}

	return errors
}
