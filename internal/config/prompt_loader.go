package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// SystemPrompt returns the configured system prompt override, or "" to use the built-in one.
// A configured systemFile replaces the inline value during loading.
func (c *Config) SystemPrompt() string {
	return strings.TrimSpace(c.AI.Prompts.System)
}

// loadPromptFiles replaces inline prompt values with the contents of any configured prompt file
func (c *Config) loadPromptFiles() error {
	if c.AI.Prompts.SystemFile == "" {
		if c.AI.Prompts.System != "" {
			log.Println("[CONFIG] Using inline system prompt from configuration")
		} else {
			log.Println("[CONFIG] No custom prompts configured - using built-in defaults")
		}
		return nil
	}

	content, err := loadPromptFromFile(c.AI.Prompts.SystemFile, "system")
	if err != nil {
		return err
	}
	c.AI.Prompts.System = content
	return nil
}

// loadPromptFromFile loads a prompt from a file, rejecting missing or empty files
func loadPromptFromFile(filePath, promptType string) (string, error) {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path for %s prompt file '%s': %w", promptType, filePath, err)
	}

	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		return "", fmt.Errorf("%s prompt file not found: %s", promptType, absPath)
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		return "", fmt.Errorf("failed to read %s prompt file '%s': %w", promptType, absPath, err)
	}

	trimmed := strings.TrimSpace(string(content))
	if trimmed == "" {
		return "", fmt.Errorf("%s prompt file '%s' is empty", promptType, absPath)
	}

	log.Printf("[CONFIG] Successfully loaded %s prompt from file: %s (%d characters)", promptType, absPath, len(trimmed))
	return trimmed, nil
}
