package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadPromptFromFile(t *testing.T) {
	tempDir := t.TempDir()

	content := "You are a strict ATS reviewer."
	testFile := filepath.Join(tempDir, "system.md")
	if err := os.WriteFile(testFile, []byte("\n"+content+"\n\n"), 0600); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	loaded, err := loadPromptFromFile(testFile, "system")
	if err != nil {
		t.Fatalf("Failed to load prompt from file: %v", err)
	}
	if loaded != content {
		t.Errorf("Expected content '%s', got '%s'", content, loaded)
	}

	emptyFile := filepath.Join(tempDir, "empty.md")
	if err := os.WriteFile(emptyFile, []byte("   \n"), 0600); err != nil {
		t.Fatalf("Failed to create empty test file: %v", err)
	}
	if _, err := loadPromptFromFile(emptyFile, "system"); err == nil {
		t.Error("Expected error for empty file")
	}

	if _, err := loadPromptFromFile(filepath.Join(tempDir, "nonexistent.md"), "system"); err == nil {
		t.Error("Expected error for non-existent file")
	}
}

func TestLoadPromptFilesOverridesInline(t *testing.T) {
	tempDir := t.TempDir()
	systemFile := filepath.Join(tempDir, "system.md")
	if err := os.WriteFile(systemFile, []byte("from file"), 0600); err != nil {
		t.Fatalf("Failed to create system prompt file: %v", err)
	}

	config := &Config{AI: AIConfig{Prompts: PromptConfig{System: "inline", SystemFile: systemFile}}}
	if err := config.loadPromptFiles(); err != nil {
		t.Fatalf("Failed to load prompts from files: %v", err)
	}
	if got := config.SystemPrompt(); got != "from file" {
		t.Errorf("Expected file prompt to win, got '%s'", got)
	}
	if config.AI.Prompts.SystemFile != systemFile {
		t.Error("Expected system prompt file path to be preserved")
	}
}

func TestLoadPromptFilesWithoutFile(t *testing.T) {
	config := &Config{AI: AIConfig{Prompts: PromptConfig{System: "  inline  "}}}
	if err := config.loadPromptFiles(); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got := config.SystemPrompt(); got != "inline" {
		t.Errorf("Expected trimmed inline prompt, got '%s'", got)
	}

	config.AI.Prompts.SystemFile = filepath.Join(t.TempDir(), "missing.md")
	if err := config.loadPromptFiles(); err == nil {
		t.Error("Expected error for missing prompt file")
	}
}
