package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadPromptsFromFiles(t *testing.T) {
	tempDir := t.TempDir()

	systemContent := "You read resumes for an HR team."
	userContent := "Extract the candidate profile from:\n%s"

	systemFile := filepath.Join(tempDir, "system.resume.md")
	userFile := filepath.Join(tempDir, "user.resume.md")

	if err := os.WriteFile(systemFile, []byte("  "+systemContent+"\n"), 0600); err != nil {
		t.Fatalf("Failed to create system prompt file: %v", err)
	}
	if err := os.WriteFile(userFile, []byte(userContent), 0600); err != nil {
		t.Fatalf("Failed to create user prompt file: %v", err)
	}

	cfg := &Config{
		AI: AIConfig{
			ResumeExtraction: OperationAIConfig{
				CustomPrompts: PromptConfig{SystemFile: systemFile, UserFile: userFile},
			},
		},
	}

	if err := cfg.loadPromptsFromFiles(); err != nil {
		t.Fatalf("Failed to load prompts from files: %v", err)
	}

	loaded := cfg.AI.ResumeExtraction.LoadedPrompts
	if loaded.System != systemContent {
		t.Errorf("Expected system prompt %q, got %q", systemContent, loaded.System)
	}
	if loaded.User != userContent {
		t.Errorf("Expected user prompt %q, got %q", userContent, loaded.User)
	}

	if cfg.AI.JobExtraction.LoadedPrompts != (LoadedPrompts{}) {
		t.Error("Expected no prompts loaded for job extraction")
	}
	if cfg.AI.ResumeExtraction.CustomPrompts.SystemFile != systemFile {
		t.Error("Expected system prompt file path to be preserved")
	}
}

func TestLoadPromptsFromFilesCarriedIntoOperationConfig(t *testing.T) {
	tempDir := t.TempDir()
	userFile := filepath.Join(tempDir, "leave.md")
	if err := os.WriteFile(userFile, []byte("Summarize %s"), 0600); err != nil {
		t.Fatal(err)
	}

	cfg := &Config{AI: AIConfig{
		Provider:     "gemini",
		LeaveSummary: OperationAIConfig{CustomPrompts: PromptConfig{UserFile: userFile}},
	}}
	if err := cfg.loadPromptsFromFiles(); err != nil {
		t.Fatal(err)
	}

	opCfg, err := cfg.OperationConfig(OpLeaveSummary)
	if err != nil {
		t.Fatal(err)
	}
	if opCfg.LoadedPrompts.User != "Summarize %s" {
		t.Errorf("Expected loaded prompt in operation config, got %q", opCfg.LoadedPrompts.User)
	}
}

func TestValidatePromptFiles(t *testing.T) {
	tempDir := t.TempDir()
	validFile := filepath.Join(tempDir, "valid.md")
	if err := os.WriteFile(validFile, []byte("Valid content"), 0600); err != nil {
		t.Fatal(err)
	}
	missing := filepath.Join(tempDir, "missing.md")

	tests := []struct {
		name      string
		ops       map[string]*OperationAIConfig
		expectErr bool
	}{
		{
			name:      "no files configured",
			ops:       map[string]*OperationAIConfig{OpJobExtraction: {}},
			expectErr: false,
		},
		{
			name: "existing file",
			ops: map[string]*OperationAIConfig{
				OpJobExtraction: {CustomPrompts: PromptConfig{SystemFile: validFile}},
			},
			expectErr: false,
		},
		{
			name: "missing file",
			ops: map[string]*OperationAIConfig{
				OpJobExtraction: {CustomPrompts: PromptConfig{SystemFile: validFile, UserFile: missing}},
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			names := make([]string, 0, len(tt.ops))
			for name := range tt.ops {
				names = append(names, name)
			}
			err := validatePromptFiles(tt.ops, names)
			if tt.expectErr && err == nil {
				t.Error("Expected validation error, got nil")
			}
			if !tt.expectErr && err != nil {
				t.Errorf("Expected no error, got %v", err)
			}
			if tt.expectErr && err != nil && !strings.Contains(err.Error(), "missing.md") {
				t.Errorf("Expected error to name the missing file, got %v", err)
			}
		})
	}
}

func TestLoadPromptFromFileEmpty(t *testing.T) {
	emptyFile := filepath.Join(t.TempDir(), "empty.md")
	if err := os.WriteFile(emptyFile, []byte(" \n\t\n"), 0600); err != nil {
		t.Fatal(err)
	}

	_, err := loadPromptFromFile(emptyFile, "system", OpLeaveSummary)
	if err == nil {
		t.Fatal("Expected error for empty prompt file")
	}
	if !strings.Contains(err.Error(), "is empty") {
		t.Errorf("Unexpected error: %v", err)
	}
}
