package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// loadPromptsFromFiles reads every configured prompt file into the operation's LoadedPrompts.
// Missing files are collected and reported together.
func (c *Config) loadPromptsFromFiles() error {
	ops := c.operations()
	names := make([]string, 0, len(ops))
	for name := range ops {
		names = append(names, name)
	}
	sort.Strings(names)

	if err := validatePromptFiles(ops, names); err != nil {
		return err
	}

	loaded := 0
	for _, name := range names {
		op := ops[name]
		if op.CustomPrompts.SystemFile != "" {
			content, err := loadPromptFromFile(op.CustomPrompts.SystemFile, "system", name)
			if err != nil {
				return err
			}
			op.LoadedPrompts.System = content
			loaded++
		}
		if op.CustomPrompts.UserFile != "" {
			content, err := loadPromptFromFile(op.CustomPrompts.UserFile, "user", name)
			if err != nil {
				return err
			}
			op.LoadedPrompts.User = content
			loaded++
		}
	}

	if loaded > 0 && c.App.LogLevel == "debug" {
		logf("Custom prompts loaded from files: %d", loaded)
	}
	return nil
}

// loadPromptFromFile reads and trims a prompt file. Empty files are an error.
func loadPromptFromFile(filePath, promptType, operation string) (string, error) {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path for %s %s prompt file '%s': %w", promptType, operation, filePath, err)
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		return "", fmt.Errorf("failed to read %s %s prompt file '%s': %w", promptType, operation, absPath, err)
	}

	trimmed := strings.TrimSpace(string(content))
	if trimmed == "" {
		return "", fmt.Errorf("%s %s prompt file '%s' is empty", promptType, operation, absPath)
	}
	return trimmed, nil
}

func validatePromptFiles(ops map[string]*OperationAIConfig, names []string) error {
	var problems []string
	check := func(path, promptType, operation string) {
		if path == "" {
			return
		}
		absPath, err := filepath.Abs(path)
		if err != nil {
			problems = append(problems, fmt.Sprintf("invalid path for %s %s prompt: %s", promptType, operation, path))
			return
		}
		if _, err := os.Stat(absPath); os.IsNotExist(err) {
			problems = append(problems, fmt.Sprintf("%s %s prompt file not found: %s", promptType, operation, absPath))
		}
	}

	for _, name := range names {
		check(ops[name].CustomPrompts.SystemFile, "system", name)
		check(ops[name].CustomPrompts.UserFile, "user", name)
	}

	if len(problems) > 0 {
		return fmt.Errorf("prompt file validation failed:\n%s", strings.Join(problems, "\n"))
	}
	return nil
}
