package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func resetLogging() {
	CloseAll()
	logsDir = ""
	config = Options{}
}

// TestAllCategoriesLog tests that all categories create log files when debug_mode is true
func TestAllCategoriesLog(t *testing.T) {
	tempDir := t.TempDir()
	logsPath := filepath.Join(tempDir, "logs")

	resetLogging()
	defer resetLogging()

	if err := Initialize(Options{DebugMode: true, Level: "debug", Dir: logsPath}); err != nil {
		t.Fatalf("Failed to initialize logging: %v", err)
	}
	if !IsDebugMode() {
		t.Error("Expected debug mode to be enabled")
	}

	categories := []Category{
		CategoryBoot,
		CategoryAPI,
		CategoryAgents,
		CategoryAnalyzer,
		CategoryPipeline,
		CategoryFlow,
		CategoryCritique,
		CategoryEngine,
		CategoryParser,
		CategoryVerifier,
		CategoryTools,
	}

	for _, cat := range categories {
		if !IsCategoryEnabled(cat) {
			t.Errorf("Category %s should be enabled", cat)
		}
		logger := Get(cat)
		logger.Info("Test info message for %s", cat)
		logger.Debug("Test debug message for %s", cat)
		logger.Warn("Test warn message for %s", cat)
		logger.Error("Test error message for %s", cat)
	}

	Boot("Convenience boot log")
	API("Convenience api log")
	Critique("Convenience critique log")
	Verifier("Convenience verifier log")

	CloseAll()

	entries, err := os.ReadDir(logsPath)
	if err != nil {
		t.Fatalf("Failed to read logs dir: %v", err)
	}

	for _, cat := range categories {
		found := false
		for _, entry := range entries {
			if strings.HasSuffix(entry.Name(), "_"+string(cat)+".log") {
				found = true
				content, err := os.ReadFile(filepath.Join(logsPath, entry.Name()))
				if err != nil {
					t.Errorf("Failed to read log file for %s: %v", cat, err)
					continue
				}
				if len(content) == 0 {
					t.Errorf("Log file for %s is empty", cat)
				}
				break
			}
		}
		if !found {
			t.Errorf("No log file found for category: %s", cat)
		}
	}
}

// TestDebugModeDisabled tests that no logs are created when debug_mode is false
func TestDebugModeDisabled(t *testing.T) {
	tempDir := t.TempDir()
	logsPath := filepath.Join(tempDir, "logs")

	resetLogging()
	defer resetLogging()

	if err := Initialize(Options{DebugMode: false, Level: "debug", Dir: logsPath}); err != nil {
		t.Fatalf("Failed to initialize logging: %v", err)
	}
	if IsDebugMode() {
		t.Error("Expected debug mode to be DISABLED")
	}
	if IsCategoryEnabled(CategoryBoot) {
		t.Error("Category boot should be disabled when debug_mode=false")
	}

	Boot("This should NOT be logged")
	Get(CategoryVerifier).Error("This should NOT be logged")
	CloseAll()

	if _, err := os.Stat(logsPath); !os.IsNotExist(err) {
		t.Errorf("Expected logs directory to be absent, stat err = %v", err)
	}
}

// TestCategoryToggle tests individual category enable/disable
func TestCategoryToggle(t *testing.T) {
	tempDir := t.TempDir()
	logsPath := filepath.Join(tempDir, "logs")

	resetLogging()
	defer resetLogging()

	err := Initialize(Options{
		DebugMode:  true,
		Level:      "info",
		JSONFormat: true,
		Dir:        logsPath,
		Categories: map[string]bool{"critique": true, "verifier": false},
	})
	if err != nil {
		t.Fatalf("Failed to initialize logging: %v", err)
	}

	if !IsCategoryEnabled(CategoryCritique) {
		t.Error("critique should be enabled")
	}
	if IsCategoryEnabled(CategoryVerifier) {
		t.Error("verifier should be disabled")
	}
	if !IsCategoryEnabled(CategoryFlow) {
		t.Error("unlisted categories default to enabled")
	}

	Critique("score=%d", 9)
	Verifier("hidden")
	CloseAll()

	entries, err := os.ReadDir(logsPath)
	if err != nil {
		t.Fatalf("Failed to read logs dir: %v", err)
	}
	for _, e := range entries {
		if strings.Contains(e.Name(), "verifier") {
			t.Errorf("unexpected log file for disabled category: %s", e.Name())
		}
		if strings.Contains(e.Name(), "critique") {
			content, _ := os.ReadFile(filepath.Join(logsPath, e.Name()))
			if !strings.Contains(string(content), `"msg":"score=9"`) {
				t.Errorf("expected JSON entry, got %q", content)
			}
		}
	}
}
