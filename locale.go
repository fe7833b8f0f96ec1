package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type Locale struct {
	translations map[string]string
	locale       string
}

var globalLocale *Locale

// defaultMessages is the en_US table. Locale files only need to override keys they translate.
var defaultMessages = map[string]string{
	"banner_title":          "RobotSpareBin Robot Order Assistant",
	"browser_launching":     "🌐 Launching browser...",
	"browser_launched":      "✓ Browser ready",
	"browser_system_chrome": "✓ Using system Chrome browser",
	"browser_no_chrome":     "Chrome not found, downloading Chromium...",
	"browser_closed":        "⚠️  Browser closed - stopping run",
	"cleaning_up":           "Cleaning up...",
	"browser_destroyed":     "✓ Browser closed",
	"step_open_site":        "🚀 Step 1: Opening order form %s",
	"step_fetch_orders":     "📥 Step 2: Downloading orders from %s",
	"step_process_orders":   "🤖 Step 3: Ordering robots",
	"step_archive":          "🗜️  Step 4: Archiving receipts",
	"order_processing":      "   • Order %s: head=%s body=%s",
	"order_done":            "   ✓ Order %s -> %s",
	"submit_retry":          "   ⚠️  Order %s rejected by the site, resubmitting (attempt %d/%d)",
	"archive_created":       "✓ Archived %d receipts into %s",
	"run_complete":          "✓ Ordered %d robots",
	"run_failed":            "✗ Run failed: %v",
	"keeping_browser_open":  "Keeping browser open for 30 seconds...",
}

// InitLocale initializes the global locale system
func InitLocale() error {
	dir, err := localeDir()
	if err != nil {
		globalLocale = &Locale{translations: defaultMessages, locale: "en_US"}
		return err
	}
	return initLocaleFrom(dir, DetectSystemLocale())
}

// initLocaleFrom installs <dir>/<locale>.yaml. A locale without a file uses English silently.
func initLocaleFrom(dir, locale string) error {
	l, err := LoadLocaleFrom(dir, locale)
	if err != nil {
		globalLocale = &Locale{translations: defaultMessages, locale: "en_US"}
		if locale == "en_US" || errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load locale %s: %w", locale, err)
	}

	globalLocale = l
	return nil
}

// DetectSystemLocale detects the user's system locale
func DetectSystemLocale() string {
	for _, env := range []string{"LANG", "LC_ALL", "LC_MESSAGES"} {
		if locale := os.Getenv(env); locale != "" {
			// LANG is typically like "en_US.UTF-8"
			parts := strings.Split(locale, ".")
			if parts[0] != "" && parts[0] != "C" && parts[0] != "POSIX" {
				return parts[0]
			}
		}
	}

	return "en_US"
}

// localeDir is the lang directory next to the executable
func localeDir() (string, error) {
	exePath, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to get executable path: %w", err)
	}
	return filepath.Join(filepath.Dir(exePath), "lang"), nil
}

// LoadLocaleFrom loads <dir>/<locale>.yaml on top of the English table
func LoadLocaleFrom(dir, locale string) (*Locale, error) {
	localeFile := filepath.Join(dir, locale+".yaml")

	data, err := os.ReadFile(localeFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read locale file %s: %w", localeFile, err)
	}

	var overrides map[string]string
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("failed to parse locale file %s: %w", localeFile, err)
	}

	translations := make(map[string]string, len(defaultMessages)+len(overrides))
	for k, v := range defaultMessages {
		translations[k] = v
	}
	for k, v := range overrides {
		translations[k] = v
	}

	return &Locale{
		translations: translations,
		locale:       locale,
	}, nil
}

// T translates a key with optional fmt parameters
func T(key string, params ...interface{}) string {
	translations := defaultMessages
	if globalLocale != nil {
		translations = globalLocale.translations
	}

	translation, ok := translations[key]
	if !ok {
		return key
	}

	if len(params) > 0 {
		return fmt.Sprintf(translation, params...)
	}

	return translation
}

// GetLocale returns the current locale code (e.g., "en_US", "ru_RU")
func GetLocale() string {
	if globalLocale == nil {
		return "en_US"
	}
	return globalLocale.locale
}
