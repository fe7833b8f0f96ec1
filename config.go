package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	OrderFormURL string `yaml:"order_form_url" validate:"required,url"`
	OrdersURL    string `yaml:"orders_url" validate:"required,url"`
	OrdersFile   string `yaml:"orders_file" validate:"required"`

	OutputDir   string `yaml:"output_dir" validate:"required"`
	ArchiveName string `yaml:"archive_name" validate:"required"`

	BrowserProfilePath string `yaml:"browser_profile_path"`

	Headless     bool `yaml:"headless"`
	Stealth      bool `yaml:"stealth"`
	SlowMotionMs int  `yaml:"slow_motion_ms" validate:"min=0"`

	ElementTimeout  int `yaml:"element_timeout" validate:"min=1"`
	PageLoadTimeout int `yaml:"page_load_timeout" validate:"min=1"`

	SubmitCheckTimeoutMs int `yaml:"submit_check_timeout_ms" validate:"min=1"`
	SubmitPollIntervalMs int `yaml:"submit_poll_interval_ms" validate:"min=1"`
	MaxSubmitAttempts    int `yaml:"max_submit_attempts" validate:"min=1"`

	ViewportWidth  int `yaml:"viewport_width" validate:"min=0"`
	ViewportHeight int `yaml:"viewport_height" validate:"min=0"`

	KeepBrowserOpen bool `yaml:"keep_browser_open"`
	DebugMode       bool `yaml:"debug_mode"`

	Selectors SelectorConfig `yaml:"selectors"`
}

type SelectorConfig struct {
	ModalButton     string `yaml:"modal_button" validate:"required"`
	ModalButtonText string `yaml:"modal_button_text" validate:"required"`
	Head            string `yaml:"head" validate:"required"`
	BodyOption      string `yaml:"body_option" validate:"required"`
	LegsXPath       string `yaml:"legs_xpath" validate:"required"`
	Address         string `yaml:"address" validate:"required"`
	OrderButton     string `yaml:"order_button" validate:"required"`
	Receipt         string `yaml:"receipt" validate:"required"`
	OrderAnother    string `yaml:"order_another" validate:"required"`
}

func DefaultConfig() *Config {
	userDataDir := getUserDataDir()

	return &Config{
		OrderFormURL:         "https://robotsparebinindustries.com/#/robot-order",
		OrdersURL:            "https://robotsparebinindustries.com/orders.csv",
		OrdersFile:           "orders.csv",
		OutputDir:            "output",
		ArchiveName:          "receipts.zip",
		BrowserProfilePath:   filepath.Join(userDataDir, "browser-profile"),
		Headless:             false,
		Stealth:              false,
		SlowMotionMs:         100,
		ElementTimeout:       10,
		PageLoadTimeout:      30,
		SubmitCheckTimeoutMs: 2000,
		SubmitPollIntervalMs: 100,
		MaxSubmitAttempts:    10,
		ViewportWidth:        1920,
		ViewportHeight:       1080,
		KeepBrowserOpen:      false,
		DebugMode:            false,
		Selectors: SelectorConfig{
			ModalButton:     "button",
			ModalButtonText: "OK",
			Head:            "#head",
			BodyOption:      "label",
			LegsXPath:       "//label[contains(.,'3. Legs:')]/../input",
			Address:         "#address",
			OrderButton:     "#order",
			Receipt:         "#receipt",
			OrderAnother:    "#order-another",
		},
	}
}

func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := config.Save(path); err != nil {
			return nil, err
		}
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	if config.BrowserProfilePath != "" {
		if err := os.MkdirAll(config.BrowserProfilePath, 0755); err != nil {
			return nil, err
		}
	}

	return config, nil
}

// Validate checks field constraints declared in the struct tags.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// ReceiptsDir is where per-order receipts and screenshots are written.
func (c *Config) ReceiptsDir() string {
	return filepath.Join(c.OutputDir, "receipts")
}

// ReceiptPath is the exported receipt PDF for an order.
func (c *Config) ReceiptPath(orderNumber string) string {
	return filepath.Join(c.ReceiptsDir(), orderNumber+".pdf")
}

// ScreenshotPath is the page screenshot for an order.
func (c *Config) ScreenshotPath(orderNumber string) string {
	return filepath.Join(c.ReceiptsDir(), "screenshot"+orderNumber+".png")
}

// MergedReceiptPath is the receipt with the screenshot appended.
func (c *Config) MergedReceiptPath(orderNumber string) string {
	return filepath.Join(c.OutputDir, mergedReceiptPrefix+orderNumber+".pdf")
}

// ArchivePath is the zip of all merged receipts.
func (c *Config) ArchivePath() string {
	return filepath.Join(c.OutputDir, c.ArchiveName)
}

func (c *Config) elementTimeout() time.Duration {
	return time.Duration(c.ElementTimeout) * time.Second
}

func (c *Config) pageLoadTimeout() time.Duration {
	return time.Duration(c.PageLoadTimeout) * time.Second
}

func (c *Config) submitCheckTimeout() time.Duration {
	return time.Duration(c.SubmitCheckTimeoutMs) * time.Millisecond
}

func (c *Config) submitPollInterval() time.Duration {
	return time.Duration(c.SubmitPollIntervalMs) * time.Millisecond
}

func (c *Config) slowMotion() time.Duration {
	return time.Duration(c.SlowMotionMs) * time.Millisecond
}

func getUserDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./robocorder-data"
	}
	return filepath.Join(home, ".robocorder")
}
