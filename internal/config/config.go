// Package config loads pipeline configuration from a YAML file with
// environment variable overrides. Secrets (the query-service API key and the
// Google service account credentials path) are never stored in the file.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the HCO tools.
type Config struct {
	Redash RedashConfig `yaml:"redash"`
	Google GoogleConfig `yaml:"google"`
	Sheets SheetsConfig `yaml:"sheets"`
	Drive  DriveConfig  `yaml:"drive"`
	Export ExportConfig `yaml:"export"`
}

// RedashConfig holds query-service settings. APIKey comes from the
// REDASH_API_KEY environment variable only.
type RedashConfig struct {
	BaseURL        string `yaml:"base_url"`
	QueryID        int    `yaml:"query_id"`
	APIKey         string `yaml:"-"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the request timeout as a duration.
func (c RedashConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// GoogleConfig holds the service account credentials location.
type GoogleConfig struct {
	CredentialsFile string `yaml:"credentials_file"`
}

// SheetsConfig identifies the input and output spreadsheet documents.
type SheetsConfig struct {
	InputSpreadsheetID  string `yaml:"input_spreadsheet_id"`
	OutputSpreadsheetID string `yaml:"output_spreadsheet_id"`
}

// DriveConfig identifies the Drive folder roots the pipeline works under.
type DriveConfig struct {
	ShipperRootFolderID string `yaml:"shipper_root_folder_id"`
	InternalFolderID    string `yaml:"internal_folder_id"`
	ResponseFolderID    string `yaml:"response_folder_id"`
	CleanupFolderID     string `yaml:"cleanup_folder_id"`
}

// ExportConfig holds local scratch settings for generated files.
type ExportConfig struct {
	ScratchDir string `yaml:"scratch_dir"`
}

// Load reads and parses the configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// LoadFromEnv loads configuration with environment variable overrides.
// A .env file is honored if present.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("REDASH_BASE_URL"); v != "" {
		cfg.Redash.BaseURL = v
	}
	if v := os.Getenv("REDASH_API_KEY"); v != "" {
		cfg.Redash.APIKey = v
	}
	if v := os.Getenv("GOOGLE_CREDENTIALS_FILE"); v != "" {
		cfg.Google.CredentialsFile = v
	} else if v := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); v != "" && cfg.Google.CredentialsFile == "" {
		cfg.Google.CredentialsFile = v
	}
	if v := os.Getenv("HCO_INPUT_SPREADSHEET_ID"); v != "" {
		cfg.Sheets.InputSpreadsheetID = v
	}
	if v := os.Getenv("HCO_OUTPUT_SPREADSHEET_ID"); v != "" {
		cfg.Sheets.OutputSpreadsheetID = v
	}
	if v := os.Getenv("HCO_SHIPPER_ROOT_FOLDER_ID"); v != "" {
		cfg.Drive.ShipperRootFolderID = v
	}
	if v := os.Getenv("HCO_INTERNAL_FOLDER_ID"); v != "" {
		cfg.Drive.InternalFolderID = v
	}
	if v := os.Getenv("HCO_RESPONSE_FOLDER_ID"); v != "" {
		cfg.Drive.ResponseFolderID = v
	}
	if v := os.Getenv("HCO_CLEANUP_FOLDER_ID"); v != "" {
		cfg.Drive.CleanupFolderID = v
	}
	if v := os.Getenv("HCO_SCRATCH_DIR"); v != "" {
		cfg.Export.ScratchDir = v
	}

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Export.ScratchDir == "" {
		c.Export.ScratchDir = os.TempDir()
	}
	if c.Redash.TimeoutSeconds == 0 {
		c.Redash.TimeoutSeconds = 30
	}
}

// ValidateExport checks the settings the export pipeline cannot run without.
func (c *Config) ValidateExport() error {
	if c.Redash.BaseURL == "" {
		return fmt.Errorf("redash base_url is required")
	}
	if c.Redash.APIKey == "" {
		return fmt.Errorf("REDASH_API_KEY is required")
	}
	if c.Redash.QueryID == 0 {
		return fmt.Errorf("redash query_id is required")
	}
	if c.Google.CredentialsFile == "" {
		return fmt.Errorf("google credentials file is required")
	}
	if c.Sheets.InputSpreadsheetID == "" || c.Sheets.OutputSpreadsheetID == "" {
		return fmt.Errorf("input and output spreadsheet ids are required")
	}
	if c.Drive.ShipperRootFolderID == "" || c.Drive.InternalFolderID == "" {
		return fmt.Errorf("shipper root and internal folder ids are required")
	}
	return nil
}

// ValidateCollect checks the settings the response collector cannot run without.
func (c *Config) ValidateCollect() error {
	if c.Google.CredentialsFile == "" {
		return fmt.Errorf("google credentials file is required")
	}
	if c.Sheets.OutputSpreadsheetID == "" {
		return fmt.Errorf("output spreadsheet id is required")
	}
	if c.Drive.ResponseFolderID == "" {
		return fmt.Errorf("response folder id is required")
	}
	return nil
}
