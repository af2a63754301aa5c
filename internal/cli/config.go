package cli

import (
	"os"
	"strings"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"viswords-api/internal/config"
)

// configView is the printable form of the resolved configuration
type configView struct {
	Environment string `yaml:"environment"`
	Mode        string `yaml:"mode"`
	Platform    string `yaml:"platform,omitempty"`
	Port        string `yaml:"port"`
	LogLevel    string `yaml:"log_level"`
	SecretKey   string `yaml:"secret_key"`
	Ark         struct {
		APIKey string `yaml:"api_key"`
		APIURL string `yaml:"api_url"`
		Model  string `yaml:"model"`
	} `yaml:"ark"`
	Database string `yaml:"database"`
	Upload   struct {
		Folder            string   `yaml:"folder"`
		MaxContentLength  string   `yaml:"max_content_length"`
		AllowedExtensions []string `yaml:"allowed_extensions"`
		Retention         string   `yaml:"retention"`
		CleanupSchedule   string   `yaml:"cleanup_schedule"`
	} `yaml:"upload"`
}

func newConfigCmd() *cobra.Command {
	var serverless bool

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the resolved configuration with secrets masked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			sc := config.DetectServerless(os.Getenv)
			if serverless && !sc.IsServerless() {
				sc.Platform = config.PlatformLambda
			}
			cfg = config.AdaptConfigForServerless(cfg, sc)

			view := newConfigView(cfg, sc)
			if err := cfg.Validate(); err != nil {
				cmd.PrintErrf("warning: %v\n", err)
			}

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(view)
		},
	}

	cmd.Flags().BoolVar(&serverless, "serverless", false, "show the configuration as adapted for a serverless platform")
	return cmd
}

func newConfigView(cfg *config.Config, sc *config.ServerlessConfig) configView {
	var v configView
	v.Environment = cfg.Environment
	v.Mode = sc.DeploymentMode()
	v.Platform = sc.Platform
	v.Port = cfg.Port
	v.LogLevel = cfg.LogLevel
	v.SecretKey = mask(cfg.SecretKey, config.DefaultSecretKey)
	v.Ark.APIKey = mask(cfg.Ark.APIKey, config.DefaultArkAPIKey)
	v.Ark.APIURL = cfg.Ark.APIURL
	v.Ark.Model = cfg.Ark.Model
	v.Database = cfg.Database.Path
	v.Upload.Folder = cfg.Upload.Folder
	v.Upload.MaxContentLength = humanize.IBytes(uint64(max(cfg.Upload.MaxContentLength, 0)))
	v.Upload.AllowedExtensions = cfg.Upload.AllowedExtensions
	v.Upload.Retention = "disabled"
	if cfg.Upload.Retention > 0 {
		v.Upload.Retention = cfg.Upload.Retention.String()
	}
	v.Upload.CleanupSchedule = cfg.Upload.CleanupSchedule
	return v
}

// mask hides all but the first two characters of a secret
func mask(secret, placeholder string) string {
	switch {
	case secret == "":
		return "(unset)"
	case secret == placeholder:
		return "(placeholder)"
	case utf8.RuneCountInString(secret) <= 4:
		return "****"
	}
	return string([]rune(secret)[:2]) + strings.Repeat("*", 6)
}
