package config

import (
	"os"
	"path/filepath"
)

// Deployment platforms recognised by DetectServerless
const (
	PlatformNone   = ""
	PlatformLambda = "lambda"
	PlatformVercel = "vercel"
)

// serverlessScratchDir is the only writable location on the supported platforms
const serverlessScratchDir = "/tmp"

// ServerlessConfig holds serverless-specific configuration
type ServerlessConfig struct {
	Platform     string
	FunctionName string
	Region       string
	Stage        string
}

// DetectServerless inspects the environment through getenv and reports the hosting platform
func DetectServerless(getenv func(string) string) *ServerlessConfig {
	sc := &ServerlessConfig{
		FunctionName: getenv("AWS_LAMBDA_FUNCTION_NAME"),
		Region:       getenv("AWS_REGION"),
		Stage:        getenv("STAGE"),
	}
	switch {
	case sc.FunctionName != "":
		sc.Platform = PlatformLambda
	case getenv("VERCEL") != "":
		sc.Platform = PlatformVercel
		sc.Region = getenv("VERCEL_REGION")
		sc.Stage = getenv("VERCEL_ENV")
	}
	if sc.Stage == "" {
		sc.Stage = "dev"
	}
	return sc
}

// IsServerless returns true if a serverless platform was detected
func (sc *ServerlessConfig) IsServerless() bool {
	return sc != nil && sc.Platform != PlatformNone
}

// DeploymentMode returns the current deployment mode
func (sc *ServerlessConfig) DeploymentMode() string {
	if sc.IsServerless() {
		return "serverless"
	}
	return "server"
}

// AdaptConfigForServerless relocates relative database and upload paths to the
// scratch directory, since the deployment bundle is read-only on serverless platforms.
func AdaptConfigForServerless(cfg *Config, sc *ServerlessConfig) *Config {
	if !sc.IsServerless() {
		return cfg
	}

	if !filepath.IsAbs(cfg.Database.Path) {
		cfg.Database.Path = filepath.Join(serverlessScratchDir, cfg.Database.Path)
	}
	if !filepath.IsAbs(cfg.Upload.Folder) {
		cfg.Upload.Folder = filepath.Join(serverlessScratchDir, cfg.Upload.Folder)
	}
	if cfg.Environment == "development" {
		cfg.Environment = "production"
	}

	return cfg
}

// GetOptimizedConfig returns configuration optimized for the current deployment mode
func GetOptimizedConfig() (*Config, *ServerlessConfig, error) {
	cfg, err := Load()
	if err != nil {
		return nil, nil, err
	}

	sc := DetectServerless(os.Getenv)
	return AdaptConfigForServerless(cfg, sc), sc, nil
}
