package runner

import (
	"fmt"
	"os"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/hupe1980/webscout/artifact"
	"github.com/hupe1980/webscout/artifact/s3"
	"github.com/hupe1980/webscout/browser"
	"github.com/hupe1980/webscout/config"
	"github.com/hupe1980/webscout/core"
	"github.com/hupe1980/webscout/logging"
	"github.com/hupe1980/webscout/model"
	"github.com/hupe1980/webscout/model/anthropic"
	"github.com/hupe1980/webscout/model/openai"
	"github.com/hupe1980/webscout/roles"
	"github.com/hupe1980/webscout/tool/extraction"
)

// FromConfig wires a Runner from cfg: logger, model, artifact store and a
// launched browser session. The returned close func releases the browser.
func FromConfig(cfg *config.Config) (*Runner, func() error, error) {
	logger, err := NewLogger(cfg.Logger)
	if err != nil {
		return nil, nil, err
	}

	m, err := NewModel(cfg.Model)
	if err != nil {
		return nil, nil, err
	}

	store, err := NewArtifactStore(cfg.Artifacts)
	if err != nil {
		return nil, nil, err
	}

	session, err := browser.Launch(func(o *browser.Options) {
		o.Headless = cfg.Browser.Headless
		o.CDPURL = cfg.Browser.CDPURL
		o.ViewportWidth = cfg.Browser.ViewportWidth
		o.ViewportHeight = cfg.Browser.ViewportHeight
		o.Timeout = float64(cfg.Browser.Timeout.Milliseconds())
		o.Install = cfg.Browser.Install
		o.Logger = logging.With(logger, "component", "browser")
	})
	if err != nil {
		return nil, nil, fmt.Errorf("launch browser: %w", err)
	}

	r := New(m, func(o *Options) {
		o.SaveDir = cfg.Agent.SaveDir
		o.MaxModelCalls = cfg.Model.MaxCalls
		o.Page = session
		o.ArtifactStore = store
		o.Logger = logger
		o.Roles = append(o.Roles, RoleOptions(cfg.Agent))
	})

	return r, session.Close, nil
}

// NewLogger builds the run logger, optionally tee'd into a rotating file.
func NewLogger(cfg config.LoggerConfig) (logging.Logger, error) {
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	lc := &logging.LoggerConfig{
		Level:     level,
		Format:    cfg.Format,
		Output:    os.Stderr,
		AddSource: cfg.AddSource,
	}

	if cfg.File != "" {
		lc.File = &logging.FileConfig{
			Filename:   cfg.File,
			MaxSizeMB:  cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAgeDays: cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		}
	}

	return logging.NewLogger(lc), nil
}

// NewModel returns the provider adapter selected by cfg.Provider.
func NewModel(cfg config.ModelConfig) (model.Model, error) {
	switch cfg.Provider {
	case "openai":
		return openai.NewModel(func(o *openai.Options) {
			o.Model = cfg.Name
			o.Temperature = cfg.Temperature
			o.MaxCompletionTokens = cfg.MaxTokens
			o.APIKey = cfg.APIKey
			o.BaseURL = cfg.BaseURL
		}), nil
	case "anthropic":
		return anthropic.NewModel(func(o *anthropic.Options) {
			o.Model = anthropicsdk.Model(cfg.Name)
			o.Temperature = cfg.Temperature
			o.MaxTokens = cfg.MaxTokens
			o.APIKey = cfg.APIKey
			o.BaseURL = cfg.BaseURL
		}), nil
	default:
		return nil, fmt.Errorf("unsupported model provider %q", cfg.Provider)
	}
}

// NewArtifactStore returns an S3 store when a bucket is configured and an
// in-memory store otherwise.
func NewArtifactStore(cfg config.ArtifactsConfig) (core.ArtifactStore, error) {
	if cfg.Bucket == "" {
		return artifact.NewInMemoryStore(), nil
	}

	store, err := s3.New(func(o *s3.Options) {
		o.Bucket = cfg.Bucket
		o.Prefix = cfg.Prefix
		o.Region = cfg.Region
		o.Endpoint = cfg.Endpoint
		o.UsePathStyle = cfg.UsePathStyle
		o.AccessKeyID = os.Getenv("AWS_ACCESS_KEY_ID")
		o.SecretAccessKey = os.Getenv("AWS_SECRET_ACCESS_KEY")
	})
	if err != nil {
		return nil, err
	}

	return store, nil
}

// RoleOptions maps agent settings onto role options.
func RoleOptions(cfg config.AgentConfig) func(o *roles.Options) {
	return func(o *roles.Options) {
		o.BrainSteps = cfg.BrainSteps
		o.NavigatorSteps = cfg.NavigatorSteps
		o.ExtractorSteps = cfg.ExtractorSteps
		o.Format = extraction.Format(cfg.TableFormat)
		o.Screenshots = cfg.Screenshots
		o.DisablePersistence = !cfg.Persist

		if cfg.CountTokens {
			o.Tokens = model.NewTokenCounter(model.DefaultEncoding)
		}
	}
}
