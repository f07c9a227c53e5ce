// Package sources loads the per-portal source descriptors from a YAML file.
package sources

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/jonesrussell/licitawatch/internal/domain"
)

var (
	// ErrNoSources indicates no sources were found in the configuration.
	ErrNoSources = errors.New("no sources found in configuration")
	// ErrMissingRequiredField indicates a required field is missing.
	ErrMissingRequiredField = errors.New("missing required field")
	// ErrDuplicateName indicates two sources share a name.
	ErrDuplicateName = errors.New("duplicate source name")
	// ErrUnknownStrategy indicates an unrecognized fetch strategy.
	ErrUnknownStrategy = errors.New("unknown fetch strategy")
)

// fetchConfig mirrors domain.FetchParams in the sources file.
type fetchConfig struct {
	WaitSelector   string `mapstructure:"wait_selector"`
	WaitTimeout    string `mapstructure:"wait_timeout"`
	StepDelay      string `mapstructure:"step_delay"`
	MaxSteps       int    `mapstructure:"max_steps"`
	NextSelector   string `mapstructure:"next_selector"`
	MarkerSelector string `mapstructure:"marker_selector"`
}

// sourceConfig represents one source entry as written in the YAML file.
type sourceConfig struct {
	Name          string      `mapstructure:"name"`
	EntryURL      string      `mapstructure:"entry_url"`
	Strategy      string      `mapstructure:"strategy"`
	Parser        string      `mapstructure:"parser"`
	BaseURL       string      `mapstructure:"base_url"`
	StopThreshold int         `mapstructure:"stop_threshold"`
	Ordered       bool        `mapstructure:"ordered"`
	Fetch         fetchConfig `mapstructure:"fetch"`
}

// sourcesFile represents the structure of a sources YAML file.
type sourcesFile struct {
	Sources []map[string]any `yaml:"sources"`
}

// Loader handles loading and validating source configurations.
type Loader struct {
	configPath string
}

// NewLoader creates a new Loader instance.
func NewLoader(configPath string) *Loader {
	return &Loader{configPath: configPath}
}

// LoadSources loads and validates all sources from the configuration file.
// Invalid entries fail the whole load rather than being skipped; a silently
// missing portal is worse than a startup error.
func (l *Loader) LoadSources() ([]domain.Source, error) {
	raw, err := l.loadRawSources()
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(raw))
	out := make([]domain.Source, 0, len(raw))
	for i, entry := range raw {
		cfg, convertErr := convertToConfig(entry)
		if convertErr != nil {
			return nil, fmt.Errorf("source %d: %w", i, convertErr)
		}

		src, validateErr := cfg.toDomain()
		if validateErr != nil {
			return nil, fmt.Errorf("source %q: %w", cfg.Name, validateErr)
		}

		if _, dup := seen[src.Name]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateName, src.Name)
		}
		seen[src.Name] = struct{}{}
		out = append(out, src)
	}

	if len(out) == 0 {
		return nil, ErrNoSources
	}
	return out, nil
}

// loadRawSources loads the raw source data from the configuration file.
func (l *Loader) loadRawSources() ([]map[string]any, error) {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		return nil, fmt.Errorf("read sources file: %w", err)
	}

	var file sourcesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse sources YAML: %w", err)
	}

	if len(file.Sources) == 0 {
		return nil, ErrNoSources
	}
	return file.Sources, nil
}

// convertToConfig converts a raw source map to a sourceConfig.
func convertToConfig(src map[string]any) (sourceConfig, error) {
	var cfg sourceConfig
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return sourceConfig{}, fmt.Errorf("create decoder: %w", err)
	}
	if decodeErr := decoder.Decode(src); decodeErr != nil {
		return sourceConfig{}, fmt.Errorf("decode source: %w", decodeErr)
	}
	return cfg, nil
}

// toDomain validates the entry and converts it into an immutable Source.
func (c sourceConfig) toDomain() (domain.Source, error) {
	if c.Name == "" {
		return domain.Source{}, fmt.Errorf("%w: name", ErrMissingRequiredField)
	}
	if c.EntryURL == "" {
		return domain.Source{}, fmt.Errorf("%w: entry_url", ErrMissingRequiredField)
	}
	if err := validateURL(c.EntryURL); err != nil {
		return domain.Source{}, fmt.Errorf("entry_url: %w", err)
	}
	if c.Parser == "" {
		return domain.Source{}, fmt.Errorf("%w: parser", ErrMissingRequiredField)
	}
	if c.BaseURL == "" {
		// Default the resolution base to the entry URL's origin.
		u, _ := url.Parse(c.EntryURL)
		c.BaseURL = u.Scheme + "://" + u.Host
	}

	strategy := domain.Strategy(c.Strategy)
	switch strategy {
	case "":
		strategy = domain.StrategyStatic
	case domain.StrategyStatic, domain.StrategyScroll, domain.StrategyPaginated:
	default:
		return domain.Source{}, fmt.Errorf("%w: %s", ErrUnknownStrategy, c.Strategy)
	}

	if strategy == domain.StrategyPaginated && c.Fetch.NextSelector == "" {
		return domain.Source{}, fmt.Errorf("%w: fetch.next_selector", ErrMissingRequiredField)
	}

	params, err := c.Fetch.toDomain()
	if err != nil {
		return domain.Source{}, err
	}

	return domain.Source{
		Name:          c.Name,
		EntryURL:      c.EntryURL,
		Strategy:      strategy,
		Fetch:         params,
		ParserID:      c.Parser,
		BaseURL:       c.BaseURL,
		StopThreshold: c.StopThreshold,
		Ordered:       c.Ordered,
	}, nil
}

// toDomain parses the duration strings of a fetch block.
func (f fetchConfig) toDomain() (domain.FetchParams, error) {
	params := domain.FetchParams{
		WaitSelector:   f.WaitSelector,
		MaxSteps:       f.MaxSteps,
		NextSelector:   f.NextSelector,
		MarkerSelector: f.MarkerSelector,
	}

	var err error
	if params.WaitTimeout, err = parseDuration(f.WaitTimeout); err != nil {
		return domain.FetchParams{}, fmt.Errorf("fetch.wait_timeout: %w", err)
	}
	if params.StepDelay, err = parseDuration(f.StepDelay); err != nil {
		return domain.FetchParams{}, fmt.Errorf("fetch.step_delay: %w", err)
	}
	return params, nil
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}

// validateURL checks that a URL is absolute http(s).
func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("missing host")
	}
	return nil
}
