// Package config loads gzrecord settings from a YAML file.
//
// The file is chosen by the --config flag or, failing that, the
// GZRECORD_CONFIG environment variable. There is no discovery: without
// either, the built-in defaults apply, and they reproduce the reference
// container bytes.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	gzrecord "github.com/reoring/gzrecord"
	"github.com/reoring/gzrecord/source/gojson"
)

// EnvVar names the environment variable holding the config file path.
const EnvVar = "GZRECORD_CONFIG"

// Driver names accepted in decode.driver.
const (
	DriverEncodingJSON = "encoding/json"
	DriverGoJSON       = gojson.Name
)

// Config is the file layout.
type Config struct {
	Gzip   GzipConfig   `yaml:"gzip"`
	Decode DecodeConfig `yaml:"decode"`
}

// GzipConfig configures the container written by encode.
type GzipConfig struct {
	// Engine is "canonical" or "standard".
	Engine string `yaml:"engine"`

	// OS is the gzip OS byte. Default: 3.
	OS int `yaml:"os"`

	// MTime is written to the header as unix seconds. Default: 0.
	MTime int64 `yaml:"mtime"`
}

// DecodeConfig configures text decoding.
type DecodeConfig struct {
	// Driver is "encoding/json" or "go-json".
	Driver string `yaml:"driver"`

	// UnknownFields is "strip" or "strict".
	UnknownFields string `yaml:"unknown_fields"`

	// DuplicateKeys is "ignore", "warn" or "error".
	DuplicateKeys string `yaml:"duplicate_keys"`

	MaxDepth      int   `yaml:"max_depth"`
	MaxBytes      int64 `yaml:"max_bytes"`
	AllowComments bool  `yaml:"allow_comments"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Gzip: GzipConfig{
			Engine: gzrecord.DeflateCanonical.String(),
			OS:     int(gzrecord.OSUnix),
		},
		Decode: DecodeConfig{
			Driver:        DriverEncodingJSON,
			UnknownFields: gzrecord.UnknownStrip.String(),
			DuplicateKeys: gzrecord.Ignore.String(),
		},
	}
}

// Load reads the file at path over the defaults and validates the result.
// Unknown keys are rejected.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Resolve loads flagPath when set, else the file named by GZRECORD_CONFIG,
// else returns the defaults.
func Resolve(flagPath string) (*Config, error) {
	if flagPath != "" {
		return Load(flagPath)
	}
	if p := os.Getenv(EnvVar); p != "" {
		return Load(p)
	}
	return Default(), nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	errs := c.Gzip.check()
	if _, err := driverByName(c.Decode.Driver); err != nil {
		errs = append(errs, fmt.Errorf("decode.driver: %w", err))
	}
	if _, err := gzrecord.ParseUnknownPolicy(c.Decode.UnknownFields); err != nil {
		errs = append(errs, fmt.Errorf("decode.unknown_fields: %w", err))
	}
	if _, err := gzrecord.ParseSeverity(c.Decode.DuplicateKeys); err != nil {
		errs = append(errs, fmt.Errorf("decode.duplicate_keys: %w", err))
	}
	if c.Decode.MaxDepth < 0 {
		errs = append(errs, fmt.Errorf("decode.max_depth: must be >= 0"))
	}
	if c.Decode.MaxBytes < 0 {
		errs = append(errs, fmt.Errorf("decode.max_bytes: must be >= 0"))
	}
	return errors.Join(errs...)
}

func (g GzipConfig) check() []error {
	var errs []error
	if _, err := gzrecord.ParseEngine(g.Engine); err != nil {
		errs = append(errs, fmt.Errorf("gzip.engine: %w", err))
	}
	if g.OS < 0 || g.OS > 255 {
		errs = append(errs, fmt.Errorf("gzip.os: %d outside 0..255", g.OS))
	}
	if g.MTime < 0 || g.MTime > 1<<32-1 {
		errs = append(errs, fmt.Errorf("gzip.mtime: %d outside the 32-bit range", g.MTime))
	}
	return errs
}

// Compressor builds the gzip compressor described by c. The gzip section is
// validated first.
func (c *Config) Compressor() (gzrecord.Gzip, error) {
	if err := errors.Join(c.Gzip.check()...); err != nil {
		return gzrecord.Gzip{}, err
	}
	engine, _ := gzrecord.ParseEngine(c.Gzip.Engine)
	g := gzrecord.Gzip{Header: gzrecord.Header{OS: byte(c.Gzip.OS)}, Engine: engine}
	if c.Gzip.MTime != 0 {
		g.Header.ModTime = time.Unix(c.Gzip.MTime, 0)
	}
	return g, nil
}

// Codec builds the text codec described by c.
func (c *Config) Codec(logger *slog.Logger) (gzrecord.JSONCodec, error) {
	drv, err := driverByName(c.Decode.Driver)
	if err != nil {
		return gzrecord.JSONCodec{}, err
	}
	unknown, err := gzrecord.ParseUnknownPolicy(c.Decode.UnknownFields)
	if err != nil {
		return gzrecord.JSONCodec{}, err
	}
	dup, err := gzrecord.ParseSeverity(c.Decode.DuplicateKeys)
	if err != nil {
		return gzrecord.JSONCodec{}, err
	}
	return gzrecord.JSONCodec{
		Opt: gzrecord.DecodeOpt{
			Unknown:        unknown,
			OnDuplicateKey: dup,
			MaxDepth:       c.Decode.MaxDepth,
			MaxBytes:       c.Decode.MaxBytes,
			AllowComments:  c.Decode.AllowComments,
		},
		Driver: drv,
		Logger: logger,
	}, nil
}

// Pipeline builds the pipeline described by c.
func (c *Config) Pipeline(logger *slog.Logger) (*gzrecord.Pipeline, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	g, err := c.Compressor()
	if err != nil {
		return nil, err
	}
	codec, err := c.Codec(logger)
	if err != nil {
		return nil, err
	}
	return &gzrecord.Pipeline{Text: codec, Compressor: g, Logger: logger}, nil
}

func driverByName(name string) (gzrecord.JSONDriver, error) {
	switch name {
	case "", DriverEncodingJSON:
		return gzrecord.DefaultJSONDriver(), nil
	case DriverGoJSON:
		return gojson.Driver(), nil
	}
	return nil, fmt.Errorf("unknown driver %q (want %s or %s)", name, DriverEncodingJSON, DriverGoJSON)
}
