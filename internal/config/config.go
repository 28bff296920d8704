// Package config resolves staticscan settings from flags, STATICSCAN_* environment
// variables, and the YAML config file, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every key when reading environment variables,
// e.g. STATICSCAN_RESOLVER.
const EnvPrefix = "STATICSCAN"

// Resolver backend names accepted by the resolver key.
const (
	ResolverSystem = "system"
	ResolverDNS    = "dns"
	ResolverDoH    = "doh"
)

// ErrUnknownKey is returned for a config key staticscan does not know.
var ErrUnknownKey = errors.New("unknown config key")

// Config is the fully resolved configuration.
type Config struct {
	// ConfigFile is the path the configuration was read from.
	ConfigFile string `mapstructure:"-"`

	Verbose      bool          `mapstructure:"verbose"`
	Output       string        `mapstructure:"output"`
	Resolver     string        `mapstructure:"resolver"`
	Nameserver   string        `mapstructure:"nameserver"`
	DoHURL       string        `mapstructure:"doh_url"`
	Timeout      time.Duration `mapstructure:"timeout"`
	PaceEvery    int           `mapstructure:"pace_every"`
	PaceDelay    time.Duration `mapstructure:"pace_delay"`
	MaxJobs      int           `mapstructure:"max_jobs"`
	Proxy        string        `mapstructure:"proxy"`
	UserAgent    string        `mapstructure:"user_agent"`
	RPS          float64       `mapstructure:"rps"`
	PatternsFile string        `mapstructure:"patterns_file"`
}

type kind int

const (
	kindString kind = iota
	kindBool
	kindInt
	kindFloat
	kindDuration
)

// keySpec describes one config key and the persistent flag bound to it.
type keySpec struct {
	key       string
	shorthand string
	kind      kind
	def       any
	enum      []string
	// min is the inclusive lower bound for numeric keys.
	min   float64
	usage string
}

var keySpecs = []keySpec{
	{key: "verbose", shorthand: "v", kind: kindBool, def: false, usage: "enable debug logging"},
	{key: "output", shorthand: "o", kind: kindString, def: "table", enum: []string{"table", "json", "plain"}, usage: "output format: table, json, or plain"},
	{key: "resolver", kind: kindString, def: ResolverSystem, enum: []string{ResolverSystem, ResolverDNS, ResolverDoH}, usage: "DNS backend: system, dns, or doh"},
	{key: "nameserver", kind: kindString, def: "", usage: "nameserver for the dns backend (default from /etc/resolv.conf)"},
	{key: "doh_url", kind: kindString, def: "https://dns.quad9.net/dns-query", usage: "endpoint for the doh backend"},
	{key: "timeout", kind: kindDuration, def: 5 * time.Second, min: 1, usage: "timeout for each DNS lookup"},
	{key: "pace_every", kind: kindInt, def: 50, min: 0, usage: "pause after this many lines (0 disables pacing)"},
	{key: "pace_delay", kind: kindDuration, def: 500 * time.Millisecond, min: 0, usage: "length of each pacing pause"},
	{key: "max_jobs", kind: kindInt, def: 4, min: 1, usage: "number of jobs classified concurrently"},
	{key: "proxy", kind: kindString, def: "", usage: "proxy URL (http, https, socks5); socks5 also tunnels system DNS"},
	{key: "user_agent", kind: kindString, def: "", usage: "User-Agent for DNS-over-HTTPS requests"},
	{key: "rps", kind: kindFloat, def: 0.0, min: 0, usage: "cap DNS-over-HTTPS requests per second (0 disables)"},
	{key: "patterns_file", kind: kindString, def: "", usage: "YAML file overriding the provider patterns"},
}

func lookupSpec(key string) (keySpec, bool) {
	i := slices.IndexFunc(keySpecs, func(s keySpec) bool { return s.key == key })
	if i < 0 {
		return keySpec{}, false
	}
	return keySpecs[i], true
}

// flagName returns the CLI flag for key ("pace_every" → "pace-every").
func flagName(key string) string {
	return strings.ReplaceAll(key, "_", "-")
}

// NormalizeKey converts a hyphenated flag name to its config key.
func NormalizeKey(key string) string {
	return strings.ReplaceAll(strings.TrimSpace(key), "-", "_")
}

// RegisterFlags adds --config and one persistent flag per config key to flags.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.String("config", "", "config file (default is $XDG_CONFIG_HOME/staticscan/config.yaml)")
	for _, s := range keySpecs {
		name := flagName(s.key)
		switch s.kind {
		case kindBool:
			flags.BoolP(name, s.shorthand, s.def.(bool), s.usage)
		case kindInt:
			flags.IntP(name, s.shorthand, s.def.(int), s.usage)
		case kindFloat:
			flags.Float64P(name, s.shorthand, s.def.(float64), s.usage)
		case kindDuration:
			flags.DurationP(name, s.shorthand, s.def.(time.Duration), s.usage)
		default:
			flags.StringP(name, s.shorthand, s.def.(string), s.usage)
		}
	}
}

// Load resolves the configuration. The config file named by --config, or the
// default path, is created empty with 0600 permissions when missing.
func Load(flags *pflag.FlagSet) (*Config, error) {
	cfgFile, err := flags.GetString("config")
	if err != nil {
		return nil, err
	}
	if cfgFile == "" {
		cfgFile, err = DefaultConfigPath()
		if err != nil {
			return nil, err
		}
	}
	if err := ensureFile(cfgFile); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigFile(cfgFile)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for _, s := range keySpecs {
		v.SetDefault(s.key, s.def)
		if f := flags.Lookup(flagName(s.key)); f != nil {
			if err := v.BindPFlag(s.key, f); err != nil {
				return nil, fmt.Errorf("binding flag %s: %w", f.Name, err)
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", cfgFile, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.ConfigFile = cfgFile

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every key against its allowed values.
func (c *Config) Validate() error {
	for _, s := range keySpecs {
		if _, err := ParseValue(s.key, c.Value(s.key)); err != nil {
			return err
		}
	}
	return nil
}

// Value returns the effective value of key formatted as a string.
func (c *Config) Value(key string) string {
	switch key {
	case "verbose":
		return fmt.Sprint(c.Verbose)
	case "output":
		return c.Output
	case "resolver":
		return c.Resolver
	case "nameserver":
		return c.Nameserver
	case "doh_url":
		return c.DoHURL
	case "timeout":
		return c.Timeout.String()
	case "pace_every":
		return fmt.Sprint(c.PaceEvery)
	case "pace_delay":
		return c.PaceDelay.String()
	case "max_jobs":
		return fmt.Sprint(c.MaxJobs)
	case "proxy":
		return c.Proxy
	case "user_agent":
		return c.UserAgent
	case "rps":
		return fmt.Sprint(c.RPS)
	case "patterns_file":
		return c.PatternsFile
	default:
		return ""
	}
}
