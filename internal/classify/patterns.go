package classify

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	ahocorasick "github.com/cloudflare/ahocorasick"
	"gopkg.in/yaml.v3"
)

//go:embed patterns.yaml
var embeddedPatterns []byte

// ProviderPattern holds the DNS fingerprint of one hosting provider.
type ProviderPattern struct {
	A     []string `yaml:"a" toml:"a" json:"a"`
	CNAME []string `yaml:"cname,omitempty" toml:"cname,omitempty" json:"cname,omitempty"`
}

// Patterns holds the fingerprints for every provider the classifier knows.
// GitHub Pages is only ever detected via A records.
type Patterns struct {
	GitHub  ProviderPattern `yaml:"github" toml:"github" json:"github"`
	Netlify ProviderPattern `yaml:"netlify" toml:"netlify" json:"netlify"`
}

// DefaultPatterns returns the embedded provider fingerprints.
func DefaultPatterns() Patterns {
	p, err := parsePatterns(embeddedPatterns, yaml.Unmarshal)
	if err != nil {
		panic(fmt.Sprintf("embedded patterns.yaml is invalid: %v", err))
	}
	return p
}

// LoadPatterns reads provider fingerprints from path. Files ending in .toml are
// read as TOML, anything else as YAML. An empty path, or a path that does not
// exist, yields the embedded defaults.
func LoadPatterns(path string) (Patterns, error) {
	if path == "" {
		return DefaultPatterns(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultPatterns(), nil
		}
		return Patterns{}, fmt.Errorf("reading patterns file %q: %w", path, err)
	}
	unmarshal := yaml.Unmarshal
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		unmarshal = toml.Unmarshal
	}
	p, err := parsePatterns(data, unmarshal)
	if err != nil {
		return Patterns{}, fmt.Errorf("parsing patterns file %q: %w", path, err)
	}
	return p, nil
}

func parsePatterns(data []byte, unmarshal func([]byte, any) error) (Patterns, error) {
	var p Patterns
	if err := unmarshal(data, &p); err != nil {
		return Patterns{}, err
	}
	if len(p.GitHub.A) == 0 && len(p.Netlify.A) == 0 && len(p.Netlify.CNAME) == 0 {
		return Patterns{}, fmt.Errorf("no provider fingerprints defined")
	}
	return p, nil
}

// matcher is the lookup form of Patterns used on the hot path.
type matcher struct {
	githubIPs       map[string]struct{}
	netlifyIPs      map[string]struct{}
	netlifyKeywords *ahocorasick.Matcher
}

func newMatcher(p Patterns) matcher {
	m := matcher{
		githubIPs:  make(map[string]struct{}, len(p.GitHub.A)),
		netlifyIPs: make(map[string]struct{}, len(p.Netlify.A)),
	}
	for _, ip := range p.GitHub.A {
		m.githubIPs[strings.TrimSpace(ip)] = struct{}{}
	}
	for _, ip := range p.Netlify.A {
		m.netlifyIPs[strings.TrimSpace(ip)] = struct{}{}
	}
	var keywords []string
	for _, k := range p.Netlify.CNAME {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			keywords = append(keywords, k)
		}
	}
	if len(keywords) > 0 {
		m.netlifyKeywords = ahocorasick.NewStringMatcher(keywords)
	}
	return m
}

func intersects(ips []string, set map[string]struct{}) bool {
	for _, ip := range ips {
		if _, ok := set[ip]; ok {
			return true
		}
	}
	return false
}

// netlifyCNAME reports whether any CNAME target contains a Netlify keyword,
// ignoring case. The matcher is shared by concurrent jobs, so only
// MatchThreadSafe may be used.
func (m matcher) netlifyCNAME(cnames []string) bool {
	if m.netlifyKeywords == nil {
		return false
	}
	for _, c := range cnames {
		if len(m.netlifyKeywords.MatchThreadSafe([]byte(strings.ToLower(c)))) > 0 {
			return true
		}
	}
	return false
}
