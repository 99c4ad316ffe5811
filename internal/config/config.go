package config

import (
	"errors"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/shopware/vuemodel/internal/source"
)

// FileName is the project configuration file looked up at the project root
const FileName = ".vuemodel.yaml"

// DefaultSkipDirs are never descended into while loading or scanning
var DefaultSkipDirs = []string{
	"node_modules",
	".git",
	".idea",
	".vscode",
	".nuxt",
	".output",
	"dist",
	"coverage",
	"var",
	"vendor",
}

type Config struct {
	// Root is the project root; relative paths in the file are resolved
	// against the directory containing the configuration file
	Root string `yaml:"root"`

	// Aliases maps import prefixes to directories, e.g. "@/" to "src/"
	Aliases map[string]string `yaml:"aliases"`

	// Include lists the file extensions that are loaded
	Include []string `yaml:"include"`

	SkipDirs []string `yaml:"skipDirs"`

	Cache Cache `yaml:"cache"`

	// DefiningCalls are additional call names that wrap a component
	// options literal, next to defineComponent and friends
	DefiningCalls []string `yaml:"definingCalls"`

	// DirectivePrefix marks script setup bindings that are directives
	DirectivePrefix string `yaml:"directivePrefix"`
}

type Cache struct {
	Enabled *bool  `yaml:"enabled"`
	Dir     string `yaml:"dir"`
}

// Default returns the configuration used when no file is present
func Default(root string) *Config {
	enabled := true
	return &Config{
		Root:            root,
		Aliases:         map[string]string{"@/": "src/"},
		Include:         slices.Clone(source.ScannedFileTypes),
		SkipDirs:        slices.Clone(DefaultSkipDirs),
		Cache:           Cache{Enabled: &enabled},
		DirectivePrefix: "v",
	}
}

// Load reads FileName from root. A missing file yields the defaults.
func Load(root string) (*Config, error) {
	cfg := Default(root)

	data, err := os.ReadFile(filepath.Join(root, FileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", FileName, err)
	}

	if err := cfg.Parse(data); err != nil {
		return nil, err
	}

	if !filepath.IsAbs(cfg.Root) {
		cfg.Root = filepath.Join(root, cfg.Root)
	}

	return cfg, nil
}

// Parse overlays YAML content on the configuration. Unset keys keep their
// current values.
func (c *Config) Parse(data []byte) error {
	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse %s: %w", FileName, err)
	}

	if file.Root != "" {
		c.Root = file.Root
	}
	for prefix, dir := range file.Aliases {
		c.Aliases[prefix] = dir
	}
	if len(file.Include) > 0 {
		c.Include = normalizeExtensions(file.Include)
	}
	if len(file.SkipDirs) > 0 {
		c.SkipDirs = file.SkipDirs
	}
	if file.Cache.Enabled != nil {
		c.Cache.Enabled = file.Cache.Enabled
	}
	if file.Cache.Dir != "" {
		c.Cache.Dir = file.Cache.Dir
	}
	c.DefiningCalls = append(c.DefiningCalls, file.DefiningCalls...)
	if file.DirectivePrefix != "" {
		c.DirectivePrefix = file.DirectivePrefix
	}
	return nil
}

// CacheEnabled reports whether resolution results are memoized
func (c *Config) CacheEnabled() bool {
	return c.Cache.Enabled == nil || *c.Cache.Enabled
}

// CacheDir returns the directory of persistent stores, creating the per
// project folder under the user config dir when none is configured
func (c *Config) CacheDir() (string, error) {
	if c.Cache.Dir != "" {
		dir := c.Cache.Dir
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(c.Root, dir)
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
		return dir, nil
	}
	return ProjectConfigFolder(c.Root)
}

// Includes reports whether a path has one of the included extensions
func (c *Config) Includes(path string) bool {
	return slices.Contains(c.Include, strings.ToLower(filepath.Ext(path)))
}

// SkipDir reports whether a directory name is skipped
func (c *Config) SkipDir(name string) bool {
	return slices.Contains(c.SkipDirs, name)
}

// ProjectConfigFolder returns the per-project folder below the user config
// dir, creating it when missing
func ProjectConfigFolder(projectRoot string) (string, error) {
	configDir, err := UserConfigDir()
	if err != nil {
		return "", err
	}

	projectSlug := strings.ReplaceAll(projectRoot, "/", "_")
	projectSlug = strings.ReplaceAll(projectSlug, ":", "_")
	projectSlug = strings.ReplaceAll(projectSlug, "\\", "_")

	expectedDir := filepath.Join(configDir, "vuemodel", projectSlug)

	if _, err := os.Stat(expectedDir); err != nil {
		if !os.IsNotExist(err) {
			return "", fmt.Errorf("failed to check directory: %w", err)
		}
		err = os.MkdirAll(expectedDir, 0755)
		if err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}

	return expectedDir, nil
}

func UserConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		usr, err := user.Current()
		if err != nil {
			return "", fmt.Errorf("failed to get current user: %w", err)
		}
		return filepath.Join(usr.HomeDir, ".config"), nil
	}
	return configDir, nil
}

func normalizeExtensions(exts []string) []string {
	result := make([]string, 0, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		result = append(result, ext)
	}
	return result
}
