// Package branding holds the CLI's identity: its command name, home
// directory and environment prefix. Values come from the embedded
// branding.yaml, falling back to built-in defaults.
package branding

import (
	_ "embed"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"
)

//go:embed branding.yaml
var rawBranding []byte

var (
	once   sync.Once
	values brand
)

type brand struct {
	CLIName     string `yaml:"cli_name"`
	DisplayName string `yaml:"display_name"`
	Description string `yaml:"description"`
	HomeDir     string `yaml:"home_dir"`
	EnvPrefix   string `yaml:"env_prefix"`
	GoModule    string `yaml:"go_module"`
}

func defaults() brand {
	return brand{
		CLIName:     "registrar",
		DisplayName: "Registrar",
		Description: "Hierarchical registry builder",
		HomeDir:     ".registrar",
		EnvPrefix:   "REGISTRAR",
		GoModule:    "github.com/agentx-labs/registrar",
	}
}

func load() brand {
	once.Do(func() {
		values = parse(rawBranding)
	})
	return values
}

// parse overlays data on the defaults. Empty or malformed data leaves the
// defaults in place.
func parse(data []byte) brand {
	b := defaults()
	var overlay brand
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return b
	}
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&b.CLIName, overlay.CLIName)
	set(&b.DisplayName, overlay.DisplayName)
	set(&b.Description, overlay.Description)
	set(&b.HomeDir, overlay.HomeDir)
	set(&b.EnvPrefix, overlay.EnvPrefix)
	set(&b.GoModule, overlay.GoModule)
	return b
}

// CLIName returns the root command name.
func CLIName() string { return load().CLIName }

func DisplayName() string { return load().DisplayName }
func Description() string { return load().Description }

// HomeDir returns the dot-directory name under $HOME.
func HomeDir() string { return load().HomeDir }

// EnvPrefix returns the environment variable prefix, without trailing "_".
func EnvPrefix() string { return load().EnvPrefix }

func GoModule() string { return load().GoModule }

// EnvVar returns a fully qualified env var name: EnvVar("home") is
// "REGISTRAR_HOME".
func EnvVar(suffix string) string {
	return load().EnvPrefix + "_" + strings.ToUpper(suffix)
}
