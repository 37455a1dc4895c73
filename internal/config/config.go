// Package config loads the optional INI settings file. Every setting has a
// working default; a missing file is not an error.
package config

import (
	"os"
	"runtime"

	"gopkg.in/ini.v1"
)

// DefaultFileName is looked up in the working directory when no explicit
// path is given.
const DefaultFileName = "deidentify.ini"

// Settings are the file-configurable knobs. Command-line flags override
// them.
type Settings struct {
	// DataDir is the source folder tree root.
	DataDir string
	// LogLevel names the minimum reported severity.
	LogLevel string
	// Workers bounds concurrent file processing.
	Workers int
	// MinimalTags, AdditionalTags and TransformTags override the embedded
	// keyword lists when set.
	MinimalTags    string
	AdditionalTags string
	TransformTags  string
}

// Defaults returns the built-in settings.
func Defaults() Settings {
	return Settings{
		DataDir:  "data",
		LogLevel: "ERROR",
		Workers:  runtime.NumCPU(),
	}
}

// Load reads settings from the INI file at path, falling back to
// DefaultFileName when path is empty. A missing file yields the defaults;
// a malformed one is an error.
func Load(path string) (Settings, error) {
	s := Defaults()

	explicit := path != ""
	if !explicit {
		path = DefaultFileName
	}
	if _, err := os.Stat(path); err != nil {
		if explicit {
			return s, err
		}
		return s, nil
	}

	cfg, err := ini.LoadSources(ini.LoadOptions{IgnoreInlineComment: true}, path)
	if err != nil {
		return s, err
	}

	sec := cfg.Section("")
	s.DataDir = sec.Key("data_dir").MustString(s.DataDir)
	s.LogLevel = sec.Key("log_level").MustString(s.LogLevel)
	s.Workers = sec.Key("workers").MustInt(s.Workers)
	if s.Workers < 1 {
		s.Workers = 1
	}

	secTags := cfg.Section("tags")
	s.MinimalTags = secTags.Key("minimal").String()
	s.AdditionalTags = secTags.Key("additional").String()
	s.TransformTags = secTags.Key("transform").String()

	return s, nil
}
