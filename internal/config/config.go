/*
 * config.go, part of mapex.
 *
 * Copyright 2024 Raul Mera <rmeraa{at}academicosdotutadotcl>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

// Package config loads the mapex settings from a YAML file, MAPEX_*
// environment variables and built-in defaults, in increasing order of
// precedence: defaults < file < environment.
package config

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"
)

// envPrefix is the prefix of all the environment variables read.
// A key like "viewer.port" is read from MAPEX_VIEWER_PORT.
const envPrefix = "MAPEX"

// Config holds all the mapex settings.
type Config struct {
	Log    LogConfig    `mapstructure:"log"`
	Viewer ViewerConfig `mapstructure:"viewer"`
	Embed  EmbedConfig  `mapstructure:"embed"`
}

// LogConfig sets up the process logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`  //debug, info, warn or error
	Format string `mapstructure:"format"` //console or json
}

// ViewerConfig points to the PyMOL RPC server.
type ViewerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	CallTimeout    time.Duration `mapstructure:"call_timeout"`
	ImagePath      string        `mapstructure:"image_path"`
}

// EmbedConfig selects and sets up the external conformer generator.
type EmbedConfig struct {
	Program       string `mapstructure:"program"` //obabel or crest
	OBabelCommand string `mapstructure:"obabel_command"`
	CrestCommand  string `mapstructure:"crest_command"`
	WorkDir       string `mapstructure:"workdir"` //a temporary directory per molecule if empty
	CPUs          int    `mapstructure:"cpus"`    //the program's default if 0
	KeepFiles     bool   `mapstructure:"keep_files"`
}

var defaults = map[string]interface{}{
	"log.level":              "info",
	"log.format":             "console",
	"viewer.host":            "localhost",
	"viewer.port":            9123,
	"viewer.connect_timeout": 5 * time.Second,
	"viewer.call_timeout":    30 * time.Second,
	"viewer.image_path":      "examples/molecule_complex.png",
	"embed.program":          "obabel",
	"embed.obabel_command":   "obabel",
	"embed.crest_command":    "crest",
	"embed.workdir":          "",
	"embed.cpus":             0,
	"embed.keep_files":       false,
}

// newViper returns a viper instance with the mapex defaults, reading YAML
// files and MAPEX_ environment variables. Every key has a default, so
// every key can be set from the environment.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	return v
}

// Load reads the YAML file at path, if path is not empty, applies the
// environment overrides and validates the result.
func Load(path string) (*Config, error) {
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "config: reading %q", path)
		}
	}
	return unmarshalAndValidate(v)
}

// Default returns the configuration given by the defaults and the environment alone.
func Default() (*Config, error) {
	return Load("")
}

func unmarshalAndValidate(v *viper.Viper) (*Config, error) {
	cfg := new(Config)
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "config: unmarshaling")
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config: validation failed")
	}
	return cfg, nil
}

func (C *Config) normalize() {
	C.Log.Level = strings.ToLower(strings.TrimSpace(C.Log.Level))
	C.Log.Format = strings.ToLower(strings.TrimSpace(C.Log.Format))
	C.Embed.Program = strings.ToLower(strings.TrimSpace(C.Embed.Program))
}

// Validate checks that all values are usable.
func (C *Config) Validate() error {
	switch C.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return errors.Newf("log.level: unknown level %q", C.Log.Level)
	}
	switch C.Log.Format {
	case "console", "json":
	default:
		return errors.Newf("log.format: unknown format %q", C.Log.Format)
	}
	if C.Viewer.Host == "" {
		return errors.New("viewer.host: empty")
	}
	if C.Viewer.Port < 1 || C.Viewer.Port > 65535 {
		return errors.Newf("viewer.port: %d out of range", C.Viewer.Port)
	}
	if C.Viewer.ConnectTimeout <= 0 {
		return errors.Newf("viewer.connect_timeout: must be positive, got %v", C.Viewer.ConnectTimeout)
	}
	if C.Viewer.CallTimeout < 0 {
		return errors.New("viewer.call_timeout: negative")
	}
	switch C.Embed.Program {
	case "obabel":
		if C.Embed.OBabelCommand == "" {
			return errors.New("embed.obabel_command: empty")
		}
	case "crest":
		if C.Embed.CrestCommand == "" {
			return errors.New("embed.crest_command: empty")
		}
		//CREST needs Open Babel for its starting geometry.
		if C.Embed.OBabelCommand == "" {
			return errors.New("embed.obabel_command: empty")
		}
	default:
		return errors.Newf("embed.program: unknown program %q", C.Embed.Program)
	}
	if C.Embed.CPUs < 0 {
		return errors.New("embed.cpus: negative")
	}
	return nil
}
