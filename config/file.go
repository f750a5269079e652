package config

import (
	"bytes"
	"errors"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	ncerr "bhpnet/internal/errors"
)

// fileConfig mirrors the YAML keys.  Pointers distinguish "absent" from
// the zero value so only keys present in the file override.
type fileConfig struct {
	Target        *string `yaml:"target"`
	Port          *int    `yaml:"port"`
	Listen        *bool   `yaml:"listen"`
	Execute       *string `yaml:"execute"`
	Upload        *string `yaml:"upload"`
	Command       *bool   `yaml:"command"`
	Encoding      *string `yaml:"encoding"`
	Isolate       *bool   `yaml:"isolate"`
	Retries       *int    `yaml:"retries"`
	Tunnel        *string `yaml:"tunnel"`
	SSHKey        *string `yaml:"ssh_key"`
	SSHPassword   *bool   `yaml:"ssh_password"`
	SSHAgent      *bool   `yaml:"ssh_agent"`
	StrictHostKey *bool   `yaml:"strict_hostkey"`
	KnownHosts    *string `yaml:"known_hosts"`
	Verbose       *int    `yaml:"verbose"`
}

// LoadFile overlays the YAML file at path onto cfg.  Unknown keys are
// rejected so a typo does not pass silently.  An empty file is fine.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return ncerr.WrapFile("read config", path, err)
	}

	var fc fileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
		return &ncerr.ConfigError{
			Field:   "config",
			Value:   path,
			Message: err.Error(),
			Hint:    "see the YAML keys listed in --help",
		}
	}

	fc.apply(cfg)
	return nil
}

func (fc *fileConfig) apply(cfg *Config) {
	setString(&cfg.Target, fc.Target)
	setInt(&cfg.Port, fc.Port)
	setBool(&cfg.Listen, fc.Listen)
	setString(&cfg.Execute, fc.Execute)
	setString(&cfg.Upload, fc.Upload)
	setBool(&cfg.Command, fc.Command)
	setString(&cfg.Encoding, fc.Encoding)
	setBool(&cfg.Isolate, fc.Isolate)
	setInt(&cfg.Retries, fc.Retries)
	setString(&cfg.TunnelSpec, fc.Tunnel)
	setString(&cfg.SSHKeyPath, fc.SSHKey)
	setBool(&cfg.SSHPassword, fc.SSHPassword)
	setBool(&cfg.UseSSHAgent, fc.SSHAgent)
	setBool(&cfg.StrictHostKey, fc.StrictHostKey)
	setString(&cfg.KnownHostsPath, fc.KnownHosts)
	setInt(&cfg.Verbose, fc.Verbose)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}
