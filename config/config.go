package config

import (
	"io/ioutil"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Settings holds importer-wide defaults. Zero value is usable; a yaml
// file can override it:
//
//	encoding: "Windows 1252"
//	decode_images: true
//	fetch_concurrency: 8
type Settings struct {
	// Legacy charmap used to decode non-UTF8 FBX strings.
	Encoding string `yaml:"encoding"`
	// Decode embedded/fetched images into image.Image. When false
	// textures keep only their raw bytes.
	DecodeImages bool `yaml:"decode_images"`
	// Upper bound on concurrently resolving glTF dependencies.
	FetchConcurrency int `yaml:"fetch_concurrency"`
	// Dump the parsed document structure to the log. Very verbose.
	DumpTree bool `yaml:"dump_tree"`
}

func DefaultSettings() Settings {
	return Settings{
		DecodeImages:     true,
		FetchConcurrency: 8,
	}
}

func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return s, errors.Wrapf(err, "Failed to read settings %q", path)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, errors.Wrapf(err, "Failed to parse settings %q", path)
	}
	if s.Encoding != "" {
		if err := SetEncoding(s.Encoding); err != nil {
			return s, err
		}
	}
	if s.FetchConcurrency <= 0 {
		s.FetchConcurrency = DefaultSettings().FetchConcurrency
	}
	return s, nil
}
