package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// ProjectFile is the shape of an optional .arborist.yaml, overriding
// whichever of DefaultConfig's fields it sets.
type ProjectFile struct {
	CacheDir string  `yaml:"cache_dir"`
	Dialect  Dialect `yaml:"dialect"`
}

// LoadProjectFile reads path and overlays any set field onto cfg. A
// missing file is not an error — most runs have none — but a present,
// malformed one is, since a project file that doesn't parse the way
// its author intended should never be silently ignored.
func LoadProjectFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	var pf ProjectFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return err
	}
	if pf.CacheDir != "" {
		cfg.CacheDir = pf.CacheDir
	}
	if pf.Dialect != "" {
		cfg.Dialect = pf.Dialect
	}
	return nil
}
