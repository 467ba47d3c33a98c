package celpack

import (
	"os"

	"gopkg.in/yaml.v3"
)

// configFile is the on-disk shape of a project's shared-defaults YAML
// file (e.g. `.celpack.yaml`), grounded on the teacher's embedded-YAML
// palettes.yaml parsing in color.go. Unlike the teacher's palette table,
// this is meant to be edited by a project, not shipped baked into the
// binary.
type configFile struct {
	BankSize       int     `yaml:"bank-size"`
	Segment        string  `yaml:"segment"`
	Prefix         string  `yaml:"prefix"`
	ColorTolerance float64 `yaml:"color-tolerance"`
	NumWorkers     int     `yaml:"workers"`
	CacheDir       string  `yaml:"cache-dir"`
}

// LoadConfigFile reads a project-level YAML defaults file and returns the
// Options it describes. A missing file is not an error; it returns
// DefaultOptions() unchanged, so callers can always load a config path
// speculatively and let flag values override whatever comes back.
func LoadConfigFile(path string) (Options, error) {
	opt := DefaultOptions()
	if path == "" {
		return opt, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return opt, nil
		}
		return opt, newIOError(path, err)
	}
	var cf configFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return opt, newIOError(path, err)
	}
	if cf.BankSize != 0 {
		opt.BankSize = cf.BankSize
	}
	if cf.Segment != "" {
		opt.Segment = cf.Segment
	}
	if cf.Prefix != "" {
		opt.Prefix = cf.Prefix
	}
	if cf.ColorTolerance != 0 {
		opt.ColorTolerance = cf.ColorTolerance
	}
	if cf.NumWorkers != 0 {
		opt.NumWorkers = cf.NumWorkers
	}
	if cf.CacheDir != "" {
		opt.CacheDir = cf.CacheDir
	}
	return opt, nil
}
