package zonecfg

import (
	"fmt"
	"io"

	"github.com/BurntSushi/toml"
)

type tomlFile struct {
	Zones map[string]any `toml:"zones"`
	Log   struct {
		Level string `toml:"level"`
		Dir   string `toml:"dir"`
	} `toml:"log"`
}

// ParseTOML reads the TOML format. Zone sizes may be integers or size strings.
func ParseTOML(r io.Reader) (*Config, error) {
	var raw tomlFile
	md, err := toml.NewDecoder(decode(r)).Decode(&raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSyntax, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%w: unknown key %q", ErrSyntax, undecoded[0].String())
	}

	cfg := &Config{Log: LogConfig{Level: raw.Log.Level, Dir: raw.Log.Dir}}

	// Keys come back in document order; the map does not keep it.
	for _, key := range md.Keys() {
		if len(key) != 2 || key[0] != sectionZones {
			continue
		}
		name := key[1]
		size, err := tomlSize(raw.Zones[name])
		if err != nil {
			return nil, fmt.Errorf("zone %q: %w", name, err)
		}
		if err := cfg.addZone(name, size); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func tomlSize(v any) (int, error) {
	switch v := v.(type) {
	case int64:
		if v <= 0 || int64(int(v)) != v {
			return 0, fmt.Errorf("%w: %d", ErrInvalidSize, v)
		}
		return int(v), nil
	case string:
		return ParseSize(v)
	default:
		return 0, fmt.Errorf("%w: unsupported value %v", ErrInvalidSize, v)
	}
}
