// Package zonecfg loads the zone table the memory manager is built from.
//
// Two formats are accepted. The line format is the engine's native one:
//
//	# memory.cfg
//	[zones]
//	Containers = 4MB
//	Audio      = 16MB
//	Scratch    = 65536
//
//	[log]
//	level = debug
//	dir   = /var/log/vytal
//
// The same content as TOML (selected by a .toml extension in Load):
//
//	[zones]
//	Containers = "4MB"
//	Scratch    = 65536
//
//	[log]
//	level = "debug"
//
// Sizes are a decimal number with an optional B, KB, MB or GB suffix (binary multiples,
// case-insensitive). Zones keep the order they appear in the file. Input may be UTF-8,
// or UTF-16 with a byte order mark.
package zonecfg

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/SilentCathedral918/vytal-sub000/internal/buf"
	"github.com/SilentCathedral918/vytal-sub000/memory"
)

var (
	// ErrSyntax indicates a line that is neither a section, a comment nor a key = value pair.
	ErrSyntax = errors.New("zonecfg: syntax error")

	// ErrInvalidSize indicates a malformed, zero, negative or overflowing size.
	ErrInvalidSize = errors.New("zonecfg: invalid size")

	// ErrDuplicateZone indicates a zone name that appears twice.
	ErrDuplicateZone = errors.New("zonecfg: duplicate zone")
)

const (
	sectionZones = "zones"
	sectionLog   = "log"
)

// Zone is one configured zone.
type Zone struct {
	Name     string
	Capacity int
}

// LogConfig holds the optional [log] section.
type LogConfig struct {
	Level string
	Dir   string
}

// Config is a parsed configuration file.
type Config struct {
	Zones []Zone
	Log   LogConfig
}

// Specs converts the zones to memory.ZoneSpec in file order.
func (c *Config) Specs() []memory.ZoneSpec {
	specs := make([]memory.ZoneSpec, len(c.Zones))
	for i, z := range c.Zones {
		specs[i] = memory.ZoneSpec{Name: z.Name, Capacity: z.Capacity}
	}
	return specs
}

// TotalCapacity returns the sum of all zone capacities.
func (c *Config) TotalCapacity() int {
	total := 0
	for _, z := range c.Zones {
		total += z.Capacity
	}
	return total
}

func (c *Config) addZone(name string, capacity int) error {
	for _, z := range c.Zones {
		if z.Name == name {
			return fmt.Errorf("%w: %q", ErrDuplicateZone, name)
		}
	}
	c.Zones = append(c.Zones, Zone{Name: name, Capacity: capacity})
	return nil
}

// Load reads path, choosing the TOML parser for .toml files and the line format
// otherwise.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("zonecfg: %w", err)
	}
	defer f.Close()

	var cfg *Config
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		cfg, err = ParseTOML(f)
	} else {
		cfg, err = Parse(f)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// decode wraps r so that UTF-16 input with a BOM and UTF-8 input with or without one
// all come out as plain UTF-8.
func decode(r io.Reader) io.Reader {
	return transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
}

var sizeUnits = []struct {
	suffix string
	shift  uint
}{
	{"GB", 30},
	{"MB", 20},
	{"KB", 10},
	{"G", 30},
	{"M", 20},
	{"K", 10},
	{"B", 0},
}

// ParseSize parses sizes such as "64", "512B", "4KB", "16 MB" or "1gb".
func ParseSize(s string) (int, error) {
	text := strings.ToUpper(strings.TrimSpace(s))
	shift := uint(0)
	for _, u := range sizeUnits {
		if strings.HasSuffix(text, u.suffix) {
			text = strings.TrimSpace(strings.TrimSuffix(text, u.suffix))
			shift = u.shift
			break
		}
	}

	n, err := strconv.Atoi(text)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}
	size, ok := buf.MulOverflowSafe(n, 1<<shift)
	if !ok {
		return 0, fmt.Errorf("%w: %q overflows", ErrInvalidSize, s)
	}
	return size, nil
}
