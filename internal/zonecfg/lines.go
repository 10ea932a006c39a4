package zonecfg

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

const (
	maxLineSize = 64 * 1024
)

// Parse reads the line format.
func Parse(r io.Reader) (*Config, error) {
	cfg := &Config{}
	section := sectionZones

	scanner := bufio.NewScanner(decode(r))
	scanner.Buffer(make([]byte, 0, 4096), maxLineSize)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := stripComment(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "[") {
			if !strings.HasSuffix(line, "]") {
				return nil, fmt.Errorf("line %d: %w: unterminated section %q", lineNo, ErrSyntax, line)
			}
			section = strings.ToLower(strings.TrimSpace(line[1 : len(line)-1]))
			if section != sectionZones && section != sectionLog {
				return nil, fmt.Errorf("line %d: %w: unknown section %q", lineNo, ErrSyntax, section)
			}
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		if !ok || key == "" || value == "" {
			return nil, fmt.Errorf("line %d: %w: expected name = value, got %q", lineNo, ErrSyntax, line)
		}

		if err := cfg.set(section, key, value); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("zonecfg: scanning: %w", err)
	}
	return cfg, nil
}

func (c *Config) set(section, key, value string) error {
	switch section {
	case sectionLog:
		switch strings.ToLower(key) {
		case "level":
			c.Log.Level = value
		case "dir":
			c.Log.Dir = value
		default:
			return fmt.Errorf("%w: unknown log setting %q", ErrSyntax, key)
		}
		return nil
	default:
		size, err := ParseSize(value)
		if err != nil {
			return fmt.Errorf("zone %q: %w", key, err)
		}
		return c.addZone(key, size)
	}
}

// stripComment trims the line and drops everything after # or ;.
func stripComment(line string) string {
	if i := strings.IndexAny(line, "#;"); i >= 0 {
		line = line[:i]
	}
	return strings.TrimSpace(line)
}
