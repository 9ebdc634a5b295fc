package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/natefinch/atomic"
)

const header = "# flipbook configuration\n\n"

type keyKind int

const (
	kindString keyKind = iota
	kindInt
	kindFloat
	kindBool
)

// settable lists the keys accepted by Set and the type of their values.
var settable = map[string]keyKind{
	"source.url":           kindString,
	"source.extension":     kindString,
	"source.frames":        kindInt,
	"source.frame_rate":    kindFloat,
	"source.timeout":       kindInt,
	"source.retries":       kindInt,
	"server.addr":          kindString,
	"server.dir":           kindString,
	"tui.theme":            kindString,
	"tui.refresh_interval": kindInt,
	"tui.show_content":     kindBool,
	"log.level":            kindString,
	"log.file":             kindString,
}

// Keys returns the keys accepted by Set, sorted.
func Keys() []string {
	keys := make([]string, 0, len(settable))
	for k := range settable {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Save writes cfg to path atomically, creating the directory if needed.
func Save(cfg *Config, path string) error {
	var buf bytes.Buffer
	buf.WriteString(header)

	encoder := toml.NewEncoder(&buf)
	encoder.Indent = "  "
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return write(path, buf.Bytes())
}

// Set updates a single key in the config file at path, keeping every other
// value in the file as written. The file is created if missing.
func Set(path, key, value string) error {
	kind, ok := settable[key]
	if !ok {
		return fmt.Errorf("unknown key %q (supported: %s)", key, strings.Join(Keys(), ", "))
	}

	raw := make(map[string]interface{})
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if _, err := toml.Decode(string(data), &raw); err != nil {
			return fmt.Errorf("failed to parse config: %w", err)
		}
	case !errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("failed to read config: %w", err)
	}

	typed, err := parseValue(kind, value)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}

	section, field, _ := strings.Cut(key, ".")
	sectionMap, ok := raw[section].(map[string]interface{})
	if !ok {
		sectionMap = make(map[string]interface{})
		raw[section] = sectionMap
	}
	sectionMap[field] = typed

	// Reject values that would make the file unloadable.
	var buf bytes.Buffer
	encoder := toml.NewEncoder(&buf)
	encoder.Indent = "  "
	if err := encoder.Encode(raw); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	check := Default()
	if _, err := toml.Decode(buf.String(), check); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	check.ApplyDefaults()
	if err := check.Validate(); err != nil {
		return err
	}

	return write(path, append([]byte(header), buf.Bytes()...))
}

func parseValue(kind keyKind, value string) (interface{}, error) {
	switch kind {
	case kindInt:
		i, err := strconv.Atoi(value)
		if err != nil {
			return nil, errors.New("value must be an integer")
		}
		return i, nil
	case kindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, errors.New("value must be a number")
		}
		return f, nil
	case kindBool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, errors.New("value must be true or false")
		}
		return b, nil
	default:
		return value, nil
	}
}

func write(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	// atomic.WriteFile doesn't set permissions for new files
	if err := os.Chmod(path, 0o644); err != nil {
		return fmt.Errorf("failed to set config permissions: %w", err)
	}
	return nil
}
