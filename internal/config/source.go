package config

import (
	"fmt"
	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// source resolves a setting from the environment, then the config file.
type source struct {
	file map[string]string
}

func getenv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func (s *source) get(key, def string) string {
	if v := getenv(key); v != "" {
		return v
	}
	if v, ok := s.file[strings.ToLower(key)]; ok && v != "" {
		return v
	}
	return def
}

func (s *source) getBool(key string, def bool) (bool, error) {
	v := s.get(key, strconv.FormatBool(def))
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("failed to parse %s: %v", key, err)
	}
	return b, nil
}

func (s *source) getInt(key string, def int) (int, error) {
	v := s.get(key, strconv.Itoa(def))
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("failed to parse %s: %v", key, err)
	}
	return i, nil
}

func (s *source) getInt64(key string, def int64) (int64, error) {
	v := s.get(key, strconv.FormatInt(def, 10))
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse %s: %v", key, err)
	}
	return i, nil
}

func (s *source) getFloat(key string, def float64) (float64, error) {
	v := s.get(key, strconv.FormatFloat(def, 'f', -1, 64))
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse %s: %v", key, err)
	}
	return f, nil
}

func (s *source) getDuration(key string, def time.Duration) (time.Duration, error) {
	v := s.get(key, def.String())
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("failed to parse %s: %v", key, err)
	}
	return d, nil
}

// readFile loads a TOML or YAML config file into flat lowercase keys.
// Nested tables are joined with "_", so [s3] bucket becomes s3_bucket.
func readFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %v", err)
	}
	raw := map[string]interface{}{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file type: %s", path)
	}
	values := map[string]string{}
	flatten("", raw, values)
	return values, nil
}

func flatten(prefix string, in map[string]interface{}, out map[string]string) {
	keys := make([]string, 0, len(in))
	for k := range in {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		name := strings.ToLower(k)
		if prefix != "" {
			name = prefix + "_" + name
		}
		switch v := in[k].(type) {
		case map[string]interface{}:
			flatten(name, v, out)
		case nil:
		default:
			out[name] = fmt.Sprint(v)
		}
	}
}
