package ofd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"github.com/titanous/json5"
)

// LoadHeaders reads a JSON5 object of header overrides from path and merges
// it over DefaultHeaders. A sibling "<name>.local.<ext>" file, when present,
// overrides both. An empty path returns the defaults
func LoadHeaders(path string) (map[string]string, error) {
	headers := DefaultHeaders()
	if path == "" {
		return headers, nil
	}

	override, err := readHeaderFile(path)
	if err != nil {
		return nil, err
	}
	if override == nil {
		return nil, fmt.Errorf("reading headers file: %w", os.ErrNotExist)
	}
	if err := mergo.Merge(&headers, override, mergo.WithOverride); err != nil {
		return nil, fmt.Errorf("merging headers: %w", err)
	}

	localPath := localVariant(path)
	local, err := readHeaderFile(localPath)
	if err != nil {
		return nil, err
	}
	if local != nil {
		if err := mergo.Merge(&headers, local, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("merging local headers: %w", err)
		}
		slog.Info("merging headers with local overrides", "local", localPath)
	}

	return headers, nil
}

// readHeaderFile returns nil without error when the file does not exist
func readHeaderFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading headers file: %w", err)
	}

	headers := map[string]string{}
	if len(strings.TrimSpace(string(data))) == 0 {
		return headers, nil
	}
	if err := json5.Unmarshal(data, &headers); err != nil {
		return nil, fmt.Errorf("parsing headers file %s: %w", path, err)
	}
	return headers, nil
}

// localVariant turns "dir/headers.json5" into "dir/headers.local.json5"
func localVariant(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + ".local" + ext
}
