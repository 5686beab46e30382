package app

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
)

// LoadDotEnv reads KEY=VALUE lines from each file into the process
// environment so B30_* settings can live next to the binary. Variables that
// are already set are left alone, and earlier files win over later ones.
// Missing files are skipped. It returns how many variables were set.
func LoadDotEnv(paths ...string) (int, error) {
	set := 0
	for _, p := range paths {
		if strings.TrimSpace(p) == "" {
			continue
		}
		n, err := loadDotEnvFile(p)
		set += n
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return set, fmt.Errorf("load %s: %w", p, err)
		}
	}
	return set, nil
}

func loadDotEnvFile(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	set := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")
		key, val, ok := strings.Cut(line, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			continue
		}
		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		if err := os.Setenv(key, unquote(strings.TrimSpace(val))); err != nil {
			return set, err
		}
		set++
	}
	return set, scanner.Err()
}

func unquote(v string) string {
	if len(v) >= 2 && (v[0] == '"' || v[0] == '\'') && v[len(v)-1] == v[0] {
		return v[1 : len(v)-1]
	}
	return v
}
