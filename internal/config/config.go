// Package config holds the environment-to-connection-parameter table.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/planbench/planbench/internal/session"
)

// Environments maps an environment label to its connection parameters.
type Environments map[string]session.Params

var (
	mu     sync.RWMutex
	active = Default()
)

// Default returns the built-in environment table.
func Default() Environments {
	return Environments{
		"kvm":     {Host: "localhost", Port: 5432, Database: "imdbload", User: "postgres"},
		"cvm":     {Host: "localhost", Port: 5432, Database: "imdbload", User: "postgres"},
		"cvm_es":  {Host: "localhost", Port: 5432, Database: "imdbload", User: "postgres"},
		"cvm_snp": {Host: "localhost", Port: 5432, Database: "imdbload", User: "postgres"},
	}
}

// Active returns the currently applied environment table.
func Active() Environments {
	mu.RLock()
	defer mu.RUnlock()
	return active
}

// Use replaces the active environment table.
func Use(envs Environments) {
	mu.Lock()
	active = envs
	mu.Unlock()
}

// Apply overlays environments from a JSON file onto the defaults. Empty
// path resets to the defaults. The file carries an "environments" object;
// a per-environment "description" key is tolerated and ignored.
func Apply(path string) error {
	if path == "" {
		Use(Default())
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var file struct {
		Environments map[string]session.Params `json:"environments"`
	}
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	envs := Default()
	for name, params := range file.Environments {
		envs[strings.ToLower(name)] = params
	}
	Use(envs)
	return nil
}

// Lookup resolves an environment label case-insensitively, falling back to
// the kvm entry for unknown labels.
func Lookup(name string) session.Params {
	envs := Active()
	if params, ok := envs[strings.ToLower(name)]; ok {
		return params
	}
	return envs["kvm"]
}
