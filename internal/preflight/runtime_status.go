package preflight

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gofrs/flock"

	"bananadb/internal/config"
	"bananadb/internal/extension"
	"bananadb/internal/nativehost"
)

// CheckHostManifestFromConfig checks the manifest in the default Chrome
// directory against extension.id, or the bundled extension when unset.
func CheckHostManifestFromConfig(cfg *config.Config) Result {
	dir, err := nativehost.DefaultManifestDir()
	if err != nil {
		return Result{Name: "Native host manifest", Detail: err.Error()}
	}
	id := cfg.Extension.ID
	if id == "" {
		id, _ = extension.ID()
	}
	return CheckHostManifest(dir, cfg.Extension.HostName, id)
}

// CheckHostManifest verifies that <dir>/<hostName>.json exists, points at an
// existing binary, and allows extensionID when one is configured.
func CheckHostManifest(dir, hostName, extensionID string) Result {
	const name = "Native host manifest"

	path := filepath.Join(dir, hostName+".json")
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Result{Name: name, Detail: "not installed (run: bananadb install-host)"}
	}
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	var m nativehost.Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: invalid json: %v)", path, err)}
	}
	if _, err := os.Stat(m.Path); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("host binary %s missing", m.Path)}
	}
	if id := strings.TrimSpace(extensionID); id != "" && !slices.Contains(m.AllowedOrigins, nativehost.ExtensionOrigin(id)) {
		return Result{Name: name, Detail: fmt.Sprintf("extension %s not in allowed_origins", id)}
	}
	return Result{Name: name, Passed: true, Detail: path}
}

// ServerRunning reports whether another process holds the server lock.
func ServerRunning(lockPath string) (bool, error) {
	if _, err := os.Stat(lockPath); errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return false, fmt.Errorf("probe server lock: %w", err)
	}
	if ok {
		_ = lock.Unlock()
		return false, nil
	}
	return true, nil
}
