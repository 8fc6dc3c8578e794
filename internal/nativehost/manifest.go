package nativehost

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// Manifest is the native messaging host manifest Chrome reads to launch the host.
type Manifest struct {
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	Path           string   `json:"path"`
	Type           string   `json:"type"`
	AllowedOrigins []string `json:"allowed_origins"`
}

// NewManifest describes a host binary allowed for one extension id.
func NewManifest(name, binaryPath, extensionID string) (Manifest, error) {
	name = strings.TrimSpace(name)
	extensionID = strings.TrimSpace(extensionID)
	if name == "" {
		return Manifest{}, errors.New("manifest: host name is required")
	}
	if extensionID == "" {
		return Manifest{}, errors.New("manifest: extension id is required")
	}
	if !filepath.IsAbs(binaryPath) {
		return Manifest{}, fmt.Errorf("manifest: binary path %q must be absolute", binaryPath)
	}
	return Manifest{
		Name:           name,
		Description:    "BananaDB capture host",
		Path:           binaryPath,
		Type:           "stdio",
		AllowedOrigins: []string{ExtensionOrigin(extensionID)},
	}, nil
}

// ExtensionOrigin returns the origin Chrome passes for an extension id.
func ExtensionOrigin(extensionID string) string {
	return "chrome-extension://" + strings.TrimSpace(extensionID) + "/"
}

// DefaultManifestDir returns the per-user Chrome manifest directory.
func DefaultManifestDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Google", "Chrome", "NativeMessagingHosts"), nil
	default:
		return filepath.Join(home, ".config", "google-chrome", "NativeMessagingHosts"), nil
	}
}

// WriteManifest writes m into dir as <name>.json and returns the file path.
func WriteManifest(dir string, m Manifest) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create manifest directory: %w", err)
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode manifest: %w", err)
	}
	path := filepath.Join(dir, m.Name+".json")
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("write manifest: %w", err)
	}
	return path, nil
}
