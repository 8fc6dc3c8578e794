package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"bananadb/internal/extension"
	"bananadb/internal/nativehost"
	"bananadb/internal/preflight"
	"bananadb/internal/testsupport"
)

func TestInstallHostWritesManifest(t *testing.T) {
	env := setupCLITestEnv(t)
	hostPath := filepath.Join(t.TempDir(), hostBinaryName)
	testsupport.WriteFile(t, hostPath, []byte("#!/bin/sh\n"))
	if err := os.Chmod(hostPath, 0o755); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	manifestDir := filepath.Join(t.TempDir(), "hosts")
	const extID = "abcdefghijklmnopabcdefghijklmnop"

	out, _, err := runCLI(t, []string{"install-host", "--host-path", hostPath, "--manifest-dir", manifestDir, "--extension-id", extID, "--skip-extension"}, env.configPath)
	if err != nil {
		t.Fatalf("install-host: %v", err)
	}
	requireContains(t, out, "Wrote native messaging manifest")

	data, err := os.ReadFile(filepath.Join(manifestDir, env.cfg.Extension.HostName+".json"))
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	var m nativehost.Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("decode manifest: %v", err)
	}
	if m.Path != hostPath || m.Type != "stdio" {
		t.Fatalf("unexpected manifest: %+v", m)
	}
	if len(m.AllowedOrigins) != 1 || m.AllowedOrigins[0] != nativehost.ExtensionOrigin(extID) {
		t.Fatalf("unexpected origins: %v", m.AllowedOrigins)
	}

	if res := preflight.CheckHostManifest(manifestDir, env.cfg.Extension.HostName, extID); !res.Passed {
		t.Fatalf("installed manifest should pass preflight: %+v", res)
	}
}

func TestInstallHostDefaultsToBundledExtension(t *testing.T) {
	env := setupCLITestEnv(t)
	hostPath := filepath.Join(t.TempDir(), hostBinaryName)
	testsupport.WriteFile(t, hostPath, []byte("#!/bin/sh\n"))
	if err := os.Chmod(hostPath, 0o755); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	manifestDir := filepath.Join(t.TempDir(), "hosts")
	extDir := filepath.Join(t.TempDir(), "ext")

	out, _, err := runCLI(t, []string{"install-host", "--host-path", hostPath, "--manifest-dir", manifestDir, "--extension-dir", extDir}, env.configPath)
	if err != nil {
		t.Fatalf("install-host: %v", err)
	}
	requireContains(t, out, "Wrote capture extension")

	bundled, err := extension.ID()
	if err != nil {
		t.Fatalf("extension.ID: %v", err)
	}
	if res := preflight.CheckHostManifest(manifestDir, env.cfg.Extension.HostName, bundled); !res.Passed {
		t.Fatalf("manifest should allow the bundled extension: %+v", res)
	}
	for _, name := range []string{"manifest.json", "background.js", "relay.js", "host.json"} {
		if _, err := os.Stat(filepath.Join(extDir, name)); err != nil {
			t.Fatalf("expected %s in extension dir: %v", name, err)
		}
	}
}

func TestInstallHostRejectsNonExecutable(t *testing.T) {
	env := setupCLITestEnv(t)
	hostPath := filepath.Join(t.TempDir(), hostBinaryName)
	testsupport.WriteFile(t, hostPath, []byte("not executable"))
	_, _, err := runCLI(t, []string{"install-host", "--host-path", hostPath, "--manifest-dir", t.TempDir(), "--extension-id", "abc"}, env.configPath)
	if err == nil {
		t.Fatal("expected error for non-executable host")
	}
}
