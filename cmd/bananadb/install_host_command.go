package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"bananadb/internal/config"
	"bananadb/internal/extension"
	"bananadb/internal/nativehost"
)

const hostBinaryName = "bananadb-host"

func newInstallHostCommand(ctx *commandContext) *cobra.Command {
	var hostPath string
	var manifestDir string
	var extensionID string
	var extensionDir string
	var skipExtension bool

	cmd := &cobra.Command{
		Use:   "install-host",
		Short: "Install the capture extension and its native messaging manifest",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			id := strings.TrimSpace(extensionID)
			if id == "" {
				id = cfg.Extension.ID
			}
			if id == "" {
				if id, err = extension.ID(); err != nil {
					return fmt.Errorf("bundled extension id: %w", err)
				}
			}

			binary, err := resolveHostBinary(hostPath)
			if err != nil {
				return err
			}

			dir := strings.TrimSpace(manifestDir)
			if dir == "" {
				dir, err = nativehost.DefaultManifestDir()
				if err != nil {
					return fmt.Errorf("determine manifest directory: %w", err)
				}
			} else if dir, err = config.ExpandPath(dir); err != nil {
				return fmt.Errorf("resolve manifest directory: %w", err)
			}

			manifest, err := nativehost.NewManifest(cfg.Extension.HostName, binary, id)
			if err != nil {
				return err
			}
			path, err := nativehost.WriteManifest(dir, manifest)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote native messaging manifest to %s\n", path)
			fmt.Fprintf(out, "Host binary: %s\n", binary)
			fmt.Fprintf(out, "Allowed origin: %s\n", nativehost.ExtensionOrigin(id))

			if skipExtension {
				return nil
			}
			extDir := strings.TrimSpace(extensionDir)
			if extDir == "" {
				extDir = filepath.Join(cfg.Paths.DataDir, "extension")
			} else if extDir, err = config.ExpandPath(extDir); err != nil {
				return fmt.Errorf("resolve extension directory: %w", err)
			}
			if _, err := extension.Write(extDir, cfg.Extension.HostName); err != nil {
				return err
			}
			fmt.Fprintf(out, "Wrote capture extension to %s\n", extDir)
			fmt.Fprintln(out, "Load it with chrome://extensions > Developer mode > Load unpacked.")
			return nil
		},
	}

	cmd.Flags().StringVar(&hostPath, "host-path", "", "Path to the bananadb-host binary (default: next to this executable)")
	cmd.Flags().StringVar(&manifestDir, "manifest-dir", "", "Directory for the manifest (default: Chrome's per-user directory)")
	cmd.Flags().StringVar(&extensionID, "extension-id", "", "Extension id allowed to connect (default: extension.id, then the bundled extension)")
	cmd.Flags().StringVar(&extensionDir, "extension-dir", "", "Directory for the unpacked extension (default: <data_dir>/extension)")
	cmd.Flags().BoolVar(&skipExtension, "skip-extension", false, "Only write the native messaging manifest")
	return cmd
}

// resolveHostBinary returns an absolute path to the host executable. Without
// an explicit path it looks beside the running CLI.
func resolveHostBinary(explicit string) (string, error) {
	if path := strings.TrimSpace(explicit); path != "" {
		expanded, err := config.ExpandPath(path)
		if err != nil {
			return "", fmt.Errorf("resolve host path: %w", err)
		}
		return requireExecutable(expanded)
	}
	self, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locate executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(self); err == nil {
		self = resolved
	}
	return requireExecutable(filepath.Join(filepath.Dir(self), hostBinaryName))
}

func requireExecutable(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("host binary %s: %w (build it with `go build ./cmd/bananadb-host` or pass --host-path)", path, err)
	}
	if info.IsDir() || info.Mode().Perm()&0o111 == 0 {
		return "", fmt.Errorf("host binary %s is not executable", path)
	}
	return path, nil
}
