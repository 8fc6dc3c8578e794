// Package extension bundles the Chrome extension that relays browser events
// to bananadb-host. The extension is written out unpacked by install-host and
// its id is pinned by the public key in its manifest.
package extension

import (
	"crypto/sha256"
	"embed"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

//go:embed all:files
var bundle embed.FS

const (
	root         = "files"
	manifestFile = "manifest.json"
	hostFile     = "host.json"
)

// ID returns the extension id Chrome derives from the bundled manifest key.
func ID() (string, error) {
	data, err := bundle.ReadFile(path.Join(root, manifestFile))
	if err != nil {
		return "", fmt.Errorf("read bundled manifest: %w", err)
	}
	var manifest struct {
		Key string `json:"key"`
	}
	if err := json.Unmarshal(data, &manifest); err != nil {
		return "", fmt.Errorf("decode bundled manifest: %w", err)
	}
	return IDFromKey(manifest.Key)
}

// IDFromKey converts a base64 DER public key into an extension id: the first
// 16 bytes of its SHA-256, one letter a-p per hex digit.
func IDFromKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", errors.New("extension key is empty")
	}
	der, err := base64.StdEncoding.DecodeString(key)
	if err != nil {
		return "", fmt.Errorf("decode extension key: %w", err)
	}
	sum := sha256.Sum256(der)
	digits := hex.EncodeToString(sum[:16])
	id := make([]byte, len(digits))
	for i := 0; i < len(digits); i++ {
		c := digits[i]
		if c >= 'a' {
			id[i] = 'a' + 10 + (c - 'a')
		} else {
			id[i] = 'a' + (c - '0')
		}
	}
	return string(id), nil
}

// Write unpacks the extension into dir, pointing it at the native host named
// hostName, and returns the files written relative to dir.
func Write(dir, hostName string) ([]string, error) {
	hostName = strings.TrimSpace(hostName)
	if hostName == "" {
		return nil, errors.New("write extension: host name is required")
	}
	var written []string
	err := fs.WalkDir(bundle, root, func(name string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel := strings.TrimPrefix(strings.TrimPrefix(name, root), "/")
		if rel == "" {
			return os.MkdirAll(dir, 0o755)
		}
		target := filepath.Join(dir, filepath.FromSlash(rel))
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		var data []byte
		if rel == hostFile {
			data, err = json.MarshalIndent(map[string]string{"hostName": hostName}, "", "  ")
			data = append(data, '\n')
		} else {
			data, err = bundle.ReadFile(name)
		}
		if err != nil {
			return err
		}
		if err := os.WriteFile(target, data, 0o644); err != nil {
			return err
		}
		written = append(written, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("write extension: %w", err)
	}
	return written, nil
}
