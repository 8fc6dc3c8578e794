package extension_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"bananadb/internal/dialog"
	"bananadb/internal/extension"
	"bananadb/internal/nativehost"
)

const bundledID = "cjlnjnaaockkelklfmecgkachdjdjgia"

func TestIDMatchesBundledKey(t *testing.T) {
	id, err := extension.ID()
	if err != nil {
		t.Fatalf("ID returned error: %v", err)
	}
	if id != bundledID {
		t.Fatalf("expected %s, got %s", bundledID, id)
	}
}

func TestIDFromKeyRejectsGarbage(t *testing.T) {
	if _, err := extension.IDFromKey(""); err == nil {
		t.Fatal("expected error for empty key")
	}
	if _, err := extension.IDFromKey("not base64!"); err == nil {
		t.Fatal("expected error for invalid base64")
	}
}

func TestWriteUnpacksExtension(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "ext")
	written, err := extension.Write(dir, "com.example.capture")
	if err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	for _, name := range []string{"manifest.json", "background.js", "relay.js", "host.json", "icons/icon128.png"} {
		if !slices.Contains(written, name) {
			t.Fatalf("expected %s in written files %v", name, written)
		}
		if _, err := os.Stat(filepath.Join(dir, filepath.FromSlash(name))); err != nil {
			t.Fatalf("stat %s: %v", name, err)
		}
	}

	data, err := os.ReadFile(filepath.Join(dir, "host.json"))
	if err != nil {
		t.Fatalf("read host.json: %v", err)
	}
	var host map[string]string
	if err := json.Unmarshal(data, &host); err != nil {
		t.Fatalf("decode host.json: %v", err)
	}
	if host["hostName"] != "com.example.capture" {
		t.Fatalf("unexpected host name %q", host["hostName"])
	}

	if _, err := extension.Write(dir, " "); err == nil {
		t.Fatal("expected error without host name")
	}
}

func TestRelayCoversHostProtocol(t *testing.T) {
	dir := t.TempDir()
	if _, err := extension.Write(dir, "com.bananadb.host"); err != nil {
		t.Fatalf("Write: %v", err)
	}
	read := func(name string) string {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		return string(data)
	}
	background := read("background.js")
	relay := read("relay.js")

	events := []string{
		nativehost.EventInstalled, nativehost.EventMenuClicked, nativehost.EventDOM,
		nativehost.EventTabClosed, nativehost.EventInjectResult, nativehost.EventNavigated,
	}
	for _, ev := range events {
		if !strings.Contains(background, `type: "`+ev+`"`) {
			t.Errorf("background.js never sends %s", ev)
		}
	}

	commands := []string{
		nativehost.CommandCreateMenu, nativehost.CommandRemoveMenu, nativehost.CommandInject,
		nativehost.CommandMount, nativehost.CommandUnmount, nativehost.CommandFocus,
		nativehost.CommandListen, nativehost.CommandUnlisten, nativehost.CommandNotify,
	}
	for _, cmd := range commands {
		if !strings.Contains(background, `case "`+cmd+`":`) {
			t.Errorf("background.js does not handle %s", cmd)
		}
	}
	for _, cmd := range []string{nativehost.CommandMount, nativehost.CommandUnmount, nativehost.CommandFocus, nativehost.CommandListen, nativehost.CommandUnlisten} {
		if !strings.Contains(relay, `case "`+cmd+`":`) {
			t.Errorf("relay.js does not handle %s", cmd)
		}
	}

	for _, id := range []string{dialog.PromptInputID, dialog.SkipAIInputID} {
		if !strings.Contains(relay, `"`+id+`"`) {
			t.Errorf("relay.js does not read %s", id)
		}
	}
	markup, err := dialog.Render("https://cdn.example.com/a.png")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(markup, "data-bananadb-action") || !strings.Contains(relay, `"data-bananadb-action"`) {
		t.Error("relay.js and dialog markup disagree on the action attribute")
	}
}
