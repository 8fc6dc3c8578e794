package nativehost_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bananadb/internal/capture"
	"bananadb/internal/collect"
	"bananadb/internal/dialog"
	"bananadb/internal/logging"
	"bananadb/internal/nativehost"
)

func frames(t *testing.T, events ...nativehost.Inbound) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	for _, ev := range events {
		data, err := json.Marshal(ev)
		if err != nil {
			t.Fatalf("marshal event: %v", err)
		}
		if err := nativehost.WriteFrame(&buf, data); err != nil {
			t.Fatalf("WriteFrame: %v", err)
		}
	}
	return &buf
}

func commands(t *testing.T, out *bytes.Buffer) []nativehost.Command {
	t.Helper()
	var cmds []nativehost.Command
	for {
		payload, err := nativehost.ReadFrame(out)
		if errors.Is(err, io.EOF) {
			return cmds
		}
		if err != nil {
			t.Fatalf("ReadFrame: %v", err)
		}
		var cmd nativehost.Command
		if err := json.Unmarshal(payload, &cmd); err != nil {
			t.Fatalf("decode command: %v", err)
		}
		cmds = append(cmds, cmd)
	}
}

func types(cmds []nativehost.Command) []string {
	out := make([]string, 0, len(cmds))
	for _, c := range cmds {
		out = append(out, c.Type)
	}
	return out
}

func runHost(t *testing.T, in io.Reader, collectURL string, logs io.Writer) []nativehost.Command {
	t.Helper()
	logger := logging.NewNop()
	if logs != nil {
		var err error
		logger, err = logging.New(logging.Options{Level: "debug", ConsoleWriter: logs})
		if err != nil {
			t.Fatalf("logging.New: %v", err)
		}
	}
	var out bytes.Buffer
	host := nativehost.New(in, &out, nativehost.Options{IconURL: "icons/icon128.png", Notifications: true, Logger: logger})
	coord := capture.New(host, host, collect.NewClient(collectURL, 0), logger)
	if err := host.Run(context.Background(), coord); err != nil {
		t.Fatalf("Run: %v", err)
	}
	return commands(t, &out)
}

func collectStub(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req collect.Request
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.ContextText != "hi" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"detail":"unexpected prompt"}`))
			return
		}
		_, _ = w.Write([]byte(`{"success":true,"data":{"image_id":42,"filename":"f.png"}}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

var click = nativehost.Inbound{Type: nativehost.EventMenuClicked, MenuItemID: capture.MenuID, TabID: 5, SrcURL: "https://cdn/a.png", PageURL: "https://page"}

func TestHostSaveFlow(t *testing.T) {
	srv := collectStub(t)
	in := frames(t,
		click,
		click,
		nativehost.Inbound{Type: nativehost.EventDOM, TabID: 5, ElementID: dialog.ElementID, Kind: "click", Target: "save", PromptText: "  hi "},
	)
	cmds := runHost(t, in, srv.URL, nil)

	want := []string{"removeMenu", "createMenu", "inject", "mount", "listen", "focus", "inject", "unlisten", "unmount", "notify"}
	if got := types(cmds); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("unexpected commands:\n got %v\nwant %v", got, want)
	}
	if cmds[1].Menu == nil || cmds[1].Menu.Title != capture.MenuLabel || cmds[1].Menu.Contexts[0] != "image" {
		t.Fatalf("unexpected menu %+v", cmds[1].Menu)
	}
	mount := cmds[3]
	if mount.TabID != 5 || mount.ElementID != dialog.ElementID || !strings.Contains(mount.HTML, "Save to BananaDB") {
		t.Fatalf("unexpected mount command %+v", mount)
	}
	note := cmds[len(cmds)-1].Notification
	if note == nil || note.Type != "basic" || note.Priority != 2 || note.IconURL != "icons/icon128.png" {
		t.Fatalf("unexpected notification %+v", note)
	}
	if !strings.Contains(note.Message, "42") {
		t.Fatalf("expected record id in %q", note.Message)
	}
}

func TestHostEscapeSendsNothing(t *testing.T) {
	srv := collectStub(t)
	in := frames(t,
		click,
		nativehost.Inbound{Type: nativehost.EventDOM, TabID: 5, ListenerID: 1, Kind: "keydown", Key: "Escape"},
		nativehost.Inbound{Type: nativehost.EventDOM, TabID: 5, ListenerID: 1, Kind: "keydown", Key: "Escape"},
	)
	cmds := runHost(t, in, srv.URL, nil)

	want := []string{"removeMenu", "createMenu", "inject", "mount", "listen", "focus", "unlisten", "unmount"}
	if got := types(cmds); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("unexpected commands:\n got %v\nwant %v", got, want)
	}
}

func TestHostInstalledReplacesMenuOnce(t *testing.T) {
	in := frames(t,
		nativehost.Inbound{Type: nativehost.EventInstalled, Reason: "update"},
		nativehost.Inbound{Type: "somethingElse"},
	)
	cmds := runHost(t, in, "http://127.0.0.1:1", nil)

	want := []string{"removeMenu", "createMenu", "removeMenu", "createMenu"}
	if got := types(cmds); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("unexpected commands: %v", got)
	}
}

func TestHostMissingSourceNotifies(t *testing.T) {
	in := frames(t, nativehost.Inbound{Type: nativehost.EventMenuClicked, MenuItemID: capture.MenuID, TabID: 2})
	cmds := runHost(t, in, "http://127.0.0.1:1", nil)
	last := cmds[len(cmds)-1]
	if last.Type != nativehost.CommandNotify || last.Notification.Message != capture.MissingImageURLText {
		t.Fatalf("unexpected last command %+v", last)
	}
}

func TestHostLogsDroppedSaveOnTabClose(t *testing.T) {
	var logs bytes.Buffer
	in := frames(t,
		click,
		nativehost.Inbound{Type: nativehost.EventTabClosed, TabID: 5},
	)
	runHost(t, in, "http://127.0.0.1:1", &logs)
	if !strings.Contains(logs.String(), "save message dropped") {
		t.Fatalf("expected dropped save warning in logs:\n%s", logs.String())
	}
}

func TestHostNavigationDiscardsOpenDialog(t *testing.T) {
	var logs bytes.Buffer
	injected := nativehost.Inbound{Type: nativehost.EventInjectResult, TabID: 5, OK: true}
	in := frames(t,
		click,
		injected,
		nativehost.Inbound{Type: nativehost.EventNavigated, TabID: 5},
		click,
		injected,
		nativehost.Inbound{Type: nativehost.EventDOM, TabID: 5, ListenerID: 1, Kind: "keydown", Key: "Escape"},
	)
	cmds := runHost(t, in, "http://127.0.0.1:1", &logs)

	want := []string{
		"removeMenu", "createMenu",
		"inject", "mount", "listen", "focus",
		"inject", "mount", "listen", "focus",
		"unlisten", "unmount",
	}
	if got := types(cmds); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("unexpected commands:\n got %v\nwant %v", got, want)
	}
	if !strings.Contains(logs.String(), "navigated away") {
		t.Fatalf("expected dropped save warning for the navigation:\n%s", logs.String())
	}
}

func TestHostNavigationWithoutDialogIsQuiet(t *testing.T) {
	var logs bytes.Buffer
	in := frames(t,
		nativehost.Inbound{Type: nativehost.EventNavigated, TabID: 9},
		click,
		nativehost.Inbound{Type: nativehost.EventDOM, TabID: 5, ListenerID: 1, Kind: "keydown", Key: "Escape"},
		nativehost.Inbound{Type: nativehost.EventNavigated, TabID: 5},
	)
	cmds := runHost(t, in, "http://127.0.0.1:1", &logs)

	want := []string{"removeMenu", "createMenu", "inject", "mount", "listen", "focus", "unlisten", "unmount"}
	if got := types(cmds); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("unexpected commands:\n got %v\nwant %v", got, want)
	}
	if strings.Contains(logs.String(), "save message dropped") {
		t.Fatalf("closed dialog should not be reported as dropped:\n%s", logs.String())
	}
}

func TestWriteManifest(t *testing.T) {
	dir := t.TempDir()
	m, err := nativehost.NewManifest("com.bananadb.host", "/usr/local/bin/bananadb-host", "abcdef")
	if err != nil {
		t.Fatalf("NewManifest: %v", err)
	}
	path, err := nativehost.WriteManifest(dir, m)
	if err != nil {
		t.Fatalf("WriteManifest: %v", err)
	}
	if filepath.Base(path) != "com.bananadb.host.json" {
		t.Fatalf("unexpected manifest path %q", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	var decoded nativehost.Manifest
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("decode manifest: %v", err)
	}
	if decoded.Type != "stdio" || decoded.AllowedOrigins[0] != "chrome-extension://abcdef/" {
		t.Fatalf("unexpected manifest %+v", decoded)
	}
	if _, err := nativehost.NewManifest("com.bananadb.host", "relative/bin", "abcdef"); err == nil {
		t.Fatal("expected error for relative binary path")
	}
}
