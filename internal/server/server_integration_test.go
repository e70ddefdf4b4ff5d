package server

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"gocv.io/x/gocv"

	"github.com/ayusman/pianogames/internal/capture"
	"github.com/ayusman/pianogames/internal/catalog"
	"github.com/ayusman/pianogames/internal/store"
	"github.com/ayusman/pianogames/testdata"
)

func TestAPI_SettingsWorkflow(t *testing.T) {
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()

	root := t.TempDir()
	if err := testdata.WriteLibrary(root, "D", "etude.mid"); err != nil {
		t.Fatalf("WriteLibrary() error = %v", err)
	}

	srv := New(Config{Store: s, Library: &catalog.Library{Root: root}})
	ts := httptest.NewServer(srv)
	defer ts.Close()
	client := ts.Client()

	// 1. Save settings
	req, _ := http.NewRequest(http.MethodPut, ts.URL+"/api/settings/conductor", strings.NewReader(`{"sensitivity": 3}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("PUT /api/settings/conductor error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("PUT status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	// 2. Read them back
	resp, err = client.Get(ts.URL + "/api/settings/conductor")
	if err != nil {
		t.Fatalf("GET /api/settings/conductor error = %v", err)
	}
	var saved struct {
		Sensitivity float64 `json:"sensitivity"`
	}
	json.NewDecoder(resp.Body).Decode(&saved)
	resp.Body.Close()
	if saved.Sensitivity != 3 {
		t.Errorf("sensitivity = %v, want 3", saved.Sensitivity)
	}

	// 3. Library listing and download
	resp, _ = client.Get(ts.URL + "/api/midi-files")
	var files map[string][]string
	json.NewDecoder(resp.Body).Decode(&files)
	resp.Body.Close()
	if len(files["D"]) != 1 {
		t.Fatalf("midi files = %v, want one file under D", files)
	}

	resp, _ = client.Get(ts.URL + "/api/midi-file/D/" + files["D"][0])
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET midi file status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	// 4. Sessions start empty
	resp, _ = client.Get(ts.URL + "/api/sessions")
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET /api/sessions status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
}

func TestHub_Broadcast(t *testing.T) {
	hub := NewHub(nil)
	ts := httptest.NewServer(New(Config{Hub: hub}))
	defer ts.Close()

	// A message published before anyone connects is replayed on connect.
	if err := hub.Publish("airpiano", map[string]any{"chord": "C"}); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/live"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var msg struct {
		Type string            `json:"type"`
		Data map[string]string `json:"data"`
	}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	if msg.Type != "airpiano" || msg.Data["chord"] != "C" {
		t.Errorf("replayed message = %+v", msg)
	}

	if err := hub.Publish("airpiano", map[string]any{"chord": "F"}); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	if msg.Data["chord"] != "F" {
		t.Errorf("chord = %q, want F", msg.Data["chord"])
	}
	if hub.Clients() != 1 {
		t.Errorf("Clients() = %d, want 1", hub.Clients())
	}

	hub.Close()
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("expected the connection to close")
	}
	if hub.Clients() != 0 {
		t.Errorf("Clients() after Close = %d, want 0", hub.Clients())
	}
}

func TestStreamHandler_ServesJPEGParts(t *testing.T) {
	frame := testdata.SolidFrame(128)
	defer frame.Close()
	cam := capture.NewMockCamera([]*gocv.Mat{&frame}, true)
	cam.Open()
	defer cam.Close()

	ts := httptest.NewServer(New(Config{Camera: cam}))
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/stream", nil)
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("GET /api/stream error = %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "multipart/x-mixed-replace") {
		t.Fatalf("Content-Type = %q", ct)
	}

	r := bufio.NewReader(resp.Body)
	for _, want := range []string{"--frame", "Content-Type: image/jpeg"} {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("reading part header: %v", err)
		}
		if strings.TrimSpace(line) != want {
			t.Errorf("line = %q, want %q", strings.TrimSpace(line), want)
		}
	}
	cancel()
}
