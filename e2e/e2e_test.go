package e2e

import (
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

	"github.com/ayusman/pianogames/internal/app"
	"github.com/ayusman/pianogames/internal/capture"
	"github.com/ayusman/pianogames/internal/catalog"
	"github.com/ayusman/pianogames/internal/config"
	"github.com/ayusman/pianogames/internal/midiout"
	"github.com/ayusman/pianogames/internal/server"
	"github.com/ayusman/pianogames/internal/store"
	"github.com/ayusman/pianogames/testdata"
)

func TestE2E_CompleteWorkflow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	tmpDir := t.TempDir()
	if err := testdata.WriteTables(tmpDir); err != nil {
		t.Fatalf("WriteTables() error = %v", err)
	}
	musicRoot := filepath.Join(tmpDir, "music")
	if err := testdata.WriteLibrary(musicRoot, "C", "piece.mid"); err != nil {
		t.Fatalf("WriteLibrary() error = %v", err)
	}

	s, err := store.New(filepath.Join(tmpDir, "data.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()

	hub := server.NewHub(nil)
	srv := server.New(server.Config{
		Store:   s,
		Library: &catalog.Library{Root: musicRoot},
		Hub:     hub,
	})
	ts := httptest.NewServer(srv)
	defer ts.Close()
	defer hub.Close()

	client := ts.Client()

	t.Run("SaveSettingsOverHTTP", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodPut, ts.URL+"/api/settings/mimipiano",
			strings.NewReader(`{"happy": 20, "special": 80}`))
		req.Header.Set("Content-Type", "application/json")
		resp, err := client.Do(req)
		if err != nil {
			t.Fatalf("PUT settings error = %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
		}
	})

	t.Run("ListMIDIFiles", func(t *testing.T) {
		resp, err := client.Get(ts.URL + "/api/midi-files")
		if err != nil {
			t.Fatalf("GET midi-files error = %v", err)
		}
		defer resp.Body.Close()
		var files map[string][]string
		if err := json.NewDecoder(resp.Body).Decode(&files); err != nil {
			t.Fatalf("decode error = %v", err)
		}
		if len(files["C"]) != 1 || files["C"][0] != "piece.mid" {
			t.Errorf("files = %v", files)
		}
	})

	frame := testdata.SolidFrame(90)
	defer frame.Close()
	cam := capture.NewMockCamera([]*gocv.Mat{&frame}, true)
	rec := midiout.NewRecorder()

	cfg := config.Default()
	cfg.Paths.ChordsCSV = filepath.Join(tmpDir, testdata.ChordsCSV)
	cfg.Paths.ProgressionsCSV = filepath.Join(tmpDir, testdata.ProgressionsCSV)
	cfg.Paths.ExpressionCSV = filepath.Join(tmpDir, testdata.ExpressionCSV)
	cfg.Paths.MusicRoot = musicRoot
	cfg.Mimipiano.Manual = true
	cfg.Mimipiano.Seed = 3

	application := app.New(app.Config{
		Settings: &cfg,
		Store:    s,
		Hub:      hub,
		LockPath: filepath.Join(tmpDir, "game.lock"),
		Devices: app.Devices{
			Output: func([]string) (midiout.Sender, error) { return rec, nil },
			Camera: func(ids []int) (capture.Camera, int, error) {
				cam.Open()
				return cam, ids[0], nil
			},
		},
	})

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/live"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	t.Run("PlayMimipiano", func(t *testing.T) {
		if got := application.Settings(config.GameMimipiano).Mimipiano.Special; got != 80 {
			t.Fatalf("special = %v, want the saved 80", got)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := application.Mimi(ctx, app.MimiOptions{}); err != nil {
			t.Fatalf("Mimi() error = %v", err)
		}
		if got := rec.Count(midiout.KindNoteOn); got != 4 {
			t.Errorf("note-ons = %d, want 4", got)
		}
		if !rec.Closed() {
			t.Error("output not closed")
		}
	})

	t.Run("LiveState", func(t *testing.T) {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var msg struct {
			Type string        `json:"type"`
			Data app.MoodState `json:"data"`
		}
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("ReadJSON() error = %v", err)
		}
		if msg.Type != config.GameMimipiano || msg.Data.File != "piece.mid" || msg.Data.Special != 80 {
			t.Errorf("live message = %+v", msg)
		}
	})

	t.Run("SessionRecorded", func(t *testing.T) {
		resp, err := client.Get(ts.URL + "/api/sessions")
		if err != nil {
			t.Fatalf("GET sessions error = %v", err)
		}
		defer resp.Body.Close()
		var body struct {
			Sessions []store.PlaySession `json:"sessions"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("decode error = %v", err)
		}
		if len(body.Sessions) != 1 {
			t.Fatalf("sessions = %d, want 1", len(body.Sessions))
		}
		ps := body.Sessions[0]
		if ps.Game != config.GameMimipiano || ps.Detail != "piece.mid" || ps.EndedAt == nil || ps.NotesSent == 0 {
			t.Errorf("session = %+v", ps)
		}
	})
}

func TestE2E_ConductorFollowsMotion(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	tmpDir := t.TempDir()
	file := filepath.Join(tmpDir, "piece.mid")
	if err := testdata.WriteSMF(file, 240); err != nil {
		t.Fatalf("WriteSMF() error = %v", err)
	}

	still := testdata.SolidFrame(90)
	defer still.Close()
	bright := testdata.SolidFrame(200)
	defer bright.Close()

	play := func(frames []*gocv.Mat) time.Duration {
		t.Helper()
		rec := midiout.NewRecorder()
		cam := capture.NewMockCamera(frames, true)
		cfg := config.Default()
		cfg.Conductor.Sensitivity = 100
		cfg.Conductor.Smoothing = 1
		a := app.New(app.Config{
			Settings: &cfg,
			Devices: app.Devices{
				Output: func([]string) (midiout.Sender, error) { return rec, nil },
				Camera: func(ids []int) (capture.Camera, int, error) {
					cam.Open()
					return cam, ids[0], nil
				},
			},
		})
		start := time.Now()
		if err := a.Conductor(context.Background(), file); err != nil {
			t.Fatalf("Conductor() error = %v", err)
		}
		if got := rec.Count(midiout.KindNoteOn); got != 4 {
			t.Errorf("note-ons = %d, want 4", got)
		}
		return time.Since(start)
	}

	calm := play([]*gocv.Mat{&still})
	busy := play([]*gocv.Mat{&still, &bright})
	if busy >= calm {
		t.Errorf("moving played in %v, standing still in %v; movement should speed up the piece", busy, calm)
	}
}
