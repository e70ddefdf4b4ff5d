// Package tray provides a system tray menu for the air piano: pause, change
// mood and quit, plus the chord currently playing.
package tray

import (
	"sync"

	"github.com/getlantern/systray"
)

// Tray represents the system tray menu.
type Tray struct {
	onPause func() bool
	onMood  func()
	onQuit  func()
	paused  bool
	chord   string
	running bool
	mu      sync.RWMutex

	// Menu items stored for later updates
	menuPause *systray.MenuItem
	menuChord *systray.MenuItem
}

// New creates a new Tray in the playing state.
func New() *Tray {
	return &Tray{}
}

// OnPause sets the callback run when Pause is clicked. It returns the new
// paused state.
func (t *Tray) OnPause(fn func() bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onPause = fn
}

// OnMood sets the callback run when Change mood is clicked.
func (t *Tray) OnMood(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onMood = fn
}

// OnQuit sets the callback run when Quit is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray. It blocks until Quit and must be called from
// the main goroutine on macOS.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit closes the tray from outside the menu. Safe to call before Run or
// after the tray has exited.
func (t *Tray) Quit() {
	t.mu.RLock()
	running := t.running
	t.mu.RUnlock()
	if running {
		systray.Quit()
	}
}

func (t *Tray) onReady() {
	systray.SetTitle("Air Piano")
	systray.SetTooltip("Air Piano")

	t.mu.Lock()
	t.running = true
	t.menuPause = systray.AddMenuItem(pauseTitle(t.paused), "Pause or resume playing")
	t.menuChord = systray.AddMenuItem(chordTitle(t.chord), "Chord now playing")
	t.menuChord.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuMood := systray.AddMenuItem("Change mood", "Switch to another chord progression")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Stop the air piano")

	go func() {
		for {
			select {
			case <-t.menuPause.ClickedCh:
				t.handlePause()
			case <-menuMood.ClickedCh:
				t.handleMood()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				systray.Quit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {
	t.mu.Lock()
	t.running = false
	t.mu.Unlock()
}

func (t *Tray) handlePause() {
	t.mu.RLock()
	callback := t.onPause
	t.mu.RUnlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback == nil {
		return
	}
	t.SetPaused(callback())
}

func (t *Tray) handleMood() {
	t.mu.RLock()
	callback := t.onMood
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// SetPaused updates the pause item.
func (t *Tray) SetPaused(paused bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.paused = paused
	if t.menuPause != nil {
		t.menuPause.SetTitle(pauseTitle(paused))
	}
}

// SetChord updates the chord display.
func (t *Tray) SetChord(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if name == t.chord {
		return
	}
	t.chord = name
	if t.menuChord != nil {
		t.menuChord.SetTitle(chordTitle(name))
	}
}

// IsPaused returns the last known pause state.
func (t *Tray) IsPaused() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.paused
}

// Chord returns the chord on display.
func (t *Tray) Chord() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.chord
}

func pauseTitle(paused bool) string {
	if paused {
		return "▶ Resume"
	}
	return "❚❚ Pause"
}

func chordTitle(name string) string {
	if name == "" {
		return "Chord: none"
	}
	return "Chord: " + name
}
