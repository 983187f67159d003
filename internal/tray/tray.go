// Package tray provides a desktop system tray for SignRoute: the last
// recognized sign, a recognition toggle, speech control and quick actions.
package tray

import (
	"fmt"
	"sync"

	"github.com/getlantern/systray"
)

// Tray represents the system tray application.
type Tray struct {
	onToggle func(enabled bool)
	onListen func(listening bool) error
	onReset  func()
	onOpenUI func()
	onQuit   func()

	enabled   bool
	listening bool
	lastSign  string
	mu        sync.RWMutex

	// Menu items stored for later updates
	menuToggle   *systray.MenuItem
	menuListen   *systray.MenuItem
	menuLastSign *systray.MenuItem
}

// New creates a new Tray instance with recognition enabled.
func New() *Tray {
	return &Tray{
		enabled: true,
	}
}

// OnToggle sets the callback invoked when recognition is switched on or off.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnListen sets the callback invoked when speech listening is switched. If
// it returns an error the state is left unchanged.
func (t *Tray) OnListen(fn func(listening bool) error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onListen = fn
}

// OnReset sets the callback for the reset menu item.
func (t *Tray) OnReset(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onReset = fn
}

// OnOpenUI sets the callback for the open UI menu item.
func (t *Tray) OnOpenUI(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpenUI = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until Quit is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, func() {})
}

// Quit closes the tray from outside the menu.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("SignRoute")
	systray.SetTooltip("SignRoute sign recognition")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Toggle sign recognition")
	t.menuListen = systray.AddMenuItem(listenTitle(t.listening), "Toggle speech recognition")
	systray.AddSeparator()

	t.menuLastSign = systray.AddMenuItem(lastSignTitle(t.lastSign), "Last recognized sign")
	t.menuLastSign.Disable()
	toggle, listen := t.menuToggle, t.menuListen
	t.mu.Unlock()

	menuReset := systray.AddMenuItem("Reset", "Clear the vote window")
	menuOpen := systray.AddMenuItem("Open UI...", "Open the UI in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit SignRoute")

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-toggle.ClickedCh:
				t.handleToggle()
			case <-listen.ClickedCh:
				t.handleListen()
			case <-menuReset.ClickedCh:
				t.mu.RLock()
				callback := t.onReset
				t.mu.RUnlock()
				if callback != nil {
					go callback()
				}
			case <-menuOpen.ClickedCh:
				t.mu.RLock()
				callback := t.onOpenUI
				t.mu.RUnlock()
				if callback != nil {
					go callback()
				}
			case <-menuQuit.ClickedCh:
				t.mu.RLock()
				callback := t.onQuit
				t.mu.RUnlock()
				if callback != nil {
					callback()
				}
				systray.Quit()
				return
			}
		}
	}()
}

// handleToggle flips the recognition state.
func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

// handleListen flips speech listening if the callback allows it.
func (t *Tray) handleListen() {
	t.mu.RLock()
	next := !t.listening
	callback := t.onListen
	t.mu.RUnlock()

	if callback != nil {
		if err := callback(next); err != nil {
			return
		}
	}
	t.SetListening(next)
}

// SetLastSign updates the last sign display in the menu.
func (t *Tray) SetLastSign(label string, confidence float32) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.lastSign = label
	if label != "" {
		t.lastSign = fmt.Sprintf("%s (%.0f%%)", label, confidence*100)
	}
	if t.menuLastSign != nil {
		t.menuLastSign.SetTitle(lastSignTitle(t.lastSign))
	}
}

// SetListening updates the speech menu item without invoking callbacks.
func (t *Tray) SetListening(listening bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.listening = listening
	if t.menuListen != nil {
		t.menuListen.SetTitle(listenTitle(listening))
	}
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

// IsListening returns the current speech state.
func (t *Tray) IsListening() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.listening
}

// LastSign returns the text shown for the last sign.
func (t *Tray) LastSign() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lastSign
}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Recognizing"
	}
	return "○ Paused"
}

func listenTitle(listening bool) string {
	if listening {
		return "● Listening"
	}
	return "○ Speech off"
}

func lastSignTitle(sign string) string {
	if sign == "" {
		return "Last: none"
	}
	return "Last: " + sign
}
