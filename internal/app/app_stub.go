//go:build !ebiten

package app

import (
	"errors"

	"mad-sand/internal/engine"
)

// ErrNoGUI is returned by New when built without the ebiten tag.
var ErrNoGUI = errors.New("app: the windowed front-end requires building with the 'ebiten' tag")

// Game is a placeholder that satisfies the API expected by the GUI build.
type Game struct{}

// New always fails in the headless build.
func New(*Config) (*Game, error) { return nil, ErrNoGUI }

// WindowSize returns zeros in the headless build.
func (g *Game) WindowSize() (int, int) { return 0, 0 }

// Engine returns nil in the headless build.
func (g *Game) Engine() *engine.Engine { return nil }

// Close is a no-op placeholder.
func (g *Game) Close() error { return nil }

// Update always reports that the GUI build tag is missing.
func (g *Game) Update() error { return ErrNoGUI }

// Layout returns zeros in the headless build.
func (g *Game) Layout(int, int) (int, int) { return 0, 0 }
