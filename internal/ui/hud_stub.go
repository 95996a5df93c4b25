//go:build !ebiten

package ui

import (
	"mad-sand/internal/engine"
	"mad-sand/internal/registry"
)

// HUD is a no-op placeholder for headless builds.
type HUD struct{}

// NewHUD returns nil in the headless build.
func NewHUD(Target, []registry.PaletteEntry, engine.Layout, string) *HUD { return nil }

// Captures always reports false in the headless build.
func (h *HUD) Captures(int, int, int, int) bool { return false }

// Update is a no-op in the headless build.
func (h *HUD) Update(int, int) Action { return ActionNone }
