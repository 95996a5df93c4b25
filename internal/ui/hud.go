//go:build ebiten

package ui

import (
	"image"
	"image/color"

	"mad-sand/internal/core"
	"mad-sand/internal/engine"
	"mad-sand/internal/registry"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/basicfont"
)

var (
	panelBg    = color.RGBA{R: 16, G: 16, B: 20, A: 255}
	barBg      = color.RGBA{R: 10, G: 10, B: 12, A: 255}
	titleColor = color.RGBA{R: 200, G: 200, B: 210, A: 255}
	textColor  = color.RGBA{R: 220, G: 220, B: 230, A: 255}
	dimColor   = color.RGBA{R: 160, G: 160, B: 170, A: 255}
	selColor   = color.RGBA{R: 255, G: 210, B: 90, A: 255}
)

// HUD draws the tool panel to the right of the world view plus the top and
// bottom bars.
type HUD struct {
	panel  *Panel
	target Target
	layout engine.Layout
	title  string
	img    *ebiten.Image
}

// NewHUD builds the HUD for target with one swatch per palette entry.
func NewHUD(target Target, palette []registry.PaletteEntry, layout engine.Layout, title string) *HUD {
	return &HUD{
		panel:  NewPanel(target, palette, layout.PanelWidth),
		target: target,
		layout: layout,
		title:  title,
	}
}

// Captures reports whether the window pixel (x, y) belongs to the HUD.
func (h *HUD) Captures(x, y, winW, winH int) bool {
	if h == nil {
		return false
	}
	return image.Pt(x, y).In(h.layout.Panel(winW, winH))
}

// Update refreshes the panel values and handles a click inside the panel.
func (h *HUD) Update(winW, winH int) Action {
	if h == nil {
		return ActionNone
	}
	h.panel.Refresh()
	if !inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		return ActionNone
	}
	mx, my := ebiten.CursorPosition()
	r := h.layout.Panel(winW, winH)
	if !image.Pt(mx, my).In(r) {
		return ActionNone
	}
	return h.panel.Click(mx-r.Min.X, my-r.Min.Y)
}

// Draw paints the bars and the panel. info is shown in the top bar.
func (h *HUD) Draw(screen *ebiten.Image, info string) {
	if h == nil {
		return
	}
	b := screen.Bounds()
	winW, winH := b.Dx(), b.Dy()
	face := basicfont.Face7x13

	if h.layout.TopBar > 0 {
		vector.DrawFilledRect(screen, 0, 0, float32(winW), float32(h.layout.TopBar), barBg, false)
		text.Draw(screen, info, face, 6, h.layout.TopBar-6, dimColor)
	}
	if h.layout.BottomBar > 0 {
		y := winH - h.layout.BottomBar
		vector.DrawFilledRect(screen, 0, float32(y), float32(winW), float32(h.layout.BottomBar), barBg, false)
		text.Draw(screen, h.target.Status(), face, 6, winH-6, textColor)
	}

	r := h.layout.Panel(winW, winH)
	if r.Empty() {
		return
	}
	if h.img == nil || h.img.Bounds().Size() != r.Size() {
		if h.img != nil {
			h.img.Dispose()
		}
		h.img = ebiten.NewImage(r.Dx(), r.Dy())
	}
	h.img.Fill(panelBg)
	h.drawPanel(h.img)
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(float64(r.Min.X), float64(r.Min.Y))
	screen.DrawImage(h.img, op)
}

func (h *HUD) drawPanel(dst *ebiten.Image) {
	p := h.panel
	face := basicfont.Face7x13
	text.Draw(dst, h.title, face, panelPadding, panelPadding+headerBaseline-6, titleColor)

	for _, s := range p.swatches {
		fillRect(dst, s.rect, swatchFill(s.entry.Color))
		if s.entry.ID == p.selected {
			vector.StrokeRect(dst, float32(s.rect.Min.X), float32(s.rect.Min.Y), float32(s.rect.Dx()), float32(s.rect.Dy()), 2, selColor, false)
		}
		drawCentered(dst, s.entry.Label, s.rect, swatchText(s.entry.Color))
	}

	for i := range p.controls {
		c := &p.controls[i]
		labelY := c.top + labelBaseline
		text.Draw(dst, c.control.Label, face, panelPadding, labelY, textColor)
		if c.control.Type == core.ParamTypeBool {
			h.drawButton(dst, c.toggleRect, c.value, c.hasValue && p.boolSetter != nil)
			continue
		}
		valueColor := textColor
		if !c.hasValue {
			valueColor = dimColor
		}
		width := text.BoundString(face, c.value).Dx()
		text.Draw(dst, c.value, face, c.minusRect.Min.X-buttonGap-width, labelY, valueColor)
		h.drawButton(dst, c.minusRect, "-", p.canAdjust(c, -1))
		h.drawButton(dst, c.plusRect, "+", p.canAdjust(c, 1))
	}
	h.drawButton(dst, p.clearRect, "Clear World", true)
}

func (h *HUD) drawButton(dst *ebiten.Image, rect image.Rectangle, label string, enabled bool) {
	bg := color.RGBA{R: 54, G: 56, B: 64, A: 255}
	fg := color.RGBA{R: 230, G: 230, B: 240, A: 255}
	if !enabled {
		bg = color.RGBA{R: 32, G: 34, B: 40, A: 255}
		fg = color.RGBA{R: 120, G: 120, B: 130, A: 255}
	}
	fillRect(dst, rect, bg)
	drawCentered(dst, label, rect, fg)
}

func fillRect(dst *ebiten.Image, r image.Rectangle, c color.Color) {
	vector.DrawFilledRect(dst, float32(r.Min.X), float32(r.Min.Y), float32(r.Dx()), float32(r.Dy()), c, false)
}

func drawCentered(dst *ebiten.Image, label string, rect image.Rectangle, c color.Color) {
	face := basicfont.Face7x13
	bounds := text.BoundString(face, label)
	x := rect.Min.X + (rect.Dx()-bounds.Dx())/2
	y := rect.Min.Y + (rect.Dy()-bounds.Dy())/2 + bounds.Dy()
	text.Draw(dst, label, face, x, y, c)
}
