package display

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/meadori/nescore/controller"
	"github.com/meadori/nescore/ppu"
)

var (
	chassisColor = color.RGBA{190, 190, 190, 255}
	stripeColor  = color.RGBA{40, 40, 40, 255}
	nesRed       = color.RGBA{220, 50, 50, 255}
)

func (d *Display) drawMenuBar(screen *ebiten.Image) {
	vector.DrawFilledRect(screen, 0, 0, windowWidth, menuBarHeight, chassisColor, false)
	vector.DrawFilledRect(screen, 0, menuBarHeight, windowWidth, 4, stripeColor, false)

	cx, cy := ebiten.CursorPosition()
	mouseX, mouseY := float32(cx), float32(cy)
	isMouseDown := ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)

	// Power LED, blinking while a reset is shown.
	ledX, ledY := float32(30), float32(25)
	vector.DrawFilledRect(screen, ledX-10, ledY-10, 20, 20, color.RGBA{30, 30, 30, 255}, false)
	if d.console.Running() && (d.resetBlinkTimer == 0 || (d.resetBlinkTimer/4)%2 == 0) {
		vector.DrawFilledCircle(screen, ledX, ledY, 8, color.RGBA{200, 0, 0, 80}, false)
		vector.DrawFilledCircle(screen, ledX, ledY, 5, color.RGBA{255, 0, 0, 180}, false)
		vector.DrawFilledCircle(screen, ledX, ledY, 3, color.RGBA{255, 100, 100, 255}, false)
	} else {
		vector.DrawFilledCircle(screen, ledX, ledY, 3, color.RGBA{100, 0, 0, 255}, false)
	}

	for _, b := range []struct {
		label string
		x     float32
	}{{"POWER", 60}, {"RESET", 150}, {"LOAD", 240}} {
		hover := mouseX >= b.x && mouseX <= b.x+80 && mouseY >= 5 && mouseY <= 45
		drawNESButton(screen, b.label, b.x, 5, 80, 40, hover, hover && isMouseDown)
	}

	logoText := "NESCORE"
	logoImg := ebiten.NewImage(len(logoText)*6, 16)
	ebitenutil.DebugPrintAt(logoImg, logoText, 0, 0)
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(2.5, 2.5)
	op.GeoM.Skew(-0.15, 0)
	op.GeoM.Translate(350, 4)
	op.ColorScale.ScaleWithColor(nesRed)
	screen.DrawImage(logoImg, op)
}

func drawNESButton(screen *ebiten.Image, textStr string, x, y, w, h float32, isHovered, isPressed bool) {
	baseColor := color.RGBA{70, 70, 70, 255}
	lightColor := color.RGBA{120, 120, 120, 255}
	darkColor := color.RGBA{40, 40, 40, 255}
	if isHovered {
		baseColor = color.RGBA{85, 85, 85, 255}
		lightColor = color.RGBA{140, 140, 140, 255}
	}
	if isPressed {
		// Inverted bevel.
		lightColor, darkColor = darkColor, lightColor
	}

	vector.DrawFilledRect(screen, x, y, w, h, baseColor, false)
	const border = 4
	vector.DrawFilledRect(screen, x, y, w, border, lightColor, false)
	vector.DrawFilledRect(screen, x, y, border, h, lightColor, false)
	vector.DrawFilledRect(screen, x, y+h-border, w, border, darkColor, false)
	vector.DrawFilledRect(screen, x+w-border, y, border, h, darkColor, false)

	textImg := ebiten.NewImage(len(textStr)*6, 16)
	ebitenutil.DebugPrintAt(textImg, textStr, 0, 0)

	textW := float32(len(textStr) * 6 * 2)
	textX := x + (w-textW)/2
	textY := y + (h-32)/2 + 4
	if isPressed {
		textX += 2
		textY += 2
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(2, 2)
	op.GeoM.Translate(float64(textX), float64(textY))
	op.ColorScale.ScaleWithColor(nesRed)
	screen.DrawImage(textImg, op)
}

// drawControllerHUD draws a pad below the screen that lights up with the
// buttons sent to port 1.
func (d *Display) drawControllerHUD(screen *ebiten.Image) {
	const w, h = float32(300), float32(110)
	x := float32(windowWidth)/2 - w/2
	y := float32(screenY+ppu.Height*screenScale) + 30
	b := d.currentButtons

	vector.DrawFilledRect(screen, x, y, w, h, color.RGBA{180, 180, 180, 255}, false)
	vector.DrawFilledRect(screen, x+20, y+h/2-10, w-40, 20, color.RGBA{30, 30, 30, 255}, false)

	dpadX, dpadY := x+55, y+55
	dpadColor := color.RGBA{20, 20, 20, 255}
	hl := color.RGBA{130, 130, 130, 255}
	vector.DrawFilledRect(screen, dpadX-12, dpadY-35, 24, 70, dpadColor, false)
	vector.DrawFilledRect(screen, dpadX-35, dpadY-12, 70, 24, dpadColor, false)
	if b[controller.ButtonUp] {
		vector.DrawFilledRect(screen, dpadX-12, dpadY-35, 24, 25, hl, false)
	}
	if b[controller.ButtonDown] {
		vector.DrawFilledRect(screen, dpadX-12, dpadY+10, 24, 25, hl, false)
	}
	if b[controller.ButtonLeft] {
		vector.DrawFilledRect(screen, dpadX-35, dpadY-12, 25, 24, hl, false)
	}
	if b[controller.ButtonRight] {
		vector.DrawFilledRect(screen, dpadX+10, dpadY-12, 25, 24, hl, false)
	}

	pill := func(pressed bool) color.Color {
		if pressed {
			return hl
		}
		return color.RGBA{30, 30, 30, 255}
	}
	vector.DrawFilledRect(screen, x+120, y+60, 35, 12, pill(b[controller.ButtonSelect]), false)
	vector.DrawFilledRect(screen, x+170, y+60, 35, 12, pill(b[controller.ButtonStart]), false)

	round := func(pressed bool) color.Color {
		if pressed {
			return color.RGBA{255, 100, 100, 255}
		}
		return color.RGBA{200, 0, 0, 255}
	}
	// A sits higher than B.
	vector.DrawFilledCircle(screen, x+230, y+70, 18, round(b[controller.ButtonB]), false)
	vector.DrawFilledCircle(screen, x+275, y+60, 18, round(b[controller.ButtonA]), false)
}
