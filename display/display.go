// Package display is the ebiten host: it shows frames, plays audio and
// turns the keyboard and mouse into console input.
package display

import (
	"bytes"
	"fmt"
	"image/color"
	"io"
	"log"
	"math/rand"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/sqweek/dialog"

	"github.com/meadori/nescore/cartridge"
	"github.com/meadori/nescore/controller"
	"github.com/meadori/nescore/nes"
	"github.com/meadori/nescore/ppu"
	"github.com/meadori/nescore/server"
)

const (
	screenScale   = 3
	screenX       = 16
	screenY       = menuBarHeight + 14
	menuBarHeight = 50
	hudHeight     = 150
	windowWidth   = ppu.Width*screenScale + 2*screenX
	windowHeight  = screenY + ppu.Height*screenScale + hudHeight
	messageFrames = 120
)

// Display represents the emulator's window.
type Display struct {
	console     *nes.Console
	pad         *controller.Pad
	server      *server.Server
	audioPlayer *audio.Player

	menuBarVisible  bool
	resetBlinkTimer int

	recorder *controller.Recorder

	romLoadChan chan string

	mu       sync.Mutex
	framePix []byte
	debugPix []byte
	fault    error

	gameImage      *ebiten.Image
	debugImage     *ebiten.Image
	showDebug      bool
	staticImage    *ebiten.Image
	staticPix      []byte
	scanlineImage  *ebiten.Image
	currentButtons controller.Buttons

	saved        []byte
	message      string
	messageTimer int
}

// New creates a Display driving console. srv may be nil; when set, its
// remote input is merged with the keyboard. Button changes are written to
// rec when it is not nil.
func New(console *nes.Console, srv *server.Server, rec io.Writer) *Display {
	d := &Display{
		console:       console,
		pad:           controller.NewPad(),
		server:        srv,
		romLoadChan:   make(chan string, 1),
		framePix:      make([]byte, ppu.Width*ppu.Height*4),
		gameImage:     ebiten.NewImage(ppu.Width, ppu.Height),
		staticImage:   ebiten.NewImage(ppu.Width, ppu.Height),
		staticPix:     make([]byte, ppu.Width*ppu.Height*4),
		scanlineImage: ebiten.NewImage(ppu.Width, ppu.Height),
	}
	if rec != nil {
		d.recorder = controller.NewRecorder(rec)
	}

	if rate := console.Config().SampleRate; rate > 0 {
		ctx := audio.NewContext(int(rate))
		player, err := ctx.NewPlayer(&soundStream{console: console})
		if err != nil {
			log.Printf("Error creating audio player: %v", err)
		} else {
			player.Play()
			d.audioPlayer = player
		}
	}

	// CRT scanlines: a dark line every other row.
	for y := 0; y < ppu.Height; y += 2 {
		vector.DrawFilledRect(d.scanlineImage, 0, float32(y), ppu.Width, 1, color.RGBA{0, 0, 0, 70}, false)
	}

	console.SetControllerProvider(d.pad)
	console.OnFrame(d.onFrame)
	console.OnFault(d.onFault)
	return d
}

// onFrame runs on the emulation goroutine.
func (d *Display) onFrame(f *nes.Frame) {
	d.mu.Lock()
	defer d.mu.Unlock()
	copy(d.framePix, f.Pixels.Pix)
	if f.Nametables != nil {
		if d.debugPix == nil {
			d.debugPix = make([]byte, len(f.Nametables.Pix))
		}
		copy(d.debugPix, f.Nametables.Pix)
	}
}

func (d *Display) onFault(err error) {
	d.mu.Lock()
	d.fault = err
	d.mu.Unlock()
}

// LoadROM inserts the cartridge at path and starts it.
func (d *Display) LoadROM(path string) error {
	cart, err := cartridge.LoadFile(path)
	if err != nil {
		return err
	}
	d.console.InsertCartridge(cart)
	d.mu.Lock()
	d.fault = nil
	d.mu.Unlock()
	d.saved = nil
	log.Printf("Loaded %s (mapper %d)", path, cart.Header.Mapper)
	return d.console.Start()
}

func (d *Display) say(format string, args ...interface{}) {
	d.message = fmt.Sprintf(format, args...)
	d.messageTimer = messageFrames
}

func (d *Display) saveState() {
	snap, err := d.console.CreateSaveState()
	if err != nil {
		d.say("save failed: %v", err)
		return
	}
	var buf bytes.Buffer
	if err := snap.Encode(&buf); err != nil {
		d.say("save failed: %v", err)
		return
	}
	d.saved = buf.Bytes()
	d.say("state saved")
}

func (d *Display) loadState() {
	if d.saved == nil {
		d.say("no saved state")
		return
	}
	snap, err := nes.DecodeSnapshot(bytes.NewReader(d.saved))
	if err == nil {
		err = d.console.LoadState(snap)
	}
	if err != nil {
		d.say("load failed: %v", err)
		return
	}
	d.say("state loaded")
}

func (d *Display) openROMDialog() {
	go func() {
		filename, err := dialog.File().Filter("NES ROM", "nes").Load()
		if err != nil {
			log.Println(err)
			return
		}
		d.romLoadChan <- filename
	}()
}

func (d *Display) reset() {
	d.console.Reset()
	d.resetBlinkTimer = 30
}

func keyboardButtons() controller.Buttons {
	var b controller.Buttons
	b[controller.ButtonA] = ebiten.IsKeyPressed(ebiten.KeyZ)
	b[controller.ButtonB] = ebiten.IsKeyPressed(ebiten.KeyX)
	b[controller.ButtonSelect] = ebiten.IsKeyPressed(ebiten.KeyShift)
	b[controller.ButtonStart] = ebiten.IsKeyPressed(ebiten.KeyEnter)
	b[controller.ButtonUp] = ebiten.IsKeyPressed(ebiten.KeyArrowUp)
	b[controller.ButtonDown] = ebiten.IsKeyPressed(ebiten.KeyArrowDown)
	b[controller.ButtonLeft] = ebiten.IsKeyPressed(ebiten.KeyArrowLeft)
	b[controller.ButtonRight] = ebiten.IsKeyPressed(ebiten.KeyArrowRight)
	return b
}

// Update proceeds the game state.
// Update is called every tick (1/60 [s] by default).
func (d *Display) Update() error {
	d.menuBarVisible = true

	// Check if a ROM was selected via the async dialog
	select {
	case filename := <-d.romLoadChan:
		if err := d.LoadROM(filename); err != nil {
			d.say("%v", err)
		}
	default:
	}

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		cx, cy := ebiten.CursorPosition()
		x, y := float32(cx), float32(cy)
		if y >= 5 && y <= 45 {
			switch {
			case x >= 60 && x <= 140:
				return ebiten.Termination
			case x >= 150 && x <= 230:
				d.reset()
			case x >= 240 && x <= 320:
				d.openROMDialog()
			}
		}
	}

	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyF5):
		d.saveState()
	case inpututil.IsKeyJustPressed(ebiten.KeyF9):
		d.loadState()
	case inpututil.IsKeyJustPressed(ebiten.KeyR):
		d.reset()
	case inpututil.IsKeyJustPressed(ebiten.KeyL):
		d.openROMDialog()
	case inpututil.IsKeyJustPressed(ebiten.KeyTab):
		d.showDebug = !d.showDebug
	}

	if d.resetBlinkTimer > 0 {
		d.resetBlinkTimer--
	}
	if d.messageTimer > 0 {
		d.messageTimer--
	}

	// Local input ORed with remote input.
	buttons := keyboardButtons()
	var p2 controller.Buttons
	if d.server != nil {
		buttons = buttons.Or(d.server.Buttons(0))
		p2 = d.server.Buttons(1)
	}
	d.pad.Set(0, buttons)
	d.pad.Set(1, p2)
	d.currentButtons = buttons
	if d.recorder != nil {
		if err := d.recorder.Frame(buttons); err != nil {
			log.Printf("Error recording input: %v", err)
			d.recorder = nil
		}
	}

	if d.console.Cartridge() == nil {
		for i := 0; i < len(d.staticPix); i += 4 {
			val := byte(rand.Intn(256))
			d.staticPix[i] = val
			d.staticPix[i+1] = val
			d.staticPix[i+2] = val
			d.staticPix[i+3] = 255
		}
		d.staticImage.WritePixels(d.staticPix)
		return nil
	}

	d.mu.Lock()
	d.gameImage.WritePixels(d.framePix)
	if d.showDebug && d.debugPix != nil {
		if d.debugImage == nil {
			d.debugImage = ebiten.NewImage(2*ppu.Width, 2*ppu.Height)
		}
		d.debugImage.WritePixels(d.debugPix)
	}
	if d.fault != nil && d.messageTimer == 0 {
		d.say("stopped: %v", d.fault)
	}
	d.mu.Unlock()
	return nil
}

// Close flushes the input recording.
func (d *Display) Close() error {
	if d.recorder != nil {
		return d.recorder.Flush()
	}
	return nil
}

// Draw draws the game screen.
// Draw is called every frame (typically 1/60[s] for 60Hz display).
func (d *Display) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{60, 60, 60, 255})

	// TV frame
	vector.DrawFilledRect(screen, screenX-8, screenY-8, ppu.Width*screenScale+16, ppu.Height*screenScale+16, color.RGBA{20, 20, 20, 255}, false)

	var rawScreen *ebiten.Image
	if d.console.Cartridge() != nil {
		rawScreen = d.gameImage
		if d.showDebug && d.debugImage != nil {
			rawScreen = d.debugImage
		}
	} else {
		rawScreen = d.staticImage
	}

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(
		float64(ppu.Width*screenScale)/float64(rawScreen.Bounds().Dx()),
		float64(ppu.Height*screenScale)/float64(rawScreen.Bounds().Dy()))
	op.GeoM.Translate(screenX, screenY)
	screen.DrawImage(rawScreen, op)
	if rawScreen == d.gameImage {
		screen.DrawImage(d.scanlineImage, op)
	}

	d.drawControllerHUD(screen)
	if d.menuBarVisible {
		d.drawMenuBar(screen)
	}
	if d.messageTimer > 0 {
		ebitenutil.DebugPrintAt(screen, d.message, screenX, screenY+ppu.Height*screenScale+8)
	}
}

// Layout takes the outside size (e.g., the window size) and returns the (logical) screen size.
func (d *Display) Layout(outsideWidth, outsideHeight int) (screenWidth, screenHeight int) {
	return windowWidth, windowHeight
}

func ScaledWidth() int {
	return windowWidth
}

func ScaledHeight() int {
	return windowHeight
}

// Run opens the window and blocks until it is closed.
func Run(d *Display, title string) error {
	ebiten.SetWindowSize(ScaledWidth(), ScaledHeight())
	ebiten.SetWindowTitle(title)
	err := ebiten.RunGame(d)
	d.console.Stop()
	cerr := d.Close()
	if err != nil && err != ebiten.Termination {
		return err
	}
	return cerr
}
