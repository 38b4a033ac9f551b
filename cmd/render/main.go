// Command render runs a ROM headless for a number of frames and writes the
// last picture as PNG and the audio as WAV.
package main

import (
	"flag"
	"image"
	"image/png"
	"log"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"golang.org/x/image/draw"

	"github.com/meadori/nescore/cartridge"
	"github.com/meadori/nescore/controller"
	"github.com/meadori/nescore/nes"
)

func main() {
	romPath := flag.String("rom", "", "iNES ROM to run")
	frames := flag.Int("frames", 60, "frames to run")
	pngPath := flag.String("png", "", "write the last frame to this PNG file")
	wavPath := flag.String("wav", "", "write the audio to this WAV file")
	scale := flag.Int("scale", 2, "PNG scale factor")
	rate := flag.Int("rate", 44100, "WAV sample rate")
	script := flag.String("input", "", "input script driving controller 1")
	flag.Parse()

	if *romPath == "" {
		log.Fatal("Please provide a ROM using -rom <file.nes>")
	}
	cart, err := cartridge.LoadFile(*romPath)
	if err != nil {
		log.Fatalf("Error loading ROM: %v", err)
	}

	cfg := nes.Config{}
	if *wavPath != "" {
		cfg.SampleRate = float64(*rate)
	}
	console := nes.New(cfg)
	console.InsertCartridge(cart)

	pad := controller.NewPad()
	console.SetControllerProvider(pad)
	var steps []controller.Step
	if *script != "" {
		f, err := os.Open(*script)
		if err != nil {
			log.Fatal(err)
		}
		steps, err = controller.ParseScript(f)
		f.Close()
		if err != nil {
			log.Fatalf("%s: %v", *script, err)
		}
	}

	var pcm []int
	buf := make([]float32, *rate/10)
	held := 0
	for i := 0; i < *frames; i++ {
		for len(steps) > 0 && held >= steps[0].Frames {
			held = 0
			steps = steps[1:]
		}
		if len(steps) > 0 {
			pad.Set(0, steps[0].Buttons)
			held++
		} else {
			pad.Set(0, controller.Buttons{})
		}

		if err := console.StepFrame(); err != nil {
			log.Fatalf("frame %d: %v", i, err)
		}
		if cfg.SampleRate > 0 {
			n := console.DrainInto(buf)
			for _, v := range buf[:n] {
				pcm = append(pcm, int(math.Max(-1, math.Min(1, float64(v)))*math.MaxInt16))
			}
		}
	}

	if *pngPath != "" {
		if err := writePNG(*pngPath, console.Frame(), *scale); err != nil {
			log.Fatal(err)
		}
		log.Printf("Wrote %s", *pngPath)
	}
	if *wavPath != "" {
		if err := writeWAV(*wavPath, pcm, *rate); err != nil {
			log.Fatal(err)
		}
		log.Printf("Wrote %d samples to %s", len(pcm), *wavPath)
	}
}

func writePNG(path string, frame *image.RGBA, scale int) (err error) {
	if scale < 1 {
		scale = 1
	}
	b := frame.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*scale, b.Dy()*scale))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), frame, b, draw.Src, nil)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return png.Encode(f, dst)
}

func writeWAV(path string, pcm []int, rate int) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	enc := wav.NewEncoder(f, rate, 16, 1, 1)
	if err := enc.Write(&audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: rate},
		Data:           pcm,
		SourceBitDepth: 16,
	}); err != nil {
		return err
	}
	return enc.Close()
}
