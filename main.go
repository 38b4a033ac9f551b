package main

import (
	"flag"
	"io"
	"log"
	"os"

	"github.com/meadori/nescore/cartridge"
	"github.com/meadori/nescore/display"
	"github.com/meadori/nescore/nes"
	"github.com/meadori/nescore/server"
)

func main() {
	romPath := flag.String("rom", "", "iNES ROM to load at startup")
	port := flag.Int("port", server.DefaultPort, "gRPC control port (0 disables the server)")
	rate := flag.Float64("rate", 44100, "audio sample rate in Hz (0 disables audio)")
	debug := flag.Bool("debug", false, "render nametable debug views (Tab toggles them)")
	record := flag.String("record", "", "write an input script of the session to this file")
	trace := flag.Bool("trace", false, "log mapper activity")
	flag.Parse()

	if *trace {
		cartridge.LogDebug = log.Printf
	}

	cfg := nes.DefaultConfig()
	cfg.SampleRate = *rate
	cfg.DebugViews = *debug
	console := nes.New(cfg)

	var srv *server.Server
	if *port > 0 {
		srv = server.New(server.NewConsoleEmulator(console))
		if err := srv.Start(*port); err != nil {
			log.Printf("Remote control disabled: %v", err)
			srv = nil
		} else {
			defer srv.Stop()
		}
	}

	var rec io.Writer
	if *record != "" {
		f, err := os.Create(*record)
		if err != nil {
			log.Fatalf("Error creating record file: %v", err)
		}
		defer f.Close()
		rec = f
	}

	d := display.New(console, srv, rec)
	if *romPath != "" {
		if err := d.LoadROM(*romPath); err != nil {
			log.Fatalf("Error loading ROM: %v", err)
		}
	}
	if err := display.Run(d, "nescore"); err != nil {
		log.Fatal(err)
	}
}
