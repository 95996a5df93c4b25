package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"

	"mad-sand/internal/app"
	"mad-sand/internal/engine"
	_ "mad-sand/internal/gpu/clstep"
	"mad-sand/internal/tui"

	"github.com/gdamore/tcell/v2"
)

func main() {
	cfg := app.NewConfig()
	cfg.Width, cfg.Height = 120, 80
	cfg.Bind(flag.CommandLine)
	flag.Parse()
	cfg.InstallLogger()

	screen, err := tcell.NewScreen()
	if err != nil {
		log.Fatalf("mad-sand: %v", err)
	}
	if err := screen.Init(); err != nil {
		log.Fatalf("mad-sand: %v", err)
	}
	screen.EnableMouse()
	screen.HideCursor()

	term, err := tui.New(screen, engine.Options{
		ElementsPath: cfg.Elements,
		Width:        cfg.Width,
		Height:       cfg.Height,
		Kernel:       cfg.Kernel,
		TPS:          cfg.TPS,
	})
	if err != nil {
		screen.Fini()
		log.Fatalf("mad-sand: %v", err)
	}
	if err := cfg.Apply(term.Engine()); err != nil {
		term.Close()
		screen.Fini()
		log.Fatalf("mad-sand: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	runErr := term.Run(ctx)
	stop()
	closeErr := term.Close()
	screen.Fini()
	if runErr != nil {
		log.Fatalf("mad-sand: %v", runErr)
	}
	if closeErr != nil {
		log.Printf("mad-sand: shutdown: %v", closeErr)
	}
}
