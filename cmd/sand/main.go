//go:build ebiten

package main

import (
	"errors"
	"flag"
	"log"

	"mad-sand/internal/app"
	_ "mad-sand/internal/gpu/clstep"

	"github.com/hajimehoshi/ebiten/v2"
)

func main() {
	cfg := app.NewConfig()
	cfg.Bind(flag.CommandLine)
	flag.Parse()
	cfg.InstallLogger()

	game, err := app.New(cfg)
	if err != nil {
		log.Fatalf("mad-sand: %v", err)
	}
	defer game.Close()

	w, h := game.WindowSize()
	ebiten.SetWindowTitle("mad-sand")
	ebiten.SetWindowSize(w, h)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	if err := ebiten.RunGame(game); err != nil && !errors.Is(err, ebiten.Termination) {
		log.Fatal(err)
	}
}
