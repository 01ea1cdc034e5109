package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/osa030/jambox/internal/app/player"
	"github.com/osa030/jambox/internal/domain/track"
)

// runLoop drives the interactive command loop until quit or EOF.
func runLoop(ctx context.Context, store *player.Store, ctrl *player.Controller) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt: "jambox> ",
		AutoComplete: readline.NewPrefixCompleter(
			readline.PcItem("play"),
			readline.PcItem("pause"),
			readline.PcItem("stop"),
			readline.PcItem("next"),
			readline.PcItem("prev"),
			readline.PcItem("vol"),
			readline.PcItem("list"),
			readline.PcItem("status"),
			readline.PcItem("help"),
			readline.PcItem("quit"),
		),
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	printHelp()

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt || err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "play":
			if err := ctrl.Play(ctx); err != nil {
				fmt.Println(err)
			}
		case "pause":
			ctrl.Pause()
		case "stop":
			if err := ctrl.Stop(); err != nil {
				fmt.Println(err)
			}
		case "next":
			if err := ctrl.Next(ctx, false); err != nil {
				fmt.Println(err)
			}
		case "prev":
			if err := ctrl.Previous(ctx); err != nil {
				fmt.Println(err)
			}
		case "vol":
			if len(fields) < 2 {
				fmt.Printf("volume: %d\n", ctrl.Volume())
				continue
			}
			v, err := strconv.Atoi(fields[1])
			if err != nil {
				fmt.Println("usage: vol <0-100>")
				continue
			}
			ctrl.SetVolume(v)
		case "list":
			printPlaylist(store)
		case "status":
			printStatus(store, ctrl)
		case "help":
			printHelp()
		case "quit", "exit":
			return nil
		default:
			fmt.Printf("unknown command: %s\n", fields[0])
		}
	}
}

func printPlaylist(store *player.Store) {
	pl := store.Playlist()
	if pl.IsEmpty() {
		fmt.Println("playlist is empty")
		return
	}

	current, hasCurrent := store.CurrentTrack()
	for i, t := range pl.Tracks {
		marker := "  "
		if hasCurrent && t.ID == current.ID {
			marker = "> "
		}
		fmt.Printf("%s%3d. %s - %s [%s]\n", marker, i+1, t.Artist, t.Name, t.FormattedDuration())
	}
}

func printStatus(store *player.Store, ctrl *player.Controller) {
	t, ok := store.CurrentTrack()
	if !ok {
		t, ok = store.Playlist().First()
	}
	if !ok {
		fmt.Println("no track")
		return
	}

	fmt.Printf("%s - %s\n", t.Artist, t.Name)
	if d := t.FormattedReleaseDate(); d != "" {
		fmt.Printf("released: %s\n", d)
	}

	total := ctrl.Duration()
	if total == "" {
		total = t.FormattedDuration()
	}
	fmt.Printf("%s / %s  vol=%d  [%s]\n",
		track.FormatDuration(store.CurrentTime()), total, ctrl.Volume(), store.Status())
}

func printHelp() {
	fmt.Println("commands: play | pause | stop | next | prev | vol [0-100] | list | status | quit")
}
