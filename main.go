package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"

	"featurecast/broadcast"
	"featurecast/config"
	"featurecast/monitor"
	"featurecast/pipeline"
	"featurecast/source"
	"featurecast/types"
	"featurecast/utils"
)

func main() {
	cfg, err := getParams()
	if err != nil {
		fail(err.Error())
	}

	src, err := openSource(cfg)
	if err != nil {
		fail(err.Error())
	}
	defer src.Close()

	// File material dictates the real rate; keep the config consistent so
	// frame pacing and the aggregation window stay wall-clock correct.
	cfg.SampleRate = src.SampleRate()

	var mon *monitor.Monitor
	if cfg.Playback {
		mon, err = monitor.Open(cfg.SampleRate, cfg.ChunkSize, cfg.QueueDepth)
		if err != nil {
			// Monitoring is optional; analysis runs without it.
			utils.Log.Warn("playback unavailable: %v", err)
		} else {
			defer mon.Close()
		}
	}

	bc := broadcast.New(cfg.Address, cfg.Port, cfg.QueueDepth)
	session := pipeline.New(cfg, src, bc, mon)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		color.Yellow("\nStopping session...")
		cancel()
	}()

	color.Green("Streaming features for %d track(s) to %s:%d", len(src.Tracks()), cfg.Address, cfg.Port)
	if err := session.Run(ctx); err != nil {
		os.Exit(1)
	}
}

func openSource(cfg config.Config) (source.Source, error) {
	if cfg.Live {
		channels := len(cfg.Instruments)
		if channels == 0 {
			channels = 1
		}
		return source.OpenLive(channels, cfg.SampleRate, cfg.ChunkSize, cfg.Instrument)
	}
	return source.OpenFiles(cfg.Files, cfg.ChunkSize, cfg.Instrument)
}

func getParams() (config.Config, error) {
	cfg := config.Default()

	live := flag.Bool("live", false, "")
	files := flag.String("in", "", "")
	instruments := flag.String("instruments", "", "")
	addr := flag.String("addr", cfg.Address, "")
	port := flag.Int("port", cfg.Port, "")
	chunk := flag.Int("chunk", cfg.ChunkSize, "")
	rate := flag.Int("rate", cfg.SampleRate, "")
	windowMs := flag.Int("window", int(cfg.Window/time.Millisecond), "")
	playback := flag.Bool("playback", false, "")
	verbose := flag.Bool("v", false, "")
	help := flag.Bool("h", false, "")
	flag.Usage = usage
	flag.Parse()

	if *help {
		usage()
		os.Exit(0)
	}
	if *verbose {
		utils.InitLogger(utils.DEBUG)
	} else {
		utils.InitLogger(utils.INFO)
	}

	cfg.Live = *live
	if *files != "" {
		cfg.Files = strings.Split(*files, ",")
	}
	cfg.Address = *addr
	cfg.Port = *port
	cfg.ChunkSize = *chunk
	cfg.SampleRate = *rate
	cfg.Window = time.Duration(*windowMs) * time.Millisecond
	cfg.Playback = *playback

	if *instruments != "" {
		for _, name := range strings.Split(*instruments, ",") {
			inst, err := types.ParseInstrument(name)
			if err != nil {
				return cfg, fmt.Errorf("%w (was %q)", err, name)
			}
			cfg.Instruments = append(cfg.Instruments, inst)
		}
	}

	return cfg, cfg.Validate()
}

func fail(msg string) {
	color.Red("Error: %s", msg)
	usage()
	os.Exit(1)
}

func usage() {
	fmt.Println(usageString)
}

const usageString = `use: featurecast -in <files> [options] or
     featurecast -live [options]
where
    -in a,b,c: comma-separated audio files (wav/mp3/ogg), one track each

    -live: capture from the default input device instead of files

    -instruments a,b,c: per-track labels (default, voice, guitar, piano,
               strings, drums); bounds the pitch search range

    -addr <ip>: receiver address. Default: 127.0.0.1
    -port <n>: receiver port. Default: 12345

    -chunk <n>: frame size in samples. Default: 4096
    -rate <n>: sample rate for live capture. Default: 44100
    -window <ms>: high-level aggregation window. Default: 500

    -playback: mirror the mix to the default output device

    -v: debug logging
    -h: this help`
