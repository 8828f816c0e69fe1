package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/itohio/reactiontest/pkg/config"
	"github.com/itohio/reactiontest/pkg/cues"
	"github.com/itohio/reactiontest/pkg/device"
	"github.com/itohio/reactiontest/pkg/protocol"
	"github.com/itohio/reactiontest/pkg/publish"
	"github.com/itohio/reactiontest/pkg/results"
	"github.com/itohio/reactiontest/pkg/trial"
	"golang.org/x/sync/errgroup"
)

func main() {
	var (
		portFlag        = flag.String("p", "", "Serial port override (e.g., COM3 or /dev/ttyUSB0)")
		configFlag      = flag.String("config", "config.yaml", "Configuration file path")
		mockFlag        = flag.Bool("mock", false, "Run the experiment against a simulated participant")
		participantFlag = flag.String("participant", "", "Participant ID used in result file names for every session of this run")
		askFlag         = flag.Bool("ask", false, "Ask for the participant ID after each session")
		cuesFlag        = flag.Bool("cues", false, "Play sound cues to the participant")
		outFlag         = flag.String("out", "", "Results directory override")
		listFlag        = flag.Bool("list", false, "List serial ports and exit")
		resetFlag       = flag.Bool("reset", false, "Reset the board after connecting")
		sessionsFlag    = flag.Int("sessions", 0, "Exit after this many finished sessions (0 = run until interrupted)")
		xlsxFlag        = flag.Bool("xlsx", false, "Also save results as an Excel workbook")
	)
	flag.Parse()

	if *listFlag {
		listPorts()
		return
	}

	// Load configuration
	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Command line overrides
	if *portFlag != "" {
		cfg.Serial.Port = *portFlag
	}
	if *outFlag != "" {
		cfg.Results.Dir = *outFlag
	}
	if *xlsxFlag {
		cfg.Results.XLSX = true
	}
	if *cuesFlag {
		cfg.Cues.Enabled = true
	}

	dev, err := openDevice(cfg, *mockFlag)
	if err != nil {
		log.Fatalf("Failed to create device: %v", err)
	}
	if err := dev.Connect(); err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}

	if *mockFlag {
		fmt.Println("Simulated participant connected")
	} else {
		fmt.Printf("Connected to %s\n", cfg.Serial.Port)
		fmt.Println("Connect the board now or press its reset button to start capture!")
	}
	if *resetFlag {
		if err := dev.Reset(); err != nil {
			log.Printf("Failed to reset board: %v", err)
		}
	}

	var pub *publish.Publisher
	if cfg.MQTT.Broker != "" {
		pub = publish.New(cfg.MQTT)
		if err := pub.Connect(); err != nil {
			log.Printf("MQTT disabled: %v", err)
			pub = nil
		} else {
			defer pub.Close()
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var player cues.Player
	if cfg.Cues.Enabled {
		player = cues.Open(cfg.Cues, os.Stdout)
	}

	recorder := results.NewRecorder(*participantFlag)
	recorder.OnEvent(func(ev protocol.Event, s *results.Session) {
		printEvent(ev)
		if player != nil {
			if err := cues.Notify(player, ev); err != nil {
				log.Printf("Cue failed: %v", err)
			}
		}
		if pub != nil {
			if err := pub.Publish(ev, s); err != nil {
				log.Printf("Failed to publish %s: %v", ev.Kind, err)
			}
		}
	})

	stdin := bufio.NewReader(os.Stdin)
	finished := 0
	recorder.OnComplete(func(s *results.Session) {
		if *askFlag {
			s.Participant = promptParticipant(stdin, os.Stdout, s.Participant)
		}
		saveSession(cfg.Results, s)
		finished++
		if *sessionsFlag > 0 && finished >= *sessionsFlag {
			stop()
			return
		}
		if *mockFlag {
			// the simulated board halts like the real one
			if err := dev.Reset(); err != nil {
				log.Printf("Failed to restart simulation: %v", err)
			}
			return
		}
		fmt.Println("\nReady for next participant. Press reset on the board to start.")
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		recorder.ProcessEvents(dev.Events())
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		fmt.Println("\nClosing connection...")
		return dev.Close()
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("Shutdown failed: %v", err)
	}

	if s := recorder.Current(); s != nil && len(s.Trials) > 0 {
		log.Printf("Discarding unfinished session with %d trials", len(s.Trials))
	}
}

func listPorts() {
	ports, err := device.Ports()
	if err != nil {
		log.Fatalf("Failed to list ports: %v", err)
	}
	fmt.Println("Available ports:")
	for i, p := range ports {
		fmt.Printf("%d: %s - %s\n", i, p.Name, p.Description)
	}
}

func openDevice(cfg *config.Config, mock bool) (device.Device, error) {
	if mock {
		return device.NewMock(cfg)
	}
	return device.New(cfg.Serial.Port, cfg.Serial.BaudRate, device.DefaultBufferSize), nil
}

func ms(micros uint64) float64 {
	return float64(micros) / 1000.0
}

func printEvent(ev protocol.Event) {
	fmt.Println()
	switch ev.Kind {
	case protocol.Ready:
		fmt.Printf("Test ready for %d trials!\n", ev.TrialCount)
	case protocol.Start:
		fmt.Println("Starting test in a moment!")
	case protocol.Early:
		fmt.Println("Whoops, that was too early! Resetting trial...")
	case protocol.Test:
		if ev.Outcome == trial.Wrong {
			fmt.Printf("Whoops! Participant hit the wrong target in %.3f ms\n", ms(ev.ReactionTime))
			return
		}
		fmt.Printf("Results of trial %d:\n", ev.Trial)
		fmt.Printf("Category: %s\n", ev.Category)
		fmt.Printf("Reaction time: %.3f ms\n", ms(ev.ReactionTime))
	case protocol.Reset:
		fmt.Println("Get ready...")
	case protocol.End:
		sum := ev.Summary
		fmt.Println("Test finished!")
		fmt.Println()
		fmt.Println("Results:")
		fmt.Printf("Normal average: %.3f ms\n", ms(sum.NormalAverage))
		fmt.Printf("Disgust average: %.3f ms\n", ms(sum.DisgustAverage))
		fmt.Printf("Total average: %.3f ms\n", ms(sum.TotalAverage))
		fmt.Println()
		fmt.Printf("Earlies on normal: %d\n", sum.NormalEarly)
		fmt.Printf("Earlies on disgust: %d\n", sum.DisgustEarly)
		fmt.Println()
		fmt.Printf("Wrongs on normal: %d\n", sum.NormalWrong)
		fmt.Printf("Wrongs on disgust: %d\n", sum.DisgustWrong)
	}
}

func saveSession(cfg config.ResultsConfig, s *results.Session) {
	if cfg.Stats {
		printStats(s)
	}

	paths, err := results.SaveCSV(cfg.Dir, s)
	if err != nil {
		log.Printf("Failed to save results: %v", err)
	}
	if cfg.XLSX {
		path, err := results.SaveXLSX(cfg.Dir, s)
		if err != nil {
			log.Printf("Failed to save workbook: %v", err)
		} else {
			paths = append(paths, path)
		}
	}

	for _, p := range paths {
		fmt.Printf("Saved to %s\n", p)
	}
}

func printStats(s *results.Session) {
	fmt.Println()
	fmt.Printf("%-8s %3s %9s %9s %9s %9s %9s\n", "", "n", "mean", "median", "stddev", "min", "max")
	row := func(name string, d results.Description) {
		fmt.Printf("%-8s %3d %9.3f %9.3f %9.3f %9.3f %9.3f\n", name, d.N, d.Mean, d.Median, d.StdDev, d.Min, d.Max)
	}
	for _, c := range trial.Categories {
		row(c.String(), s.Describe(c))
	}
	row("all", s.DescribeAll())
}
