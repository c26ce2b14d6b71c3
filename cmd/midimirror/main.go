// Package main is the entry point for the midimirror CLI
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/showbridge/midimirror/pkg/api"
	"github.com/showbridge/midimirror/pkg/engine"
	"github.com/showbridge/midimirror/pkg/mididev"
	"github.com/showbridge/midimirror/pkg/procwatch"
	"github.com/showbridge/midimirror/pkg/state"
	"github.com/showbridge/midimirror/pkg/tui"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	inputName    string
	outputName   string
	processName  string
	pollInterval time.Duration
	apiPort      int
	debugMode    bool
	watchMode    bool
)

var launchTime = time.Now()

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "midimirror",
	Short: "Mirror lighting-console button state onto a MIDI control surface",
	Long: `midimirror bridges a DMX lighting application's button state to a
secondary MIDI control surface. It watches note events on one MIDI input,
tracks a per-button on/off state, and mirrors state changes to a MIDI output
while the lighting software is running.

Examples:
  midimirror list
  midimirror run -i "Steinberg UR22mkII" -o "showXPress 3"
  midimirror run -i loopMIDI -o showXPress --process TheLightingController.exe --watch
  midimirror run -i loopMIDI -o showXPress --api-port 8080`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the bridge",
	Long:  `Opens the input and output devices and mirrors button state until interrupted.`,
	RunE:  runBridge,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List available MIDI ports",
	RunE:  runList,
}

func init() {
	runCmd.Flags().StringVarP(&inputName, "input", "i", "", "MIDI input port name (required)")
	runCmd.Flags().StringVarP(&outputName, "output", "o", "", "MIDI output port name (required)")
	runCmd.Flags().StringVarP(&processName, "process", "P", "TheLightingController.exe", "Companion process to watch")
	runCmd.Flags().DurationVar(&pollInterval, "poll-interval", procwatch.DefaultInterval, "Process poll interval")
	runCmd.Flags().IntVar(&apiPort, "api-port", 0, "Status API port (0 = disabled)")
	runCmd.Flags().BoolVar(&debugMode, "debug", false, "Log at debug level")
	runCmd.Flags().BoolVar(&watchMode, "watch", false, "Show the live button grid while running")
	_ = runCmd.MarkFlagRequired("input")
	_ = runCmd.MarkFlagRequired("output")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(listCmd)
}

// newLogger builds a zap logger whose timestamps are seconds since launch,
// which keeps show logs readable next to the lighting software's own uptime
// display.
func newLogger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if debugMode {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	cfg.EncoderConfig.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(fmt.Sprintf("%.3f", t.Sub(launchTime).Seconds()))
	}
	return cfg.Build()
}

func runList(cmd *cobra.Command, args []string) error {
	defer mididev.Close()

	ins, outs := mididev.Ports()

	fmt.Println("MIDI input ports:")
	for i, name := range ins {
		fmt.Printf("  [%d] %s\n", i, name)
	}
	fmt.Println("\nMIDI output ports:")
	for i, name := range outs {
		fmt.Printf("  [%d] %s\n", i, name)
	}
	return nil
}

func runBridge(cmd *cobra.Command, args []string) error {
	log, err := newLogger()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	defer mididev.Close()

	// A missing device is fatal: the bridge cannot fulfil its contract
	// without both streams, and re-acquisition is the supervisor's job.
	in, err := mididev.OpenIn(inputName)
	if err != nil {
		return err
	}
	out, err := mididev.OpenOut(outputName)
	if err != nil {
		return err
	}

	store := state.New()
	monitor := procwatch.New(processName, pollInterval, log.Named("procwatch"))
	eng := engine.New(store, out, monitor, log.Named("engine"))

	stopListen, err := mididev.Listen(in, eng.Feed)
	if err != nil {
		return err
	}
	defer stopListen()

	go monitor.Run(ctx)

	if apiPort > 0 {
		srv := api.NewServer(store, monitor)
		go func() {
			if err := srv.Start(apiPort); err != nil {
				log.Error("status api stopped", zap.Error(err))
			}
		}()
	}

	log.Info("bridge running",
		zap.String("input", in.String()),
		zap.String("output", out.String()),
		zap.String("process", processName),
		zap.Duration("poll_interval", pollInterval))

	if watchMode {
		go eng.Run(ctx)
		err := tui.Run(store, monitor)
		stop()
		return err
	}

	return eng.Run(ctx)
}
