// ABOUTME: Entry point for the Scream audio receiver
// ABOUTME: Parses CLI flags, wires a transport to a sink and drives the receive loop
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sys/unix"

	"github.com/darkstego/scream/internal/app"
	"github.com/darkstego/scream/internal/discovery"
	"github.com/darkstego/scream/internal/receiver"
	"github.com/darkstego/scream/internal/sink"
	"github.com/darkstego/scream/internal/ui"
)

var (
	unicast    = flag.Bool("u", false, "Use unicast instead of multicast")
	port       = flag.Int("p", receiver.DefaultPort, "UDP port (multicast and unicast)")
	iface      = flag.String("i", "", "Local interface, by name or IP (multicast: IGMP interface, unicast: bind address)")
	group      = flag.String("g", receiver.DefaultGroup, "Multicast group address")
	ivshmem    = flag.String("m", "", "IVSHMEM device path; selects the shared-memory transport")
	output     = flag.String("o", "device", "Output backend: device or raw (stdout)")
	streamName = flag.String("n", "Audio", "Stream name, used for mDNS advertisement")
	targetMs   = flag.Int("t", 50, "Target latency in milliseconds")
	maxMs      = flag.Int("l", 200, "Max latency in milliseconds")
	verbose    = flag.Bool("v", false, "Be verbose")
	advertise  = flag.Bool("advertise", false, "Advertise this receiver via mDNS")
	logFile    = flag.String("log-file", "scream-receiver.log", "Log file path")
	noTUI      = flag.Bool("no-tui", false, "Disable TUI, use streaming logs instead")
)

func main() {
	flag.Parse()

	if *targetMs <= 0 || *maxMs < *targetMs {
		log.Fatalf("invalid latency window: target=%dms max=%dms", *targetMs, *maxMs)
	}

	// Raw output streams PCM to stdout, which the TUI would corrupt.
	useTUI := !*noTUI && *output != "raw"

	// Set up logging
	f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer func() { _ = f.Close() }()

	if useTUI {
		// TUI mode: log only to file
		log.SetOutput(f)
	} else {
		log.SetOutput(io.MultiWriter(os.Stderr, f))
	}

	// Opportunistic renice so we keep up under load. Fails without
	// privileges, which is fine.
	if err := unix.Setpriority(unix.PRIO_PROCESS, 0, -11); err != nil && *verbose {
		log.Printf("Could not raise process priority: %v", err)
	}

	transport, transportName, err := buildTransport()
	if err != nil {
		log.Fatalf("Failed to start %s receiver: %v", transportName, err)
	}
	if *verbose {
		log.Printf("Starting %s receiver", transportName)
	}

	out, err := buildSink()
	if err != nil {
		log.Fatalf("Failed to initialize %s output: %v", *output, err)
	}

	if *advertise {
		disc := discovery.NewManager(discovery.Config{
			ServiceName: *streamName,
			Port:        *port,
			Interface:   *iface,
		})
		if err := disc.Advertise(); err != nil {
			log.Printf("mDNS advertisement failed: %v", err)
		} else {
			defer disc.Stop()
		}
	}

	recv := app.New(app.Config{
		Transport:       transport,
		Sink:            out,
		TargetLatencyMs: *targetMs,
		MaxLatencyMs:    *maxMs,
		Verbose:         *verbose,
	})

	runErr := make(chan error, 1)
	go func() { runErr <- recv.Run() }()

	// TUI setup
	var tuiProg *tea.Program
	var controls *ui.Controls
	if useTUI {
		controls = ui.NewControls()
		tuiProg, err = ui.Run(controls)
		if err != nil {
			log.Fatalf("Failed to start TUI: %v", err)
		}
		go tuiProg.Run()
		go statsUpdateLoop(recv, tuiProg, transportName)
	}

	// Handle shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	exitCode := 0
	if controls != nil {
		select {
		case <-controls.Quit:
			log.Printf("Received quit signal from TUI")
		case <-sigChan:
			log.Printf("Shutdown signal received")
		case err := <-runErr:
			exitCode = reportRunError(err)
		}
	} else {
		select {
		case <-sigChan:
			log.Printf("Shutdown signal received")
		case err := <-runErr:
			exitCode = reportRunError(err)
		}
	}

	recv.Stop()
	if err := out.Close(); err != nil {
		log.Printf("Error closing output: %v", err)
	}
	if tuiProg != nil {
		tuiProg.Quit()
	}

	log.Printf("Receiver stopped")
	os.Exit(exitCode)
}

// buildTransport selects the receiver per the -m/-u flags.
func buildTransport() (receiver.Receiver, string, error) {
	if *ivshmem != "" {
		r, err := receiver.NewSharedMemory(*ivshmem, *verbose)
		return r, "shared-memory", err
	}

	mode := "multicast"
	if *unicast {
		mode = "unicast"
	}
	r, err := receiver.NewNetwork(receiver.NetworkConfig{
		Unicast:   *unicast,
		Port:      *port,
		Group:     *group,
		Interface: *iface,
		Verbose:   *verbose,
	})
	return r, mode, err
}

// buildSink selects the output backend per the -o flag.
func buildSink() (sink.Sink, error) {
	switch *output {
	case "raw":
		return sink.NewRaw(os.Stdout), nil
	case "device":
		return sink.NewDevice(*targetMs, *verbose), nil
	default:
		return nil, fmt.Errorf("unknown output backend %q", *output)
	}
}

// reportRunError maps a loop exit to a process exit code.
func reportRunError(err error) int {
	if err == nil {
		return 0
	}
	log.Printf("Receiver failed: %v", err)
	return 1
}

// statsUpdateLoop periodically pushes pipeline stats to the TUI
func statsUpdateLoop(recv *app.Receiver, prog *tea.Program, transportName string) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for range ticker.C {
		stats := recv.Stats()
		prog.Send(ui.StatusMsg{
			Transport:  transportName,
			SampleRate: stats.Format.SampleRate,
			SampleBits: stats.Format.SampleBits,
			Channels:   stats.Format.Channels,
			Received:   stats.Received,
			Delivered:  stats.Delivered,
			Dropped:    stats.Dropped,
			Overruns:   stats.Overruns,
			Invalid:    stats.Invalid,
			BufferedMs: stats.BufferedMs,
		})
	}
}
