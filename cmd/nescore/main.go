// Package main implements the nescore headless CPU-core executable.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"nescore/internal/bus"
	"nescore/internal/cartridge"
	"nescore/internal/config"
	"nescore/internal/cpu"
	"nescore/internal/trace"
	"nescore/internal/version"
)

const (
	exitOK = iota
	exitBadROM
	exitUnsupportedMapper
	exitIOError
)

func main() {
	var (
		romFile    = flag.String("rom", "", "Path to an iNES ROM file")
		configFile = flag.String("config", "", "Path to a JSON config file")
		debug      = flag.Bool("debug", false, "Enable debug diagnostics on the bus")
		traceFlag  = flag.Bool("trace", false, "Emit a nestest-format trace line per instruction")
		stopPCFlag = flag.String("stop-pc", "", "Hex PC address to stop execution at (e.g. C000)")
		showHelp   = flag.Bool("help", false, "Show help message")
		showVer    = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showHelp {
		printUsage()
		os.Exit(exitOK)
	}
	if *showVer {
		version.PrintBuildInfo()
		os.Exit(exitOK)
	}
	if *romFile == "" {
		fmt.Fprintln(os.Stderr, "nescore: -rom is required")
		printUsage()
		os.Exit(exitIOError)
	}

	cfg := config.New()
	if *configFile != "" {
		loaded, err := config.LoadFromFile(*configFile)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		cfg = loaded
	}
	if *traceFlag {
		cfg.Trace = true
	}
	if *stopPCFlag != "" {
		pc, err := parseHexPC(*stopPCFlag)
		if err != nil {
			log.Fatalf("invalid -stop-pc: %v", err)
		}
		cfg.StopPC = &pc
	}

	if err := run(*romFile, cfg, *debug); err != nil {
		switch {
		case errors.Is(err, cartridge.ErrBadROM):
			log.Printf("bad ROM: %v", err)
			os.Exit(exitBadROM)
		case errors.Is(err, cartridge.ErrUnsupportedMapper):
			log.Printf("unsupported mapper: %v", err)
			os.Exit(exitUnsupportedMapper)
		default:
			log.Printf("I/O error: %v", err)
			os.Exit(exitIOError)
		}
	}
}

// run loads romPath, wires a Bus around it, and drives the CPU until it
// reaches cfg.StopPC. With no stop PC set, it runs until interrupted: this
// core has no PPU frame loop or controller input to hang an exit condition
// off of, so an unbounded run is only useful for a cartridge that halts
// itself (e.g. a JMP-to-self test ROM).
func run(romPath string, cfg *config.Config, debug bool) error {
	f, err := os.Open(romPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", romPath, err)
	}
	defer f.Close()

	cart, err := cartridge.Load(f)
	if err != nil {
		return err
	}

	b := bus.New()
	b.SetDebug(debug)
	b.LoadCartridge(cart)
	b.Reset()

	if cfg.Trace {
		w := os.Stdout
		if cfg.TraceFile != "" {
			file, err := os.Create(cfg.TraceFile)
			if err != nil {
				return fmt.Errorf("create trace file: %w", err)
			}
			defer file.Close()
			b.CPU.SetTracer(trace.New(file, cfg.TraceVerbose))
		} else {
			b.CPU.SetTracer(trace.New(w, cfg.TraceVerbose))
		}
	}

	if cfg.UnknownOpcode == "panic" {
		b.CPU.SetUnknownOpcodePolicy(cpu.PanicOnUnknown)
	} else {
		b.CPU.SetUnknownOpcodePolicy(cpu.TreatAsNOP)
	}

	b.Run(cfg.StopPC, 0)
	return nil
}

func parseHexPC(s string) (uint16, error) {
	var v uint16
	_, err := fmt.Sscanf(s, "%x", &v)
	return v, err
}

func printUsage() {
	fmt.Println("nescore - a cycle-accurate 6502/2A03 CPU core for the NES")
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  nescore -rom <file> [options]")
	fmt.Println()
	fmt.Println("OPTIONS:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("EXIT CODES:")
	fmt.Println("  0  clean shutdown")
	fmt.Println("  1  bad ROM (malformed iNES header)")
	fmt.Println("  2  unsupported mapper")
	fmt.Println("  3  I/O error")
}
