// Package main implements nesconform, a batch conformance runner that
// validates cycle-accurate CPU traces against golden instruction logs
// (e.g. the public nestest.nes reference log).
package main

import (
	"bufio"
	"bytes"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"nescore/internal/bus"
	"nescore/internal/cartridge"
	"nescore/internal/cpu"
	"nescore/internal/trace"
)

// fixture is one (rom, golden-log) pair under the fixtures directory. Each
// subdirectory of -dir holding both rom.nes and golden.log is a fixture
// named after the subdirectory; an optional start_pc.txt (hex, no prefix)
// overrides the CPU's post-reset PC, since automation ROMs like nestest
// are conventionally started at a fixed address rather than through their
// own reset vector.
type fixture struct {
	name       string
	romPath    string
	goldenPath string
	startPC    *uint16
}

// result is one fixture's outcome.
type result struct {
	name       string
	pass       bool
	mismatchAt int
	got, want  string
	err        error
}

func main() {
	dir := flag.String("dir", "testdata/conformance", "Directory of (rom.nes, golden.log) fixture pairs")
	flag.Parse()

	fixtures, err := discoverFixtures(*dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "nesconform: %v\n", err)
		os.Exit(1)
	}
	if len(fixtures) == 0 {
		fmt.Printf("nesconform: no fixtures found under %s\n", *dir)
		return
	}

	results := make([]result, len(fixtures))
	var g errgroup.Group
	for i, fx := range fixtures {
		i, fx := i, fx
		g.Go(func() error {
			results[i] = validateFixture(fx)
			return nil
		})
	}
	_ = g.Wait() // validateFixture never returns an error itself; failures are recorded in result

	failures := 0
	for _, r := range results {
		if r.err != nil {
			fmt.Printf("FAIL %-20s error: %v\n", r.name, r.err)
			failures++
			continue
		}
		if r.pass {
			fmt.Printf("PASS %-20s\n", r.name)
			continue
		}
		fmt.Printf("FAIL %-20s first mismatch at line %d\n  got:  %s\n  want: %s\n",
			r.name, r.mismatchAt, r.got, r.want)
		failures++
	}

	if failures > 0 {
		os.Exit(1)
	}
}

func discoverFixtures(dir string) ([]fixture, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}

	var fixtures []fixture
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		sub := filepath.Join(dir, e.Name())
		romPath := filepath.Join(sub, "rom.nes")
		goldenPath := filepath.Join(sub, "golden.log")
		if _, err := os.Stat(romPath); err != nil {
			continue
		}
		if _, err := os.Stat(goldenPath); err != nil {
			continue
		}

		fx := fixture{name: e.Name(), romPath: romPath, goldenPath: goldenPath}
		if data, err := os.ReadFile(filepath.Join(sub, "start_pc.txt")); err == nil {
			if v, err := strconv.ParseUint(strings.TrimSpace(string(data)), 16, 16); err == nil {
				pc := uint16(v)
				fx.startPC = &pc
			}
		}
		fixtures = append(fixtures, fx)
	}
	return fixtures, nil
}

func validateFixture(fx fixture) result {
	golden, err := readLines(fx.goldenPath)
	if err != nil {
		return result{name: fx.name, err: fmt.Errorf("read golden log: %w", err)}
	}

	romFile, err := os.Open(fx.romPath)
	if err != nil {
		return result{name: fx.name, err: fmt.Errorf("open rom: %w", err)}
	}
	defer romFile.Close()

	cart, err := cartridge.Load(romFile)
	if err != nil {
		return result{name: fx.name, err: fmt.Errorf("load cartridge: %w", err)}
	}

	b := bus.New()
	b.LoadCartridge(cart)
	b.Reset()
	if fx.startPC != nil {
		b.CPU.PC = *fx.startPC
	}
	b.CPU.SetUnknownOpcodePolicy(cpu.TreatAsNOP)

	var buf bytes.Buffer
	counter := &countingTracer{inner: trace.New(&buf, false)}
	b.CPU.SetTracer(counter)

	// Each Step is one CPU cycle, not one instruction; drive cycles until
	// the tracer has emitted as many lines as the golden log holds, with a
	// generous cycle ceiling in case a ROM deadlocks before producing them.
	const maxCyclesPerLine = 16
	cycleBudget := maxCyclesPerLine * len(golden)
	for cycles := 0; counter.count < len(golden) && cycles < cycleBudget; cycles++ {
		b.Step()
	}

	got := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	for i := 0; i < len(golden) && i < len(got); i++ {
		if got[i] != golden[i] {
			return result{name: fx.name, mismatchAt: i + 1, got: got[i], want: golden[i]}
		}
	}
	if len(got) < len(golden) {
		return result{name: fx.name, mismatchAt: len(got) + 1, got: "<no output>", want: golden[len(got)]}
	}
	return result{name: fx.name, pass: true}
}

// countingTracer wraps a cpu.Tracer to count emitted lines, so the driver
// loop knows when it has produced enough trace output to compare against
// the golden log without hardcoding an instruction-count assumption.
type countingTracer struct {
	inner cpu.Tracer
	count int
}

func (c *countingTracer) Emit(s cpu.Snapshot) {
	c.inner.Emit(s)
	c.count++
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines, scanner.Err()
}
