// Package trace renders CPU instruction snapshots into the nestest golden
// log line format, and an optional verbose dump for deeper debugging.
package trace

import (
	"fmt"
	"io"

	"github.com/davecgh/go-spew/spew"

	"nescore/internal/cpu"
)

// Logger is a cpu.Tracer that writes one nestest-format line per
// instruction fetch to w.
type Logger struct {
	w       io.Writer
	verbose bool
}

// New builds a Logger writing to w. When verbose is true, each line is
// followed by a spew dump of the full snapshot, for debugging a
// divergence the compact line alone doesn't explain.
func New(w io.Writer, verbose bool) *Logger {
	return &Logger{w: w, verbose: verbose}
}

// Emit implements cpu.Tracer.
func (l *Logger) Emit(s cpu.Snapshot) {
	fmt.Fprintf(l.w, "%04X    %02X %02X %02X         A:%02X X:%02X Y:%02X P:%02X SP:%02X PPU:0, CYC:%d\n",
		s.PC, s.Opcode, s.O1, s.O2, s.A, s.X, s.Y, s.P, s.SP, s.Cycles)
	if l.verbose {
		spew.Fdump(l.w, s)
	}
}
