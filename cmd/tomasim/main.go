// Package main provides the entry point for tomasulosim, a cycle-accurate
// Tomasulo dynamic-scheduling pipeline simulator.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/Farahemad1/tomasulosim/asm"
	"github.com/Farahemad1/tomasulosim/timing/config"
	"github.com/Farahemad1/tomasulosim/timing/engine"
)

var (
	configPath = flag.String("config", "", "Path to a timing configuration JSON file (default config if omitted)")
	cycles     = flag.Int("cycles", 10000, "Maximum number of cycles to simulate")
	trace      = flag.Bool("trace", false, "Print the cycle-by-cycle snapshot history")
	verbose    = flag.Bool("v", false, "Verbose output")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: tomasim [options] <program.asm>\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}
	programPath := flag.Arg(0)

	source, err := os.ReadFile(programPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading program: %v\n", err)
		os.Exit(1)
	}

	program, err := asm.Parse(string(source))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error assembling program: %v\n", err)
		os.Exit(1)
	}

	cfg := config.Default()
	if *configPath != "" {
		cfg, err = config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading timing config: %v\n", err)
			os.Exit(1)
		}
	}

	e, err := engine.New(program, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error constructing engine: %v\n", err)
		os.Exit(1)
	}

	if *verbose {
		fmt.Printf("Loaded: %s (%d instructions)\n", programPath, len(program))
	}

	if err := e.Run(*cycles); err != nil {
		fmt.Fprintf(os.Stderr, "Error during simulation: %v\n", err)
		os.Exit(1)
	}

	if *trace {
		for _, snap := range e.History() {
			fmt.Printf("cycle %d: pc=%d fetch_stall=%v\n", snap.Cycle, snap.PC, snap.FetchStall)
		}
	}

	printSummary(e)
}

func printSummary(e *engine.Engine) {
	fmt.Printf("\nHalted: %v\n", e.Halted())
	fmt.Printf("Cycles: %d\n", e.Cycle())

	regs := e.Registers()
	fmt.Println("\nInteger registers:")
	for i, v := range regs.Int {
		if v != 0 {
			fmt.Printf("  R%-2d = %d\n", i, v)
		}
	}
	fmt.Println("\nFP registers:")
	for i, v := range regs.FP {
		if v != 0 {
			fmt.Printf("  F%-2d = %d\n", i, v)
		}
	}

	stats := e.CacheStats()
	fmt.Printf("\nCache: %d hits, %d misses, %d evictions\n", stats.Hits, stats.Misses, stats.Evictions)
}
