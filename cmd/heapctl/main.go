// Command heapctl exercises an orizon-heap Heap from the command line: it
// builds one backed by an anonymous mmap region, replays a newline-delimited
// script of allocate/free/extend/stats operations against it, and prints
// the Heap's Stats on each stats line and once more when the script ends.
// It exists mainly as a manual-testing
// and demonstration harness, grounded in the host project's flag-driven
// cmd/orizon-* tools.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/orizon-lang/orizon-heap/backing"
	"github.com/orizon-lang/orizon-heap/heap"
	"github.com/orizon-lang/orizon-heap/hole"
	"github.com/orizon-lang/orizon-heap/internal/cli"
	stderrors "github.com/orizon-lang/orizon-heap/internal/errors"
)

// demoScript is the built-in script run by "-script -", reproducing the
// double-pointer allocation, alloc/free round-trip, and three-allocation
// middle-free scenarios against a fresh heap.
const demoScript = `alloc 16 8
stats
free 0
stats
alloc 40 1
alloc 40 1
alloc 40 1
free 1
free 0
free 0
stats`

// opKind identifies one line of a heapctl script.
type opKind int

const (
	opAlloc opKind = iota
	opFree
	opExtend
	opStats
)

// step is one parsed line of -script. For opAlloc, a and b hold the
// requested size and alignment. For opFree, a holds the index, among the
// allocations still live at that point in the script, of the block to
// free. For opExtend, a holds the number of bytes to grow the heap by.
// opStats carries no operands.
type step struct {
	kind opKind
	a, b uintptr
}

func main() {
	var (
		showVersion bool
		showHelp    bool
		jsonOutput  bool
		size        uint
		script      string
	)

	flag.BoolVar(&showVersion, "version", false, "show version information")
	flag.BoolVar(&showHelp, "help", false, "show help information")
	flag.BoolVar(&jsonOutput, "json", false, "output version/stats in JSON format")
	flag.UintVar(&size, "size", 64*1024, "size in bytes of the anonymous region to manage")
	flag.StringVar(&script, "script", "", "path to a newline-delimited script of alloc/free/extend/stats operations, or - for the built-in demo")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Drives an orizon-heap Heap from a scripted sequence of operations.\n\n")
		fmt.Fprintf(os.Stderr, "Each non-blank line of -script is one of:\n")
		fmt.Fprintf(os.Stderr, "  alloc <size> <align>   allocate a block\n")
		fmt.Fprintf(os.Stderr, "  free <n>                free the nth still-live allocation (0-indexed)\n")
		fmt.Fprintf(os.Stderr, "  extend <n>              grow the managed region by n bytes\n")
		fmt.Fprintf(os.Stderr, "  stats                   print the heap's current stats\n\n")
		fmt.Fprintf(os.Stderr, "OPTIONS:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEXAMPLES:\n")
		fmt.Fprintf(os.Stderr, "  %s -size 4096 -script -            # run the built-in S1-S3 demo\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -size 4096 -script ops.txt       # replay a script file\n", os.Args[0])
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if showVersion {
		cli.PrintVersion("heapctl", jsonOutput)
		os.Exit(0)
	}

	steps, err := parseScript(script)
	if err != nil {
		cli.ExitWithError("invalid -script: %v", err)
	}

	region, err := backing.Anonymous(uintptr(size))
	if err != nil {
		cli.ExitWithError("failed to reserve backing memory: %v", err)
	}
	defer func() { _ = region.Release() }()

	h := heap.New(region.Base(), region.Len())
	logger := cli.NewLogger(!jsonOutput, false)

	if err := run(&h, steps, logger, jsonOutput); err != nil {
		cli.ExitWithError("script failed: %v", err)
	}

	printStats(h.Stats(), jsonOutput)
}

// readScript returns the raw script text named by -script: the built-in
// demo for "-", the contents of a file for anything else, or "" if -script
// was not given.
func readScript(script string) (string, error) {
	switch script {
	case "":
		return "", nil
	case "-":
		return demoScript, nil
	default:
		data, err := os.ReadFile(script)
		if err != nil {
			return "", err
		}

		return string(data), nil
	}
}

// parseScript reads and parses the script named by -script into a sequence
// of steps, one per non-blank line.
func parseScript(script string) ([]step, error) {
	text, err := readScript(script)
	if err != nil {
		return nil, err
	}

	if text == "" {
		return nil, nil
	}

	var steps []step

	scanner := bufio.NewScanner(strings.NewReader(text))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)

		s, err := parseLine(fields)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", line, err)
		}

		steps = append(steps, s)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return steps, nil
}

func parseLine(fields []string) (step, error) {
	if len(fields) == 0 {
		return step{}, fmt.Errorf("empty line")
	}

	switch fields[0] {
	case "alloc":
		if len(fields) != 3 {
			return step{}, fmt.Errorf("alloc wants 2 arguments (size, align), got %d", len(fields)-1)
		}

		size, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			return step{}, fmt.Errorf("size: %w", err)
		}

		align, err := strconv.ParseUint(fields[2], 10, 64)
		if err != nil {
			return step{}, fmt.Errorf("align: %w", err)
		}

		return step{kind: opAlloc, a: uintptr(size), b: uintptr(align)}, nil
	case "free":
		if len(fields) != 2 {
			return step{}, fmt.Errorf("free wants 1 argument (index), got %d", len(fields)-1)
		}

		idx, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			return step{}, fmt.Errorf("index: %w", err)
		}

		return step{kind: opFree, a: uintptr(idx)}, nil
	case "extend":
		if len(fields) != 2 {
			return step{}, fmt.Errorf("extend wants 1 argument (n), got %d", len(fields)-1)
		}

		n, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			return step{}, fmt.Errorf("n: %w", err)
		}

		return step{kind: opExtend, a: uintptr(n)}, nil
	case "stats":
		if len(fields) != 1 {
			return step{}, fmt.Errorf("stats takes no arguments, got %d", len(fields)-1)
		}

		return step{kind: opStats}, nil
	default:
		return step{}, fmt.Errorf("unknown op %q, want alloc/free/extend/stats", fields[0])
	}
}

// live is one allocation still outstanding during a script replay.
type live struct {
	ptr    uintptr
	layout hole.Layout
}

func run(h *heap.Heap, steps []step, logger *cli.Logger, jsonOutput bool) error {
	allocs := make([]live, 0, len(steps))

	for _, s := range steps {
		switch s.kind {
		case opAlloc:
			if s.a == 0 {
				return stderrors.InvalidSize(s.a, "heapctl script alloc step")
			}

			layout := hole.Layout{Size: s.a, Align: s.b}

			ptr, effective, err := h.Allocate(layout)
			if err != nil {
				return fmt.Errorf("alloc %d %d: %w", s.a, s.b, err)
			}

			allocs = append(allocs, live{ptr: ptr, layout: effective})
			logger.Info("allocated %d bytes at 0x%x (effective size %d)", s.a, ptr, effective.Size)
		case opFree:
			if s.a >= uintptr(len(allocs)) {
				return stderrors.IndexOutOfBounds(s.a, uintptr(len(allocs)))
			}

			target := allocs[s.a]
			allocs = append(allocs[:s.a], allocs[s.a+1:]...)

			h.Deallocate(target.ptr, target.layout)
			logger.Info("freed allocation %d (ptr=0x%x size=%d)", s.a, target.ptr, target.layout.Size)
		case opExtend:
			h.Extend(s.a)
			logger.Info("extended heap by %d bytes", s.a)
		case opStats:
			printStats(h.Stats(), jsonOutput)
		}
	}

	return nil
}

func printStats(stats heap.Stats, jsonOutput bool) {
	if jsonOutput {
		fmt.Printf("{\"bottom\":%d,\"top\":%d,\"size\":%d,\"used\":%d,\"free\":%d,\"holes\":%d}\n",
			stats.Bottom, stats.Top, stats.Size, stats.Used, stats.Free, stats.Holes)
		return
	}

	fmt.Printf("bottom=0x%x top=0x%x size=%d used=%d free=%d holes=%d\n",
		stats.Bottom, stats.Top, stats.Size, stats.Used, stats.Free, stats.Holes)
}
