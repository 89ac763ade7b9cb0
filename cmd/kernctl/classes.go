package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/joshuapare/kernelkit/mem"
	"github.com/joshuapare/kernelkit/mem/heap"
	"github.com/spf13/cobra"
)

var (
	classesList  string
	classesProbe string
)

func init() {
	cmd := newClassesCmd()
	cmd.Flags().StringVar(&classesList, "classes", "", "Comma-separated block sizes (default: built-in Default config)")
	cmd.Flags().StringVar(&classesProbe, "probe", "1,8,9,24,64,100,1024,2048,4096", "Comma-separated request sizes to resolve")
	rootCmd.AddCommand(cmd)
}

func newClassesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classes",
		Short: "Show the size-class table and where requests land",
		Long: `The classes command builds an allocator with the given size-class
configuration and shows which class serves each probe size. Requests
above the largest class fall back to the arena.

Example:
  kernctl classes
  kernctl classes --classes 16,64,256,1024
  kernctl classes --probe 7,8,2049 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClasses()
		},
	}
}

type ClassReport struct {
	Config  string
	Classes []ClassRow
	Probes  []ProbeRow
}

type ClassRow struct {
	Index     int
	BlockSize int32
	ServesMin int32
	ServesMax int32
}

type ProbeRow struct {
	Size      int
	Class     int
	BlockSize int32 // 0 when the request goes to the fallback arena
}

func runClasses() error {
	cfg := heap.DefaultConfig
	if classesList != "" {
		sizes, err := parseIntList(classesList)
		if err != nil {
			return fmt.Errorf("bad --classes: %w", err)
		}
		cfg = heap.Config{Name: "Custom"}
		for _, s := range sizes {
			cfg.Classes = append(cfg.Classes, int32(s))
		}
	}

	probes, err := parseIntList(classesProbe)
	if err != nil {
		return fmt.Errorf("bad --probe: %w", err)
	}

	// Size the throwaway region to comfortably hold the largest class.
	regionSize := 4096
	if n := len(cfg.Classes); n > 0 {
		for regionSize < int(cfg.Classes[n-1])*4 {
			regionSize *= 2
		}
	}

	region, err := mem.NewRegion(regionSize)
	if err != nil {
		return err
	}
	defer region.Release()

	a, err := heap.New(region, cfg)
	if err != nil {
		return fmt.Errorf("building allocator: %w", err)
	}

	report := ClassReport{Config: cfg.Name}
	prev := int32(0)
	for i, cls := range a.Classes() {
		report.Classes = append(report.Classes, ClassRow{
			Index:     i,
			BlockSize: cls,
			ServesMin: prev + 1,
			ServesMax: cls,
		})
		prev = cls
	}
	for _, size := range probes {
		row := ProbeRow{Size: size, Class: a.ClassFor(size, 0)}
		if row.Class < len(report.Classes) {
			row.BlockSize = report.Classes[row.Class].BlockSize
		}
		report.Probes = append(report.Probes, row)
	}

	if jsonOut {
		return printJSON(report)
	}

	printInfo("Size-class configuration: %s\n\n", report.Config)
	printInfo("Classes:\n")
	for _, row := range report.Classes {
		printInfo("  [%2d] %5d bytes  (serves %d-%d)\n", row.Index, row.BlockSize, row.ServesMin, row.ServesMax)
	}
	printInfo("\nProbes:\n")
	for _, row := range report.Probes {
		if row.BlockSize == 0 {
			printInfo("  %5d bytes -> fallback arena\n", row.Size)
		} else {
			printInfo("  %5d bytes -> class %d (%d-byte blocks)\n", row.Size, row.Class, row.BlockSize)
		}
	}
	return nil
}

// parseIntList parses a comma-separated list of positive integers.
func parseIntList(s string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", part)
		}
		if n <= 0 {
			return nil, fmt.Errorf("%d is not positive", n)
		}
		out = append(out, n)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("empty list")
	}
	return out, nil
}
