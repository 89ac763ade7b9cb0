package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// BenchmarkResult represents a parsed benchmark result.
type BenchmarkResult struct {
	Name        string
	Iterations  int
	NsPerOp     float64
	BytesPerOp  int64
	AllocsPerOp int64
}

// ComparisonResult represents one benchmark compared across two runs.
type ComparisonResult struct {
	Name       string
	OldNs      float64
	NewNs      float64
	Speedup    float64
	OldMem     int64
	NewMem     int64
	OldAllocs  int64
	NewAllocs  int64
	NewOnly    bool
	RemovedOld bool
}

var (
	oldFile = flag.String(
		"old",
		"",
		"Baseline run: file with 'go test -bench' output",
	)
	newFile = flag.String(
		"new",
		"",
		"Current run: file with 'go test -bench' output (stdin if not specified)",
	)
	outputFile = flag.String("output", "", "Output markdown file (stdout if not specified)")
	quiet      = flag.Bool("quiet", false, "Suppress progress output")
)

func main() {
	flag.Parse()

	newResults, err := readResults(*newFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading current run: %v\n", err)
		os.Exit(1)
	}
	if !*quiet {
		fmt.Fprintf(os.Stderr, "Parsed %d current results\n", len(newResults))
	}

	var oldResults []BenchmarkResult
	if *oldFile != "" {
		oldResults, err = readResults(*oldFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading baseline run: %v\n", err)
			os.Exit(1)
		}
		if !*quiet {
			fmt.Fprintf(os.Stderr, "Parsed %d baseline results\n", len(oldResults))
		}
	}

	comparisons := generateComparisons(oldResults, newResults)
	report := generateMarkdownReport(comparisons)

	if *outputFile != "" {
		if err := os.WriteFile(*outputFile, []byte(report), 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output file: %v\n", err)
			os.Exit(1)
		}
		if !*quiet {
			fmt.Fprintf(os.Stderr, "Report written to %s\n", *outputFile)
		}
	} else {
		fmt.Fprint(os.Stdout, report)
	}
}

func readResults(path string) ([]BenchmarkResult, error) {
	if path == "" {
		return parseBenchmarks(bufio.NewScanner(os.Stdin)), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return parseBenchmarks(bufio.NewScanner(f)), nil
}

func parseBenchmarks(scanner *bufio.Scanner) []BenchmarkResult {
	var results []BenchmarkResult

	// Regex to parse benchmark output lines
	// BenchmarkAllocFreeClass-8    10000    124.5 ns/op    0 B/op    0 allocs/op
	benchmarkRegex := regexp.MustCompile(
		`^(Benchmark\S+)\s+(\d+)\s+([\d.]+)\s+ns/op(?:\s+([\d.]+)\s+(?:B|MB)/op)?(?:\s+([\d.]+)\s+allocs/op)?`,
	)

	for scanner.Scan() {
		line := scanner.Text()

		// Try to parse as JSON (from -json flag)
		var testEvent map[string]any
		if err := json.Unmarshal([]byte(line), &testEvent); err == nil {
			if output, ok := testEvent["Output"].(string); ok {
				line = output
			}
		}

		matches := benchmarkRegex.FindStringSubmatch(strings.TrimSpace(line))
		if matches == nil {
			continue
		}

		name := matches[1]
		// Drop the -N GOMAXPROCS suffix so runs on different machines match.
		if dashIdx := strings.LastIndex(name, "-"); dashIdx > 0 {
			name = name[:dashIdx]
		}

		iterations, _ := strconv.Atoi(matches[2])
		nsPerOp, _ := strconv.ParseFloat(matches[3], 64)

		var bytesPerOp int64
		var allocsPerOp int64
		if matches[4] != "" {
			bytesPerOp, _ = strconv.ParseInt(matches[4], 10, 64)
		}
		if matches[5] != "" {
			allocsPerOp, _ = strconv.ParseInt(matches[5], 10, 64)
		}

		results = append(results, BenchmarkResult{
			Name:        name,
			Iterations:  iterations,
			NsPerOp:     nsPerOp,
			BytesPerOp:  bytesPerOp,
			AllocsPerOp: allocsPerOp,
		})
	}

	return results
}

func generateComparisons(oldResults, newResults []BenchmarkResult) []ComparisonResult {
	oldByName := make(map[string]BenchmarkResult, len(oldResults))
	for _, r := range oldResults {
		oldByName[r.Name] = r
	}

	var comparisons []ComparisonResult
	seen := make(map[string]bool, len(newResults))

	for _, cur := range newResults {
		seen[cur.Name] = true
		old, hasOld := oldByName[cur.Name]
		if hasOld {
			comparisons = append(comparisons, ComparisonResult{
				Name:      cur.Name,
				OldNs:     old.NsPerOp,
				NewNs:     cur.NsPerOp,
				Speedup:   old.NsPerOp / cur.NsPerOp,
				OldMem:    old.BytesPerOp,
				NewMem:    cur.BytesPerOp,
				OldAllocs: old.AllocsPerOp,
				NewAllocs: cur.AllocsPerOp,
			})
		} else {
			comparisons = append(comparisons, ComparisonResult{
				Name:      cur.Name,
				NewNs:     cur.NsPerOp,
				NewMem:    cur.BytesPerOp,
				NewAllocs: cur.AllocsPerOp,
				NewOnly:   true,
			})
		}
	}

	// Benchmarks that vanished between runs still show up in the report.
	for _, old := range oldResults {
		if !seen[old.Name] {
			comparisons = append(comparisons, ComparisonResult{
				Name:       old.Name,
				OldNs:      old.NsPerOp,
				OldMem:     old.BytesPerOp,
				OldAllocs:  old.AllocsPerOp,
				RemovedOld: true,
			})
		}
	}

	sort.Slice(comparisons, func(i, j int) bool {
		return comparisons[i].Name < comparisons[j].Name
	})

	return comparisons
}

func generateMarkdownReport(comparisons []ComparisonResult) string {
	var sb strings.Builder

	sb.WriteString("# Benchmark Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", time.Now().Format("2006-01-02 15:04:05")))

	faster := 0
	slower := 0
	newOnly := 0
	removed := 0
	totalSpeedup := 0.0
	comparable := 0

	for _, comp := range comparisons {
		switch {
		case comp.NewOnly:
			newOnly++
		case comp.RemovedOld:
			removed++
		default:
			comparable++
			totalSpeedup += comp.Speedup
			if comp.Speedup > 1.0 {
				faster++
			} else if comp.Speedup < 1.0 {
				slower++
			}
		}
	}

	sb.WriteString("## Summary\n\n")
	sb.WriteString(fmt.Sprintf("- **Total benchmarks**: %d\n", len(comparisons)))
	sb.WriteString(fmt.Sprintf("- **Comparable** (both runs): %d\n", comparable))
	if comparable > 0 {
		sb.WriteString(fmt.Sprintf("  - faster: %d (%.1f%%)\n",
			faster, float64(faster)/float64(comparable)*100))
		sb.WriteString(fmt.Sprintf("  - slower: %d (%.1f%%)\n",
			slower, float64(slower)/float64(comparable)*100))
		sb.WriteString(fmt.Sprintf("  - Average speedup: **%.2fx**\n",
			totalSpeedup/float64(comparable)))
	}
	sb.WriteString(fmt.Sprintf("- **New benchmarks**: %d\n", newOnly))
	sb.WriteString(fmt.Sprintf("- **Removed benchmarks**: %d\n", removed))
	sb.WriteString("\n")

	sb.WriteString("## Detailed Results\n\n")
	sb.WriteString(
		"| Benchmark | Old (ns/op) | New (ns/op) | Speedup | Memory (B/op) | Allocs |\n",
	)
	sb.WriteString(
		"|-----------|-------------|-------------|---------|---------------|--------|\n",
	)

	for _, comp := range comparisons {
		name := strings.TrimPrefix(comp.Name, "Benchmark")
		switch {
		case comp.NewOnly:
			sb.WriteString(fmt.Sprintf("| %s | *N/A* | %s | *new* | %s | %s |\n",
				name,
				formatNumber(comp.NewNs),
				formatBytes(comp.NewMem),
				formatNumber(float64(comp.NewAllocs)),
			))
		case comp.RemovedOld:
			sb.WriteString(fmt.Sprintf("| %s | %s | *N/A* | *removed* | %s | %s |\n",
				name,
				formatNumber(comp.OldNs),
				formatBytes(comp.OldMem),
				formatNumber(float64(comp.OldAllocs)),
			))
		default:
			indicator := "✓"
			speedupStyle := "**"
			if comp.Speedup < 1.0 {
				indicator = "✗"
				speedupStyle = ""
			}

			memIndicator := ""
			if comp.NewMem < comp.OldMem {
				memIndicator = " ✓"
			} else if comp.NewMem > comp.OldMem {
				memIndicator = " ✗"
			}

			allocIndicator := ""
			if comp.NewAllocs < comp.OldAllocs {
				allocIndicator = " ✓"
			} else if comp.NewAllocs > comp.OldAllocs {
				allocIndicator = " ✗"
			}

			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s%.2fx%s %s | %s vs %s%s | %s vs %s%s |\n",
				name,
				formatNumber(comp.OldNs),
				formatNumber(comp.NewNs),
				speedupStyle,
				comp.Speedup,
				speedupStyle,
				indicator,
				formatBytes(comp.OldMem),
				formatBytes(comp.NewMem),
				memIndicator,
				formatNumber(float64(comp.OldAllocs)),
				formatNumber(float64(comp.NewAllocs)),
				allocIndicator,
			))
		}
	}

	sb.WriteString("\n")

	sb.WriteString("## Performance by Category\n\n")
	categories := categorizeBenchmarks(comparisons)
	for _, category := range []string{"Allocator", "Cache", "Translation", "Executor", "Keyboard", "Other"} {
		comps := categories[category]
		if len(comps) == 0 {
			continue
		}

		avgSpeed := 0.0
		count := 0
		for _, comp := range comps {
			if !comp.NewOnly && !comp.RemovedOld {
				avgSpeed += comp.Speedup
				count++
			}
		}

		if count > 0 {
			avgSpeed /= float64(count)
			status := "✓"
			if avgSpeed < 1.0 {
				status = "✗"
			}
			sb.WriteString(fmt.Sprintf("- %s **%s**: %.2fx average speedup\n",
				status, category, avgSpeed))
		} else {
			sb.WriteString(fmt.Sprintf("- **%s**: no comparable runs\n", category))
		}
	}

	sb.WriteString("\n")

	sb.WriteString("## Notes\n\n")
	sb.WriteString("- **Speedup > 1.0**: the new run is faster ✓\n")
	sb.WriteString("- **Speedup < 1.0**: the new run is slower ✗\n")
	sb.WriteString("- **Memory comparison**: Lower is better\n")
	sb.WriteString("- **Allocations**: Fewer is better\n")

	return sb.String()
}

func categorizeBenchmarks(comparisons []ComparisonResult) map[string][]ComparisonResult {
	categories := map[string][]ComparisonResult{}

	for _, comp := range comparisons {
		name := strings.ToLower(comp.Name)

		var category string
		switch {
		case strings.Contains(name, "alloc"):
			category = "Allocator"
		case strings.Contains(name, "cache") || strings.Contains(name, "lru"):
			category = "Cache"
		case strings.Contains(name, "translate") || strings.Contains(name, "tlb"):
			category = "Translation"
		case strings.Contains(name, "executor") || strings.Contains(name, "spawn") ||
			strings.Contains(name, "wake"):
			category = "Executor"
		case strings.Contains(name, "keyboard") || strings.Contains(name, "console"):
			category = "Keyboard"
		default:
			category = "Other"
		}
		categories[category] = append(categories[category], comp)
	}

	return categories
}

func formatNumber(n float64) string {
	if n >= 1000000 {
		return fmt.Sprintf("%.2fM", n/1000000)
	} else if n >= 1000 {
		return fmt.Sprintf("%.1fK", n/1000)
	}
	return fmt.Sprintf("%.0f", n)
}

func formatBytes(b int64) string {
	if b >= 1024*1024 {
		return fmt.Sprintf("%.2fMB", float64(b)/(1024*1024))
	} else if b >= 1024 {
		return fmt.Sprintf("%.1fKB", float64(b)/1024)
	}
	return fmt.Sprintf("%dB", b)
}
