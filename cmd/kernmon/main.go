package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	hclog "github.com/hashicorp/go-hclog"
	"github.com/joshuapare/kernelkit/cmd/kernmon/logger"
	"github.com/joshuapare/kernelkit/kern"
)

func main() {
	args := os.Args[1:]
	debugMode := false

	// Extract --debug/-d flag
	filteredArgs := make([]string, 0, len(args))
	for _, arg := range args {
		if arg == "--debug" || arg == "-d" {
			debugMode = true
		} else {
			filteredArgs = append(filteredArgs, arg)
		}
	}

	// Initialize logger (must be before any logging calls)
	if err := logger.Init(logger.Options{
		Enabled: debugMode,
		Level:   hclog.Debug,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to init logging: %v\n", err)
	}

	if len(filteredArgs) > 0 {
		switch filteredArgs[0] {
		case "--help", "-h":
			printHelp()
			os.Exit(0)
		case "--version", "-v":
			fmt.Printf("kernmon %s\n", version)
			fmt.Printf("  commit: %s\n", commit)
			fmt.Printf("  built: %s\n", date)
			os.Exit(0)
		default:
			printUsage()
			os.Exit(1)
		}
	}

	logger.Info("starting kernmon", "debug", debugMode)

	// Boot the kernel inside the TUI model
	m, err := NewModel(kern.Config{Logger: logger.L})
	if err != nil {
		logger.Error("kernel boot failed", "error", err)
		fmt.Fprintf(os.Stderr, "Error: kernel boot failed: %v\n", err)
		os.Exit(1)
	}

	// Create the Bubbletea program
	p := tea.NewProgram(
		m,
		tea.WithAltScreen(), // Use alternate screen buffer
	)

	// Run the program
	finalModel, err := p.Run()
	if err != nil {
		logger.Error("TUI error", "error", err)
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}

	// Clean up resources
	if model, ok := finalModel.(Model); ok {
		if err := model.Close(); err != nil {
			// Log error but don't fail - cleanup is best effort
			logger.Warn("error closing kernel", "error", err)
		}
	}

	logger.Info("kernmon exited normally")
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: kernmon [options]\n")
	fmt.Fprintf(os.Stderr, "Try 'kernmon --help' for more information.\n")
}

func printHelp() {
	fmt.Println("kernmon - Interactive monitor for the kernelkit core")
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  kernmon [options]")
	fmt.Println()
	fmt.Println("DESCRIPTION:")
	fmt.Println("  Boots an in-process kernel and shows its text console live.")
	fmt.Println("  Everything you type is translated to keyboard scancodes, pushed")
	fmt.Println("  through the driver ring, and echoed by the kernel's console task.")
	fmt.Println()
	fmt.Println("  Controls:")
	fmt.Println("    Ctrl+P   Pause/resume executor polling")
	fmt.Println("    Ctrl+R   Clear the console screen")
	fmt.Println("    Ctrl+S   Toggle the stats sidebar")
	fmt.Println("    Esc      Show help")
	fmt.Println("    Ctrl+C   Quit")
	fmt.Println()
	fmt.Println("OPTIONS:")
	fmt.Println("  -d, --debug    Enable debug logging to ~/.kernmon/logs/")
	fmt.Println("  -h, --help     Show this help message")
	fmt.Println("  -v, --version  Show version information")
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("  kernmon")
	fmt.Println("  kernmon --debug")
	fmt.Println()
	fmt.Println("For non-interactive operations, use the 'kernctl' command instead.")
}
