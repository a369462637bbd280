package main

import (
	"fmt"
	"os"
	"strings"
)

// Version is set at build time via ldflags
var Version = "dev"

const (
	daemonAddr = "http://127.0.0.1:7433"
	pidFile    = "whetstoned.pid"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "init":
		err = cmdInit()
	case "start":
		err = cmdStart()
	case "stop":
		err = cmdStop()
	case "status":
		err = cmdStatus()
	case "logs":
		err = cmdLogs()
	case "doctor":
		err = cmdDoctor()
	case "config":
		err = cmdConfig()
	case "provider":
		err = cmdProvider(os.Args[2:])
	case "problem":
		err = cmdProblem(os.Args[2:])
	case "history":
		err = cmdHistory(os.Args[2:])
	case "streak":
		err = cmdStreak(os.Args[2:])
	case "heatmap":
		err = cmdHeatmap(os.Args[2:])
	case "achievements":
		err = cmdAchievements()
	case "title":
		err = cmdTitle(os.Args[2:])
	case "stats":
		err = cmdStats()
	case "mcp":
		err = cmdMCP()
	case "help", "-h", "--help":
		printUsage()
	case "version", "-v", "--version":
		fmt.Printf("whetstone %s\n", Version)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Whetstone - Code Review Training

Usage:
  whetstone <command> [arguments]

Setup Commands:
  init            Initialize Whetstone (first-time setup)
  doctor          Check system requirements
  config          Show current configuration
  provider        Manage LLM providers

Daemon Commands:
  start           Start the Whetstone daemon
  stop            Stop the Whetstone daemon
  status          Show daemon status
  logs            View daemon logs

Training Commands:
  problem         Generate a problem and review it interactively
  history         List past review sessions
  streak          Show the practice streak
  heatmap         Show recent daily activity

Progress Commands:
  stats           Show aggregate statistics
  achievements    List badges and titles
  title           Select a display title

Integration Commands:
  mcp             Start MCP server (for editor agents)

Other:
  help            Show this help message
  version         Show version information

Examples:
  whetstone start                   # Start daemon
  whetstone provider set-key claude # Configure Claude API key
  whetstone problem -lang Go -level 5
  whetstone streak                  # Show current streak
  whetstone mcp                     # Start MCP server`)
}

// renderProgressBar creates a visual progress bar
func renderProgressBar(value float64, width int) string {
	filled := int(value * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	empty := width - filled

	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", empty) + "]"
}
