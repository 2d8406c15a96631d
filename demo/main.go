package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"

	"videolens/client"
	"videolens/config"
	"videolens/demo/tui"
	"videolens/orchestrator"
	"videolens/types"
)

func main() {
	// Load environment
	_ = godotenv.Load()

	defaultURL := os.Getenv("BACKEND_URL")
	if defaultURL == "" {
		defaultURL = "http://localhost:8080"
	}

	// Parse command-line flags
	backendURL := flag.String("url", defaultURL, "Backend relay URL")
	videoPath := flag.String("video", "", "Local video file to analyze")
	s3URI := flag.String("s3", "", "s3://bucket/key video to analyze (instead of -video)")
	prompt := flag.String("prompt", config.DefaultProfessionalPrompt, "Prompt for professional mode")
	logFile := flag.String("log", "", "Optional log file (logging is off while the TUI owns the terminal)")
	flag.Parse()

	if (*videoPath == "") == (*s3URI == "") {
		fmt.Fprintln(os.Stderr, "exactly one of -video or -s3 is required")
		os.Exit(1)
	}

	// The TUI owns the terminal, so logs go to a file or nowhere.
	logWriter := io.Discard
	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "open log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		logWriter = f
	}
	logger := slog.New(tint.NewHandler(logWriter, &tint.Options{
		Level:      slog.LevelDebug,
		TimeFormat: time.Kitchen,
		NoColor:    true,
	}))

	source := types.VideoSource{Path: *videoPath, S3URI: *s3URI}
	orch := orchestrator.New(client.New(*backendURL), logger)

	m := tui.NewModel(orch, source, config.DefaultBasicPrompts[:], *prompt)
	program := tea.NewProgram(m)

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		program.Quit()
	}()

	if _, err := program.Run(); err != nil {
		fmt.Printf("Error running program: %v\n", err)
		os.Exit(1)
	}
}
