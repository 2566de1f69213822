package main

import (
	"context"
	_ "embed"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/shiget/resheet/internal/extraction"
	"github.com/shiget/resheet/internal/receipt"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	fs := ff.NewFlagSet("resheet")
	var (
		inputPath    = fs.StringLong("file", "", "OCR text file to parse (default: stdin)")
		outPath      = fs.StringLong("out", "", "Write the TSV to this file as well as stdout")
		copyToClip   = fs.BoolLong("copy", "Copy the TSV to the clipboard")
		layoutName   = fs.StringLong("layout", "offset", "TSV detail-row layout: 'offset' or 'flat'")
		backendType  = fs.StringLong("backend", "gemini", "Generation backend: 'gemini' or 'ollama'")
		geminiKey    = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel  = fs.StringLong("gemini-model", extraction.DefaultGeminiModel, "Google Gemini model name")
		ollamaURL    = fs.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel  = fs.StringLong("ollama-model", extraction.DefaultOllamaModel, "Ollama model name")
		noStructured = fs.BoolLong("no-structured-output", "Do not ask the backend for JSON-constrained output")
		timeoutSec   = fs.IntLong("timeout", 60, "Backend call timeout in seconds")
		verbose      = fs.BoolLong("verbose", "Log extraction progress to stderr")
		showVersion  = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("RESHEET"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Check version flag after parsing
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	if !*verbose {
		slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
	}

	layout, err := receipt.ParseLayout(*layoutName)
	if err != nil {
		fail(err)
	}

	ocrText, err := readInput(*inputPath)
	if err != nil {
		fail(err)
	}

	cfg := extraction.Config{
		Temperature:      0,
		StructuredOutput: !*noStructured,
	}
	var backend extraction.Backend
	switch *backendType {
	case "gemini":
		apiKey := *geminiKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		cfg.Model = *geminiModel
		backend, err = extraction.NewGemini(context.Background(), apiKey, cfg)
	case "ollama":
		cfg.Model = *ollamaModel
		backend, err = extraction.NewOllama(*ollamaURL, cfg)
	default:
		err = fmt.Errorf("invalid backend type %q (want gemini or ollama)", *backendType)
	}
	if err != nil {
		fail(err)
	}

	extractor := extraction.New(backend)
	defer extractor.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(*timeoutSec)*time.Second)
	defer cancel()

	tsv, err := receipt.ExtractAndSerialize(ctx, extractor, ocrText, layout)
	if err != nil {
		fail(err)
	}

	fmt.Print(tsv)

	if *outPath != "" {
		if err := os.WriteFile(*outPath, []byte(tsv), 0644); err != nil {
			fail(fmt.Errorf("writing output file: %w", err))
		}
	}
	if *copyToClip {
		if err := clipboard.WriteAll(tsv); err != nil {
			fail(fmt.Errorf("copying to clipboard: %w", err))
		}
	}
}

func readInput(path string) (string, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("reading input file: %w", err)
		}
		return string(data), nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return string(data), nil
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
