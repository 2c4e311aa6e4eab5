package main

import (
	"fmt"
	"log"
	"os"

	"github.com/ironsheep/glyph-flood-mcp/internal/config"
	"github.com/ironsheep/glyph-flood-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func usage() {
	fmt.Println("glyph-flood-mcp - MCP server for watershed glyph segmentation")
	fmt.Println()
	fmt.Println("Usage: glyph-flood-mcp [options]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version, -v            Print version information")
	fmt.Println("  --help, -h               Print this help message")
	fmt.Println("  --config <path>          Load settings from a YAML file")
	fmt.Println("  --write-config <path>    Write the default settings to a YAML file and exit")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Println("  GLYPH_MCP_LOG_LEVEL=debug    Enable debug logging")
	fmt.Println("  GLYPH_MCP_CONFIG=<path>      Settings file used when --config is absent")
	fmt.Println("  GLYPH_MCP_TESSDATA=<dir>     Tesseract traineddata directory")
	fmt.Println("  GLYPH_MCP_LANGUAGE=<code>    Tesseract language (default eng)")
	fmt.Println()
	fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
	fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
}

func main() {
	configPath := os.Getenv(config.EnvConfigPath)

	args := os.Args[1:]
	for len(args) > 0 {
		switch args[0] {
		case "--version", "-v", "version":
			fmt.Printf("glyph-flood-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			usage()
			return
		case "--config", "--write-config":
			if len(args) < 2 {
				fmt.Fprintf(os.Stderr, "%s requires a path\n", args[0])
				os.Exit(2)
			}
			if args[0] == "--write-config" {
				if err := config.CreateDefaultConfigFile(args[1]); err != nil {
					fmt.Fprintf(os.Stderr, "Failed to write config: %v\n", err)
					os.Exit(1)
				}
				fmt.Printf("Wrote default configuration to %s\n", args[1])
				return
			}
			configPath = args[1]
			args = args[2:]
		default:
			fmt.Fprintf(os.Stderr, "Unknown option: %s\n\n", args[0])
			usage()
			os.Exit(2)
		}
	}

	// Configure logging to stderr (stdout is for MCP protocol)
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	debug := os.Getenv("GLYPH_MCP_LOG_LEVEL") == "debug"
	if debug {
		log.Printf("Glyph Flood MCP Server v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
	}

	cfg := config.DefaultConfig()
	if configPath != "" {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			log.Fatalf("Config error: %v", err)
		}
		cfg = loaded
	}
	cfg.ApplyEnv(os.Getenv)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Config error: %v", err)
	}
	if debug {
		log.Printf("Config: conflict=%s language=%s", cfg.Segmentation.Conflict, cfg.OCR.Language)
	}

	srv := server.New(cfg)
	if err := srv.Run(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
