// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - Argument parsing for cerechat.
package cli

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdChat
	CmdAsk
	CmdConfig
	CmdVersion
	CmdHelp
)

// String returns the command name as typed on the command line.
func (c Command) String() string {
	switch c {
	case CmdTUI:
		return "tui"
	case CmdChat:
		return "chat"
	case CmdAsk:
		return "ask"
	case CmdConfig:
		return "config"
	case CmdVersion:
		return "version"
	case CmdHelp:
		return "help"
	default:
		return "unknown"
	}
}

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Model      string
	ConfigPath string
	Quiet      bool
	Verbose    bool

	// Command-specific
	Query      string
	Subcommand string
	Raw        bool // ask: print the request body to stderr
	Force      bool // config init: overwrite an existing file
}

const usageText = `cerechat - terminal chat client for OpenAI-compatible completion APIs

Usage:
  cerechat                      Start the TUI (default)
  cerechat tui                  Start the TUI
  cerechat chat                 Interactive line-mode chat
  cerechat ask "question"       Ask a single question
  cerechat config [show|path|init]
                                Show, locate or create the config file
  cerechat version              Show version information
  cerechat help                 Show this help

Global Flags:
  -m, --model NAME      Use a specific model (overrides config)
  -c, --config PATH     Load config from PATH
  -q, --quiet           Minimal output
  -v, --verbose         Verbose output

Ask Flags:
  --raw                 Print the request JSON to stderr before sending

Config Flags:
  --force               init: overwrite an existing config file

Examples:
  cerechat ask "What is a context switch?"
  echo "Summarize this" | cerechat ask
  cerechat --model llama-3.3-70b chat
  cerechat config init

Environment:
  CEREBRAS_API_KEY        API key (the variable is set by provider.credential_env)
  CERECHAT_HOME           Config directory (default ~/.cerechat)
  CERECHAT_ENDPOINT       Override provider.endpoint
  CERECHAT_MODEL          Override provider.model
  CERECHAT_SCHEMA         Override provider.schema
  CERECHAT_LOG_LEVEL      Override log.level
  CERECHAT_MAX_IN_FLIGHT  Override dispatch.max_in_flight
  NO_COLOR                Disable colored output
`

// Parse parses os.Args. Usage errors print to stderr and exit 2.
func Parse() (Command, Args) {
	cmd, args, err := ParseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
		PrintUsage(os.Stderr)
		os.Exit(GetExitCode(err))
	}
	return cmd, args
}

// ParseArgs parses argv without the program name.
func ParseArgs(argv []string) (Command, Args, error) {
	remaining, parsedArgs, err := parseGlobalFlags(argv)
	if err != nil {
		return CmdHelp, parsedArgs, err
	}

	// No command: default to TUI
	if len(remaining) == 0 {
		return CmdTUI, parsedArgs, nil
	}

	cmd := strings.ToLower(remaining[0])
	remaining = remaining[1:]

	switch cmd {
	case "tui":
		return CmdTUI, parsedArgs, expectNoArgs(cmd, remaining)

	case "chat", "repl":
		return CmdChat, parsedArgs, expectNoArgs(cmd, remaining)

	case "ask", "a":
		err := parseAskArgs(&parsedArgs, remaining)
		return CmdAsk, parsedArgs, err

	case "config", "cfg":
		err := parseConfigArgs(&parsedArgs, remaining)
		return CmdConfig, parsedArgs, err

	case "version", "--version":
		return CmdVersion, parsedArgs, nil

	case "help", "--help", "-h":
		return CmdHelp, parsedArgs, nil

	default:
		return CmdHelp, parsedArgs, &UsageError{Msg: fmt.Sprintf("unknown command %q", cmd)}
	}
}

// parseGlobalFlags strips global flags from args wherever they appear
// before a command-specific flag consumes them.
func parseGlobalFlags(args []string) ([]string, Args, error) {
	var remaining []string
	var parsedArgs Args

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch arg {
		case "-q", "--quiet":
			parsedArgs.Quiet = true
		case "-v", "--verbose":
			parsedArgs.Verbose = true
		case "-m", "--model":
			if i+1 >= len(args) {
				return nil, parsedArgs, &UsageError{Msg: arg + " requires a value"}
			}
			i++
			parsedArgs.Model = args[i]
		case "-c", "--config":
			if i+1 >= len(args) {
				return nil, parsedArgs, &UsageError{Msg: arg + " requires a value"}
			}
			i++
			parsedArgs.ConfigPath = args[i]
		case "--":
			// Everything after -- is left to the command
			remaining = append(remaining, args[i:]...)
			return remaining, parsedArgs, nil
		default:
			switch {
			case strings.HasPrefix(arg, "--model="):
				parsedArgs.Model = strings.TrimPrefix(arg, "--model=")
			case strings.HasPrefix(arg, "--config="):
				parsedArgs.ConfigPath = strings.TrimPrefix(arg, "--config=")
			default:
				remaining = append(remaining, arg)
			}
		}
	}

	return remaining, parsedArgs, nil
}

// parseAskArgs parses ask command specific arguments. Words that are not
// flags are joined into the query.
func parseAskArgs(args *Args, remaining []string) error {
	var query []string

	for i, arg := range remaining {
		if arg == "--" {
			query = append(query, remaining[i+1:]...)
			break
		}
		switch arg {
		case "--raw":
			args.Raw = true
		default:
			if strings.HasPrefix(arg, "--") && len(query) == 0 {
				return &UsageError{Msg: fmt.Sprintf("unknown ask flag %q", arg)}
			}
			query = append(query, arg)
		}
	}

	args.Query = strings.Join(query, " ")
	return nil
}

// parseConfigArgs parses the config subcommand and its flags.
func parseConfigArgs(args *Args, remaining []string) error {
	for _, arg := range remaining {
		switch {
		case arg == "--force" || arg == "-f":
			args.Force = true
		case strings.HasPrefix(arg, "-"):
			return &UsageError{Msg: fmt.Sprintf("unknown config flag %q", arg)}
		case args.Subcommand == "":
			args.Subcommand = strings.ToLower(arg)
		default:
			return &UsageError{Msg: fmt.Sprintf("unexpected argument %q", arg)}
		}
	}

	switch args.Subcommand {
	case "", "show", "path", "init":
		return nil
	default:
		return &UsageError{Msg: fmt.Sprintf("unknown config subcommand %q (want show, path or init)", args.Subcommand)}
	}
}

func expectNoArgs(cmd string, remaining []string) error {
	if len(remaining) > 0 {
		return &UsageError{Msg: fmt.Sprintf("%s takes no arguments, got %q", cmd, strings.Join(remaining, " "))}
	}
	return nil
}

// PrintUsage writes the usage text.
func PrintUsage(w io.Writer) {
	fmt.Fprint(w, usageText)
}

// PrintVersion writes version and build information.
func PrintVersion(w io.Writer) {
	fmt.Fprintf(w, "cerechat %s\n", Version)
	fmt.Fprintf(w, "  Commit:  %s\n", GitCommit)
	fmt.Fprintf(w, "  Built:   %s\n", BuildDate)
	fmt.Fprintf(w, "  Go:      %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
