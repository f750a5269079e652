// Package cmd wires up the CLI flags and dispatches to the core modes.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	flag "github.com/spf13/pflag"
	"golang.org/x/term"

	"bhpnet/config"
	"bhpnet/internal/core"
	"bhpnet/util"
)

// version is overridable at link time:
//
//	go build -ldflags "-X bhpnet/cmd.version=2.0.0"
var version = "1.0.0" //nolint:gochecknoglobals

// stdin and stdout are the local streams of connect mode.  Tests
// replace them.
var (
	stdin  io.Reader = os.Stdin  //nolint:gochecknoglobals
	stdout io.Writer = os.Stdout //nolint:gochecknoglobals
)

// Execute parses args and runs the appropriate bhpnet mode.
func Execute(ctx context.Context, args []string) error {
	// ── config file, then environment ────────────────────────────
	cfgPath := prescanConfig(args)
	if cfgPath == "" {
		cfgPath = os.Getenv(config.EnvConfigFile)
	}

	cfg := config.Default()
	if cfgPath != "" {
		if err := config.LoadFile(cfgPath, cfg); err != nil {
			return err
		}
	}
	if err := config.LoadFromEnv(cfg); err != nil {
		return err
	}

	// ── flags override both ──────────────────────────────────────
	fs := flag.NewFlagSet("bhpnet", flag.ContinueOnError)

	// ── endpoint ─────────────────────────────────────────────────
	fs.StringVarP(&cfg.Target, "target", "t", cfg.Target, "Address to connect to, or to bind with -l")
	fs.IntVarP(&cfg.Port, "port", "p", cfg.Port, "TCP port")
	fs.BoolVarP(&cfg.Listen, "listen", "l", cfg.Listen, "Listen mode")

	// ── listen behaviour ─────────────────────────────────────────
	fs.StringVarP(&cfg.Execute, "execute", "e", cfg.Execute, "Run this command for each connection and send its output")
	fs.StringVarP(&cfg.Upload, "upload", "u", cfg.Upload, "Save whatever the peer sends to this file")
	fs.BoolVarP(&cfg.Command, "command", "c", cfg.Command, "Serve an interactive command shell")
	fs.StringVar(&cfg.Encoding, "encoding", cfg.Encoding, "Command output charset: auto, utf-8 or cp932")
	fs.BoolVar(&cfg.Isolate, "isolate", cfg.Isolate, "A shell error drops only its own connection")

	// ── connect ──────────────────────────────────────────────────
	fs.IntVarP(&cfg.Retries, "retries", "r", cfg.Retries, "Retry a failed dial this many times")

	// ── SSH tunnel ───────────────────────────────────────────────
	fs.StringVarP(&cfg.TunnelSpec, "tunnel", "T", cfg.TunnelSpec, "Connect through SSH gateway [user@]host[:port]")
	fs.StringVar(&cfg.SSHKeyPath, "ssh-key", cfg.SSHKeyPath, "SSH private key file")
	fs.BoolVar(&cfg.SSHPassword, "ssh-password", cfg.SSHPassword, "Prompt for SSH password")
	fs.BoolVar(&cfg.UseSSHAgent, "ssh-agent", cfg.UseSSHAgent, "Use SSH agent")
	fs.BoolVar(&cfg.StrictHostKey, "strict-hostkey", cfg.StrictHostKey, "Verify SSH host keys")
	fs.StringVar(&cfg.KnownHostsPath, "known-hosts", cfg.KnownHostsPath, "Custom known_hosts path")

	// ── output ───────────────────────────────────────────────────
	var verbose int
	fs.CountVarP(&verbose, "verbose", "v", "Increase verbosity (repeatable)")

	var showVersion, showHelp, dryRun bool
	fs.String("config", cfgPath, "YAML config file (also "+config.EnvConfigFile+")")
	fs.BoolVar(&dryRun, "dry-run", false, "Validate the configuration, print it and exit")
	fs.BoolVar(&showVersion, "version", false, "Print version and exit")
	fs.BoolVarP(&showHelp, "help", "h", false, "Show this help")

	fs.Usage = func() { printUsage(fs) }

	// ── parse ────────────────────────────────────────────────────
	if err := fs.Parse(args); err != nil {
		return err
	}

	if showHelp || (len(args) == 0 && cfgPath == "" && !config.EnvSet()) {
		printUsage(fs)
		return nil
	}
	// -v stacks on top of the file and environment level.
	if fs.Changed("verbose") {
		cfg.Verbose += verbose
	}
	if showVersion {
		fmt.Fprintf(stdout, "bhpnet %s\n", version)
		return nil
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected argument %q (use --help for usage)", fs.Arg(0))
	}

	// ── validate ─────────────────────────────────────────────────
	if err := cfg.Validate(); err != nil {
		return err
	}

	if dryRun {
		printConfig(stdout, cfg)
		return nil
	}

	// ── build and run ────────────────────────────────────────────
	logger := util.NewLogger(cfg.Verbose)

	var initial []byte
	if !cfg.Listen {
		var err error
		if initial, err = readInitial(stdin); err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
	}

	mode, err := core.Build(cfg, logger, initial)
	if err != nil {
		return err
	}
	if cm, ok := mode.(*core.ConnectMode); ok {
		cm.Stdin = stdin
		cm.Stdout = stdout
	}
	return mode.Run(ctx)
}

// ── helpers ──────────────────────────────────────────────────────────

// prescanConfig finds --config before the real parse so the file can
// sit beneath environment and flags.  Every other flag is skipped.
func prescanConfig(args []string) string {
	fs := flag.NewFlagSet("bhpnet-config", flag.ContinueOnError)
	fs.ParseErrorsWhitelist.UnknownFlags = true
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}

	path := fs.String("config", "", "")
	fs.BoolP("help", "h", false, "")
	fs.BoolP("listen", "l", false, "")
	fs.BoolP("command", "c", false, "")
	fs.CountP("verbose", "v", "")
	for _, name := range []string{"isolate", "ssh-password", "ssh-agent", "strict-hostkey", "dry-run", "version"} {
		fs.Bool(name, false, "")
	}

	_ = fs.Parse(args) // the real parse reports errors
	return *path
}

// readInitial reads r to EOF unless it is an interactive terminal, in
// which case there is nothing to send up front.
func readInitial(r io.Reader) ([]byte, error) {
	if f, ok := r.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return nil, nil
	}
	return io.ReadAll(r)
}

func printConfig(w io.Writer, cfg *config.Config) {
	mode := "connect"
	if cfg.Listen {
		mode = "listen"
	}
	fmt.Fprintf(w, "mode:      %s\n", mode)
	fmt.Fprintf(w, "address:   %s\n", cfg.Address())
	fmt.Fprintf(w, "verbose:   %d\n", cfg.Verbose)
	if cfg.Listen {
		fmt.Fprintf(w, "behaviour: %s\n", cfg.Behavior())
		fmt.Fprintf(w, "encoding:  %s\n", cfg.Encoding)
		if cfg.Behavior() == config.BehaviorShell {
			policy := "fail-fast"
			if cfg.Isolate {
				policy = "isolate"
			}
			fmt.Fprintf(w, "policy:    %s\n", policy)
		}
		return
	}
	fmt.Fprintf(w, "retries:   %d\n", cfg.Retries)
	if cfg.TunnelEnabled {
		fmt.Fprintf(w, "tunnel:    %s@%s\n", cfg.TunnelUser, util.FormatAddr(cfg.TunnelHost, cfg.TunnelPort))
	}
}

func printUsage(fs *flag.FlagSet) {
	fmt.Fprintf(os.Stderr, `BHP Net Tool v%s

A minimal TCP client and server with remote command execution, file
upload and an interactive command shell.

Usage:
  bhpnet [-t host] [-p port]                  Connect
  bhpnet -l [-t host] [-p port] [-e|-u|-c]    Listen

Options:
`, version)
	fs.PrintDefaults()
	fmt.Fprintf(os.Stderr, `
Examples:
  bhpnet -t 192.168.1.108 -p 5555 -l -c                   command shell
  bhpnet -t 192.168.1.108 -p 5555 -l -u=mytest.txt        upload to file
  bhpnet -t 192.168.1.108 -p 5555 -l -e="cat /etc/passwd" execute command
  echo 'ABC' | bhpnet -t 192.168.1.108 -p 135             echo text to server port 135
  bhpnet -t 192.168.1.108 -p 5555                         connect to server
  bhpnet -T admin@bastion -t 10.0.0.7 -p 5555             connect through SSH

Environment:
  BHPNET_TARGET, BHPNET_PORT, BHPNET_LISTEN, ... mirror the flags;
  %s names a YAML config file.  Flags win over the environment,
  which wins over the file.
`, config.EnvConfigFile)
}
