package cmd

import (
	"bytes"
	"context"
	"io"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"testing"
	"time"

	"bhpnet/config"
	"bhpnet/util"
)

// capture swaps the package streams for the duration of the test.
func capture(t *testing.T, in string) *bytes.Buffer {
	t.Helper()
	out := &bytes.Buffer{}
	origIn, origOut := stdin, stdout
	stdin, stdout = strings.NewReader(in), out
	t.Cleanup(func() { stdin, stdout = origIn, origOut })
	return out
}

// clearEnv blanks every BHPNET_ variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		if key, _, _ := strings.Cut(kv, "="); strings.HasPrefix(key, config.EnvPrefix) {
			t.Setenv(key, "")
		}
	}
}

// dialRetry connects to addr while the server comes up.
func dialRetry(t *testing.T, addr string) net.Conn {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		conn, err := net.Dial("tcp", addr)
		if err == nil {
			return conn
		}
		if time.Now().After(deadline) {
			t.Fatalf("dial: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// TestExecute_Version verifies --version prints a version string.
func TestExecute_Version(t *testing.T) {
	out := capture(t, "")
	if err := Execute(context.Background(), []string{"--version"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(out.String(), "bhpnet ") {
		t.Errorf("output = %q", out.String())
	}
}

// TestExecute_Help verifies --help (and no args) returns without error.
func TestExecute_Help(t *testing.T) {
	clearEnv(t)
	for _, args := range [][]string{{"--help"}, {"-h"}, {}} {
		name := "no-args"
		if len(args) > 0 {
			name = args[0]
		}
		t.Run(name, func(t *testing.T) {
			if err := Execute(context.Background(), args); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

// TestExecute_DryRun verifies --dry-run validates and exits cleanly.
func TestExecute_DryRun(t *testing.T) {
	out := capture(t, "")
	err := Execute(context.Background(), []string{
		"-t", "0.0.0.0", "-p", "9999", "-l", "-c", "--isolate", "--dry-run",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"listen", "0.0.0.0:9999", "shell", "isolate"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output %q should contain %q", out.String(), want)
		}
	}
}

// TestExecute_DryRunShortEquals verifies the -u=PATH form.
func TestExecute_DryRunShortEquals(t *testing.T) {
	out := capture(t, "")
	err := Execute(context.Background(), []string{"-l", "-u=mytest.txt", "--dry-run"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.String(), "upload") {
		t.Errorf("output = %q", out.String())
	}
}

// TestExecute_DryRunInvalid verifies --dry-run still catches bad configs.
func TestExecute_DryRunInvalid(t *testing.T) {
	capture(t, "")
	err := Execute(context.Background(), []string{"-c", "--dry-run"}) // shell without -l
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "hint:") {
		t.Errorf("error should carry a hint: %v", err)
	}
}

// TestExecute_InvalidFlags verifies unknown flags produce an error.
func TestExecute_InvalidFlags(t *testing.T) {
	err := Execute(context.Background(), []string{"--nonexistent-flag"})
	if err == nil {
		t.Fatal("expected error for unknown flag")
	}
}

// TestExecute_ConflictingFlags verifies -e and -c conflict is caught.
func TestExecute_ConflictingFlags(t *testing.T) {
	err := Execute(context.Background(), []string{
		"-l", "-e", "cat /etc/passwd", "-c", "--dry-run",
	})
	if err == nil {
		t.Fatal("expected error for -e and -c conflict")
	}
	if !strings.Contains(err.Error(), "mutually exclusive") {
		t.Errorf("error should mention mutually exclusive: %v", err)
	}
}

// TestExecute_Positional verifies stray arguments are rejected.
func TestExecute_Positional(t *testing.T) {
	err := Execute(context.Background(), []string{"example.com", "80"})
	if err == nil || !strings.Contains(err.Error(), "unexpected argument") {
		t.Fatalf("got %v", err)
	}
}

// TestExecute_Precedence verifies flags > env > file > defaults.
func TestExecute_Precedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bhpnet.yaml")
	body := "target: 10.0.0.1\nport: 1111\nretries: 7\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("BHPNET_PORT", "2222")
	t.Setenv("BHPNET_TARGET", "10.0.0.2")

	out := capture(t, "")
	err := Execute(context.Background(), []string{
		"--config", path, "-t", "10.0.0.3", "--dry-run",
	})
	if err != nil {
		t.Fatal(err)
	}

	got := out.String()
	if !strings.Contains(got, "10.0.0.3:2222") {
		t.Errorf("flag target and env port should win: %q", got)
	}
	if !strings.Contains(got, "retries:   7") {
		t.Errorf("file retries should survive: %q", got)
	}
}

// TestExecute_ConfigFromEnv verifies BHPNET_CONFIG names the file.
func TestExecute_ConfigFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bhpnet.yaml")
	if err := os.WriteFile(path, []byte("listen: true\nexecute: uptime\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("BHPNET_CONFIG", path)

	out := capture(t, "")
	if err := Execute(context.Background(), []string{"--dry-run"}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "execute") {
		t.Errorf("output = %q", out.String())
	}
}

// TestExecute_BadConfigFile verifies a broken file is reported.
func TestExecute_BadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bhpnet.yaml")
	if err := os.WriteFile(path, []byte("bogus_key: 1\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := Execute(context.Background(), []string{"--config=" + path}); err == nil {
		t.Fatal("expected error")
	}
}

// TestExecute_Connect runs connect mode end to end with piped stdin.
func TestExecute_Connect(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	received := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		buf := make([]byte, 64)
		n, _ := conn.Read(buf)
		received <- string(buf[:n])
		conn.Write([]byte("got it")) //nolint:errcheck
	}()

	port := ln.Addr().(*net.TCPAddr).Port
	out := capture(t, "ABC\n")

	err = Execute(context.Background(), []string{"-t", "127.0.0.1", "-p", strconv.Itoa(port)})
	if err != nil {
		t.Fatal(err)
	}
	if got := <-received; got != "ABC\n" {
		t.Errorf("peer received %q", got)
	}
	if !strings.HasPrefix(out.String(), "got it\n> ") {
		t.Errorf("stdout = %q", out.String())
	}
}

// TestExecute_Listen runs an execute server until cancelled.
func TestExecute_Listen(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX echo")
	}
	port, err := util.FindFreePort()
	if err != nil {
		t.Fatal(err)
	}
	capture(t, "")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- Execute(ctx, []string{"-l", "-p", strconv.Itoa(port), "-e", "echo hi"})
	}()

	conn := dialRetry(t, util.FormatAddr("127.0.0.1", port))
	got, _ := io.ReadAll(conn)
	conn.Close()
	if string(got) != "hi\n" {
		t.Errorf("got %q, want %q", got, "hi\n")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Execute: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}

// TestExecute_VerbosityFromEnvAndFile verifies file and environment
// verbosity survive the flag parse, and -v adds to them.
func TestExecute_VerbosityFromEnvAndFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "bhpnet.yaml")
	if err := os.WriteFile(path, []byte("verbose: 3\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		env  string
		args []string
		want string
	}{
		{"file", "", []string{"--config", path, "--dry-run"}, "verbose:   3"},
		{"env over file", "2", []string{"--config", path, "--dry-run"}, "verbose:   2"},
		{"env", "1", []string{"--dry-run"}, "verbose:   1"},
		{"flags add", "1", []string{"-vv", "--dry-run"}, "verbose:   3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("BHPNET_VERBOSE", tt.env)
			out := capture(t, "")
			if err := Execute(context.Background(), tt.args); err != nil {
				t.Fatal(err)
			}
			if !strings.Contains(out.String(), tt.want) {
				t.Errorf("output %q should contain %q", out.String(), tt.want)
			}
		})
	}
}

// TestExecute_ListenFromEnv runs a server configured only through the
// environment, with no arguments at all.
func TestExecute_ListenFromEnv(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX echo")
	}
	clearEnv(t)
	port, err := util.FindFreePort()
	if err != nil {
		t.Fatal(err)
	}
	t.Setenv("BHPNET_LISTEN", "1")
	t.Setenv("BHPNET_PORT", strconv.Itoa(port))
	t.Setenv("BHPNET_EXECUTE", "echo hi")
	capture(t, "")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- Execute(ctx, nil) }()

	conn := dialRetry(t, util.FormatAddr("127.0.0.1", port))
	got, _ := io.ReadAll(conn)
	conn.Close()
	if string(got) != "hi\n" {
		t.Errorf("got %q, want %q", got, "hi\n")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Execute: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}
