// Command phonebookctl is a small client for the phonebook API.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"phonebook.org/internal/audit"
	"phonebook.org/internal/ids"
	"phonebook.org/internal/remote"
)

const usage = `usage: phonebookctl [flags] <command> [args]

commands:
  signup <username> <role>     register and print a token (role: Read or ReadWrite)
  login <username>             obtain a fresh token
  logout                       revoke every token of the caller
  add <name> <phone>           add an entry
  list                         list entries
  delete-name <name>           delete the first entry with this name
  delete-number <phone>        delete the first entry with this number
  audit                        print the audit trail
  health                       query the gRPC health service
`

func main() {
	fs := pflag.NewFlagSet("phonebookctl", pflag.ContinueOnError)
	addr := fs.String("addr", envOr("PHONEBOOK_ADDR", "http://localhost:8080"), "API base URL")
	token := fs.String("token", os.Getenv("PHONEBOOK_TOKEN"), "bearer token")
	grpcAddr := fs.String("grpc-addr", envOr("PHONEBOOK_GRPC_TARGET", "localhost:9090"), "gRPC health target")
	timeout := fs.Duration("timeout", 15*time.Second, "request deadline")
	fs.Usage = func() {
		fmt.Fprint(os.Stderr, usage, "\nflags:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	c := newClient(*addr, *token)
	c.grpcTarget = *grpcAddr
	if err := run(ctx, c, fs.Args(), os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "phonebookctl:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, c *client, args []string, in io.Reader, out io.Writer) error {
	if len(args) == 0 {
		return errors.New("missing command, see --help")
	}
	cmd, args := args[0], args[1:]

	var (
		result any
		err    error
	)
	switch cmd {
	case "signup":
		if err := wantArgs(cmd, args, 2); err != nil {
			return err
		}
		pw, err := promptPassword(in, out)
		if err != nil {
			return err
		}
		result, err = c.signup(ctx, args[0], pw, args[1])
		if err != nil {
			return err
		}
	case "login":
		if err := wantArgs(cmd, args, 1); err != nil {
			return err
		}
		pw, err := promptPassword(in, out)
		if err != nil {
			return err
		}
		result, err = c.login(ctx, args[0], pw)
		if err != nil {
			return err
		}
	case "logout":
		err = c.logout(ctx)
		result = map[string]string{"message": "Logged out"}
	case "add":
		if err := wantArgs(cmd, args, 2); err != nil {
			return err
		}
		result, err = c.add(ctx, args[0], args[1])
	case "list":
		result, err = c.list(ctx)
	case "delete-name":
		if err := wantArgs(cmd, args, 1); err != nil {
			return err
		}
		result, err = c.deleteByName(ctx, args[0])
	case "delete-number":
		if err := wantArgs(cmd, args, 1); err != nil {
			return err
		}
		result, err = c.deleteByNumber(ctx, args[0])
	case "audit":
		result, err = c.auditLogs(ctx)
	case "health":
		err = checkHealth(ctx, c.grpcTarget)
		result = map[string]string{"status": "SERVING"}
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func checkHealth(ctx context.Context, target string) error {
	hc, err := remote.Dial(target)
	if err != nil {
		return err
	}
	defer hc.Close()
	return hc.Check(audit.WithRequestID(ctx, ids.NewRequestID()), remote.ServiceName)
}

func wantArgs(cmd string, args []string, n int) error {
	if len(args) != n {
		return fmt.Errorf("%s: expected %d argument(s), got %d", cmd, n, len(args))
	}
	return nil
}

// promptPassword reads without echo when stdin is a terminal and falls back
// to a plain line otherwise.
func promptPassword(in io.Reader, out io.Writer) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(out, "Password: ")
		pw, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return "", err
		}
		return string(pw), nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
