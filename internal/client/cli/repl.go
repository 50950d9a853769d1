package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// usageError reports a malformed command line.
type usageError string

func (u usageError) Error() string { return "usage: " + string(u) }

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Status(ctx context.Context) error
	Profile(ctx context.Context) error
	Search(ctx context.Context) error
	Results(ctx context.Context) error
	Save(ctx context.Context, args []string) error
	Contacts(ctx context.Context, args []string) error
	Remove(ctx context.Context, args []string) error
	History(ctx context.Context) error
	Enrich(ctx context.Context, args []string) error
	Credits(ctx context.Context) error
	Packages(ctx context.Context) error
	Buy(ctx context.Context, args []string) error
	Plans(ctx context.Context) error
	Plan(ctx context.Context, args []string) error
	Transactions(ctx context.Context) error
	Export(ctx context.Context, args []string) error
	Dashboard(ctx context.Context) error
}

const (
	helpLoggedOut = "Available commands: register, login, plans, packages, exit"
	helpLoggedIn  = "Available commands: status, profile, search, results, save <n>, contacts [filter], remove <id>, " +
		"history, enrich <email>, credits, packages, buy <package>, plans, plan <id>, transactions, " +
		"export leads|contacts [s3], dashboard, logout, exit"
)

// runREPL starts a simple read-eval-print loop for the LeadKeeper CLI.
//
// It reads a line from the provided reader, parses the first token as the
// command, and dispatches to methods on 'a' with the remaining tokens as
// arguments. Unknown commands are reported back to the user. The loop exits
// on EOF, when ctx is done, or when the user types "exit" or "quit".
// Commands that prompt for more input read from the same reader.
//
// A failing command prints a single "error: ..." line; usage errors print
// the expected syntax instead. The loop itself never stops on a command error.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("lk%s> ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := strings.ToLower(parts[0]), parts[1:]

		err = nil
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(helpLoggedIn)
			} else {
				printlnFn(helpLoggedOut)
			}

		case "register":
			err = a.Register(ctx)
		case "login":
			err = a.Login(ctx)
		case "logout":
			err = a.Logout(ctx)
		case "status":
			err = a.Status(ctx)

		case "search":
			err = a.Search(ctx)
		case "results":
			err = a.Results(ctx)
		case "save":
			err = a.Save(ctx, args)
		case "contacts":
			err = a.Contacts(ctx, args)
		case "remove":
			err = a.Remove(ctx, args)
		case "history":
			err = a.History(ctx)
		case "enrich":
			err = a.Enrich(ctx, args)

		case "credits":
			err = a.Credits(ctx)
		case "packages":
			err = a.Packages(ctx)
		case "buy":
			err = a.Buy(ctx, args)
		case "plans":
			err = a.Plans(ctx)
		case "plan":
			err = a.Plan(ctx, args)
		case "transactions":
			err = a.Transactions(ctx)

		case "export":
			err = a.Export(ctx, args)
		case "dashboard":
			err = a.Dashboard(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			var u usageError
			if errors.As(err, &u) {
				printlnFn("Usage:", string(u))
				continue
			}
			printlnFn("error:", err)
		}
	}
}
