package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to. *App satisfies
// it; tests use a stub.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context)
	Logout(ctx context.Context)
	Add(ctx context.Context, kind string)
	List(ctx context.Context)
	Delete(ctx context.Context)
	Sync(ctx context.Context)
	Status(ctx context.Context)
	Pause(ctx context.Context)
	Resume(ctx context.Context)
}

// runREPL reads lines from the scanner, parses the first token as the
// command and dispatches to a. The loop exits on EOF or on "exit"/"quit".
// Handlers report their own errors; the loop never aborts on one.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		fmt.Printf("dd %s> ", statusFn())
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: expense, income, (l)ist, delete, sync, status, pause, resume, logout, exit")
			} else {
				printlnFn("Available commands: expense, income, (l)ist, delete, status, login, exit")
			}

		case "login":
			a.Login(ctx)

		case "logout":
			a.Logout(ctx)

		case "expense":
			a.Add(ctx, "expense")

		case "income":
			a.Add(ctx, "income")

		case "l", "list":
			a.List(ctx)

		case "delete":
			a.Delete(ctx)

		case "sync":
			a.Sync(ctx)

		case "status":
			a.Status(ctx)

		case "pause":
			a.Pause(ctx)

		case "resume":
			a.Resume(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", parts[0])
		}
	}
}
