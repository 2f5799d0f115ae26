package terminal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Zhima-Mochi/minishop-pos/internal/application/checkout"
	"github.com/Zhima-Mochi/minishop-pos/internal/application/inventory"
	"github.com/Zhima-Mochi/minishop-pos/internal/application/returns"
	"github.com/Zhima-Mochi/minishop-pos/internal/observability"
)

const componentTerminal = "terminal"

// Deps are the use cases the screens drive.
type Deps struct {
	Checkout *checkout.Service
	Returns  *returns.Service
	Lookup   *inventory.Lookup
	Tel      observability.Observability
}

// Terminal runs the operator menu over a line-oriented reader and writer.
type Terminal struct {
	checkout *checkout.Service
	returns  *returns.Service
	lookup   *inventory.Lookup

	in  *bufio.Scanner
	out io.Writer

	screens *screens
	log     observability.Logger
}

func New(deps Deps, in io.Reader, out io.Writer) *Terminal {
	tel := deps.Tel
	if tel == nil {
		tel = observability.Nop()
	}
	log := tel.Logger().With(observability.F("component", componentTerminal))
	return &Terminal{
		checkout: deps.Checkout,
		returns:  deps.Returns,
		lookup:   deps.Lookup,
		in:       bufio.NewScanner(in),
		out:      out,
		screens:  newScreens(tel, log),
		log:      log,
	}
}

// Run shows the main menu until the operator exits or input ends.
func (t *Terminal) Run(ctx context.Context) error {
	t.log.Info("terminal_started", observability.F("session_id", t.screens.sessionID))
	defer t.log.Info("terminal_stopped", observability.F("session_id", t.screens.sessionID))

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		t.mainMenu()
		choice, err := t.ask("Please select an option (1-4): ")
		if err != nil {
			if errors.Is(err, io.EOF) {
				t.println("\nThank you for using POS System. Goodbye!")
				return nil
			}
			return err
		}

		switch choice {
		case "1":
			err = t.screens.run(ctx, "checkout", t.checkoutScreen)
		case "2":
			err = t.screens.run(ctx, "return", t.returnScreen)
		case "3":
			err = t.screens.run(ctx, "inventory", t.inventoryScreen)
		case "4":
			t.println("\nThank you for using POS System. Goodbye!")
			return nil
		default:
			t.println("\nInvalid selection, please try again")
			continue
		}

		switch {
		case err == nil:
		case errors.Is(err, io.EOF):
			t.println("\n\nOperation cancelled")
			return nil
		case errors.Is(err, context.Canceled):
			t.println("\n\nOperation cancelled")
			return err
		default:
			t.printf("\nError occurred: %v\n", err)
		}
	}
}

func (t *Terminal) mainMenu() {
	t.header("POS System - Point of Sale", 60)
	t.println("1. Checkout")
	t.println("2. Return")
	t.println("3. View Inventory")
	t.println("4. Exit")
	t.println(rule("=", 60))
}

// ask writes the prompt and returns the next trimmed line. io.EOF is
// returned once input is exhausted.
func (t *Terminal) ask(prompt string) (string, error) {
	fmt.Fprint(t.out, prompt)
	if !t.in.Scan() {
		if err := t.in.Err(); err != nil {
			return "", fmt.Errorf("terminal: read input: %w", err)
		}
		return "", io.EOF
	}
	return strings.TrimSpace(t.in.Text()), nil
}

func (t *Terminal) println(a ...any) { fmt.Fprintln(t.out, a...) }

func (t *Terminal) printf(format string, a ...any) { fmt.Fprintf(t.out, format, a...) }

func (t *Terminal) header(title string, width int) {
	t.println("\n" + rule("=", width))
	t.println(title)
	t.println(rule("=", width))
}

func rule(ch string, width int) string { return strings.Repeat(ch, width) }
