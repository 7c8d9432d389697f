package main

import (
	"bufio"
	"context"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"voice-assistant/internal/assistant"
	"voice-assistant/internal/dispatch"
)

// consoleUser is the conversation id of the local console.
const consoleUser int64 = 0

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Talk to the assistant in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cfg, logger)
		if err != nil {
			return err
		}
		defer a.close()

		colored := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
		c := newConsole(a.pool, os.Stdin, os.Stdout, colored)

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error { return a.runScheduler(ctx) })
		g.Go(func() error { return a.serveMetrics(ctx) })
		g.Go(func() error {
			defer cancel()
			return c.run(ctx)
		})
		return g.Wait()
	},
}

type console struct {
	pool *assistant.Pool
	in   io.Reader
	out  io.Writer

	mu    sync.Mutex
	you   *color.Color
	reply *color.Color
	alert *color.Color
}

func newConsole(pool *assistant.Pool, in io.Reader, out io.Writer, colored bool) *console {
	c := &console{
		pool:  pool,
		in:    in,
		out:   out,
		you:   color.New(color.FgGreen, color.Bold),
		reply: color.New(color.FgCyan),
		alert: color.New(color.FgYellow, color.Bold),
	}
	if !colored {
		c.you.DisableColor()
		c.reply.DisableColor()
		c.alert.DisableColor()
	}
	return c
}

// run reads one utterance per line until EOF, a Terminate result or ctx
// cancellation.
func (c *console) run(ctx context.Context) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(c.in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- sc.Err()
	}()

	c.say("Ассистент готов. Скажите «помощь» или «стоп».")
	for {
		c.prompt()
		var line string
		select {
		case <-ctx.Done():
			return nil
		case l, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			line = strings.TrimSpace(l)
		}
		if line == "" {
			continue
		}

		res, err := c.pool.Handle(ctx, consoleUser, line, c)
		if err != nil {
			return err
		}
		c.say(res.Text)
		if res.Kind == dispatch.Terminate {
			return nil
		}
	}
}

func (c *console) prompt() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.you.Fprint(c.out, "> ")
}

func (c *console) say(text string) {
	if text == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reply.Fprintln(c.out, text)
}

// Notify prints a reminder between prompts.
func (c *console) Notify(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := c.alert.Fprintln(c.out, "\n🔔 "+text)
	return err
}
