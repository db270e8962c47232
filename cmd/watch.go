package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dmelero/compra/internal/apiclient"
	"github.com/dmelero/compra/internal/cache"
	"github.com/dmelero/compra/internal/notify"
	"github.com/dmelero/compra/internal/ops"
	"github.com/dmelero/compra/internal/output"
	"github.com/dmelero/compra/internal/reconcile"
	"github.com/dmelero/compra/internal/snapshot"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the list and report other people's changes",
	Long: `Watch polls the server and prints what changed whenever someone else
edits the sheet. While watching, a few commands are read from stdin:

  buy <row>      mark a row as bought
  pend <row>     mark a row as pending
  refresh        poll now
  quit           exit`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, cfg, err := newClient(cmd)
		if err != nil {
			return err
		}
		store, err := openCache()
		if err != nil {
			return err
		}
		defer store.Close()

		user, err := requireUser(store)
		if err != nil {
			return err
		}

		notifiers := notify.Fanout{notify.NewTerminal(os.Stdout)}
		if cfg.TelegramToken != "" && cfg.TelegramChatID != 0 {
			tg, err := notify.NewTelegram(cfg.TelegramToken, cfg.TelegramChatID, nil)
			if err != nil {
				output.Warning("telegram notifier disabled: %v", err)
			} else {
				notifiers = append(notifiers, tg)
			}
		}

		acking := &ackingNotifier{inner: notifiers}
		engine := reconcile.New(client,
			reconcile.WithInterval(cfg.PollInterval),
			reconcile.WithNotifier(acking),
			// Persist every baseline advance, local adoptions included, so a
			// restarted watcher never re-reports this session's own writes.
			reconcile.WithBaselineSink(func(snap snapshot.Snapshot, hash string) {
				if err := store.SaveSnapshot(snap, hash); err != nil {
					output.Warning("persist snapshot: %v", err)
				}
			}),
		)
		acking.engine = engine

		w := &watcher{engine: engine, store: store, client: client, user: user}
		return w.run(cmd.Context())
	},
}

// ackingNotifier prints the change, then acknowledges it. In watch mode
// printing is the acknowledgement; persistence rides on the baseline sink.
type ackingNotifier struct {
	inner  reconcile.Notifier
	engine *reconcile.Engine
}

func (a *ackingNotifier) ExternalChange(change reconcile.Staged) {
	a.inner.ExternalChange(change)
	if a.engine != nil {
		a.engine.Ack()
	}
}

type watcher struct {
	engine *reconcile.Engine
	store  *cache.Cache
	client *apiclient.Client
	user   string
}

func (w *watcher) run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start from the persisted baseline when there is one, so changes made
	// while the watcher was down are reported on the first poll.
	if snap, hash, ok, err := w.store.LoadSnapshot(); err != nil {
		output.Warning("read cached snapshot: %v", err)
	} else if ok {
		w.engine.SetBaseline(snap, hash)
	}
	if _, baselineHash := w.engine.Baseline(); baselineHash == "" {
		if err := w.engine.Prime(ctx); err != nil {
			output.Error("fetch initial snapshot: %v", err)
			return err
		}
	}
	output.Info("Watching for changes. Type 'help' for commands.")

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return w.engine.Run(ctx) })
	g.Go(func() error { return w.readCommands(ctx) })
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (w *watcher) readCommands(ctx context.Context) error {
	scanner := bufio.NewScanner(os.Stdin)
	lines := make(chan string)
	go func() {
		defer close(lines)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				// stdin closed; keep watching
				<-ctx.Done()
				return ctx.Err()
			}
			if quit := w.handle(ctx, strings.Fields(strings.TrimSpace(line))); quit {
				return context.Canceled
			}
		}
	}
}

func (w *watcher) handle(ctx context.Context, fields []string) (quit bool) {
	if len(fields) == 0 {
		return false
	}
	switch fields[0] {
	case "quit", "exit", "q":
		return true
	case "refresh", "r":
		w.engine.Refresh()
	case "buy", "pend":
		if len(fields) != 2 {
			output.Error("usage: %s <row>", fields[0])
			return false
		}
		row, err := strconv.Atoi(fields[1])
		if err != nil {
			output.Error("row must be a number: %q", fields[1])
			return false
		}
		status := ops.StatusBought
		if fields[0] == "pend" {
			status = ops.StatusPending
		}
		// Register before writing so the poll that sees our own edit
		// adopts it silently instead of reporting it back to us.
		w.engine.RegisterWrite()
		resp, err := w.client.UpdateStatus(ctx, row, status, w.user)
		if err != nil {
			output.Error("%v", err)
			return false
		}
		output.Success("%s", resp.Message)
		w.engine.Refresh()
	case "help", "h":
		fmt.Println("commands: buy <row> · pend <row> · refresh · quit")
	default:
		output.Error("unknown command %q (try 'help')", fields[0])
	}
	return false
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
