package cli

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"vroot/internal/location"
	"vroot/internal/watcher"
)

func newWatchCmd(a *app, stdout io.Writer) *cobra.Command {
	var metricsAddr string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print storage locations as they appear and disappear",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(ctxOf(cmd), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if metricsAddr != "" {
				srv := &http.Server{
					Addr:              metricsAddr,
					Handler:           promhttp.HandlerFor(a.metrics, promhttp.HandlerOpts{}),
					ReadHeaderTimeout: 5 * time.Second,
				}
				go func() {
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						log.Errorf("metrics server: %v", err)
					}
				}()
				defer srv.Close()
				log.Infof("serving metrics on %s", metricsAddr)
			}

			var mu sync.Mutex
			emit := func(c *watcher.Changes) {
				mu.Lock()
				defer mu.Unlock()
				printChanges(stdout, c)
			}

			opts := location.Options{IncludeHidden: getGlobalOptions(cmd).ShowHidden || a.cfg.Locations.ShowHidden}
			w := watcher.New(a.reg, func(c *watcher.Changes) {
				a.mux.Refresh(ctx)
				emit(c)
			},
				watcher.WithInterval(time.Duration(a.cfg.Watcher.IntervalSeconds)*time.Second),
				watcher.WithRoots(a.cfg.Watcher.Roots...),
				watcher.WithListOptions(opts),
			)
			emit(&watcher.Changes{Added: a.reg.List(ctx, opts).Entries()})
			w.Start(ctx)
			defer w.Stop()
			for _, err := range w.RootErrors() {
				log.Warn(err)
			}

			<-ctx.Done()
			return nil
		},
	}
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9100")
	return cmd
}

func printChanges(w io.Writer, c *watcher.Changes) {
	for _, e := range c.Added {
		fmt.Fprintf(w, "+ %s\t%s\n", e.ID, e.Label)
	}
	for _, e := range c.Modified {
		fmt.Fprintf(w, "~ %s\t%s\n", e.ID, e.Label)
	}
	for _, e := range c.Removed {
		fmt.Fprintf(w, "- %s\t%s\n", e.ID, e.Label)
	}
}
