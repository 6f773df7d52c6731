package cli

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"vroot/internal/jobs"
)

func newCpCmd(a *app, stdout io.Writer) *cobra.Command {
	var move bool
	cmd := &cobra.Command{
		Use:   "cp <src>... <dest-dir>",
		Short: "Copy or move files between locations",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m := jobs.NewManager(a.mux)
			defer m.Close()

			srcs, dest := args[:len(args)-1], args[len(args)-1]
			var j *jobs.Job
			if move {
				j = m.EnqueueMove(srcs, dest)
			} else {
				j = m.EnqueueCopy(srcs, dest)
			}
			snap, err := j.Wait(ctxOf(cmd))
			if err != nil {
				j.Cancel()
				return err
			}
			switch snap.Status {
			case jobs.StatusCompleted:
				fmt.Fprintf(stdout, "%s %d item(s), %s\n", snap.Type, snap.DoneItems, humanize.IBytes(uint64(snap.BytesCopied)))
				return nil
			case jobs.StatusFailed:
				for _, f := range snap.Failures {
					log.Errorw("transfer failed", "source", f.TopSource, "path", f.Path, "err", f.Error)
				}
				return fmt.Errorf("%s failed after %d of %d item(s): %s", snap.Type, snap.DoneItems, snap.TotalItems, snap.Error)
			default:
				return fmt.Errorf("%s %s", snap.Type, snap.Status)
			}
		},
	}
	cmd.Flags().BoolVarP(&move, "move", "m", false, "Remove sources after copying; renames when staying in one location")
	return cmd
}
