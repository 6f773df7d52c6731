package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"vroot/internal/constants"
	apperrors "vroot/internal/errors"
	"vroot/internal/location"
)

func newLsCmd(a *app, stdout io.Writer) *cobra.Command {
	var long bool
	cmd := &cobra.Command{
		Use:   "ls [path]",
		Short: "List a directory; the root lists storage locations",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := constants.RootPath
			if len(args) == 1 {
				p = args[0]
			}
			d, err := a.mux.OpenDir(ctxOf(cmd), p)
			if err != nil {
				return err
			}
			defer d.Close()

			tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
			for {
				fi, err := d.ReadNext()
				if err == io.EOF {
					break
				}
				if err != nil {
					return err
				}
				if !long {
					fmt.Fprintln(tw, fi.Name())
					continue
				}
				if e, ok := fi.Sys().(location.Entry); ok {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", fi.Mode(), size(e.Capacity), fi.Name(), e.Label)
					continue
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", fi.Mode(), humanize.IBytes(uint64(fi.Size())), fi.ModTime().Format(time.DateTime), fi.Name())
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVarP(&long, "long", "l", false, "Long listing")
	return cmd
}

func newStatCmd(a *app, stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "stat <path>",
		Short: "Show file metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fi, err := a.mux.Stat(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(stdout, "Name: %s\nSize: %d (%s)\nMode: %s\nModified: %s\nDirectory: %v\n",
				fi.Name(), fi.Size(), humanize.IBytes(uint64(fi.Size())), fi.Mode(), fi.ModTime().Format(time.RFC3339), fi.IsDir())
			return nil
		},
	}
}

func newCatCmd(a *app, stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "cat <path>...",
		Short: "Print file contents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, p := range args {
				if err := copyOut(a.mux, p, stdout); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func copyOut(fs afero.Fs, p string, w io.Writer) error {
	f, err := fs.Open(p)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(w, f)
	return err
}

func newDfCmd(a *app, stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "df [path]...",
		Short: "Report space on storage locations",
		RunE: func(cmd *cobra.Command, args []string) error {
			paths := args
			if len(paths) == 0 {
				snap := a.reg.List(ctxOf(cmd), location.Options{IncludeHidden: getGlobalOptions(cmd).ShowHidden})
				paths = snap.IDs()
			}
			tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "LOCATION\tSIZE\tUSED\tAVAIL")
			for _, p := range paths {
				sp, err := a.mux.Space(p)
				if errors.Is(err, errors.ErrUnsupported) {
					fmt.Fprintf(tw, "%s\t-\t-\t-\n", p)
					continue
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p, humanize.IBytes(sp.Total), humanize.IBytes(sp.Total-sp.Free), humanize.IBytes(sp.Available))
			}
			return tw.Flush()
		},
	}
}

func newMkdirCmd(a *app) *cobra.Command {
	var parents bool
	cmd := &cobra.Command{
		Use:   "mkdir <path>...",
		Short: "Create directories",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, p := range args {
				var err error
				if parents {
					err = a.mux.MkdirAll(p, 0o755)
				} else {
					err = a.mux.Mkdir(p, 0o755)
				}
				if err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&parents, "parents", "p", false, "Create parent directories as needed")
	return cmd
}

func newRmCmd(a *app) *cobra.Command {
	var recursive bool
	cmd := &cobra.Command{
		Use:   "rm <path>...",
		Short: "Remove files or directories",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, p := range args {
				var err error
				if recursive {
					err = a.mux.RemoveAll(p)
				} else {
					err = a.mux.Remove(p)
				}
				if err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Remove directories and their contents")
	return cmd
}

func newMvCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mv <from> <to>",
		Short: "Rename a file within one location",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.mux.Rename(args[0], args[1])
		},
	}
}

func newTruncateCmd(a *app) *cobra.Command {
	var sz string
	cmd := &cobra.Command{
		Use:   "truncate <path>",
		Short: "Set the size of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := humanize.ParseBytes(sz)
			if err != nil {
				return fmt.Errorf("invalid --size %q: %w", sz, err)
			}
			return a.mux.Truncate(args[0], int64(n))
		},
	}
	cmd.Flags().StringVarP(&sz, "size", "s", "0", "New size, e.g. 0, 512, 4KiB, 1MB")
	return cmd
}

func newTouchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "touch <path>...",
		Short: "Create files or update their times",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now()
			for _, p := range args {
				_, err := a.mux.Stat(p)
				if errors.Is(err, os.ErrNotExist) && !errors.Is(err, apperrors.ErrUnknownLocation) {
					f, err := a.mux.Create(p)
					if err != nil {
						return err
					}
					if err := f.Close(); err != nil {
						return err
					}
					continue
				}
				if err != nil {
					return err
				}
				if err := a.mux.Chtimes(p, now, now); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
