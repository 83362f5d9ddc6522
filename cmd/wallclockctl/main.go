//go:build linux

package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/ja7ad/wallclock/pkg/output"
	"github.com/ja7ad/wallclock/pkg/profiler"
	"github.com/ja7ad/wallclock/pkg/threadid"
	"github.com/ja7ad/wallclock/pkg/types"
)

func main() {
	root := &cobra.Command{
		Use:   "wallclockctl",
		Short: "Wall-clock sampling profiler demo driver",
		Long: `wallclockctl drives the wallclock profiler core against the running
process's own sibling threads, producing a JSON profile for offline
symbolication.

* GitHub: https://github.com/ja7ad/wallclock`,
	}

	root.AddCommand(newSampleCmd())

	if err := root.Execute(); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

type sampleOpts struct {
	samples   int
	interval  time.Duration
	maxFrames int
	outPath   string
}

func newSampleCmd() *cobra.Command {
	var o sampleOpts

	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Self-sample every sibling thread N times and write a JSON profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSample(o)
		},
	}

	cmd.Flags().IntVarP(&o.samples, "samples", "s", 10, "number of rendezvous cycles per thread")
	cmd.Flags().DurationVarP(&o.interval, "interval", "i", 10*time.Millisecond, "pause between samples")
	cmd.Flags().IntVar(&o.maxFrames, "max-frames", 150, "maximum frames captured per sample")
	cmd.Flags().StringVarP(&o.outPath, "out", "o", "profile.json", "path to write the JSON profile")

	return cmd
}

func runSample(o sampleOpts) error {
	p, err := profiler.New(o.maxFrames)
	if err != nil {
		return fmt.Errorf("wallclockctl: start profiler: %w", err)
	}
	defer func() {
		if err := p.Close(); err != nil {
			slog.Warn("wallclockctl: close profiler", "err", err)
		}
	}()

	self := threadid.Current()
	sess := p.Session()

	slog.Info("sampling sibling threads", "samples_per_thread", o.samples, "interval", o.interval)

	for i := 0; i < o.samples; i++ {
		threads, err := threadid.Enumerate()
		if err != nil {
			return fmt.Errorf("wallclockctl: enumerate threads: %w", err)
		}

		for _, tid := range threads {
			if tid == self {
				continue
			}
			if err := sess.SampleThread(tid); err != nil {
				slog.Warn("wallclockctl: dropping sample", "thread_id", tid, "err", err)
				continue
			}
		}

		if i < o.samples-1 {
			time.Sleep(o.interval)
		}
	}

	profile := sess.Finish()

	doc := output.New().Output(profile)
	if err := writeProfile(o.outPath, doc); err != nil {
		return err
	}

	slog.Info("profile written",
		"path", o.outPath,
		"threads", len(doc.Threads),
		"modules", len(doc.Modules),
		"frames", len(doc.Frames),
		"go_version", runtime.Version(),
	)
	return nil
}

func writeProfile(path string, doc output.Profile) error {
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("wallclockctl: marshal profile: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("wallclockctl: write %s: %w", path, err)
	}

	fi, err := os.Stat(path)
	if err == nil {
		slog.Info("wrote profile file", "size", types.Bytes(fi.Size()).Humanized())
	}
	return nil
}
