// Command tune checks a single guitar string against a target note.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/RMahshie/fretcheck/internal/audiofile"
	"github.com/RMahshie/fretcheck/internal/capture"
	"github.com/RMahshie/fretcheck/internal/config"
	"github.com/RMahshie/fretcheck/internal/estimator"
	"github.com/RMahshie/fretcheck/internal/notes"
	"github.com/RMahshie/fretcheck/internal/tone"
	"github.com/RMahshie/fretcheck/internal/tone/speaker"
	"github.com/RMahshie/fretcheck/internal/tuner"
)

const (
	exitOK = iota
	exitError
	exitDevice
	exitUsage
)

type options struct {
	note     string
	wav      string
	simulate float64
	play     bool
	volume   int
	list     bool
	backend  string
	duration time.Duration
	guard    int
	verbose  bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: stderr})

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "tune: %v\n", err)
		return exitError
	}

	var opts options
	fs := pflag.NewFlagSet("tune", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVarP(&opts.note, "note", "n", "", "target note tag, e.g. E2, A2F, G3S")
	fs.StringVar(&opts.wav, "wav", "", "analyze a WAV file instead of recording")
	fs.Float64Var(&opts.simulate, "simulate", 0, "use a synthetic tone at this frequency instead of the microphone")
	fs.BoolVarP(&opts.play, "play", "p", false, "play the reference tone for --note and exit")
	fs.IntVar(&opts.volume, "volume", tone.DefaultVolume, "reference tone volume (0-100)")
	fs.BoolVarP(&opts.list, "list", "l", false, "list notes and tunings")
	fs.StringVar(&opts.backend, "backend", cfg.Capture.Backend, "capture backend: malgo or portaudio")
	fs.DurationVarP(&opts.duration, "duration", "d", cfg.Capture.Duration, "recording length")
	fs.IntVar(&opts.guard, "guard", cfg.Estimator.HarmonicGuard, "harmonic guard in Hz")
	fs.BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	if opts.verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	if opts.list {
		printCatalog(stdout)
		return exitOK
	}

	note, err := notes.Parse(opts.note)
	if err != nil {
		fmt.Fprintf(stderr, "tune: %v (use --list to see supported notes)\n", err)
		return exitUsage
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if opts.play {
		gen := tone.NewGenerator(speaker.New(), cfg.Tone.SampleRate, cfg.Tone.Duration)
		hz, err := gen.PlayNote(ctx, note, opts.volume)
		if err != nil {
			fmt.Fprintf(stderr, "tune: %v\n", err)
			return exitError
		}
		fmt.Fprintf(stdout, "Played %s (%d Hz)\n", note, hz)
		return exitOK
	}

	tcfg := tuner.Config{
		Duration: opts.duration,
		Estimator: estimator.Config{
			Guard:          opts.guard,
			MinPeakToFloor: cfg.Estimator.MinPeakToFloor,
			MinPlausibleHz: cfg.Estimator.MinPlausibleHz,
			MaxPlausibleHz: cfg.Estimator.MaxPlausibleHz,
		},
	}

	outcome, err := tuneOnce(ctx, opts, note, tcfg, stdout)
	if err != nil {
		if capture.IsDeviceError(err) {
			fmt.Fprintf(stderr, "Could not record audio: %v\nCheck your microphone and try again.\n", err)
			return exitDevice
		}
		fmt.Fprintf(stderr, "tune: %v\n", err)
		return exitError
	}

	fmt.Fprintln(stdout, outcome.Result.Report())
	if w := outcome.Warning(); w != "" {
		fmt.Fprintln(stdout, w)
	}
	return exitOK
}

func tuneOnce(ctx context.Context, opts options, note notes.Note, cfg tuner.Config, stdout io.Writer) (*tuner.Outcome, error) {
	if opts.wav != "" {
		f, err := os.Open(opts.wav)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		clip, err := audiofile.Decode(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", opts.wav, err)
		}
		return tuner.New(nil, cfg).TuneClip(clip, note)
	}

	var capturer capture.Capturer
	if opts.simulate > 0 {
		capturer = capture.NewToneCapturer(opts.simulate)
	} else {
		c, err := capture.Backend(opts.backend)
		if err != nil {
			return nil, err
		}
		capturer = c
		fmt.Fprintf(stdout, "Pluck your %s string now...\n", note)
	}

	return tuner.New(capturer, cfg).Tune(ctx, note)
}

func printCatalog(w io.Writer) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NOTE\tHZ")
	for _, n := range notes.All() {
		hz, _ := notes.Frequency(n)
		fmt.Fprintf(tw, "%s\t%d\n", n, hz)
	}
	tw.Flush()

	fmt.Fprintln(w)
	for _, t := range notes.Tunings() {
		fmt.Fprintf(w, "%s (%s):", t.Title, t.Name)
		for _, s := range t.Strings {
			fmt.Fprintf(w, " %s=%s", s.Label, s.Note)
		}
		fmt.Fprintln(w)
	}
}
