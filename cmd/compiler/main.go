package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/QEStudios/ArcadeSongCompiler/arcade"
	"github.com/QEStudios/ArcadeSongCompiler/parser/midi"
	"github.com/davecgh/go-spew/spew"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/sqweek/dialog"
)

var logger *log.Logger

var (
	warnColor    = color.New(color.FgYellow)
	successColor = color.New(color.FgGreen)
	nameColor    = color.New(color.Bold)
)

type options struct {
	divisor int
	track   string
	output  string
	verbose bool
	dump    bool
}

func main() {
	logger = log.New(os.Stderr, "", log.Ldate|log.Ltime)

	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:          "compiler [file.mid]",
		Short:        "Compile a MIDI file into a MakeCode Arcade song",
		Long:         "Compile a MIDI file into a MakeCode Arcade song and print it as a hex literal.\nIf no file is given, a file dialog is opened.",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.OutOrStdout(), opts, args)
		},
	}
	bindFlags(cmd.Flags(), opts)
	cmd.AddCommand(newTracksCommand())
	return cmd
}

func bindFlags(fs *pflag.FlagSet, opts *options) {
	fs.IntVarP(&opts.divisor, "divisor", "d", 1, "time divisor, larger values fit longer files into 255 measures (at least 1)")
	fs.StringVarP(&opts.track, "track", "t", "0", "preset track id or name used for the piano tracks")
	fs.StringVarP(&opts.output, "output", "o", "", "file to write the hex literal to (default: standard output)")
	fs.BoolVarP(&opts.verbose, "verbose", "v", false, "log conversion details")
	fs.BoolVar(&opts.dump, "dump", false, "dump the built song structure to standard error")
}

func newTracksCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tracks",
		Short: "List the preset tracks",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			printTracks(cmd.OutOrStdout())
		},
	}
}

func printTracks(w io.Writer) {
	for _, track := range arcade.Presets() {
		fmt.Fprintf(w, "%3d  %s  waveform %2d, octave %d", track.ID, nameColor.Sprintf("%-10s", track.Name),
			track.Instrument.Waveform, track.Instrument.Octave)
		if track.IsDrumTrack() {
			fmt.Fprint(w, warnColor.Sprint(" (drums, not supported)"))
		}
		fmt.Fprintln(w)
	}
}

func run(out io.Writer, opts *options, args []string) error {
	// Check the options before asking for a file.
	convertOpts := midi.Options{Divisor: opts.divisor, Track: opts.track}
	if err := convertOpts.Validate(); err != nil {
		return err
	}

	// Get the current working directory.
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current working directory: %w", err)
	}

	// Get the path of the MIDI file.
	path, err := choosePath(cwd, args)
	if err != nil {
		if errors.Is(err, dialog.ErrCancelled) {
			logger.Printf("User cancelled the file dialog")
		}
		return err
	}

	events, err := midi.ReadFile(path)
	if err != nil {
		return err
	}

	parserLogger := log.New(io.Discard, "", 0)
	if opts.verbose {
		parserLogger = logger
	}
	p := midi.NewParser(events, parserLogger)
	song, err := p.Parse(convertOpts)
	if err != nil {
		return fmt.Errorf("parse error: %w", err)
	}
	if n := len(p.Warnings()); n > 0 {
		warnColor.Fprintf(os.Stderr, "%d warnings produced while parsing %s (use --verbose to see them)\n", n, filepath.Base(path))
	}

	if opts.verbose {
		fmt.Fprint(os.Stderr, song)
	}
	if opts.dump {
		spew.Fdump(os.Stderr, song)
	}

	rom, err := song.Compile()
	if err != nil {
		return fmt.Errorf("compile error: %w", err)
	}
	literal := hexLiteral(rom)

	if opts.output == "" || opts.output == "-" {
		_, err = fmt.Fprintln(out, literal)
		return err
	}
	if err := os.WriteFile(opts.output, []byte(literal), 0o644); err != nil {
		return fmt.Errorf("error writing output file: %w", err)
	}
	successColor.Fprintf(os.Stderr, "Wrote %d byte song to %s\n", len(rom), opts.output)
	return nil
}

// hexLiteral formats the song as a MakeCode hex buffer literal.
func hexLiteral(rom []byte) string {
	var b strings.Builder
	b.Grow(len(rom)*2 + 5)
	b.WriteString("hex`")
	for _, v := range rom {
		fmt.Fprintf(&b, "%02x", v)
	}
	b.WriteString("`")
	return b.String()
}

// choosePath returns the file path either from the command-line args
// or from an interactive file dialog.
func choosePath(cwd string, args []string) (string, error) {
	// If an argument was passed to the program, use it.
	if len(args) > 0 {
		path := args[0]
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("cannot get absolute path: %w", err)
		}
		if err := validatePath(absPath); err != nil {
			return "", fmt.Errorf("passed argument is not a valid path: %w", err)
		}
		return absPath, nil
	}

	// Otherwise open the file dialog.
	path, err := dialog.
		File().
		Title("Open MIDI file").
		Filter("MIDI files (*.mid, *.midi)", "mid", "midi").
		SetStartDir(cwd).
		Load()
	if err != nil {
		// Propagate the error. Caller will check for dialog.ErrCancelled.
		return "", err
	}

	// Check for empty path just in case.
	if path == "" {
		return "", dialog.ErrCancelled
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("cannot get absolute path: %w", err)
	}
	if err := validatePath(absPath); err != nil {
		return "", fmt.Errorf("dialog selection invalid: %w", err)
	}
	return absPath, nil
}

// validatePath performs simple checks to verify if a file exists or not.
func validatePath(p string) error {
	switch strings.ToLower(filepath.Ext(p)) {
	case ".mid", ".midi":
	default:
		return fmt.Errorf("file must have .mid or .midi extension")
	}
	if _, err := os.Stat(p); err != nil {
		return fmt.Errorf("cannot stat file: %w", err)
	}
	return nil
}
