package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/maauso/tracksplit/internal/bootstrap"
	"github.com/maauso/tracksplit/internal/config"
	"github.com/maauso/tracksplit/internal/job"
	"github.com/maauso/tracksplit/internal/storage"
)

type splitOptions struct {
	outDir     string
	artist     string
	album      string
	names      []string
	namesFile  string
	minTrack   float64
	noise      float64
	minSilence float64
	dryRun     bool
	pushToS3   bool
}

func newSplitCommand(ctx *commandContext) *cobra.Command {
	var opts splitOptions

	cmd := &cobra.Command{
		Use:   "split <file>",
		Short: "Split a recording into tracks at its silences",
		Long: `Detect silences in a merged recording, cut it into tracks at the middle of
each silence and write every track next to the source, tagged with its title.

Segments shorter than --min-track are merged into the previous track. The
last track always runs to the end of the file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := ctx.ensureConfig(cmd.Context())
			if err != nil {
				return err
			}
			cfg := *base
			opts.applyOverrides(cmd, &cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}
			if opts.pushToS3 && !cfg.S3Enabled() {
				return fmt.Errorf("--push-to-s3: %w (set S3_BUCKET and S3_REGION)", storage.ErrS3NotConfigured)
			}

			input, err := opts.splitInput(args[0])
			if err != nil {
				return err
			}

			deps, err := bootstrap.NewDependencies(&cfg, ctx.logger(cmd.ErrOrStderr()))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if opts.dryRun {
				tracks, silences, err := deps.SplitService.Plan(cmd.Context(), input)
				if err != nil {
					return err
				}
				printTracks(out, tracks, silences)
				return nil
			}

			result, err := deps.SplitService.Split(cmd.Context(), input)
			if result != nil {
				printTracks(out, result.Tracks, -1)
				fmt.Fprintf(out, "%s %s\n", result.JobID, result.Status)
			}
			return err
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.outDir, "out", "o", "", "Output directory (default: <source dir>/<source name>)")
	flags.StringVar(&opts.artist, "artist", "", "Artist tag for every track")
	flags.StringVar(&opts.album, "album", "", "Album tag for every track")
	flags.StringArrayVarP(&opts.names, "name", "n", nil, "Track name by position; repeat for each track")
	flags.StringVar(&opts.namesFile, "names-file", "", "YAML file with artist, album and a tracks list")
	flags.Float64Var(&opts.minTrack, "min-track", 0, "Minimum track length in seconds (overrides MIN_TRACK_SEC)")
	flags.Float64Var(&opts.noise, "noise", 0, "Silence noise floor in dB (overrides SILENCE_NOISE_DB)")
	flags.Float64Var(&opts.minSilence, "min-silence", 0, "Minimum silence length in seconds (overrides MIN_SILENCE_SEC)")
	flags.BoolVar(&opts.dryRun, "dry-run", false, "Resolve and print the tracks without extracting them")
	flags.BoolVar(&opts.pushToS3, "push-to-s3", false, "Upload every extracted track to S3")

	return cmd
}

// applyOverrides copies explicitly set flags over the environment config.
func (o *splitOptions) applyOverrides(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("min-track") {
		cfg.MinTrackSec = o.minTrack
	}
	if flags.Changed("noise") {
		cfg.SilenceNoiseDB = o.noise
	}
	if flags.Changed("min-silence") {
		cfg.MinSilenceSec = o.minSilence
	}
}

func (o *splitOptions) splitInput(source string) (job.SplitInput, error) {
	manifest := &albumManifest{}
	if o.namesFile != "" {
		m, err := loadManifest(o.namesFile)
		if err != nil {
			return job.SplitInput{}, err
		}
		manifest = m
	}

	outDir := o.outDir
	if outDir == "" {
		stem := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
		outDir = filepath.Join(filepath.Dir(source), stem)
	}

	names := manifest.Tracks
	if len(o.names) > 0 {
		names = o.names
	}

	return job.SplitInput{
		InputPath:  source,
		OutputDir:  outDir,
		Artist:     firstNonEmpty(o.artist, manifest.Artist),
		Album:      firstNonEmpty(o.album, manifest.Album),
		TrackNames: names,
		PushToS3:   o.pushToS3,
	}, nil
}

// printTracks writes the track table. silences < 0 omits the summary line.
func printTracks(w io.Writer, tracks []job.Track, silences int) {
	if silences >= 0 {
		fmt.Fprintf(w, "%d silences, %d tracks\n", silences, len(tracks))
	}
	fmt.Fprintln(w, renderTable(trackHeaders, trackRows(tracks), trackAligns))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
