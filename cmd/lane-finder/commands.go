package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/lane-finder/internal/config"
	"github.com/ironsheep/lane-finder/internal/engine"
	"github.com/ironsheep/lane-finder/internal/imaging"
	"github.com/ironsheep/lane-finder/internal/lane"
	"github.com/ironsheep/lane-finder/internal/pipeline"
	"github.com/ironsheep/lane-finder/internal/report"
	"github.com/ironsheep/lane-finder/internal/server"
	"github.com/ironsheep/lane-finder/internal/video"
)

// commonFlags are accepted by every processing command.
type commonFlags struct {
	config   string
	engine   string
	segments bool
	debug    bool
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.config, "config", "", "YAML configuration file")
	fs.StringVar(&c.engine, "engine", "", "stage implementation: go or opencv (default from config)")
	fs.BoolVar(&c.segments, "segments", false, "also draw every detected segment")
	fs.BoolVar(&c.debug, "debug", false, "enable debug logging")
}

// load reads the configuration and applies the flags on top of it.
func (c *commonFlags) load() (*config.Config, error) {
	cfg := config.Default()
	if c.config != "" {
		var err error
		if cfg, err = config.Load(c.config); err != nil {
			return nil, err
		}
	}
	if c.engine != "" {
		cfg.Runner.Engine = c.engine
	}
	if c.segments {
		cfg.Overlay.DrawSegments = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

// parseFlags parses args, turning malformed flags into a usage error. The
// flag package has already reported them.
func parseFlags(fs *flag.FlagSet, args []string) error {
	err := fs.Parse(args)
	if err == nil || errors.Is(err, flag.ErrHelp) {
		return err
	}
	return usageError{}
}

func runVideo(args []string, stderr io.Writer) error {
	fs := newFlagSet("video", stderr)
	var common commonFlags
	common.register(fs)
	in := fs.String("in", "", "input video file or frame directory")
	out := fs.String("out", "", "output video file, or directory for frames")
	workers := fs.Int("workers", -1, "concurrent detectors (0 = one per CPU, default from config)")
	trace := fs.String("trace", "", "write a per-frame JSON trace here, plus a .png chart beside it")
	label := fs.Bool("label", false, "stamp the frame number onto every output frame")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *in == "" || *out == "" {
		return usagef("video: -in and -out are required")
	}

	log := initLogger(common.debug, stderr)
	cfg, err := common.load()
	if err != nil {
		log.WithError(err).Error("invalid configuration")
		return err
	}
	if *workers >= 0 {
		cfg.Runner.Workers = *workers
	}
	if *label {
		cfg.Runner.Label = true
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stats, rec, err := annotateVideo(ctx, cfg, *in, *out, *trace != "", log)
	if err != nil {
		log.WithError(err).WithField("input", *in).Error("video processing failed")
		return err
	}

	log.WithFields(logrus.Fields{
		"frames":       stats.Frames,
		"left_fitted":  stats.LeftFitted,
		"right_fitted": stats.RightFitted,
		"elapsed":      stats.Elapsed.String(),
		"output":       *out,
	}).Info("video annotated")

	if rec != nil {
		if err := writeTrace(rec, *trace); err != nil {
			log.WithError(err).Error("failed to write trace")
			return err
		}
		log.WithField("trace", *trace).Info("trace written")
	}
	return nil
}

// annotateVideo runs the whole pipeline from in to out. The recorder is
// nil unless trace is set.
func annotateVideo(ctx context.Context, cfg *config.Config, in, out string, trace bool, log logrus.FieldLogger) (pipeline.RunStats, *report.Recorder, error) {
	ann, err := engine.New(cfg, log)
	if err != nil {
		return pipeline.RunStats{}, nil, err
	}

	src, err := video.OpenSource(ctx, in, cfg.Video)
	if err != nil {
		return pipeline.RunStats{}, nil, err
	}
	defer src.Close()

	fps := src.FPS()
	log.WithFields(logrus.Fields{
		"input":   in,
		"fps":     fps,
		"engine":  engine.Name(cfg),
		"workers": cfg.Runner.Workers,
	}).Info("processing video")

	opts := pipeline.RunnerOptions{
		Workers: cfg.Runner.Workers,
		Label:   cfg.Runner.Label,
		Initial: lane.InitialState,
	}
	var rec *report.Recorder
	if trace {
		rec = report.NewRecorder()
		opts.Observer = rec
	}

	sink := video.NewPendingSink(ctx, out, fps, cfg.Video)
	stats, err := pipeline.NewRunner(ann, opts, log).Run(ctx, src, sink)
	if cerr := sink.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("failed to finish output: %w", cerr)
	}
	return stats, rec, err
}

func writeTrace(rec *report.Recorder, path string) error {
	if err := rec.WriteJSON(path); err != nil {
		return err
	}
	return rec.WritePlot(strings.TrimSuffix(path, filepath.Ext(path)) + ".png")
}

func runImage(args []string, stderr io.Writer) error {
	fs := newFlagSet("image", stderr)
	var common commonFlags
	common.register(fs)
	in := fs.String("in", "", "input frame")
	out := fs.String("out", "", "output frame (.png or .jpg)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *in == "" || *out == "" {
		return usagef("image: -in and -out are required")
	}

	log := initLogger(common.debug, stderr)
	cfg, err := common.load()
	if err != nil {
		log.WithError(err).Error("invalid configuration")
		return err
	}

	lanes, err := annotateImage(cfg, *in, *out, log)
	if err != nil {
		log.WithError(err).WithField("input", *in).Error("image processing failed")
		return err
	}

	log.WithFields(logrus.Fields{
		"left":   lanes.Left,
		"right":  lanes.Right,
		"output": *out,
	}).Info("image annotated")
	return nil
}

func annotateImage(cfg *config.Config, in, out string, log logrus.FieldLogger) (lane.Lanes, error) {
	ann, err := engine.New(cfg, log)
	if err != nil {
		return lane.Lanes{}, err
	}
	frame, err := imaging.LoadFrame(in)
	if err != nil {
		return lane.Lanes{}, err
	}
	res, _, err := ann.Annotate(frame, lane.InitialState)
	if err != nil {
		return lane.Lanes{}, err
	}
	if err := imaging.SaveFrame(res.Frame, out); err != nil {
		return lane.Lanes{}, err
	}
	return res.Lanes, nil
}

func runServe(args []string, stderr io.Writer) error {
	fs := newFlagSet("serve", stderr)
	var common commonFlags
	common.register(fs)
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	log := initLogger(common.debug, stderr)
	cfg, err := common.load()
	if err != nil {
		log.WithError(err).Error("invalid configuration")
		return err
	}

	srv, err := server.New(cfg, log)
	if err != nil {
		log.WithError(err).Error("failed to start server")
		return err
	}

	log.WithFields(logrus.Fields{
		"version": Version,
		"build":   BuildTime,
		"commit":  GitCommit,
	}).Debug("MCP server starting")

	if err := srv.Run(); err != nil {
		log.WithError(err).Error("server error")
		return err
	}
	return nil
}

func runConfig(args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("config", stderr)
	var common commonFlags
	common.register(fs)
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	cfg, err := common.load()
	if err != nil {
		initLogger(common.debug, stderr).WithError(err).Error("invalid configuration")
		return err
	}
	data, err := cfg.YAML()
	if err != nil {
		return err
	}
	_, err = stdout.Write(data)
	return err
}
