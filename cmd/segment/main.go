// Package main segments a plant skeleton into organs and writes the
// result as JSON, optional HTML/PNG reports and an optional run record in
// a SQLite database.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/banshee-data/phenomenal/internal/config"
	"github.com/banshee-data/phenomenal/internal/fsutil"
	"github.com/banshee-data/phenomenal/internal/monitoring"
	"github.com/banshee-data/phenomenal/internal/organ"
	"github.com/banshee-data/phenomenal/internal/phenotype"
	"github.com/banshee-data/phenomenal/internal/render"
	"github.com/banshee-data/phenomenal/internal/segmentation"
	"github.com/banshee-data/phenomenal/internal/skeleton"
	"github.com/banshee-data/phenomenal/internal/storage/sqlite"
	"github.com/banshee-data/phenomenal/internal/version"
	"github.com/banshee-data/phenomenal/internal/voxel"
)

// Config holds the command line options.
type Config struct {
	SkeletonFile string `validate:"required,endswith=.json"`
	ConfigFile   string
	OutputJSON   string
	DBPath       string
	OutputHTML   string `validate:"omitempty,endswith=.html"`
	OutputPNG    string `validate:"omitempty,endswith=.png"`
	MetricsFile  string
	Verbose      bool
	ShowVersion  bool
}

func main() {
	cfg := parseFlags()

	if cfg.ShowVersion {
		fmt.Println(version.String("segment"))
		return
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, fsutil.OSFileSystem{}, os.Stdout); err != nil {
		log.Fatalf("Segmentation failed: %v", err)
	}
}

func parseFlags() Config {
	cfg := Config{}

	flag.StringVar(&cfg.SkeletonFile, "skeleton", "", "Path to skeleton JSON file")
	flag.StringVar(&cfg.ConfigFile, "config", "", "Tuning config (.json, .yaml or .yml); defaults when empty")
	flag.StringVar(&cfg.OutputJSON, "json", "", "Write the segmentation JSON here (\"-\" for stdout)")
	flag.StringVar(&cfg.DBPath, "db", "", "SQLite database to record the run in")
	flag.StringVar(&cfg.OutputHTML, "html", "", "Write an HTML report here")
	flag.StringVar(&cfg.OutputPNG, "png", "", "Write a PNG front view here")
	flag.StringVar(&cfg.MetricsFile, "metrics", "", "Dump Prometheus metrics here (\"-\" for stdout)")
	flag.BoolVar(&cfg.Verbose, "verbose", false, "Enable verbose logging")
	flag.BoolVar(&cfg.ShowVersion, "version", false, "Print version and exit")

	flag.Parse()
	return cfg
}

func run(ctx context.Context, cfg Config, fsys fsutil.FileSystem, stdout io.Writer) error {
	monitoring.SetVerbose(cfg.Verbose)

	tuning := config.DefaultTuningConfig()
	if cfg.ConfigFile != "" {
		var err error
		if tuning, err = config.LoadTuningConfigFS(fsys, cfg.ConfigFile); err != nil {
			return err
		}
	}

	sk, err := skeleton.Load(fsys, cfg.SkeletonFile)
	if err != nil {
		return err
	}
	g, err := voxel.BuildGraph(sk.Voxels(), voxel.Connectivity(tuning.GetGraphConnectivity()))
	if err != nil {
		return fmt.Errorf("failed to build voxel graph: %w", err)
	}
	monitoring.Logf("[segment] loaded %s: %d segments, %d voxels", cfg.SkeletonFile, len(sk.Segments), g.Len())

	metrics := monitoring.NewMetrics()
	segmenter := segmentation.NewSegmenterFromConfig(tuning, segmentation.WithMetrics(metrics))
	seg, err := segmenter.Segment(ctx, sk, g)
	if err != nil {
		return err
	}
	features := phenotype.Measure(seg, tuning.GetClosestNodesDistance())
	printSummary(stdout, features)

	title := strings.TrimSuffix(filepath.Base(cfg.SkeletonFile), filepath.Ext(cfg.SkeletonFile))

	if cfg.OutputJSON != "" {
		if err := writeTo(fsys, stdout, cfg.OutputJSON, seg.WriteJSON); err != nil {
			return err
		}
	}
	if cfg.OutputHTML != "" {
		if err := ensureDir(fsys, cfg.OutputHTML); err != nil {
			return err
		}
		if err := render.SaveHTML(fsys, cfg.OutputHTML, title, seg, &features); err != nil {
			return err
		}
		log.Printf("Report written to: %s", cfg.OutputHTML)
	}
	if cfg.OutputPNG != "" {
		if err := ensureDir(fsys, cfg.OutputPNG); err != nil {
			return err
		}
		if err := render.SavePNG(fsys, cfg.OutputPNG, title, seg); err != nil {
			return err
		}
		log.Printf("Plot written to: %s", cfg.OutputPNG)
	}
	if cfg.DBPath != "" {
		if err := record(ctx, cfg, seg, features, segmenter.Params()); err != nil {
			return err
		}
	}
	if cfg.MetricsFile != "" {
		if err := writeTo(fsys, stdout, cfg.MetricsFile, metrics.WriteText); err != nil {
			return err
		}
	}
	return nil
}

// record stores the run and its organ measurements in the database.
func record(ctx context.Context, cfg Config, seg *organ.Segmentation, features phenotype.PlantFeatures, params segmentation.Params) error {
	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	run, organs, err := sqlite.NewRun(cfg.SkeletonFile, seg, features, params)
	if err != nil {
		return err
	}
	if err := store.InsertRun(ctx, run, organs); err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	if err := store.SaveSegmentation(ctx, run.RunID, seg); err != nil {
		return fmt.Errorf("failed to record segmentation: %w", err)
	}
	log.Printf("Run %s recorded in %s", run.RunID, cfg.DBPath)
	return nil
}

func printSummary(w io.Writer, pf phenotype.PlantFeatures) {
	fmt.Fprintf(w, "leaves: %d (mature %d, cornet %d)\n", pf.LeafCount, pf.MatureLeafCount, pf.CornetLeafCount)
	fmt.Fprintf(w, "stem height: %.1f\n", pf.StemHeight)
	if pf.LeafCount > 0 {
		fmt.Fprintf(w, "leaf length: total %.1f, mean %.1f, max %.1f\n", pf.TotalLeafLength, pf.MeanLeafLength, pf.MaxLeafLength)
	}
	for _, f := range pf.Organs {
		if !f.Label.IsLeaf() {
			continue
		}
		fmt.Fprintf(w, "  #%d %-11s length=%.1f width=%.1f insertion=%.1f azimuth=%.0f\n",
			f.Index, f.Label, f.Length, f.Width, f.InsertionHeight, f.Azimuth)
	}
}

// writeTo sends the output of write to stdout when path is "-" and to a
// file otherwise.
func writeTo(fsys fsutil.FileSystem, stdout io.Writer, path string, write func(io.Writer) error) error {
	if path == "-" {
		return write(stdout)
	}
	if err := ensureDir(fsys, path); err != nil {
		return err
	}
	f, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func ensureDir(fsys fsutil.FileSystem, path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return nil
}
