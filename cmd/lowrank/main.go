package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/yyyoichi/lowrank"
	"github.com/yyyoichi/lowrank/internal/db"
	"github.com/yyyoichi/lowrank/internal/gray"
	"github.com/yyyoichi/lowrank/internal/report"
)

func main() {
	in := flag.String("in", "im.png", "image path or http(s) URL")
	ranksFlag := flag.String("ranks", "5,20,100", "comma separated ranks to reconstruct")
	modeFlag := flag.String("mode", "mean", "grayscale conversion: mean or luma")
	maxSide := flag.Int("max", 0, "downscale so the longer side is at most this many pixels (0 keeps the size)")
	outDir := flag.String("out", "out", "directory for the PNG outputs")
	reportPath := flag.String("report", "", "write an HTML spectrum report to this path")
	dbPath := flag.String("db", "", "record the run in this SQLite database")
	cacheDir := flag.String("cache", "", "cache directory for remote images")
	flag.Parse()

	ranks, err := parseRanks(*ranksFlag)
	if err != nil {
		log.Fatalf("Invalid -ranks: %v", err)
	}
	mode, ok := gray.ParseMode(*modeFlag)
	if !ok {
		log.Fatalf("Invalid -mode: %q", *modeFlag)
	}

	ctx := context.Background()

	img, err := lowrank.Load(ctx, *in, lowrank.WithCacheDir(*cacheDir))
	if err != nil {
		log.Fatalf("Failed to load image: %v", err)
	}

	c, err := lowrank.New(
		lowrank.WithRanks(ranks...),
		lowrank.WithGrayMode(mode),
		lowrank.WithMaxSide(*maxSide),
	)
	if err != nil {
		log.Fatalf("Failed to create compressor: %v", err)
	}

	start := time.Now()
	res, err := c.Compress(ctx, img)
	if err != nil {
		log.Fatalf("Failed to compress: %v", err)
	}
	height, width := res.Dims()
	log.Printf("Decomposed %s (%dx%d, %s) in %v\n", *in, width, height, mode, time.Since(start))

	if err := os.MkdirAll(*outDir, 0755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}
	grayPath := filepath.Join(*outDir, "gray.png")
	if err := writePNG(grayPath, res.Image()); err != nil {
		log.Fatalf("Failed to write %s: %v", grayPath, err)
	}
	log.Printf("Generated: %s\n", grayPath)

	outputs, points, err := writeOutputs(*outDir, res)
	if err != nil {
		log.Fatalf("Failed to write approximations: %v", err)
	}

	if *reportPath != "" {
		if err := writeReport(*reportPath, *in, res.SingularValues(), points); err != nil {
			log.Printf("Failed to generate report: %v\n", err)
		} else {
			log.Printf("Generated: %s\n", *reportPath)
		}
	}

	if *dbPath != "" {
		runID, err := record(*dbPath, *in, res, outputs)
		if err != nil {
			log.Fatalf("Failed to record run: %v", err)
		}
		log.Printf("Recorded run %d in %s\n", runID, *dbPath)
	}
}

// writeOutputs writes one rank_<r>.png per approximation and returns the
// paths and report points in approximation order.
func writeOutputs(dir string, res *lowrank.Result) ([]string, []report.Point, error) {
	outputs := make([]string, len(res.Approximations))
	points := make([]report.Point, len(res.Approximations))
	for i, a := range res.Approximations {
		outputs[i] = filepath.Join(dir, fmt.Sprintf("rank_%d.png", a.Rank))
		if err := writePNG(outputs[i], a.Image()); err != nil {
			return nil, nil, fmt.Errorf("failed to write %s: %w", outputs[i], err)
		}
		points[i] = report.Point{
			Rank:          a.Rank,
			Energy:        a.Energy,
			RelativeError: a.RelativeError,
			StorageRatio:  a.StorageRatio,
		}
		log.Printf("  r=%d error=%.4f relative=%.2f%% energy=%.4f storage=%.2f%% -> %s\n",
			a.Rank, a.Error, a.RelativeError*100, a.Energy, a.StorageRatio*100, outputs[i])
	}
	return outputs, points, nil
}

func parseRanks(s string) ([]int, error) {
	var ranks []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		r, err := strconv.Atoi(part)
		if err != nil {
			return nil, err
		}
		ranks = append(ranks, r)
	}
	if len(ranks) == 0 {
		return nil, fmt.Errorf("no ranks in %q", s)
	}
	return ranks, nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeReport(path, title string, s []float64, points []report.Point) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return report.Write(f, title, s, points)
}

func record(path, uri string, res *lowrank.Result, outputs []string) (int64, error) {
	store, err := db.Open(path)
	if err != nil {
		return 0, err
	}
	defer store.Close()

	imageID, err := store.InsertImage(uri)
	if err != nil {
		return 0, err
	}
	height, width := res.Dims()
	sizeID, err := store.InsertImageSize(imageID, width, height)
	if err != nil {
		return 0, err
	}
	runID, err := store.InsertRun(sizeID, res.Mode.String(), res.SingularValues())
	if err != nil {
		return 0, err
	}
	for i, a := range res.Approximations {
		_, err := store.InsertApproximation(&db.Approximation{
			RunID:          runID,
			Rank:           a.Rank,
			FrobeniusError: a.Error,
			RelativeError:  a.RelativeError,
			Energy:         a.Energy,
			StorageRatio:   a.StorageRatio,
			OutputPath:     outputs[i],
		})
		if err != nil {
			return 0, err
		}
	}
	return runID, nil
}
