package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"segmeasures/pkg/config"
	"segmeasures/pkg/grid"
	"segmeasures/pkg/measures"
)

func main() {
	predPath := flag.String("pred", "", "CSV file holding the predicted mask or probability map")
	refPath := flag.String("ref", "", "CSV file holding the reference mask")
	shapeArg := flag.String("shape", "", "Grid shape as comma-separated extents, e.g. 128,128,64")
	mode := flag.String("mode", "binary", "Comparison mode: binary or probability")
	metricsArg := flag.String("metrics", "", "Comma-separated metric keys (default: all for the mode)")
	configPath := flag.String("config", "segmeasures.yaml", "YAML configuration file (optional)")
	verbose := flag.Bool("verbose", false, "Enable debug logging")
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	if *predPath == "" || *refPath == "" || *shapeArg == "" {
		flag.Usage()
		os.Exit(1)
	}

	shape, err := parseShape(*shapeArg)
	if err != nil {
		log.WithError(err).Fatal("invalid shape")
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}

	pred, err := loadGrid(*predPath, shape)
	if err != nil {
		log.WithError(err).WithField("file", *predPath).Fatal("failed to load prediction grid")
	}
	ref, err := loadGrid(*refPath, shape)
	if err != nil {
		log.WithError(err).WithField("file", *refPath).Fatal("failed to load reference grid")
	}
	log.WithFields(logrus.Fields{
		"shape":  shape,
		"voxels": pred.Size(),
		"mode":   *mode,
	}).Info("grids loaded")

	var keys []string
	if *metricsArg != "" {
		keys = strings.Split(*metricsArg, ",")
	}

	start := time.Now()
	var results map[string]string
	switch *mode {
	case "binary":
		if keys == nil {
			keys = measures.BinaryMetricKeys()
		}
		cmp, err := measures.NewBinaryComparison(pred, ref, cfg)
		if err != nil {
			log.WithError(err).Fatal("failed to construct binary comparison")
		}
		results, err = cmp.ToDict(keys)
		if err != nil {
			log.WithError(err).Fatal("measure computation failed")
		}
	case "probability":
		if keys == nil {
			keys = measures.ProbabilityMetricKeys()
		}
		cmp, err := measures.NewProbabilityComparison(pred, ref, nil, cfg)
		if err != nil {
			log.WithError(err).Fatal("failed to construct probability comparison")
		}
		results, err = cmp.ToDict(keys)
		if err != nil {
			log.WithError(err).Fatal("measure computation failed")
		}
	default:
		log.WithField("mode", *mode).Fatal("mode must be binary or probability")
	}
	log.WithField("elapsed", time.Since(start)).Debug("measures computed")

	sorted := make([]string, 0, len(results))
	for k := range results {
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)
	for _, k := range sorted {
		fmt.Printf("%s,%s\n", k, results[k])
	}
}

// parseShape converts "128,128,64" into axis extents.
func parseShape(arg string) ([]int, error) {
	parts := strings.Split(arg, ",")
	shape := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 1 {
			return nil, fmt.Errorf("shape extent %q must be a positive integer", p)
		}
		shape[i] = n
	}
	return shape, nil
}

// loadGrid reads a CSV (or whitespace-separated) file of voxel values in
// row-major order and wraps it with the given shape.
func loadGrid(path string, shape []int) (*grid.Grid, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	fields := strings.FieldsFunc(string(raw), func(r rune) bool {
		return r == ',' || r == '\n' || r == '\r' || r == ' ' || r == '\t'
	})
	data := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid voxel value %q: %w", f, err)
		}
		data = append(data, v)
	}
	return grid.FromValues(data, shape...)
}
