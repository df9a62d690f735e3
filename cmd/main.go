package main

import (
	"fmt"
	"log"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"runtime"
	"runtime/pprof"
	"strings"
	"time"

	"github.com/terralab/negsample/geofile"
	"github.com/terralab/negsample/internal/stats"
	"github.com/terralab/negsample/mask"
	"github.com/terralab/negsample/placer"
	"github.com/terralab/negsample/radii"
	"github.com/terralab/negsample/runfile"

	_ "net/http/pprof"

	_ "github.com/KimMachineGun/automemlimit"
	"github.com/urfave/cli/v3"
	_ "go.uber.org/automaxprocs"
)

func main() {
	app := &cli.App{
		Name:        "negsample",
		Description: "Non-landslide sample generator for susceptibility modeling",
		Commands: []*cli.Command{
			{
				Name:    "generate",
				Aliases: []string{"g"},
				Usage:   "place non-overlapping negative samples over a study area",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:      "boundary",
						Aliases:   []string{"b"},
						Usage:     "study area boundary, GeoJSON",
						Required:  true,
						TakesFile: true,
					},
					&cli.StringFlag{
						Name:      "slides",
						Aliases:   []string{"s"},
						Usage:     "known landslide polygons, GeoJSON",
						Required:  true,
						TakesFile: true,
					},
					&cli.StringFlag{
						Name:      "out",
						Aliases:   []string{"o"},
						Required:  true,
						TakesFile: true,
					},
					&cli.Float64Flag{
						Name:  "cell-size",
						Usage: "raster resolution in CRS linear units",
						Value: 10,
					},
					&cli.Float64Flag{
						Name:  "buffer",
						Usage: "extra forbidden distance around each slide",
					},
					&cli.IntFlag{
						Name:        "count",
						Aliases:     []string{"n"},
						Usage:       "number of samples to place",
						DefaultText: "one per slide",
					},
					&cli.IntFlag{
						Name:  "seed",
						Value: 1,
					},
					&cli.IntFlag{
						Name:        "threads",
						Aliases:     []string{"t"},
						DefaultText: "max",
					},
					&cli.IntFlag{
						Name:  "attempts-per-cell",
						Usage: "retry budget per free cell before a sample is abandoned",
						Value: 4,
					},
					&cli.IntFlag{
						Name:  "placer-workers",
						Usage: "parallel candidate validation within one sample; serial by default",
						Value: 1,
					},
					&cli.BoolFlag{
						Name:  "abort-on-failure",
						Usage: "stop on the first sample that cannot be placed",
					},
					&cli.StringFlag{
						Name:      "points-out",
						Usage:     "write placed sample points as GeoJSON",
						TakesFile: true,
					},
					&cli.StringFlag{
						Name:      "circles-out",
						Usage:     "write placed sample disks as GeoJSON",
						TakesFile: true,
					},
					&cli.StringFlag{
						Name:      "grid-out",
						Usage:     "write the final occupancy grid as Esri ASCII",
						TakesFile: true,
					},
					&cli.StringFlag{
						Name:      "stats",
						Usage:     "write process resource stats as JSON",
						TakesFile: true,
					},
					&cli.StringFlag{
						Name:        "pprof.listen",
						DefaultText: "",
					},
					&cli.BoolFlag{
						Name: "pprof.profile",
					},
					&cli.BoolFlag{
						Name: "pprof.heap",
					},
				},
				Action: generate,
			},
			{
				Name:  "scatter",
				Usage: "scatter evenly spaced candidate points over a boundary",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:      "boundary",
						Aliases:   []string{"b"},
						Required:  true,
						TakesFile: true,
					},
					&cli.StringFlag{
						Name:      "out",
						Aliases:   []string{"o"},
						Required:  true,
						TakesFile: true,
					},
					&cli.Float64Flag{
						Name:     "spacing",
						Usage:    "minimum distance between points",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "seed",
						Value: 1,
					},
				},
				Action: scatter,
			},
			{
				Name:  "serve",
				Usage: "serve a nearest-sample api over a generated run file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:      "run",
						Aliases:   []string{"r"},
						Required:  true,
						TakesFile: true,
					},
					&cli.StringFlag{
						Name:  "listen",
						Value: ":8080",
					},
					&cli.Float64Flag{
						Name:  "search-radius",
						Usage: "maximum query distance in CRS linear units",
					},
				},
				Action: serve,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func generate(ctx *cli.Context) error {
	log := slog.Default()

	threads := ctx.Int("threads")
	if threads == 0 {
		threads = runtime.GOMAXPROCS(0)
	}
	log = log.With("threads", threads)

	if pprofListen := ctx.String("pprof.listen"); pprofListen != "" {
		go func() {
			log.Info("Starting pprof server")
			err := http.ListenAndServe(pprofListen, nil)
			if err != nil {
				log.Error("Error starting pprof server", "error", err)
			}
		}()
	}

	if ctx.Bool("pprof.profile") {
		f, err := os.OpenFile("profile.cpu.pprof", os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
		if err != nil {
			return fmt.Errorf("error creating pprof file: %w", err)
		}
		err = pprof.StartCPUProfile(f)
		if err != nil {
			return fmt.Errorf("error starting pprof: %w", err)
		}
		defer pprof.StopCPUProfile()
	}

	var collector *stats.Collector
	if ctx.String("stats") != "" {
		var err error
		collector, err = stats.NewCollector(time.Second)
		if err != nil {
			return fmt.Errorf("error creating stats collector: %w", err)
		}
		collector.Start()
	}

	boundary, err := geofile.LoadMultiPolygon(ctx.String("boundary"))
	if err != nil {
		return fmt.Errorf("error loading boundary: %w", err)
	}
	slides, err := geofile.LoadPolygons(ctx.String("slides"))
	if err != nil {
		return fmt.Errorf("error loading slide inventory: %w", err)
	}
	log.Info("Inputs loaded", "boundary_parts", len(boundary), "slides", len(slides))

	dist, err := radii.FromAreas(radii.AreasOf(slides))
	if err != nil {
		return fmt.Errorf("error building area distribution: %w", err)
	}
	q1, q2, q3 := dist.Quartiles()
	log.Info("Area distribution",
		"min", dist.Min(), "q1", q1, "median", q2, "q3", q3, "max", dist.Max())

	count := ctx.Int("count")
	if count == 0 {
		count = len(slides)
	}
	seed := int64(ctx.Int("seed"))
	rng := rand.New(rand.NewSource(seed))
	radiiWorld := dist.SampleRadii(rng, count)

	g, err := mask.Build(boundary, slides, mask.Config{
		CellSize: ctx.Float64("cell-size"),
		Buffer:   ctx.Float64("buffer"),
		Workers:  threads,
	})
	if err != nil {
		return fmt.Errorf("error building forbidden mask: %w", err)
	}

	maskHash := g.Hash()

	requests, err := placer.RequestsFromRadii(g, radiiWorld)
	if err != nil {
		return err
	}

	engine := placer.New(g, placer.Config{
		Seed:            seed,
		AttemptsPerCell: ctx.Int("attempts-per-cell"),
		AbortOnFailure:  ctx.Bool("abort-on-failure"),
		Workers:         ctx.Int("placer-workers"),
		Progress:        true,
	})
	result, err := engine.Place(ctx.Context, requests)
	if err != nil {
		return fmt.Errorf("placement failed: %w", err)
	}
	log.Info("Placement complete",
		"placed", len(result.Placements()), "failed", result.FailedCount())

	if ctx.Bool("pprof.heap") {
		if err := writeHeapProfile("profile"); err != nil {
			return fmt.Errorf("error writing heap profile: %w", err)
		}
	}

	run := runfile.FromResult(g, result, true)
	run.MaskHash = maskHash

	if pointsOut := ctx.String("points-out"); pointsOut != "" {
		if err := geofile.WriteFeatureCollection(pointsOut, geofile.SamplePoints(run)); err != nil {
			return err
		}
	}
	if circlesOut := ctx.String("circles-out"); circlesOut != "" {
		if err := geofile.WriteFeatureCollection(circlesOut, geofile.SampleCircles(run, 64)); err != nil {
			return err
		}
	}
	if gridOut := ctx.String("grid-out"); gridOut != "" {
		if err := g.WriteASCIIFile(gridOut); err != nil {
			return err
		}
	}

	saveFile := ctx.String("out")
	if !strings.HasSuffix(saveFile, ".negs") {
		saveFile = saveFile + ".negs"
	}
	log.Info("Saving run", "file", saveFile, "id", run.ID)
	if err := runfile.SaveFile(saveFile, run); err != nil {
		return fmt.Errorf("failed to save run file: %w", err)
	}

	if collector != nil {
		runStats := collector.Stop()
		if err := runStats.WriteFile(ctx.String("stats")); err != nil {
			return fmt.Errorf("error writing stats: %w", err)
		}
	}

	log.Info("Complete")
	return nil
}

func writeHeapProfile(name string) error {
	f, err := os.Create(name + ".heap.prof")
	if err != nil {
		return err
	}
	defer f.Close()
	return pprof.WriteHeapProfile(f)
}
