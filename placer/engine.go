// Package placer realizes a hard-constraint spatial point process: disks are
// placed largest first by rejection sampling over an occupancy grid, each
// committed footprint becoming forbidden for everything after it.
package placer

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/cheggaaa/pb/v3/termutil"
	"github.com/dustin/go-humanize"
	"github.com/sourcegraph/conc/pool"

	"github.com/terralab/negsample/grid"
)

const (
	candidatesPerWorker = 8
	cancelCheckInterval = 4096
)

type Engine struct {
	grid *grid.Grid
	cfg  Config
	rng  *rand.Rand
	log  *slog.Logger

	// free tracks the count of free cells. Stamped cells were free by
	// contract, so decrementing by footprint size keeps it exact.
	free int
}

func New(g *grid.Grid, cfg Config, opts ...Option) *Engine {
	if cfg.AttemptsPerCell <= 0 {
		cfg.AttemptsPerCell = ConfigDefault().AttemptsPerCell
	}
	if cfg.MinAttempts <= 0 {
		cfg.MinAttempts = ConfigDefault().MinAttempts
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}

	o := loadOptions(opts...)
	return &Engine{
		grid: g,
		cfg:  cfg,
		rng:  rand.New(rand.NewSource(cfg.Seed)),
		log:  o.logger,
		free: g.FreeCount(),
	}
}

// Place processes the requests largest radius first and returns one outcome
// per request. With AbortOnFailure the first failure ends the run and the
// partial result is returned alongside the error; otherwise failures are
// recorded and the run continues.
func (e *Engine) Place(ctx context.Context, requests []Request) (*Result, error) {
	reqs := make([]Request, len(requests))
	copy(reqs, requests)
	// stable: equal radii keep their input order, which pins down the RNG
	// consumption sequence and with it reproducibility
	sort.SliceStable(reqs, func(i, j int) bool {
		return reqs[i].RadiusCells > reqs[j].RadiusCells
	})

	var bar *pb.ProgressBar
	if e.cfg.Progress {
		bar = startBar(len(reqs), "placing samples")
		defer bar.Finish()
	}

	res := &Result{Outcomes: make([]Outcome, 0, len(reqs))}
	for _, req := range reqs {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		start := time.Now()
		row, col, attempts, err := e.findCenter(ctx, req)
		if err != nil {
			if cerr := ctx.Err(); cerr != nil {
				return res, cerr
			}
			e.log.Warn("placement failed",
				"radius_cells", req.RadiusCells,
				"attempts", attempts,
				"free_cells", humanize.Comma(int64(e.free)),
				"error", err)
			res.Outcomes = append(res.Outcomes, Outcome{Request: req, Err: err})
			if e.cfg.AbortOnFailure {
				return res, fmt.Errorf("placing radius %g: %w", req.RadiusWorld, err)
			}
			if bar != nil {
				bar.Increment()
			}
			continue
		}

		fp := grid.Disk(req.RadiusCells)
		e.grid.Stamp(row, col, fp)
		e.free -= len(fp.Offsets)

		e.log.Debug("placed",
			"radius_cells", req.RadiusCells,
			"row", row, "col", col,
			"attempts", attempts,
			"took", time.Since(start))
		res.Outcomes = append(res.Outcomes, Outcome{
			Request: req,
			Placement: Placement{
				RadiusWorld: req.RadiusWorld,
				RadiusCells: req.RadiusCells,
				Row:         row,
				Col:         col,
			},
		})
		if bar != nil {
			bar.Increment()
		}
	}

	return res, nil
}

// findCenter draws uniform candidates from the valid interior until one is
// free and non-colliding, or the attempt budget runs out. The budget is
// proportional to the free-cell estimate with a fixed floor. Cancellation is
// checked every cancelCheckInterval attempts so a large budget cannot outlive
// the context.
func (e *Engine) findCenter(ctx context.Context, req Request) (row, col, attempts int, err error) {
	fp := grid.Disk(req.RadiusCells)
	ih := e.grid.Height - 2*req.RadiusCells
	iw := e.grid.Width - 2*req.RadiusCells
	if ih <= 0 || iw <= 0 {
		return 0, 0, 0, fmt.Errorf("%w: radius %d cells does not fit a %dx%d grid",
			ErrEmptyInterior, req.RadiusCells, e.grid.Height, e.grid.Width)
	}

	budget := e.cfg.AttemptsPerCell * e.free
	if budget < e.cfg.MinAttempts {
		budget = e.cfg.MinAttempts
	}

	nextCheck := 0
	for attempts < budget {
		if attempts >= nextCheck {
			if err := ctx.Err(); err != nil {
				return 0, 0, attempts, err
			}
			nextCheck += cancelCheckInterval
		}

		if e.cfg.Workers > 1 {
			r, c, n, found := e.findCenterBatch(req, fp, ih, iw, budget-attempts)
			attempts += n
			if found {
				return r, c, attempts, nil
			}
			continue
		}

		row = req.RadiusCells + e.rng.Intn(ih)
		col = req.RadiusCells + e.rng.Intn(iw)
		attempts++
		if e.grid.IsFreeRegion(row, col, fp) {
			return row, col, attempts, nil
		}
	}

	return 0, 0, attempts, fmt.Errorf("%w: %s attempts for radius %d cells",
		ErrPlacementExhausted, humanize.Comma(int64(budget)), req.RadiusCells)
}

// findCenterBatch draws a batch of candidates from the RNG in order, validates
// them concurrently against the grid (read-only during the search), and
// commits to the first valid one by draw order. Scheduling never influences
// the choice, so a run is reproducible for a fixed seed and worker count.
func (e *Engine) findCenterBatch(req Request, fp grid.Footprint, ih, iw, remaining int) (row, col, attempts int, found bool) {
	n := e.cfg.Workers * candidatesPerWorker
	if n > remaining {
		n = remaining
	}

	rows := make([]int, n)
	cols := make([]int, n)
	for i := 0; i < n; i++ {
		rows[i] = req.RadiusCells + e.rng.Intn(ih)
		cols[i] = req.RadiusCells + e.rng.Intn(iw)
	}

	// each task writes its own index, keeping results in draw order
	// regardless of completion order
	valid := make([]bool, n)
	p := pool.New().WithMaxGoroutines(e.cfg.Workers)
	for i := 0; i < n; i++ {
		i := i
		p.Go(func() {
			valid[i] = e.grid.IsFreeRegion(rows[i], cols[i], fp)
		})
	}
	p.Wait()

	for i, ok := range valid {
		attempts++
		if ok {
			return rows[i], cols[i], attempts, true
		}
	}
	return 0, 0, attempts, false
}

func startBar(total int, name string) *pb.ProgressBar {
	bar := pb.StartNew(total)
	bar.Set("prefix", name+" ")
	bar.SetRefreshRate(time.Second)
	if w, err := termutil.TerminalWidth(); w == 0 || err != nil {
		bar.SetTemplateString(`{{with string . "prefix"}}{{.}}{{end}}{{counters . }} {{bar . }} {{percent . }} {{rtime . "ETA %s"}}` + "\n")
	}
	return bar
}
