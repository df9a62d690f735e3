package placer

type Config struct {
	// Seed feeds the engine's private RNG; identical seed, grid and radii
	// reproduce the run exactly.
	Seed int64

	// AttemptsPerCell scales the per-request attempt budget by the current
	// free-cell estimate. MinAttempts is the floor so tiny grids still get a
	// fair number of draws.
	AttemptsPerCell int
	MinAttempts     int

	// AbortOnFailure stops the run on the first failed request instead of
	// recording it and continuing.
	AbortOnFailure bool

	// Workers > 1 validates candidate centers in parallel within a single
	// request. Requests are always serialized; candidates are still drawn
	// from the RNG in order and the first valid one wins, so a run is
	// reproducible for a fixed seed and worker count. Batch sizing ties RNG
	// consumption to the worker count, so results differ between worker
	// settings.
	Workers int

	Progress bool
}

func ConfigDefault() Config {
	return Config{
		Seed:            1,
		AttemptsPerCell: 4,
		MinAttempts:     1000,
		Workers:         1,
	}
}
