package main

import (
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/urfave/cli/v3"

	"github.com/terralab/negsample/geofile"
	"github.com/terralab/negsample/mask"
)

func scatter(ctx *cli.Context) error {
	boundary, err := geofile.LoadMultiPolygon(ctx.String("boundary"))
	if err != nil {
		return fmt.Errorf("error loading boundary: %w", err)
	}

	rng := rand.New(rand.NewSource(int64(ctx.Int("seed"))))
	points := mask.ScatterPoints(boundary, ctx.Float64("spacing"), 30, rng)
	slog.Info("Scatter complete", "points", len(points))

	return geofile.WriteFeatureCollection(ctx.String("out"), geofile.ScatterPointsFC(points))
}
