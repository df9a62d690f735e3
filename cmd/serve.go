package main

import (
	"io"
	"log/slog"

	"github.com/urfave/cli/v3"
	"golang.org/x/exp/mmap"

	"github.com/terralab/negsample/runfile"
	"github.com/terralab/negsample/server"
)

func serve(ctx *cli.Context) error {
	slog.Info("Loading run file", "file", ctx.String("run"))

	file, err := mmap.Open(ctx.String("run"))
	if err != nil {
		return err
	}
	defer file.Close()

	run, err := runfile.Load(io.NewSectionReader(file, 0, int64(file.Len())))
	if err != nil {
		return err
	}

	query := server.NewQuery(run, ctx.Float64("search-radius"))
	return server.Run(ctx.Context, ctx.String("listen"), query)
}
