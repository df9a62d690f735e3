package server

import (
	"context"
	"encoding/json"
	"fmt"
	stdlog "log"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/fasthttp/router"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/terralab/negsample/internal/telemetry"
)

const MaxBodySize = 32 * 1000 * 1000 // 32MB

var meter = otel.Meter("github.com/terralab/negsample/server")

func Run(ctx context.Context, address string, query *Query) error {
	tel, err := telemetry.Setup(ctx, "negsample")
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer tel.Shutdown(context.Background())

	log := slog.Default()

	metricNearestCallCount, err := meter.Int64Counter("http_nearest_call_total")
	if err != nil {
		return err
	}
	metricBatchCallCount, err := meter.Int64Counter("http_nearest_batch_call_total")
	if err != nil {
		return err
	}
	metricSamplesReturned, err := meter.Int64Counter("samples_returned_total")
	if err != nil {
		return err
	}

	s := &server{
		query: query,

		metricNearestCallCount: metricNearestCallCount,
		metricBatchCallCount:   metricBatchCallCount,
		metricSamplesReturned:  metricSamplesReturned,
	}

	r := router.New()
	r.GET("/negsample/sample/{x}/{y}", s.NearestHandler)
	r.POST("/negsample/samples", s.NearestBatchHandler)
	r.Handle(http.MethodGet, "/metrics", fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler()))

	srv := &fasthttp.Server{
		ReadTimeout:        time.Second,
		MaxRequestBodySize: MaxBodySize,
		Handler:            r.Handler,
	}

	go func() {
		log.Info("Server listening", "address", address, "samples", query.Len())
		if err := srv.ListenAndServe(address); err != http.ErrServerClosed {
			stdlog.Fatalf("ListenAndServe(): %v", err)
		}
	}()

	// wait cancel
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	return srv.ShutdownWithContext(shutdownCtx)
}

type server struct {
	query *Query

	metricNearestCallCount metric.Int64Counter
	metricBatchCallCount   metric.Int64Counter
	metricSamplesReturned  metric.Int64Counter
}

func (s *server) NearestHandler(ctx *fasthttp.RequestCtx) {
	s.metricNearestCallCount.Add(ctx, 1)

	xS := ctx.UserValue("x").(string)
	yS := ctx.UserValue("y").(string)

	x, err := strconv.ParseFloat(xS, 64)
	if err != nil {
		ctx.Response.SetStatusCode(http.StatusBadRequest)
		return
	}
	y, err := strconv.ParseFloat(yS, 64)
	if err != nil {
		ctx.Response.SetStatusCode(http.StatusBadRequest)
		return
	}

	info, ok := s.query.Nearest(x, y)
	if !ok {
		ctx.Response.SetStatusCode(http.StatusNoContent)
		return
	}
	s.metricSamplesReturned.Add(ctx, 1)

	out, err := json.Marshal(info)
	if err != nil {
		ctx.Response.SetStatusCode(http.StatusInternalServerError)
		ctx.Response.SetBodyString("failed to marshal response")
		return
	}

	ctx.Response.SetStatusCode(http.StatusOK)
	ctx.Response.SetBody(out)
}

func (s *server) NearestBatchHandler(ctx *fasthttp.RequestCtx) {
	s.metricBatchCallCount.Add(ctx, 1)

	var req [][2]float64 // x, y
	if err := json.Unmarshal(ctx.Request.Body(), &req); err != nil {
		ctx.Response.SetStatusCode(http.StatusBadRequest)
		ctx.Response.SetBodyString("failed to parse request: " + err.Error())
		return
	}

	res := make([]*SampleInfo, 0, len(req))
	found := int64(0)
	for _, p := range req {
		if info, ok := s.query.Nearest(p[0], p[1]); ok {
			res = append(res, &info)
			found++
		} else {
			res = append(res, nil)
		}
	}
	s.metricSamplesReturned.Add(ctx, found)

	data, err := json.Marshal(res)
	if err != nil {
		ctx.Response.SetStatusCode(http.StatusInternalServerError)
		return
	}

	ctx.Response.SetStatusCode(http.StatusOK)
	ctx.Response.SetBody(data)
}
