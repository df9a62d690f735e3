package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"github.com/terralab/negsample/runfile"
)

func testRun() runfile.Run {
	return runfile.Run{
		Width:     100,
		Height:    100,
		OriginX:   0,
		OriginY:   1000,
		CellSizeX: 10,
		CellSizeY: -10,
		Samples: []runfile.Sample{
			{X: 105, Y: 895, RadiusWorld: 30, RadiusCells: 3, Row: 10, Col: 10, Status: runfile.StatusPlaced},
			{X: 505, Y: 495, RadiusWorld: 20, RadiusCells: 2, Row: 50, Col: 50, Status: runfile.StatusPlaced},
			{X: 0, Y: 0, RadiusWorld: 500, RadiusCells: 50, Status: runfile.StatusEmptyInterior},
		},
	}
}

func testServer(q *Query) *server {
	// the default global provider is a no-op, counters are still callable
	nearest, _ := meter.Int64Counter("http_nearest_call_total")
	batch, _ := meter.Int64Counter("http_nearest_batch_call_total")
	returned, _ := meter.Int64Counter("samples_returned_total")

	return &server{
		query: q,

		metricNearestCallCount: nearest,
		metricBatchCallCount:   batch,
		metricSamplesReturned:  returned,
	}
}

func TestNearestHandler(t *testing.T) {
	s := testServer(NewQuery(testRun(), 100))

	ctx := &fasthttp.RequestCtx{}
	ctx.SetUserValue("x", "100")
	ctx.SetUserValue("y", "900")
	s.NearestHandler(ctx)
	require.Equal(t, http.StatusOK, ctx.Response.StatusCode())

	var info SampleInfo
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &info))
	require.Equal(t, 105.0, info.X)
	require.Equal(t, 895.0, info.Y)
	require.Equal(t, 30.0, info.Radius)
	require.Equal(t, 50.0, info.DistanceSq)
}

func TestNearestHandlerNoContent(t *testing.T) {
	s := testServer(NewQuery(testRun(), 100))

	ctx := &fasthttp.RequestCtx{}
	ctx.SetUserValue("x", "9000")
	ctx.SetUserValue("y", "9000")
	s.NearestHandler(ctx)
	require.Equal(t, http.StatusNoContent, ctx.Response.StatusCode())
}

func TestNearestHandlerBadCoordinate(t *testing.T) {
	s := testServer(NewQuery(testRun(), 100))

	ctx := &fasthttp.RequestCtx{}
	ctx.SetUserValue("x", "not-a-number")
	ctx.SetUserValue("y", "900")
	s.NearestHandler(ctx)
	require.Equal(t, http.StatusBadRequest, ctx.Response.StatusCode())
}

func TestNearestBatchHandler(t *testing.T) {
	s := testServer(NewQuery(testRun(), 100))

	ctx := getRequestCtx(`[[100, 900], [9000, 9000], [500, 500]]`)
	s.NearestBatchHandler(ctx)
	require.Equal(t, http.StatusOK, ctx.Response.StatusCode())

	var res []*SampleInfo
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &res))
	require.Len(t, res, 3)
	require.NotNil(t, res[0])
	require.Nil(t, res[1])
	require.NotNil(t, res[2])
	require.Equal(t, 505.0, res[2].X)
}

func TestNearestBatchHandlerBadBody(t *testing.T) {
	s := testServer(NewQuery(testRun(), 100))

	ctx := getRequestCtx(`{"not": "an array"}`)
	s.NearestBatchHandler(ctx)
	require.Equal(t, http.StatusBadRequest, ctx.Response.StatusCode())
}

func TestQuerySkipsFailedSamples(t *testing.T) {
	q := NewQuery(testRun(), 100)
	require.Equal(t, 2, q.Len())

	_, ok := q.Nearest(0, 0)
	require.False(t, ok)
}

func BenchmarkHandlers(b *testing.B) {
	run := testRun()
	for i := 0; i < 10_000; i++ {
		run.Samples = append(run.Samples, runfile.Sample{
			X:      float64((i * 7919) % 1000),
			Y:      float64((i * 104729) % 1000),
			Status: runfile.StatusPlaced,
		})
	}
	s := testServer(NewQuery(run, 0))

	b.ResetTimer()

	b.Run("NearestBatchHandler-10", func(b *testing.B) {
		points := generatePoints(10)
		b.ResetTimer()

		for i := 0; i < b.N; i++ {
			ctx := getRequestCtx(points)
			s.NearestBatchHandler(ctx)
		}
	})

	b.Run("NearestBatchHandler-1000", func(b *testing.B) {
		points := generatePoints(1000)
		b.ResetTimer()

		for i := 0; i < b.N; i++ {
			ctx := getRequestCtx(points)
			s.NearestBatchHandler(ctx)
		}
	})
}

func generatePoints(n int) string {
	points := "["
	for i := range n {
		points += fmt.Sprintf("[%d.0, %d.0]", i%1000, (i*31)%1000)
		if i != n-1 {
			points += ","
		}
	}
	points += "]"
	return points
}

func getRequestCtx(body string) *fasthttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	if body != "" {
		ctx.Request.SetBodyString(body)
	}
	return ctx
}
