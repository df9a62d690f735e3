// Package stats samples process runtime statistics during long generation
// runs; the summary can be dumped next to the run outputs for sizing future
// study areas.
package stats

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/process"
)

type Point struct {
	Timestamp      time.Time `json:"timestamp"`
	ElapsedSeconds float64   `json:"elapsed_seconds"`

	HeapAlloc       uint64  `json:"heap_alloc"`
	Sys             uint64  `json:"sys"`
	NumGC           uint32  `json:"num_gc"`
	ProcessRSSBytes uint64  `json:"process_rss_bytes"`
	CPUPercent      float64 `json:"cpu_percent"`
	NumGoroutine    int     `json:"num_goroutine"`
}

type Summary struct {
	PeakHeapAlloc  uint64  `json:"peak_heap_alloc"`
	PeakProcessRSS uint64  `json:"peak_process_rss"`
	PeakCPUPercent float64 `json:"peak_cpu_percent"`
	PeakGoroutines int     `json:"peak_goroutines"`
	TotalGCCycles  uint32  `json:"total_gc_cycles"`
	SampleCount    int     `json:"sample_count"`
}

type RunStats struct {
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	ElapsedHuman string    `json:"total_elapsed"`
	Samples      []Point   `json:"samples"`
	Summary      Summary   `json:"summary"`
}

type Collector struct {
	mu        sync.Mutex
	stats     RunStats
	startTime time.Time
	interval  time.Duration
	proc      *process.Process
	stopChan  chan struct{}
	doneChan  chan struct{}
}

func NewCollector(interval time.Duration) (*Collector, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, fmt.Errorf("failed to get process info: %w", err)
	}
	return &Collector{
		interval: interval,
		proc:     proc,
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}, nil
}

func (c *Collector) Start() {
	c.startTime = time.Now()
	c.stats.StartTime = c.startTime
	go c.collect()
}

func (c *Collector) collect() {
	defer close(c.doneChan)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.sample()
	for {
		select {
		case <-c.stopChan:
			c.sample()
			return
		case <-ticker.C:
			c.sample()
		}
	}
}

func (c *Collector) sample() {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	point := Point{
		Timestamp:      time.Now(),
		ElapsedSeconds: time.Since(c.startTime).Seconds(),
		HeapAlloc:      mem.HeapAlloc,
		Sys:            mem.Sys,
		NumGC:          mem.NumGC,
		NumGoroutine:   runtime.NumGoroutine(),
	}
	if memInfo, err := c.proc.MemoryInfo(); err == nil && memInfo != nil {
		point.ProcessRSSBytes = memInfo.RSS
	}
	if cpuPercent, err := c.proc.CPUPercent(); err == nil {
		point.CPUPercent = cpuPercent
	}

	c.mu.Lock()
	c.stats.Samples = append(c.stats.Samples, point)
	c.mu.Unlock()
}

// Stop ends the collection loop and returns the final stats with summary.
func (c *Collector) Stop() RunStats {
	close(c.stopChan)
	<-c.doneChan

	c.mu.Lock()
	defer c.mu.Unlock()

	c.stats.EndTime = time.Now()
	c.stats.ElapsedHuman = c.stats.EndTime.Sub(c.stats.StartTime).String()

	s := &c.stats.Summary
	for _, p := range c.stats.Samples {
		if p.HeapAlloc > s.PeakHeapAlloc {
			s.PeakHeapAlloc = p.HeapAlloc
		}
		if p.ProcessRSSBytes > s.PeakProcessRSS {
			s.PeakProcessRSS = p.ProcessRSSBytes
		}
		if p.CPUPercent > s.PeakCPUPercent {
			s.PeakCPUPercent = p.CPUPercent
		}
		if p.NumGoroutine > s.PeakGoroutines {
			s.PeakGoroutines = p.NumGoroutine
		}
		if p.NumGC > s.TotalGCCycles {
			s.TotalGCCycles = p.NumGC
		}
	}
	s.SampleCount = len(c.stats.Samples)

	return c.stats
}

func (s RunStats) WriteFile(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal stats: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
