package workers

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/process"
)

// Gauges reports the current size of the live tables. Kept as a small
// interface so the worker does not depend on the runtime package.
type Gauges interface {
	Connections() int
	Rooms() int
}

// TelemetryWorker periodically logs process health (RSS, CPU) together
// with the connection and room gauges. Purely observational; it never
// touches the dispatch path.
type TelemetryWorker struct {
	log      *slog.Logger
	interval time.Duration
	gauges   Gauges
}

func NewTelemetryWorker(log *slog.Logger, interval time.Duration, gauges Gauges) *TelemetryWorker {
	return &TelemetryWorker{log: log, interval: interval, gauges: gauges}
}

func (w *TelemetryWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.report(p)
		}
	}
}

func (w *TelemetryWorker) report(p *process.Process) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	var rss uint64
	if memInfo, err := p.MemoryInfo(); err == nil {
		rss = memInfo.RSS
	}
	cpu, _ := p.CPUPercent()

	w.log.Info("process telemetry",
		"connections", w.gauges.Connections(),
		"rooms", w.gauges.Rooms(),
		"rss_bytes", rss,
		"cpu_percent", cpu,
		"alloc_mb", memStats.Alloc/1024/1024,
		"num_gc", memStats.NumGC)
}
