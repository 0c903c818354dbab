package loadgen

import (
	"context"
	"sync"
	"time"

	"github.com/montanaflynn/stats"

	db "wasmfn/debug"
)

type Req func(ctx context.Context) error

// LoadGenerator fires requests open-loop at a fixed rate and records
// per-request latency.
type LoadGenerator struct {
	totaldur time.Duration // Duration of load generation.
	sleepdur time.Duration // Interval at which to fire off new requests.
	req      Req           // Request func.
	mu       sync.Mutex
	lats     []time.Duration // Latencies.
	nerr     int
	wg       sync.WaitGroup // Wait for request threads.
}

type Report struct {
	N    int
	Errs int
	Mean float64 // all in ms
	P50  float64
	P90  float64
	P99  float64
	P100 float64
}

func NewLoadGenerator(dur time.Duration, maxrps int, req Req) *LoadGenerator {
	return &LoadGenerator{
		totaldur: dur,
		sleepdur: time.Second / time.Duration(maxrps),
		req:      req,
	}
}

func (lg *LoadGenerator) runReq(ctx context.Context) {
	defer lg.wg.Done()
	start := time.Now()
	err := lg.req(ctx)
	lat := time.Since(start)
	lg.mu.Lock()
	defer lg.mu.Unlock()
	if err != nil {
		lg.nerr++
		return
	}
	lg.lats = append(lg.lats, lat)
}

// Run generates load until the duration elapses or ctx is canceled,
// then reports latency stats.
func (lg *LoadGenerator) Run(ctx context.Context) *Report {
	t := time.NewTicker(lg.sleepdur)
	defer t.Stop()
	var i int
	start := time.Now()
	for ; time.Since(start) < lg.totaldur; i++ {
		select {
		case <-ctx.Done():
			lg.wg.Wait()
			return lg.report()
		case <-t.C:
		}
		lg.wg.Add(1)
		go lg.runReq(ctx)
	}
	db.DPrintf(db.LOADGEN, "Avg req/sec: %v", float64(i)/time.Since(start).Seconds())
	lg.wg.Wait()
	return lg.report()
}

func (lg *LoadGenerator) report() *Report {
	lg.mu.Lock()
	defer lg.mu.Unlock()
	r := &Report{N: len(lg.lats), Errs: lg.nerr}
	if r.N == 0 {
		return r
	}
	data := make([]float64, len(lg.lats))
	for i, l := range lg.lats {
		data[i] = float64(l.Microseconds()) / 1000.0
	}
	var err error
	if r.Mean, err = stats.Mean(data); err != nil {
		db.DFatalf("Error calculating mean: %v", err)
	}
	if r.P50, err = stats.Percentile(data, 50); err != nil {
		db.DFatalf("Error calculating percentile 50: %v", err)
	}
	if r.P90, err = stats.Percentile(data, 90); err != nil {
		db.DFatalf("Error calculating percentile 90: %v", err)
	}
	if r.P99, err = stats.Percentile(data, 99); err != nil {
		db.DFatalf("Error calculating percentile 99: %v", err)
	}
	if r.P100, err = stats.Percentile(data, 100); err != nil {
		db.DFatalf("Error calculating percentile 100.0: %v", err)
	}
	db.DPrintf(db.LOADGEN,
		"\nLatency Stats (n=%v errs=%v):\n\nMean: %vms\n50%%: %vms\n90%%: %vms\n99%%: %vms\n100%%: %vms",
		r.N, r.Errs, r.Mean, r.P50, r.P90, r.P99, r.P100)
	return r
}
