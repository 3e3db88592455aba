package stats

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	c "github.com/relloyd/pgshift/constants"
	h "github.com/relloyd/pgshift/helper"
	"github.com/relloyd/pgshift/logger"
)

// TransferWatcher saves throughput stats for a single table transfer periodically.
// The transfer calls StartWatching() and StopWatching() and updates its counters with AddBytes() and SetRows().
type TransferWatcher struct {
	log              logger.Logger
	name             string
	bytes            int64 // uncompressed bytes read from the source so far.
	rows             int64
	bytesPerSecDelta int64
	bytesPerSecAvg   int64
	priorBytes       int64     // allows us to calculate delta bytes per sec between ticker timeout.
	priorTime        time.Time // allows us to calculate delta bytes per sec between ticker timeout.
	startTime        time.Time
	endTime          time.Time
	mu               sync.Mutex
	ticker           *time.Ticker
	tickerDone       chan struct{}
	isRunning        h.AtomBool
	frequency        time.Duration
}

// Stats is a point in time view of a TransferWatcher.
type Stats struct {
	Name             string `json:"name"`
	StatusText       string `json:"statusText"`
	ElapsedTimeSec   int    `json:"elapsedTimeSec"`
	TotalBytes       int64  `json:"totalBytes"`
	TotalRows        int64  `json:"totalRows"`
	BytesPerSecAvg   int64  `json:"bytesPerSecAvg"`
	BytesPerSecDelta int64  `json:"bytesPerSecDelta"`
}

func NewTransferWatcher(log logger.Logger, name string) *TransferWatcher {
	return &TransferWatcher{
		log:        log,
		name:       name,
		tickerDone: make(chan struct{}),
		frequency:  time.Second * c.StatsCaptureFrequencySeconds,
	}
}

// Write counts bytes so the watcher can sit in an io.MultiWriter or TeeReader.
func (n *TransferWatcher) Write(p []byte) (int, error) {
	n.AddBytes(int64(len(p)))
	return len(p), nil
}

func (n *TransferWatcher) AddBytes(i int64) {
	atomic.AddInt64(&n.bytes, i)
}

// SetRows saves the final row count reported by the source.
func (n *TransferWatcher) SetRows(i int64) {
	atomic.StoreInt64(&n.rows, i)
}

func (n *TransferWatcher) StartWatching() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.isRunning.Get() {
		return
	}
	n.startTime = time.Now()
	n.priorTime = n.startTime
	n.isRunning.Set(true)
	n.ticker = time.NewTicker(n.frequency)
	go func() {
		for {
			select {
			case <-n.ticker.C:
				n.CalculateStats()
				n.log.Debug(n.RenderStats().String())
			case <-n.tickerDone:
				return
			}
		}
	}()
}

func (n *TransferWatcher) StopWatching() {
	n.mu.Lock()
	if !n.isRunning.Get() {
		n.mu.Unlock()
		return
	}
	n.ticker.Stop()
	n.mu.Unlock()
	n.tickerDone <- struct{}{} // stop the goroutine that calculates stats.
	n.CalculateStats()         // force final stats calculation.
	n.mu.Lock()
	n.endTime = time.Now()
	n.mu.Unlock()
	n.isRunning.Set(false)
}

func (n *TransferWatcher) CalculateStats() {
	n.mu.Lock()
	defer n.mu.Unlock()
	deltaTime := int64(time.Since(n.priorTime).Seconds())
	if deltaTime < 1 { // if we will cause divide by 0 error...
		deltaTime = 1
	}
	total := atomic.LoadInt64(&n.bytes)
	atomic.StoreInt64(&n.bytesPerSecDelta, (total-n.priorBytes)/deltaTime)
	atomic.StoreInt64(&n.bytesPerSecAvg, total/getNumSecondsSinceTimeOrOne(n.startTime))
	n.priorBytes = total
	n.priorTime = time.Now()
}

// RenderStats gets a struct filled with stats at the point of time it is called.
func (n *TransferWatcher) RenderStats() Stats {
	n.mu.Lock()
	start, end := n.startTime, n.endTime
	n.mu.Unlock()
	statusText := "pending"
	elapsed := time.Duration(0)
	switch {
	case n.isRunning.Get():
		statusText = "running"
		elapsed = time.Since(start)
	case !end.IsZero():
		statusText = "complete"
		elapsed = end.Sub(start)
	}
	return Stats{
		Name:             n.name,
		StatusText:       statusText,
		ElapsedTimeSec:   int(elapsed.Seconds()),
		TotalBytes:       atomic.LoadInt64(&n.bytes),
		TotalRows:        atomic.LoadInt64(&n.rows),
		BytesPerSecAvg:   atomic.LoadInt64(&n.bytesPerSecAvg),
		BytesPerSecDelta: atomic.LoadInt64(&n.bytesPerSecDelta),
	}
}

// String will format the stats for general logging.
func (s Stats) String() string {
	return fmt.Sprintf(
		"Stats for %v %v "+
			"elapsedTimeSec=%v "+
			"totalBytes=%v "+
			"totalRows=%v "+
			"bytesPerSecAvg=%v "+
			"bytesPerSecDelta=%v",
		s.Name, s.StatusText,
		s.ElapsedTimeSec,
		s.TotalBytes,
		s.TotalRows,
		s.BytesPerSecAvg,
		s.BytesPerSecDelta,
	)
}

func getNumSecondsSinceTimeOrOne(t time.Time) (seconds int64) {
	seconds = int64(time.Since(t).Seconds())
	if seconds < 1 {
		seconds = 1
	}
	return
}
