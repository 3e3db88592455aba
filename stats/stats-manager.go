package stats

import (
	"sync"
	"time"

	"github.com/cevaris/ordered_map"
	"github.com/relloyd/pgshift/logger"
)

type StatsFetcher interface {
	GetStats() []Stats
}

// Manager owns the TransferWatcher of every table in a run and logs their stats periodically.
type Manager struct {
	mu              sync.Mutex
	log             logger.Logger
	ticker          *time.Ticker
	tickerDone      chan struct{}
	tickerFrequency time.Duration
	running         bool
	watchers        *ordered_map.OrderedMap // TransferWatcher per table in the order they were added.
}

// SetStatsDumpFrequency returns a function that can be supplied as an option to NewManager().
// Zero disables periodic dumping.
func SetStatsDumpFrequency(d time.Duration) func(m *Manager) {
	return func(m *Manager) {
		m.tickerFrequency = d
	}
}

func NewManager(log logger.Logger, options ...func(m *Manager)) *Manager {
	m := &Manager{
		log:             log,
		tickerFrequency: DefaultDumpFrequency,
		watchers:        ordered_map.NewOrderedMap(),
	}
	for _, option := range options {
		option(m)
	}
	return m
}

// DefaultDumpFrequency is the interval between stats log lines for a run.
var DefaultDumpFrequency = 30 * time.Second

// AddTransferWatcher creates a TransferWatcher for name, or returns the existing one.
func (m *Manager) AddTransferWatcher(name string) *TransferWatcher {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.watchers.Get(name); ok {
		return v.(*TransferWatcher)
	}
	w := NewTransferWatcher(m.log, name)
	m.watchers.Set(name, w)
	return w
}

func (m *Manager) StartDumping() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running || m.tickerFrequency <= 0 {
		return
	}
	m.running = true
	m.ticker = time.NewTicker(m.tickerFrequency)
	m.tickerDone = make(chan struct{})
	go func(ticker *time.Ticker, done <-chan struct{}) {
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				m.logStats(true)
			}
		}
	}(m.ticker, m.tickerDone)
}

// StopDumping stops the ticker and logs the final stats of every transfer.
// The dump goroutine is signalled by closing its channel so a dump in progress never blocks the stop.
func (m *Manager) StopDumping() {
	m.mu.Lock()
	if m.running {
		m.running = false
		m.ticker.Stop()
		close(m.tickerDone)
	}
	m.mu.Unlock()
	m.logStats(false)
}

func (m *Manager) logStats(runningOnly bool) {
	for _, s := range m.GetStats() {
		if runningOnly && s.StatusText != "running" {
			continue
		}
		m.log.Info(s.String())
	}
}

// GetStats implements interface StatsFetcher{}.
func (m *Manager) GetStats() []Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	statsList := make([]Stats, 0)
	iter := m.watchers.IterFunc()
	for kv, ok := iter(); ok; kv, ok = iter() { // for each table in the order it was added...
		statsList = append(statsList, kv.Value.(*TransferWatcher).RenderStats())
	}
	return statsList
}
