package actions

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cevaris/ordered_map"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// TableOutcome is the result of replicating one source table.
type TableOutcome struct {
	Table       string
	TargetTable string
	Status      Status
	Kind        ErrorKind
	Err         error
	Rows        int64
	BytesIn     int64 // uncompressed bytes exported.
	BytesOut    int64 // compressed bytes staged.
	Address     string
	Elapsed     time.Duration
}

func (o TableOutcome) String() string {
	switch o.Status {
	case StatusSucceeded:
		return fmt.Sprintf("%v: %v rows replicated to %v in %v", o.Table, o.Rows, o.TargetTable, o.Elapsed.Round(time.Millisecond))
	case StatusFailed:
		return o.Err.Error()
	}
	return fmt.Sprintf("%v: %v", o.Table, o.Status)
}

// Report holds the outcome of every table in a run in catalog order.
type Report struct {
	RunID    string
	mu       sync.Mutex
	outcomes *ordered_map.OrderedMap
}

func NewReport(runID string, tables []string) *Report {
	r := &Report{RunID: runID, outcomes: ordered_map.NewOrderedMap()}
	for _, t := range tables {
		r.outcomes.Set(t, TableOutcome{Table: t, Status: StatusPending})
	}
	return r
}

// Set saves o, keeping the table's original position.
func (r *Report) Set(o TableOutcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes.Set(o.Table, o)
}

func (r *Report) Get(table string) (TableOutcome, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.outcomes.Get(table)
	if !ok {
		return TableOutcome{}, false
	}
	return v.(TableOutcome), true
}

func (r *Report) Outcomes() []TableOutcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := make([]TableOutcome, 0, r.outcomes.Len())
	iter := r.outcomes.IterFunc()
	for kv, ok := iter(); ok; kv, ok = iter() {
		list = append(list, kv.Value.(TableOutcome))
	}
	return list
}

// Failed returns every outcome that did not succeed.
func (r *Report) Failed() []TableOutcome {
	return lo.Filter(r.Outcomes(), func(o TableOutcome, _ int) bool {
		return o.Status != StatusSucceeded
	})
}

// Summary renders one line per table followed by the totals.
func (r *Report) Summary() string {
	outcomes := r.Outcomes()
	failed := r.Failed()
	b := strings.Builder{}
	for _, o := range outcomes {
		b.WriteString(o.String())
		b.WriteString("\n")
	}
	b.WriteString(fmt.Sprintf("%v of %v tables replicated", len(outcomes)-len(failed), len(outcomes)))
	if len(failed) > 0 {
		b.WriteString(fmt.Sprintf("; failed: %v", strings.Join(lo.Map(failed, func(o TableOutcome, _ int) string {
			return o.Table
		}), ", ")))
	}
	return b.String()
}

// Err returns an error naming the tables that did not succeed, or nil.
func (r *Report) Err() error {
	outcomes := r.Outcomes()
	failed := r.Failed()
	if len(failed) == 0 {
		return nil
	}
	return errors.Errorf("%v of %v tables failed: %v", len(failed), len(outcomes), strings.Join(
		lo.Map(failed, func(o TableOutcome, _ int) string { return o.Table }), ", "))
}
