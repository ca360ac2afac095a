// Package metrics instruments data managers with prometheus collectors.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hlblock/hlorm/clause"
	"github.com/hlblock/hlorm/datamanager"
)

const namespace = "hlorm"

// Operation labels
const (
	OpGetList  = "get_list"
	OpGetCount = "get_count"
	OpAdd      = "add"
	OpUpdate   = "update"
	OpDelete   = "delete"
)

// Collectors operation metrics shared by instrumented managers
type Collectors struct {
	Calls    *prometheus.CounterVec
	Failures *prometheus.CounterVec
	Rows     *prometheus.CounterVec
	Duration *prometheus.HistogramVec
}

// NewCollectors create collectors and register them, a nil registerer skips registration
func NewCollectors(registerer prometheus.Registerer) (*Collectors, error) {
	c := &Collectors{
		Calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "manager_calls_total",
			Help:      "Data manager calls by table and operation.",
		}, []string{"table", "operation"}),
		Failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "manager_failures_total",
			Help:      "Failed data manager calls by table and operation.",
		}, []string{"table", "operation"}),
		Rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "manager_rows_total",
			Help:      "Rows listed by table.",
		}, []string{"table"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "manager_duration_seconds",
			Help:      "Data manager call latency by table and operation.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"table", "operation"}),
	}

	if registerer != nil {
		for _, collector := range []prometheus.Collector{c.Calls, c.Failures, c.Rows, c.Duration} {
			if err := registerer.Register(collector); err != nil {
				return nil, err
			}
		}
	}
	return c, nil
}

// Manager data manager decorated with metrics
type Manager struct {
	datamanager.Manager
	table      string
	collectors *Collectors
}

// Wrap instrument manager of the table
func (c *Collectors) Wrap(table string, manager datamanager.Manager) *Manager {
	return &Manager{Manager: manager, table: table, collectors: c}
}

// Resolver instrument every manager resolved by resolver
func (c *Collectors) Resolver(resolver datamanager.Resolver) datamanager.Resolver {
	return func(table string) (datamanager.Manager, error) {
		manager, err := resolver(table)
		if err != nil {
			return nil, err
		}
		return c.Wrap(table, manager), nil
	}
}

func (m *Manager) observe(op string, begin time.Time, failed bool) {
	m.collectors.Calls.WithLabelValues(m.table, op).Inc()
	m.collectors.Duration.WithLabelValues(m.table, op).Observe(time.Since(begin).Seconds())
	if failed {
		m.collectors.Failures.WithLabelValues(m.table, op).Inc()
	}
}

// GetList counts listed rows while they are read
func (m *Manager) GetList(ctx context.Context, params clause.Parameters) (datamanager.Rows, error) {
	begin := time.Now()
	rows, err := m.Manager.GetList(ctx, params)
	m.observe(OpGetList, begin, err != nil)
	if err != nil {
		return nil, err
	}
	return &countedRows{Rows: rows, counter: m.collectors.Rows.WithLabelValues(m.table)}, nil
}

func (m *Manager) GetCount(ctx context.Context, filter clause.Filter) (int64, error) {
	begin := time.Now()
	count, err := m.Manager.GetCount(ctx, filter)
	m.observe(OpGetCount, begin, err != nil)
	return count, err
}

func (m *Manager) Add(ctx context.Context, values map[string]interface{}) *datamanager.Result {
	begin := time.Now()
	result := m.Manager.Add(ctx, values)
	m.observe(OpAdd, begin, !result.IsSuccess())
	return result
}

func (m *Manager) Update(ctx context.Context, primary interface{}, values map[string]interface{}) *datamanager.Result {
	begin := time.Now()
	result := m.Manager.Update(ctx, primary, values)
	m.observe(OpUpdate, begin, !result.IsSuccess())
	return result
}

func (m *Manager) Delete(ctx context.Context, primary interface{}) *datamanager.Result {
	begin := time.Now()
	result := m.Manager.Delete(ctx, primary)
	m.observe(OpDelete, begin, !result.IsSuccess())
	return result
}

type countedRows struct {
	datamanager.Rows
	counter prometheus.Counter
}

func (r *countedRows) Next() bool {
	if r.Rows.Next() {
		r.counter.Inc()
		return true
	}
	return false
}
