package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Lending exposes engine counters. A nil *Lending is a valid no-op sink.
type Lending struct {
	originations *prometheus.CounterVec
	originated   *prometheus.CounterVec
	repayments   *prometheus.CounterVec
	warnings     *prometheus.CounterVec
	closures     *prometheus.CounterVec
	shortfall    *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Lending {
	m := &Lending{
		originations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "credlink_loans_originated_total",
			Help: "Count of originated loans by asset.",
		}, []string{"asset"}),
		originated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "credlink_principal_originated_total",
			Help: "Principal lent out, in base units, by asset.",
		}, []string{"asset"}),
		repayments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "credlink_repayments_total",
			Help: "Count of completed repayments by asset and timeliness.",
		}, []string{"asset", "on_time"}),
		warnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "credlink_liquidation_warnings_total",
			Help: "Count of health evaluations that landed in the warning band.",
		}, []string{"asset"}),
		closures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "credlink_forced_closures_total",
			Help: "Count of loans closed by liquidation or default.",
		}, []string{"asset", "kind"}),
		shortfall: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "credlink_unrecovered_shortfall_total",
			Help: "Principal not recovered by forced closures, in base units.",
		}, []string{"asset"}),
	}
	if reg != nil {
		reg.MustRegister(m.originations, m.originated, m.repayments, m.warnings, m.closures, m.shortfall)
	}
	return m
}

func (m *Lending) ObserveOrigination(asset string, amount uint64) {
	if m == nil {
		return
	}
	asset = label(asset)
	m.originations.WithLabelValues(asset).Inc()
	m.originated.WithLabelValues(asset).Add(float64(amount))
}

func (m *Lending) ObserveRepayment(asset string, onTime bool) {
	if m == nil {
		return
	}
	m.repayments.WithLabelValues(label(asset), strconv.FormatBool(onTime)).Inc()
}

func (m *Lending) ObserveWarning(asset string) {
	if m == nil {
		return
	}
	m.warnings.WithLabelValues(label(asset)).Inc()
}

// ObserveClosure counts a forced close; kind is the terminal status.
func (m *Lending) ObserveClosure(asset, kind string) {
	if m == nil {
		return
	}
	m.closures.WithLabelValues(label(asset), label(kind)).Inc()
}

func (m *Lending) ObserveShortfall(asset string, amount uint64) {
	if m == nil || amount == 0 {
		return
	}
	m.shortfall.WithLabelValues(label(asset)).Add(float64(amount))
}

func label(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
