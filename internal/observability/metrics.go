package observability

// MetricKey names a metric family. The label set of each key is fixed by the
// metrics adapter.
type MetricKey string

const (
	MUsecaseRequests MetricKey = "usecase_requests_total"   // use_case, outcome
	MUsecaseDuration MetricKey = "usecase_duration_seconds" // use_case
	MSalesAmount     MetricKey = "sales_amount_total"       // payment_method
	MRefundAmount    MetricKey = "refund_amount_total"
	MLowStockAlerts  MetricKey = "low_stock_alerts_total" // product_id

	MScreenRequests MetricKey = "terminal_screens_total"           // screen, outcome
	MScreenDuration MetricKey = "terminal_screen_duration_seconds" // screen
)

type Metrics interface {
	Counter(name MetricKey) Counter
	Histogram(name MetricKey) Histogram
}

// Label values must stay low-cardinality: product ids are the largest set used.
type Label struct{ Key, Value string }

func L(k, v string) Label { return Label{Key: k, Value: v} }

type Counter interface {
	Add(delta float64, labels ...Label)
	Bind(labels ...Label) BoundCounter
}

type BoundCounter interface {
	Add(delta float64)
}

type Histogram interface {
	Observe(value float64, labels ...Label)
	Bind(labels ...Label) BoundHistogram
}

type BoundHistogram interface {
	Observe(value float64)
}
