package httpclient

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusInterceptor returns an interceptor that increments counter on
// every dispatch.
//
// Example:
//
//	dispatched := prometheus.NewCounter(prometheus.CounterOpts{
//	    Name: "orders_api_dispatched_total",
//	    Help: "Requests sent to the orders API.",
//	})
//	prometheus.MustRegister(dispatched)
//
//	spec := httpclient.Post("/orders").
//	    WithInterceptors(httpclient.PrometheusInterceptor(dispatched))
func PrometheusInterceptor(counter prometheus.Counter) Interceptor {
	return func() error {
		counter.Inc()
		return nil
	}
}

// PrometheusLabeledInterceptor increments the child of vec selected by
// labelValues on every dispatch.
func PrometheusLabeledInterceptor(vec *prometheus.CounterVec, labelValues ...string) Interceptor {
	return func() error {
		c, err := vec.GetMetricWithLabelValues(labelValues...)
		if err != nil {
			return err
		}
		c.Inc()
		return nil
	}
}
