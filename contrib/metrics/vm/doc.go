// Package vm provides a VictoriaMetrics implementation of
// types.MetricsCollector.
//
// All metrics are pre-created at initialization time so the hot path never
// allocates. Expose them via the Handler method:
//
//	collector := vm.New(vm.WithPrefix("myapp"))
//	client, _ := unidb.NewClient(backend, unidb.WithMetrics(collector))
//	http.HandleFunc("/metrics", collector.Handler)
package vm
