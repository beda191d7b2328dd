package testsCommon

import (
	"net/http"
	"time"
)

// MetricsHandlerStub -
type MetricsHandlerStub struct {
	ObserveCycleHandler   func(status string, duration time.Duration, numRows int)
	ObserveQueryHandler   func(kind string, err error)
	ObserveRequestHandler func(method string, route string, status int, duration time.Duration)
	HTTPHandlerHandler    func() http.Handler
}

// ObserveCycle -
func (stub *MetricsHandlerStub) ObserveCycle(status string, duration time.Duration, numRows int) {
	if stub.ObserveCycleHandler != nil {
		stub.ObserveCycleHandler(status, duration, numRows)
	}
}

// ObserveQuery -
func (stub *MetricsHandlerStub) ObserveQuery(kind string, err error) {
	if stub.ObserveQueryHandler != nil {
		stub.ObserveQueryHandler(kind, err)
	}
}

// ObserveRequest -
func (stub *MetricsHandlerStub) ObserveRequest(method string, route string, status int, duration time.Duration) {
	if stub.ObserveRequestHandler != nil {
		stub.ObserveRequestHandler(method, route, status, duration)
	}
}

// HTTPHandler -
func (stub *MetricsHandlerStub) HTTPHandler() http.Handler {
	if stub.HTTPHandlerHandler != nil {
		return stub.HTTPHandlerHandler()
	}

	return http.NotFoundHandler()
}

// IsInterfaceNil -
func (stub *MetricsHandlerStub) IsInterfaceNil() bool {
	return stub == nil
}
