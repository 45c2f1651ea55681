package metrics

import (
	"time"

	"github.com/bittoy/reactive/pipeline"
)

// Interceptor observes WritesTotal and ReadDuration from inside the
// read/write pipelines, the metrics-layer counterpart to the teacher's
// engine/metrics.go being fed directly from OnMsg. It carries no ordering
// preference of its own: registration order relative to validators and
// the change observer decides whether "committed" here means "passed
// validation" or merely "reached this interceptor," so a caller placing
// it should register it last among WriteInterceptors if outcome
// accuracy matters.
type Interceptor struct{}

// ServiceName identifies this interceptor for ordering purposes.
func (Interceptor) ServiceName() string { return "metrics.Interceptor" }

// Read implements pipeline.ReadInterceptor, timing the remainder of the
// read chain into ReadDuration.
func (Interceptor) Read(ctx *pipeline.ReadContext, next pipeline.ReadNext) (any, error) {
	start := time.Now()
	v, err := next()
	ReadDuration.Observe(time.Since(start).Seconds())
	return v, err
}

// Write implements pipeline.WriteInterceptor, counting the write's
// outcome into WritesTotal: "rejected" if the chain returns an error,
// "committed" otherwise.
func (Interceptor) Write(ctx *pipeline.WriteContext, next pipeline.WriteNext) error {
	err := next()
	if err != nil {
		WritesTotal.WithLabelValues("rejected").Inc()
		return err
	}
	WritesTotal.WithLabelValues("committed").Inc()
	return nil
}
