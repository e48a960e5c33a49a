package requestsvc

import (
	"context"
	"log/slog"
)

type AvailabilityRepairer interface {
	ReconcileAvailability(ctx context.Context) (int64, error)
}

// Reconciler repairs books left available after one of their requests was
// accepted. Respond writes both rows in one transaction, so a non-zero result
// points at data written outside it.
type Reconciler interface {
	Reconcile(ctx context.Context) (int64, error)
}

type reconciler struct {
	r   AvailabilityRepairer
	log *slog.Logger
}

func NewReconciler(r AvailabilityRepairer, log *slog.Logger) Reconciler {
	if log == nil {
		log = slog.Default()
	}
	return &reconciler{r: r, log: log}
}

func (c *reconciler) Reconcile(ctx context.Context) (int64, error) {
	n, err := c.r.ReconcileAvailability(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		c.log.Warn("books marked unavailable by reconcile", "count", n)
	}
	return n, nil
}
