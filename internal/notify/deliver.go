package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/listshare/internal/metrics"
	"github.com/Kerhoff/listshare/internal/models"
)

// ErrUnreachable is returned by a deliverer that has no way to reach the
// recipient right now, e.g. no open live channel. It is not a failure.
var ErrUnreachable = errors.New("recipient unreachable")

// Envelope is a push addressed to one user
type Envelope struct {
	RecipientID int64                   `json:"recipient_id"`
	Message     models.NotificationView `json:"message"`
}

// Deliverer pushes an envelope to one transport
type Deliverer interface {
	Deliver(ctx context.Context, env Envelope) error
}

// DelivererFunc adapts a function to Deliverer
type DelivererFunc func(ctx context.Context, env Envelope) error

func (f DelivererFunc) Deliver(ctx context.Context, env Envelope) error {
	return f(ctx, env)
}

type target struct {
	name      string
	deliverer Deliverer
}

// MultiDeliverer hands every envelope to all registered deliverers. A failing
// deliverer never prevents the others from running.
type MultiDeliverer struct {
	targets []target
	metrics *metrics.Metrics
	logger  *logrus.Logger
}

// NewMultiDeliverer creates an empty MultiDeliverer
func NewMultiDeliverer(m *metrics.Metrics, logger *logrus.Logger) *MultiDeliverer {
	return &MultiDeliverer{metrics: m, logger: logger}
}

// Add registers a deliverer under name. Not safe to call once delivery started.
func (d *MultiDeliverer) Add(name string, deliverer Deliverer) {
	d.targets = append(d.targets, target{name: name, deliverer: deliverer})
}

// Deliver pushes env through every deliverer and joins their failures
func (d *MultiDeliverer) Deliver(ctx context.Context, env Envelope) error {
	var errs []error
	for _, t := range d.targets {
		err := t.deliverer.Deliver(ctx, env)
		switch {
		case err == nil:
			d.metrics.PushDelivered.WithLabelValues(t.name, "ok").Inc()
		case errors.Is(err, ErrUnreachable):
			d.metrics.PushDelivered.WithLabelValues(t.name, "unreachable").Inc()
		default:
			d.metrics.PushDelivered.WithLabelValues(t.name, "error").Inc()
			errs = append(errs, fmt.Errorf("%s: %w", t.name, err))
		}
	}
	return errors.Join(errs...)
}
