package mailer

import (
	"context"
	"math"
	"sync"
	"time"

	"taskboard/backend/pkg/metrics"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const defaultSendTimeout = 30 * time.Second

// Dispatcher delivers messages in the background. Delivery failures are
// logged and counted; they never reach the caller.
type Dispatcher struct {
	transport Transport
	log       *zap.Logger
	timeout   time.Duration
	limiter   *rate.Limiter
	wg        sync.WaitGroup
}

// DispatcherOption customizes a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithSendRate caps outbound sends to perSecond messages, matching the
// provider's sending quota. Zero or less means unlimited.
func WithSendRate(perSecond float64) DispatcherOption {
	return func(d *Dispatcher) {
		if perSecond > 0 {
			d.limiter = rate.NewLimiter(rate.Limit(perSecond), int(math.Max(1, perSecond)))
		}
	}
}

// WithSendTimeout bounds each delivery, including time spent waiting for
// the send rate.
func WithSendTimeout(timeout time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		if timeout > 0 {
			d.timeout = timeout
		}
	}
}

func NewDispatcher(transport Transport, log *zap.Logger, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		transport: transport,
		log:       log.Named("mail_dispatcher"),
		timeout:   defaultSendTimeout,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Send queues msg for delivery and returns immediately.
func (d *Dispatcher) Send(msg Message) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.deliver(msg)
	}()
}

func (d *Dispatcher) deliver(msg Message) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	err := d.waitTurn(ctx)
	if err == nil {
		err = d.transport.Send(ctx, msg)
	}
	if err != nil {
		metrics.MailsSent.WithLabelValues(string(msg.Template), "error").Inc()
		d.log.Error("Failed to send email",
			zap.String("transport", d.transport.Name()),
			zap.String("recipient", msg.To),
			zap.String("subject", msg.Subject),
			zap.Error(err))
		return
	}
	metrics.MailsSent.WithLabelValues(string(msg.Template), "sent").Inc()
	d.log.Info("Successfully sent email",
		zap.String("transport", d.transport.Name()),
		zap.String("recipient", msg.To),
		zap.String("subject", msg.Subject))
}

func (d *Dispatcher) waitTurn(ctx context.Context) error {
	if d.limiter == nil {
		return nil
	}
	return d.limiter.Wait(ctx)
}

// Wait blocks until every queued message has been attempted or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
