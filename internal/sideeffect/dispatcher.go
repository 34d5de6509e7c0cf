package sideeffect

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/advisordesk/advisor-booking-agent/internal/booking"
	"github.com/advisordesk/advisor-booking-agent/pkg/logging"
)

// DefaultCallTimeout bounds each collaborator call so one slow integration
// cannot stall the turn.
const DefaultCallTimeout = 10 * time.Second

// EventRefSink records the calendar reference on the committed booking.
type EventRefSink interface {
	SetEventRef(ctx context.Context, code, ref string) error
}

// Dispatcher fans out side effects after a registry mutation. Nil
// collaborators are simply skipped, so deployments can run with any
// subset configured.
type Dispatcher struct {
	calendar Calendar
	ledger   Ledger
	notifier Notifier
	refs     EventRefSink
	timeout  time.Duration
	logger   *logging.Logger
	tracer   trace.Tracer
}

// NewDispatcher wires the configured collaborators.
func NewDispatcher(calendar Calendar, ledger Ledger, notifier Notifier, refs EventRefSink, timeout time.Duration, logger *logging.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Dispatcher{
		calendar: calendar,
		ledger:   ledger,
		notifier: notifier,
		refs:     refs,
		timeout:  timeout,
		logger:   logger,
		tracer:   otel.Tracer("advisor.internal.sideeffect"),
	}
}

// BookingCommitted runs the booking side effects and returns the calendar
// event link, if one was created. The calendar call runs first so its link
// can flow into the notice; ledger and notification run concurrently and
// independently.
func (d *Dispatcher) BookingCommitted(ctx context.Context, b booking.Booking) ([]Status, string) {
	ctx, span := d.tracer.Start(ctx, "sideeffect.booking_committed")
	defer span.End()

	var statuses []Status
	eventLink := ""
	if d.calendar == nil {
		statuses = append(statuses, Status{Channel: ChannelCalendar, OK: true, Skipped: true})
	} else {
		st := Status{Channel: ChannelCalendar}
		err := d.call(ctx, func(cctx context.Context) error {
			event, err := d.calendar.CreateEvent(cctx, b)
			if err != nil {
				return err
			}
			eventLink = event.Link
			if d.refs != nil && event.Ref != "" {
				if err := d.refs.SetEventRef(cctx, b.Code, event.Ref); err != nil {
					d.logger.Warn("event ref not recorded", "code", b.Code, "error", err)
				}
			}
			return nil
		})
		st.OK = err == nil
		if err != nil {
			st.Err = err.Error()
			d.logger.Error("calendar side effect failed", "code", b.Code, "error", err)
		}
		statuses = append(statuses, st)
	}

	statuses = append(statuses, d.fanOut(ctx, b.Code,
		namedCall{ChannelLedger, d.ledgerCall(func(cctx context.Context) error { return d.ledger.AppendEntry(cctx, b) })},
		namedCall{ChannelNotification, d.notifierCall(func(cctx context.Context) error { return d.notifier.BookingNotice(cctx, b, eventLink) })},
	)...)
	return statuses, eventLink
}

// Rescheduled runs the reschedule side effects. A booking that never got a
// calendar event skips the calendar update rather than failing it.
func (d *Dispatcher) Rescheduled(ctx context.Context, b booking.Booking) []Status {
	ctx, span := d.tracer.Start(ctx, "sideeffect.rescheduled")
	defer span.End()

	calendarCall := d.skippedCall(d.calendar == nil || b.EventRef == "", func(cctx context.Context) error {
		return d.calendar.UpdateEvent(cctx, b.EventRef, b)
	})
	return d.fanOut(ctx, b.Code,
		namedCall{ChannelCalendar, calendarCall},
		namedCall{ChannelLedger, d.ledgerCall(func(cctx context.Context) error { return d.ledger.UpdateEntry(cctx, b) })},
		namedCall{ChannelNotification, d.notifierCall(func(cctx context.Context) error { return d.notifier.RescheduleNotice(cctx, b) })},
	)
}

// Cancelled runs the cancellation side effects. A missing event reference
// skips the calendar delete; the cancellation itself already stands.
func (d *Dispatcher) Cancelled(ctx context.Context, b booking.Booking) []Status {
	ctx, span := d.tracer.Start(ctx, "sideeffect.cancelled")
	defer span.End()

	cancelledAt := b.UpdatedAt
	if b.CancelledAt != nil {
		cancelledAt = *b.CancelledAt
	}
	calendarCall := d.skippedCall(d.calendar == nil || b.EventRef == "", func(cctx context.Context) error {
		return d.calendar.DeleteEvent(cctx, b.EventRef)
	})
	return d.fanOut(ctx, b.Code,
		namedCall{ChannelCalendar, calendarCall},
		namedCall{ChannelLedger, d.ledgerCall(func(cctx context.Context) error { return d.ledger.MarkCancelled(cctx, b.Code, cancelledAt) })},
		namedCall{ChannelNotification, d.notifierCall(func(cctx context.Context) error { return d.notifier.CancellationNotice(cctx, b) })},
	)
}

type callFunc func(ctx context.Context) error

type namedCall struct {
	channel string
	fn      callFunc // nil means the collaborator is not configured
}

func (d *Dispatcher) ledgerCall(fn callFunc) callFunc {
	if d.ledger == nil {
		return nil
	}
	return fn
}

func (d *Dispatcher) notifierCall(fn callFunc) callFunc {
	if d.notifier == nil {
		return nil
	}
	return fn
}

func (d *Dispatcher) skippedCall(skip bool, fn callFunc) callFunc {
	if skip {
		return nil
	}
	return fn
}

// fanOut runs the calls concurrently, each under its own timeout, and
// returns statuses in channel order.
func (d *Dispatcher) fanOut(ctx context.Context, code string, calls ...namedCall) []Status {
	var (
		mu       sync.Mutex
		statuses []Status
		wg       sync.WaitGroup
	)
	order := map[string]int{}
	for i, c := range calls {
		order[c.channel] = i
		if c.fn == nil {
			mu.Lock()
			statuses = append(statuses, Status{Channel: c.channel, OK: true, Skipped: true})
			mu.Unlock()
			continue
		}
		wg.Add(1)
		go func(c namedCall) {
			defer wg.Done()
			err := d.call(ctx, c.fn)
			st := Status{Channel: c.channel, OK: err == nil}
			if err != nil {
				st.Err = err.Error()
				d.logger.Error("side effect failed", "channel", c.channel, "code", code, "error", err)
			}
			mu.Lock()
			statuses = append(statuses, st)
			mu.Unlock()
		}(c)
	}
	wg.Wait()
	sort.Slice(statuses, func(i, j int) bool {
		return order[statuses[i].Channel] < order[statuses[j].Channel]
	})
	return statuses
}

func (d *Dispatcher) call(ctx context.Context, fn callFunc) error {
	cctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	return fn(cctx)
}
