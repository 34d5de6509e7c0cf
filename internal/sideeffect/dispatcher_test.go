package sideeffect

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/advisordesk/advisor-booking-agent/internal/availability"
	"github.com/advisordesk/advisor-booking-agent/internal/booking"
)

type fakeCalendar struct {
	event     Event
	createErr error
	updateErr error
	deleteErr error
	created   int
	updated   int
	deleted   int
	lastRef   string
}

func (f *fakeCalendar) CreateEvent(ctx context.Context, b booking.Booking) (Event, error) {
	f.created++
	return f.event, f.createErr
}

func (f *fakeCalendar) UpdateEvent(ctx context.Context, ref string, b booking.Booking) error {
	f.updated++
	f.lastRef = ref
	return f.updateErr
}

func (f *fakeCalendar) DeleteEvent(ctx context.Context, ref string) error {
	f.deleted++
	f.lastRef = ref
	return f.deleteErr
}

type fakeLedger struct {
	appendErr error
	updateErr error
	cancelErr error
	appended  int
	updated   int
	cancelled int
}

func (f *fakeLedger) AppendEntry(ctx context.Context, b booking.Booking) error {
	f.appended++
	return f.appendErr
}

func (f *fakeLedger) UpdateEntry(ctx context.Context, b booking.Booking) error {
	f.updated++
	return f.updateErr
}

func (f *fakeLedger) MarkCancelled(ctx context.Context, code string, at time.Time) error {
	f.cancelled++
	return f.cancelErr
}

type fakeNotifier struct {
	noticeErr error
	bookings  int
	resched   int
	cancels   int
	lastLink  string
}

func (f *fakeNotifier) BookingNotice(ctx context.Context, b booking.Booking, eventLink string) error {
	f.bookings++
	f.lastLink = eventLink
	return f.noticeErr
}

func (f *fakeNotifier) RescheduleNotice(ctx context.Context, b booking.Booking) error {
	f.resched++
	return f.noticeErr
}

func (f *fakeNotifier) CancellationNotice(ctx context.Context, b booking.Booking) error {
	f.cancels++
	return f.noticeErr
}

type fakeSink struct {
	code string
	ref  string
	err  error
}

func (f *fakeSink) SetEventRef(ctx context.Context, code, ref string) error {
	f.code = code
	f.ref = ref
	return f.err
}

func testBooking() booking.Booking {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	return booking.Booking{
		Code:      "AD-7KQX",
		Topic:     "loans",
		Slot:      booking.Slot{Date: "2026-09-02", Time: availability.TimeAfternoon},
		Status:    booking.StatusConfirmed,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func statusByChannel(t *testing.T, statuses []Status, channel string) Status {
	t.Helper()
	for _, st := range statuses {
		if st.Channel == channel {
			return st
		}
	}
	t.Fatalf("no status for channel %s", channel)
	return Status{}
}

func TestBookingCommittedAllChannels(t *testing.T) {
	cal := &fakeCalendar{event: Event{Ref: "evt-1", Link: "https://cal/evt-1"}}
	led := &fakeLedger{}
	not := &fakeNotifier{}
	sink := &fakeSink{}
	d := NewDispatcher(cal, led, not, sink, time.Second, nil)

	statuses, link := d.BookingCommitted(context.Background(), testBooking())

	require.Len(t, statuses, 3)
	for _, st := range statuses {
		assert.True(t, st.OK, st.Channel)
		assert.False(t, st.Skipped, st.Channel)
	}
	assert.Equal(t, "https://cal/evt-1", link)
	assert.Equal(t, 1, cal.created)
	assert.Equal(t, 1, led.appended)
	assert.Equal(t, 1, not.bookings)
	assert.Equal(t, "AD-7KQX", sink.code)
	assert.Equal(t, "evt-1", sink.ref)
	assert.Equal(t, "https://cal/evt-1", not.lastLink)
}

func TestBookingCommittedCalendarFailureIsolated(t *testing.T) {
	cal := &fakeCalendar{createErr: errors.New("api down")}
	led := &fakeLedger{}
	not := &fakeNotifier{}
	d := NewDispatcher(cal, led, not, nil, time.Second, nil)

	statuses, link := d.BookingCommitted(context.Background(), testBooking())

	calSt := statusByChannel(t, statuses, ChannelCalendar)
	assert.False(t, calSt.OK)
	assert.Contains(t, calSt.Err, "api down")
	assert.Empty(t, link)

	// The other channels still ran.
	assert.True(t, statusByChannel(t, statuses, ChannelLedger).OK)
	assert.True(t, statusByChannel(t, statuses, ChannelNotification).OK)
	assert.Equal(t, 1, led.appended)
	assert.Equal(t, 1, not.bookings)
	assert.Empty(t, not.lastLink)
}

func TestBookingCommittedNilCollaboratorsSkipped(t *testing.T) {
	d := NewDispatcher(nil, nil, nil, nil, time.Second, nil)

	statuses, link := d.BookingCommitted(context.Background(), testBooking())

	require.Len(t, statuses, 3)
	assert.Empty(t, link)
	for _, st := range statuses {
		assert.True(t, st.OK, st.Channel)
		assert.True(t, st.Skipped, st.Channel)
	}
}

func TestRescheduledUpdatesEvent(t *testing.T) {
	cal := &fakeCalendar{}
	led := &fakeLedger{}
	not := &fakeNotifier{}
	d := NewDispatcher(cal, led, not, nil, time.Second, nil)

	b := testBooking()
	b.EventRef = "evt-9"
	statuses := d.Rescheduled(context.Background(), b)

	require.Len(t, statuses, 3)
	assert.Equal(t, 1, cal.updated)
	assert.Equal(t, "evt-9", cal.lastRef)
	assert.Equal(t, 1, led.updated)
	assert.Equal(t, 1, not.resched)
}

func TestRescheduledWithoutEventRefSkipsCalendar(t *testing.T) {
	cal := &fakeCalendar{}
	d := NewDispatcher(cal, &fakeLedger{}, &fakeNotifier{}, nil, time.Second, nil)

	statuses := d.Rescheduled(context.Background(), testBooking())

	calSt := statusByChannel(t, statuses, ChannelCalendar)
	assert.True(t, calSt.OK)
	assert.True(t, calSt.Skipped)
	assert.Zero(t, cal.updated)
}

func TestCancelledDeletesEvent(t *testing.T) {
	cal := &fakeCalendar{}
	led := &fakeLedger{}
	not := &fakeNotifier{}
	d := NewDispatcher(cal, led, not, nil, time.Second, nil)

	b := testBooking()
	b.EventRef = "evt-3"
	b.Status = booking.StatusCancelled
	at := b.UpdatedAt.Add(time.Hour)
	b.CancelledAt = &at
	statuses := d.Cancelled(context.Background(), b)

	require.Len(t, statuses, 3)
	assert.Equal(t, 1, cal.deleted)
	assert.Equal(t, "evt-3", cal.lastRef)
	assert.Equal(t, 1, led.cancelled)
	assert.Equal(t, 1, not.cancels)
}

func TestCancelledWithoutEventRefSkipsCalendar(t *testing.T) {
	cal := &fakeCalendar{}
	led := &fakeLedger{}
	d := NewDispatcher(cal, led, &fakeNotifier{}, nil, time.Second, nil)

	b := testBooking()
	b.Status = booking.StatusCancelled
	statuses := d.Cancelled(context.Background(), b)

	calSt := statusByChannel(t, statuses, ChannelCalendar)
	assert.True(t, calSt.OK)
	assert.True(t, calSt.Skipped)
	assert.Zero(t, cal.deleted)
	assert.Equal(t, 1, led.cancelled)
}

func TestCancelledLedgerFailureIsolated(t *testing.T) {
	led := &fakeLedger{cancelErr: errors.New("db gone")}
	not := &fakeNotifier{}
	d := NewDispatcher(nil, led, not, nil, time.Second, nil)

	statuses := d.Cancelled(context.Background(), testBooking())

	ledSt := statusByChannel(t, statuses, ChannelLedger)
	assert.False(t, ledSt.OK)
	assert.Contains(t, ledSt.Err, "db gone")
	assert.True(t, statusByChannel(t, statuses, ChannelNotification).OK)
	assert.Equal(t, 1, not.cancels)
}
