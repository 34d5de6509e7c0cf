package dialog

import (
	"fmt"
	"strings"

	"github.com/advisordesk/advisor-booking-agent/internal/availability"
	"github.com/advisordesk/advisor-booking-agent/internal/booking"
	"github.com/advisordesk/advisor-booking-agent/internal/clock"
)

const disclaimerText = "Before we proceed: I can only help schedule consultations. I cannot give financial, investment or legal advice, and please do not share sensitive personal details like card or account numbers in this chat."

const greetingPrompt = "Hello! I can help you book a consultation with one of our advisors, or reschedule, cancel or check availability for an existing booking. What would you like to do?"

func topicMenu() string {
	var b strings.Builder
	b.WriteString("What would you like to discuss? Our advisors cover:\n")
	for i, topic := range Topics {
		fmt.Fprintf(&b, "%d. %s\n", i+1, topic.Label)
	}
	b.WriteString("Reply with a number or the topic name.")
	return b.String()
}

func timePreferencePrompt(topic Topic) string {
	return fmt.Sprintf("Great, a consultation on %s. When would suit you? You can name a day (like tomorrow or Friday) and a rough time (morning, afternoon or evening).", strings.ToLower(topic.Label))
}

// composeOffer renders an availability offer with numbered options plus a
// status line when the engine had to move away from the requested target.
func composeOffer(result availability.OfferResult) string {
	var b strings.Builder
	switch {
	case result.Redirected && result.TargetDate != "":
		fmt.Fprintf(&b, "We're closed on Sundays, so the nearest working day is %s.\n", formatDate(result.TargetDate))
	case result.Reason == availability.ReasonDayFull:
		b.WriteString("That day is fully booked, but here is what I have nearby.\n")
	case result.Reason == availability.ReasonNoMatchingDay:
		b.WriteString("I couldn't find a slot matching that exactly, but here is what I have.\n")
	}
	if len(result.Slots) == 1 {
		fmt.Fprintf(&b, "I have one slot available: %s. Shall I book it?", result.Slots[0].Formatted)
		return b.String()
	}
	b.WriteString("I can offer:\n")
	for i, slot := range result.Slots {
		fmt.Fprintf(&b, "Option %d: %s\n", i+1, slot.Formatted)
	}
	b.WriteString("Which works for you? You can also ask for a different time.")
	return b.String()
}

func composeNoSlots() string {
	return "I'm sorry, there are no open slots in the next week. Would you like me to check a different day or time?"
}

func composeConfirmation(topic Topic, slot availability.Slot) string {
	return fmt.Sprintf("To confirm: a consultation on %s, %s. Shall I go ahead and book it?", strings.ToLower(topic.Label), slot.Formatted)
}

func composeBooked(b *booking.Booking, formatted string, eventLink string) string {
	msg := fmt.Sprintf("Done! Your consultation is booked for %s. Your booking code is %s. Please keep it handy for any changes.", formatted, b.Code)
	if eventLink != "" {
		msg += fmt.Sprintf(" Calendar event: %s", eventLink)
	}
	return msg
}

func composeSlotConflict() string {
	return "I'm sorry, that slot was just taken by someone else. Let me show you what's still open."
}

func composeRescheduled(b *booking.Booking, formatted string) string {
	return fmt.Sprintf("All set. Booking %s has been moved to %s.", b.Code, formatted)
}

func composeCancelled(b *booking.Booking) string {
	return fmt.Sprintf("Your booking %s has been cancelled. You're welcome to book again anytime.", b.Code)
}

func askBookingCode(action string) string {
	return fmt.Sprintf("Sure, I can %s that. What is your booking code? It looks like AD-XXXX.", action)
}

func codeNotFound(fragment string) string {
	return fmt.Sprintf("I couldn't find a confirmed booking matching %q. Could you re-check the code? It looks like AD-XXXX.", fragment)
}

func confirmCancellation(b *booking.Booking, formatted string) string {
	return fmt.Sprintf("You want to cancel booking %s (%s). Is that right?", b.Code, formatted)
}

func composeAvailabilityReport(result availability.OfferResult) string {
	if len(result.Slots) == 0 {
		return "There are no open slots in the next week. Ask me again tomorrow, or I can book further ahead once slots open up."
	}
	var b strings.Builder
	if result.Redirected && result.TargetDate != "" {
		fmt.Fprintf(&b, "We're closed on Sundays; the nearest working day is %s.\n", formatDate(result.TargetDate))
	}
	b.WriteString("Here's what is currently open:\n")
	for i, slot := range result.Slots {
		fmt.Fprintf(&b, "Option %d: %s\n", i+1, slot.Formatted)
	}
	b.WriteString("Say \"book\" whenever you'd like to take one.")
	return b.String()
}

func composeGeneralNudge() string {
	return "I'm the scheduling assistant for our advisory desk. I can book, reschedule or cancel a consultation, or check availability. How can I help?"
}

func formatDate(dateStr string) string {
	date, err := clock.ParseDate(dateStr)
	if err != nil {
		return dateStr
	}
	return date.Format("Monday, 02 Jan")
}

func formatBookingSlot(s booking.Slot) string {
	date, err := clock.ParseDate(s.Date)
	if err != nil {
		return s.Key()
	}
	return clock.FormatSlot(clock.Combine(date, s.Time.Hour(), 0))
}
