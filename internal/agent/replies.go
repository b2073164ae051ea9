package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/Roeeht/Agent-Messiah/internal/calendar"
	"github.com/Roeeht/Agent-Messiah/internal/leads"
)

const (
	ReplyApology        = "Sorry, there was a small technical issue. Can you repeat what you said?"
	ReplyDidNotCatch    = "Sorry, I didn't understand. Can you repeat?"
	ReplyUnclearSlot    = "Sorry, I didn't understand which time you chose. Can I offer again?"
	ReplyNeedLead       = "I'd be happy to book that. Could you tell me your name and company first?"
	ReplyBookingFailed  = "Sorry, I couldn't lock that time. Could you tell me again which time works for you?"
	ReplyNotInterested  = "OK, I understand. Thanks for your time! If anything changes, feel free to reach out."
	ReplyEndDefault     = "Thanks for your time. Have a great day!"
	ReplyEndAfterBooked = "Great talking with you. See you at the meeting, goodbye!"
)

// PermissionGreeting is the first thing the agent says on every call.
func PermissionGreeting(lead *leads.Lead) string {
	who := "there"
	if lead != nil {
		who = lead.FirstName()
	}
	return fmt.Sprintf("Hi %s! I'm Messiah from Habari's Sales Company. We help companies increase sales with AI agents. "+
		"Is this a good time to talk? Please answer only yes or no.", who)
}

// OfferReply lists the offered slots in order.
func OfferReply(slots []calendar.Slot) string {
	switch len(slots) {
	case 0:
		return "I'd love to set up a brief call. Which day and time usually work for you?"
	case 1:
		return fmt.Sprintf("Sounds great! I'd be happy to schedule a brief introduction call. I have availability %s. Does that work for you?", slots[0].Display)
	default:
		return fmt.Sprintf("Sounds great! I'd be happy to schedule a brief introduction call. I have availability %s or %s. What works for you?", slots[0].Display, slots[1].Display)
	}
}

// RepeatOfferReply asks the caller to choose between slots already offered.
func RepeatOfferReply(slots []calendar.Slot) string {
	opts := make([]string, 0, len(slots))
	for i, s := range slots {
		opts = append(opts, fmt.Sprintf("Option %d: %s", i+1, s.Display))
	}
	return fmt.Sprintf("Just to confirm, which time works for you: %s? You can say 'first' or 'second'. "+
		"If neither works, tell me what day and time you prefer.", strings.Join(opts, " or "))
}

// BookingReply confirms a booked meeting.
func BookingReply(display string) string {
	return fmt.Sprintf("Excellent! I've scheduled a meeting for you on %s. I'll send you a calendar invitation. Looking forward to the call!", display)
}

// BookSlot books slots[idx] for lead and returns the resulting decision.
// Out-of-range indexes, a missing lead, and store failures all become a
// clarifying reply with no action.
func BookSlot(ctx context.Context, sched calendar.Scheduler, lead *leads.Lead, slots []calendar.Slot, idx int) (Decision, error) {
	if idx < 0 || idx >= len(slots) {
		return Decision{Reply: ReplyUnclearSlot}, nil
	}
	if lead == nil {
		return Decision{Reply: ReplyNeedLead}, nil
	}
	s := slots[idx]
	m, err := sched.Book(ctx, lead.ID, s.Start, s.Duration)
	if err != nil {
		return Decision{Reply: ReplyBookingFailed}, err
	}
	return Decision{
		Reply:  BookingReply(s.Display),
		Action: BookMeeting{Meeting: m, SlotIndex: idx, Display: s.Display},
	}, nil
}
