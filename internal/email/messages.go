package email

import (
	"context"
	"fmt"
	"strings"
	"time"

	"classbook/internal/schedule"
)

const (
	KindConfirmation  = "booking_confirmation"
	KindCancellation  = "booking_cancellation"
	KindClassRetired  = "class_retired"
	KindClassReminder = "class_reminder"
)

const whenLayout = "Mon, Jan 2, 2006 at 15:04"

func describe(occ schedule.Occurrence, loc *time.Location) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Class: %s\n", occ.Template.Title)
	if occ.Template.Instructor != nil {
		fmt.Fprintf(&b, "Instructor: %s\n", *occ.Template.Instructor)
	}
	fmt.Fprintf(&b, "When: %s (%d min)\n", occ.StartsAt(loc).Format(whenLayout), occ.Template.DurationMinutes)
	return b.String()
}

func (s *Service) SendBookingConfirmation(ctx context.Context, to string, occ schedule.Occurrence, loc *time.Location) error {
	subject := "Booking confirmed - " + occ.Template.Title
	body := fmt.Sprintf(`Hi,

Your seat is reserved.

%s
If you can't make it, please cancel so someone else can take your place.

- Classbook`, describe(occ, loc))

	return s.Enqueue(ctx, KindConfirmation, to, subject, body)
}

func (s *Service) SendCancellation(ctx context.Context, to string, occ schedule.Occurrence, loc *time.Location) error {
	subject := "Booking cancelled - " + occ.Template.Title
	body := fmt.Sprintf(`Hi,

Your reservation has been cancelled:

%s
- Classbook`, describe(occ, loc))

	return s.Enqueue(ctx, KindCancellation, to, subject, body)
}

func (s *Service) SendClassRetired(ctx context.Context, to string, occ schedule.Occurrence, loc *time.Location) error {
	subject := occ.Template.Title + " is no longer on the timetable"
	body := fmt.Sprintf(`Hi,

This class has been removed from the timetable and your reservation was cancelled:

%s
Check the calendar for other classes.

- Classbook`, describe(occ, loc))

	return s.Enqueue(ctx, KindClassRetired, to, subject, body)
}

func (s *Service) SendReminder(ctx context.Context, to string, occ schedule.Occurrence, loc *time.Location) error {
	subject := "Reminder: " + occ.Template.Title + " tomorrow"
	body := fmt.Sprintf(`Hi,

This is a reminder about your class tomorrow:

%s
See you soon!

- Classbook`, describe(occ, loc))

	return s.Enqueue(ctx, KindClassReminder, to, subject, body)
}
