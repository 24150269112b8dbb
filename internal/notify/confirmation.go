package notify

import (
	"fmt"
	"strings"
)

// ConfirmationInput carries the booking facts rendered into the
// confirmation email.
type ConfirmationInput struct {
	PatientEmail string
	PatientName  string
	ProviderName string
	Date         string // YYYY-MM-DD
	TimeLabel    string
	TotalCents   int64
	Currency     string
}

// ConfirmationMessage composes the booking confirmation email.
func ConfirmationMessage(in ConfirmationInput) EmailMessage {
	var b strings.Builder
	fmt.Fprintf(&b, "Your appointment with %s is confirmed.\n\n", in.ProviderName)
	fmt.Fprintf(&b, "Date: %s\nTime: %s\n", in.Date, in.TimeLabel)
	fmt.Fprintf(&b, "Amount charged: %s\n\n", FormatAmount(in.TotalCents, in.Currency))
	b.WriteString("You can join the video consultation from your appointments page up to five minutes before the scheduled time.\n")

	return EmailMessage{
		To:      in.PatientEmail,
		ToName:  in.PatientName,
		Subject: fmt.Sprintf("Appointment confirmed: %s at %s", in.Date, in.TimeLabel),
		Body:    b.String(),
	}
}

// FormatAmount renders minor units as a currency string, e.g. "$122.00 USD".
func FormatAmount(cents int64, currency string) string {
	if currency == "" {
		currency = "USD"
	}
	return fmt.Sprintf("$%d.%02d %s", cents/100, cents%100, currency)
}
