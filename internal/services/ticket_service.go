package services

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/phpdave11/gofpdf"
	"github.com/routewise/bus-booking-backend/internal/models"
)

// TicketService renders PDF e-tickets for committed bookings.
type TicketService struct{}

// NewTicketService creates a new TicketService
func NewTicketService() *TicketService {
	return &TicketService{}
}

// GenerateTicket renders the e-ticket PDF for a booking and returns the
// document bytes with a download filename.
func (s *TicketService) GenerateTicket(booking *models.Booking, user *models.User) ([]byte, string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Bus E-Ticket", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "BUS E-TICKET")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	lines := []string{
		fmt.Sprintf("Reference   : %s", booking.BookingReference),
		fmt.Sprintf("Passenger   : %s", user.FullName()),
		fmt.Sprintf("Email       : %s", user.Email),
		fmt.Sprintf("Route       : %s -> %s", booking.Source, booking.Destination),
		fmt.Sprintf("Date / Time : %s %s", booking.Date, booking.Time),
		fmt.Sprintf("Bus Number  : %s", booking.BusNumber),
		fmt.Sprintf("Seats       : %s", formatSeats(booking.SeatIndexes)),
	}
	for _, line := range lines {
		pdf.Cell(0, 7, line)
		pdf.Ln(7)
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6, "Please present this ticket when boarding. Seats are listed as printed on the cabin layout.", "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", fmt.Errorf("failed to render ticket: %w", err)
	}

	filename := fmt.Sprintf("TICKET_%s.pdf", booking.BookingReference)
	return buf.Bytes(), filename, nil
}

// formatSeats prints seat indices as the 1-based labels passengers see.
func formatSeats(indexes models.IntArray) string {
	parts := make([]string, len(indexes))
	for i, idx := range indexes {
		parts[i] = fmt.Sprintf("Seat %d", idx+1)
	}
	return strings.Join(parts, ", ")
}
