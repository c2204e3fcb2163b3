package ticket

import (
	"fmt"
	"net/url"
	"strings"
)

const whatsAppBase = "https://wa.me/?text="

// ShareURL returns a WhatsApp share link announcing the permit. ticketURL is
// appended when known.
func ShareURL(eventName, regNo, ticketURL string) string {
	msg := fmt.Sprintf("My %s permit %s is verified. Get into the Matrix!", eventName, regNo)
	if ticketURL = strings.TrimSpace(ticketURL); ticketURL != "" {
		msg += " " + ticketURL
	}
	return whatsAppBase + url.QueryEscape(msg)
}
