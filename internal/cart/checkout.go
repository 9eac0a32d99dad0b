package cart

import (
	"net/url"
	"strconv"
	"strings"
)

const (
	checkoutGreeting = "Olá! Gostaria de fazer o seguinte pedido:\n\n"
	checkoutClosing  = "\n\nPoderia me ajudar com o pedido? Obrigado! 😊"
	currencySymbol   = "R$"
	checkoutBaseURL  = "https://wa.me/"
)

// CheckoutText renders the order summary handed to the messaging channel.
// An empty cart renders as the empty string.
func (s *Store) CheckoutText() string {
	return checkoutText(s.Lines())
}

// CheckoutMessage is CheckoutText percent-encoded for use as a URL query value.
func (s *Store) CheckoutMessage() string {
	return encodeComponent(s.CheckoutText())
}

// CheckoutURL builds the chat hand-off link for phone. Non-digits in phone
// are ignored. Returns "" for an empty cart or a phone without digits.
func (s *Store) CheckoutURL(phone string) string {
	return checkoutURL(phone, s.CheckoutMessage())
}

func checkoutText(lines []LineItem) string {
	if len(lines) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(checkoutGreeting)
	for _, line := range lines {
		b.WriteString("• ")
		b.WriteString(line.Name)
		if line.Size != "" {
			b.WriteString(" (Tamanho: ")
			b.WriteString(line.Size)
			b.WriteString(")")
		}
		b.WriteString(" (")
		b.WriteString(strconv.Itoa(line.Quantity))
		b.WriteString("x) - ")
		b.WriteString(currencySymbol)
		b.WriteString(" ")
		b.WriteString(line.Subtotal().StringFixed(2))
		b.WriteString("\n")
	}

	_, total := totals(lines)
	b.WriteString("\n💰 Total: ")
	b.WriteString(currencySymbol)
	b.WriteString(" ")
	b.WriteString(total.StringFixed(2))
	b.WriteString(checkoutClosing)
	return b.String()
}

func checkoutURL(phone, message string) string {
	if message == "" {
		return ""
	}
	var digits strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return ""
	}
	return checkoutBaseURL + digits.String() + "?text=" + message
}

// componentUnescaper restores the marks a browser leaves bare in a URI
// component, and spells spaces as %20.
var componentUnescaper = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// encodeComponent percent-encodes s the way encodeURIComponent does.
func encodeComponent(s string) string {
	return componentUnescaper.Replace(url.QueryEscape(s))
}
