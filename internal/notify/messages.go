package notify

import (
	"fmt"
	"strings"

	"github.com/Sivanthsiv/food-ecommerce/internal/models"
)

// FormatPaise renders an amount in paise as rupees
func FormatPaise(paise int64) string {
	sign := ""
	if paise < 0 {
		sign = "-"
		paise = -paise
	}
	return fmt.Sprintf("%s₹%d.%02d", sign, paise/100, paise%100)
}

// Compose builds the customer message for an order event. ok is false for
// event types that do not notify the customer.
func Compose(e *models.OrderEvent) (subject, body string, ok bool) {
	greeting := "Hello"
	if name := strings.TrimSpace(e.CustomerName); name != "" {
		greeting = "Hello " + name
	}

	var lines []string
	switch e.EventType {
	case models.EventTypeOrderPlaced:
		subject = fmt.Sprintf("Order %s received", e.OrderNumber)
		lines = []string{
			fmt.Sprintf("We received your order %s for %s.", e.OrderNumber, FormatPaise(e.TotalPaise)),
			"Your UPI payment is being verified. We will e-mail you once it is approved.",
		}
	case models.EventTypePaymentApproved:
		subject = fmt.Sprintf("Payment approved for order %s", e.OrderNumber)
		lines = []string{
			fmt.Sprintf("Your payment of %s for order %s has been approved.", FormatPaise(e.TotalPaise), e.OrderNumber),
			"We are preparing your order.",
		}
	case models.EventTypePaymentRejected:
		subject = fmt.Sprintf("Payment could not be verified for order %s", e.OrderNumber)
		lines = []string{
			fmt.Sprintf("We could not verify the payment for order %s, so the order has been cancelled.", e.OrderNumber),
		}
		if e.Remark != "" {
			lines = append(lines, "Reason: "+e.Remark)
		}
	case models.EventTypeOrderStatusChanged:
		subject = fmt.Sprintf("Order %s is %s", e.OrderNumber, statusLabel(e.Status))
		lines = []string{
			fmt.Sprintf("Your order %s is now %s.", e.OrderNumber, statusLabel(e.Status)),
		}
	default:
		return "", "", false
	}

	body = greeting + ",\n\n" + strings.Join(lines, "\n") + "\n\nThank you for shopping with us."
	return subject, body, true
}

func statusLabel(s models.OrderStatus) string {
	return strings.ReplaceAll(string(s), "_", " ")
}
