package mailer

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"thrift-stock-service/app/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.New("").Funcs(template.FuncMap{
	"money": formatMoney,
}).ParseFS(templateFS, "templates/*.html"))

var subjects = map[domain.OrderStatus]string{
	domain.OrderStatusPaymentConfirmed: "Payment confirmed for order %s",
	domain.OrderStatusShipped:          "Your order %s has shipped",
	domain.OrderStatusComplete:         "Order %s is complete",
}

// OrderStatusEmail renders the customer notification for status. ok is false
// for statuses that send nothing.
func OrderStatusEmail(order domain.Order, status domain.OrderStatus) (email domain.Email, ok bool, err error) {
	subject, ok := subjects[status]
	if !ok {
		return domain.Email{}, false, nil
	}

	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, string(status)+".html", order); err != nil {
		return domain.Email{}, true, fmt.Errorf("render %s email: %w", status, err)
	}

	return domain.Email{
		To:      order.CustomerInfo.Email,
		Subject: fmt.Sprintf(subject, order.ID),
		HTML:    buf.String(),
	}, true, nil
}

func formatMoney(amount int64) string {
	return fmt.Sprintf("%d.%02d", amount/100, amount%100)
}
