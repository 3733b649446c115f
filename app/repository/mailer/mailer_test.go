package mailer

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"

	"thrift-stock-service/app/domain"
	"thrift-stock-service/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func sampleOrder() domain.Order {
	return domain.Order{
		ID: "order-1",
		Items: []domain.OrderItem{
			{ProductID: "p1", Name: "Denim jacket", Size: "M", Quantity: 1, Price: 12500},
		},
		CustomerInfo:   domain.CustomerInfo{Name: "Ayu", Email: "ayu@example.com", Address: "Jl. Kenanga 1"},
		DeliveryRegion: "jakarta",
		DeliveryFee:    500,
		Total:          13000,
	}
}

func TestOrderStatusEmail(t *testing.T) {
	order := sampleOrder()

	email, ok, err := OrderStatusEmail(order, domain.OrderStatusPaymentConfirmed)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "ayu@example.com", email.To)
	assert.Equal(t, "Payment confirmed for order order-1", email.Subject)
	assert.Contains(t, email.HTML, "Denim jacket (M)")
	assert.Contains(t, email.HTML, "125.00")
	assert.Contains(t, email.HTML, "130.00")

	for _, status := range []domain.OrderStatus{domain.OrderStatusShipped, domain.OrderStatusComplete} {
		email, ok, err := OrderStatusEmail(order, status)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Contains(t, email.Subject, "order-1")
		assert.Contains(t, email.HTML, "Hi Ayu")
	}

	_, ok, err = OrderStatusEmail(order, domain.OrderStatusCanceled)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestOrderStatusEmailEscapesInput(t *testing.T) {
	order := sampleOrder()
	order.CustomerInfo.Name = "<script>alert(1)</script>"

	email, _, err := OrderStatusEmail(order, domain.OrderStatusShipped)
	require.NoError(t, err)
	assert.NotContains(t, email.HTML, "<script>")
}

func TestSMTPSender(t *testing.T) {
	ctx := context.Background()
	cfg := config.SmtpConfig{Host: "mail.local", Port: 2525, From: "shop@example.com"}

	var gotAddr string
	var gotTo []string
	var gotMsg string
	sender := NewSMTPSender(cfg).(*smtpSender)
	sender.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotTo, gotMsg = addr, to, string(msg)
		return nil
	}

	err := sender.Send(ctx, domain.Email{To: "ayu@example.com", Subject: "Hello", HTML: "<p>hi</p>"})
	require.NoError(t, err)
	assert.Equal(t, "mail.local:2525", gotAddr)
	assert.Equal(t, []string{"ayu@example.com"}, gotTo)
	assert.True(t, strings.HasPrefix(gotMsg, "From: shop@example.com\r\n"))
	assert.Contains(t, gotMsg, "Subject: Hello\r\n")
	assert.Contains(t, gotMsg, "Content-Type: text/html")
	assert.True(t, strings.HasSuffix(gotMsg, "\r\n\r\n<p>hi</p>"))

	err = sender.Send(ctx, domain.Email{Subject: "no recipient"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	sender.send = func(string, smtp.Auth, string, []string, []byte) error { return errors.New("421 busy") }
	assert.EqualError(t, sender.Send(ctx, domain.Email{To: "ayu@example.com"}), "421 busy")
}

type mockSender struct {
	mock.Mock
}

func (m *mockSender) Send(ctx context.Context, email domain.Email) error {
	return m.Called(ctx, email.To, email.Subject).Error(0)
}

func TestOrderNotifier(t *testing.T) {
	ctx := context.Background()
	order := sampleOrder()

	sender := new(mockSender)
	sender.On("Send", mock.Anything, "ayu@example.com", "Your order order-1 has shipped").Return(nil).Once()
	sender.On("Send", mock.Anything, "ayu@example.com", "Order order-1 is complete").Return(errors.New("421 busy")).Once()
	notifier := NewOrderNotifier(sender)

	sent, err := notifier.NotifyOrderStatus(ctx, order, domain.OrderStatusShipped)
	assert.NoError(t, err)
	assert.True(t, sent)

	sent, err = notifier.NotifyOrderStatus(ctx, order, domain.OrderStatusComplete)
	assert.Error(t, err)
	assert.False(t, sent)

	sent, err = notifier.NotifyOrderStatus(ctx, order, domain.OrderStatusPaymentPending)
	assert.NoError(t, err)
	assert.False(t, sent)

	sender.AssertExpectations(t)
}
