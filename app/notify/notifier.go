package notify

import (
	"context"

	"github.com/sirupsen/logrus"
)

const (
	EmailTypeGiftNotification  = "gift_notification"
	EmailTypeClaimConfirmation = "claim_confirmation"
)

// GiftNotification tells the recipient a gift is waiting and carries the
// one-time verification code.
type GiftNotification struct {
	GiftID           string
	RecipientName    string
	RecipientEmail   string
	SenderName       string
	SenderMessage    string
	ProductName      string
	VerificationCode string
	ClaimURL         string
}

// ClaimConfirmation tells the recipient their claim went through and a
// shipment order exists.
type ClaimConfirmation struct {
	GiftID           string
	RecipientName    string
	RecipientEmail   string
	ProductName      string
	ClaimOrderNumber string
}

// Notifier delivers gift emails. Delivery is owned by an external system;
// implementations here only hand the message off.
type Notifier interface {
	SendGiftNotification(ctx context.Context, msg *GiftNotification) error
	SendClaimConfirmation(ctx context.Context, msg *ClaimConfirmation) error
}

// LogNotifier writes each message to the log instead of delivering it.
// It stands in wherever a real mail relay is not wired.
type LogNotifier struct {
	logger *logrus.Entry
}

func NewLogNotifier(logger *logrus.Entry) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) SendGiftNotification(ctx context.Context, msg *GiftNotification) error {
	n.logger.WithFields(logrus.Fields{
		"gift_id":   msg.GiftID,
		"recipient": msg.RecipientEmail,
		"product":   msg.ProductName,
	}).Info("gift notification email")
	return nil
}

func (n *LogNotifier) SendClaimConfirmation(ctx context.Context, msg *ClaimConfirmation) error {
	n.logger.WithFields(logrus.Fields{
		"gift_id":     msg.GiftID,
		"recipient":   msg.RecipientEmail,
		"claim_order": msg.ClaimOrderNumber,
	}).Info("claim confirmation email")
	return nil
}

var _ Notifier = (*LogNotifier)(nil)
