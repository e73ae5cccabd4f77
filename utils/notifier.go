// utils/notifier.go
package utils

import (
	"context"
	"errors"
	"log"
	"os"

	"github.com/skillstream/lms_backend/config"
)

// Notifier delivers OTP codes out-of-band. SMS is the primary channel; when
// it fails and the account has an email address, the code is emailed instead.
// With no provider configured at all, codes are written to the process log so
// development setups stay usable.
type Notifier struct {
	sms    *SMSService
	mailer *Mailer
	logger *log.Logger
}

func NewNotifier(cfg *config.Config) *Notifier {
	return &Notifier{
		sms:    NewSMSService(cfg.SMS),
		mailer: NewMailer(cfg.SMTP),
		logger: log.New(os.Stdout, "[NOTIFY] ", log.LstdFlags),
	}
}

// SendOTP attempts SMS first, then email. The returned error reports that no
// channel accepted the code; the caller decides whether that is fatal.
func (n *Notifier) SendOTP(ctx context.Context, phone, email, name, code string) error {
	if n.sms == nil && n.mailer == nil {
		n.logger.Printf("no delivery provider configured; OTP for %s: %s", phone, code)
		return nil
	}

	var smsErr error
	if n.sms != nil {
		smsErr = n.sms.SendOTP(ctx, phone, code)
		if smsErr == nil {
			return nil
		}
		n.logger.Printf("SMS delivery to %s failed: %v", phone, smsErr)
	}

	if n.mailer != nil && email != "" {
		if err := n.mailer.SendOTP(email, name, code); err != nil {
			n.logger.Printf("email delivery to %s failed: %v", email, err)
			return err
		}
		return nil
	}

	if smsErr != nil {
		return smsErr
	}
	return errors.New("no delivery channel available")
}
