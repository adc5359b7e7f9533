package otp

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/face-teller/face_teller/internal/challenge"
	"github.com/face-teller/face_teller/internal/customer"
	"github.com/face-teller/face_teller/internal/sms"
)

// Issuer creates OTP challenges and dispatches the codes over SMS.
type Issuer struct {
	customers  *customer.Service
	challenges challenge.Store
	sender     sms.Sender
	ttl        time.Duration
	logger     *slog.Logger
}

// NewIssuer constructs an OTP issuer.
func NewIssuer(customers *customer.Service, challenges challenge.Store, sender sms.Sender, ttl time.Duration, logger *slog.Logger) *Issuer {
	return &Issuer{customers: customers, challenges: challenges, sender: sender, ttl: ttl, logger: logger}
}

// Request issues a challenge for the customer and dispatches the code to the
// registered phone number. A challenge only stays live after confirmed
// dispatch: when the transport fails, the challenge is revoked before the
// error is returned, so no unreachable code is left active.
func (i *Issuer) Request(ctx context.Context, customerID string, purpose challenge.Purpose) error {
	cust, err := i.customers.GetByID(ctx, customerID)
	if err != nil {
		return err
	}

	code, err := i.challenges.Issue(ctx, cust.CustomerID, purpose, i.ttl)
	if err != nil {
		return err
	}

	if err := i.sender.Send(ctx, cust.Phone, messageFor(purpose, code)); err != nil {
		if revokeErr := i.challenges.Revoke(ctx, cust.CustomerID, purpose); revokeErr != nil {
			i.logger.Error("revoke challenge after failed dispatch",
				"customer_id", cust.CustomerID, "purpose", string(purpose), "error", revokeErr)
		}
		return err
	}

	i.logger.Info("otp dispatched", "customer_id", cust.CustomerID, "purpose", string(purpose))
	return nil
}

func messageFor(purpose challenge.Purpose, code string) string {
	switch purpose {
	case challenge.PurposeUpdatePhone:
		return fmt.Sprintf("Your OTP for updating your mobile number is %s", code)
	case challenge.PurposeWithdraw:
		return fmt.Sprintf("Your OTP for withdrawal is %s", code)
	default:
		return fmt.Sprintf("Your OTP is %s", code)
	}
}
