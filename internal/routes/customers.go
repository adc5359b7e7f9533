package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/face-teller/face_teller/internal/customer"
	"github.com/face-teller/face_teller/internal/otp"
)

// RegisterCustomerRoutes wires registration, lookup and the OTP-gated
// phone-update flow.
func RegisterCustomerRoutes(r fiber.Router, h *customer.Handler, phones *otp.Handler, otpLimiter fiber.Handler) {
	r.Post("/customers", h.Register)
	r.Get("/customers/lookup", h.Lookup)
	r.Get("/customers/:customerId/balance", h.Balance)
	r.Get("/customers/:customerId/transactions", h.Transactions)

	r.Post("/customers/:customerId/phone/otp", otpLimiter, phones.RequestPhoneOTP)
	r.Post("/customers/phone", phones.ConfirmPhone)
}
