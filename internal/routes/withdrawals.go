package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/face-teller/face_teller/internal/withdrawal"
)

// RegisterWithdrawalRoutes wires the withdrawal authorization sequence:
// request OTP, verify OTP, verify face, execute.
func RegisterWithdrawalRoutes(r fiber.Router, h *withdrawal.Handler, otpLimiter fiber.Handler) {
	r.Post("/withdrawals/:customerId/otp", otpLimiter, h.RequestOTP)
	r.Post("/withdrawals/otp/verify", h.VerifyOTP)
	r.Post("/withdrawals/face/verify", h.VerifyFace)
	r.Post("/withdrawals", h.Execute)
}
