package otp

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/face-teller/face_teller/internal/challenge"
	"github.com/face-teller/face_teller/internal/customer"
)

// Handler exposes the OTP-gated phone-update endpoints.
type Handler struct {
	issuer     *Issuer
	challenges challenge.Store
	customers  *customer.Service
}

// NewHandler constructs a phone-update handler.
func NewHandler(issuer *Issuer, challenges challenge.Store, customers *customer.Service) *Handler {
	return &Handler{issuer: issuer, challenges: challenges, customers: customers}
}

// RequestPhoneOTP dispatches an update-phone OTP to the registered number.
func (h *Handler) RequestPhoneOTP(c *fiber.Ctx) error {
	if err := h.issuer.Request(c.UserContext(), c.Params("customerId"), challenge.PurposeUpdatePhone); err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"message": "OTP sent to the registered mobile number",
	})
}

type confirmPhoneRequest struct {
	NewPhone string `json:"new_phone"`
	OTP      string `json:"otp"`
}

// ConfirmPhone verifies the OTP and applies the phone change to the bound
// customer. The consumed challenge identifies the customer; no session state
// is involved.
func (h *Handler) ConfirmPhone(c *fiber.Ctx) error {
	var req confirmPhoneRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.NewPhone == "" || req.OTP == "" {
		return fiber.NewError(http.StatusBadRequest, "new_phone and otp are required")
	}
	// Reject malformed numbers before the single-use challenge is consumed.
	if !customer.ValidPhone(req.NewPhone) {
		return fiber.NewError(http.StatusBadRequest, "phone must include a valid country code")
	}

	customerID, err := h.challenges.Verify(c.UserContext(), challenge.PurposeUpdatePhone, req.OTP)
	if err != nil {
		return err
	}
	if err := h.customers.UpdatePhone(c.UserContext(), customerID, req.NewPhone); err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"customer_id": customerID,
		"message":     "mobile number updated",
	})
}
