package withdrawal

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/face-teller/face_teller/internal/challenge"
	"github.com/face-teller/face_teller/internal/otp"
)

// Handler exposes the withdrawal authorization endpoints.
type Handler struct {
	service *Service
	issuer  *otp.Issuer
}

// NewHandler constructs a withdrawal handler.
func NewHandler(service *Service, issuer *otp.Issuer) *Handler {
	return &Handler{service: service, issuer: issuer}
}

// RequestOTP dispatches a withdrawal OTP to the registered number.
func (h *Handler) RequestOTP(c *fiber.Ctx) error {
	if err := h.issuer.Request(c.UserContext(), c.Params("customerId"), challenge.PurposeWithdraw); err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"message": "OTP sent to the registered mobile number",
	})
}

type verifyOTPRequest struct {
	CustomerID string `json:"customer_id"`
	OTP        string `json:"otp"`
}

// VerifyOTP checks the submitted code and opens the authorization attempt.
func (h *Handler) VerifyOTP(c *fiber.Ctx) error {
	var req verifyOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.CustomerID == "" || req.OTP == "" {
		return fiber.NewError(http.StatusBadRequest, "customer_id and otp are required")
	}
	if err := h.service.VerifyOTP(c.UserContext(), req.CustomerID, req.OTP); err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"verified": true})
}

type verifyFaceRequest struct {
	CustomerID string `json:"customer_id"`
	Image      string `json:"image"`
}

// VerifyFace runs the second factor against the enrolled template.
func (h *Handler) VerifyFace(c *fiber.Ctx) error {
	var req verifyFaceRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.CustomerID == "" || req.Image == "" {
		return fiber.NewError(http.StatusBadRequest, "customer_id and image are required")
	}
	decision, err := h.service.VerifyFace(c.UserContext(), req.CustomerID, req.Image)
	if err != nil {
		return err
	}
	if !decision.Matched {
		return c.Status(http.StatusForbidden).JSON(fiber.Map{
			"matched": false,
			"score":   decision.Score,
		})
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"matched": true,
		"score":   decision.Score,
	})
}

type executeRequest struct {
	CustomerID string `json:"customer_id"`
	Amount     int64  `json:"amount"`
}

// Execute commits the debit after both gates passed.
func (h *Handler) Execute(c *fiber.Ctx) error {
	var req executeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.CustomerID == "" {
		return fiber.NewError(http.StatusBadRequest, "customer_id is required")
	}
	balance, err := h.service.Execute(c.UserContext(), req.CustomerID, req.Amount)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"customer_id": req.CustomerID,
		"balance":     balance,
		"message":     "withdrawal successful",
	})
}
