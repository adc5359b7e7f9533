package customer

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes customer HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a customer HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type registerRequest struct {
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	TotalAmount int64  `json:"total_amount"`
	MinLimit    int64  `json:"min_limit"`
	FaceImage   string `json:"face_image"`
}

type customerResponse struct {
	CustomerID string `json:"customer_id"`
	Name       string `json:"name"`
	Phone      string `json:"phone"`
}

// Register handles customer onboarding.
func (h *Handler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	cust, err := h.service.Register(c.UserContext(), RegisterInput{
		Name:         req.Name,
		Phone:        req.Phone,
		TotalAmount:  req.TotalAmount,
		MinLimit:     req.MinLimit,
		FaceTemplate: req.FaceImage,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(customerResponse{
		CustomerID: cust.CustomerID,
		Name:       cust.Name,
		Phone:      cust.Phone,
	})
}

// Lookup resolves a customer by name or phone query parameter.
func (h *Handler) Lookup(c *fiber.Ctx) error {
	var (
		cust Customer
		err  error
	)
	switch {
	case c.Query("name") != "":
		cust, err = h.service.LookupByName(c.UserContext(), c.Query("name"))
	case c.Query("phone") != "":
		cust, err = h.service.LookupByPhone(c.UserContext(), c.Query("phone"))
	default:
		return fiber.NewError(http.StatusBadRequest, "name or phone query parameter is required")
	}
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(customerResponse{
		CustomerID: cust.CustomerID,
		Name:       cust.Name,
		Phone:      cust.Phone,
	})
}

// Balance returns the current balance in minor units.
func (h *Handler) Balance(c *fiber.Ctx) error {
	cust, err := h.service.GetByID(c.UserContext(), c.Params("customerId"))
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"customer_id": cust.CustomerID,
		"balance":     cust.TotalAmount,
	})
}

// Transactions returns the withdrawal history, newest first.
func (h *Handler) Transactions(c *fiber.Ctx) error {
	txs, err := h.service.Transactions(c.UserContext(), c.Params("customerId"))
	if err != nil {
		return err
	}
	out := make([]fiber.Map, 0, len(txs))
	for _, t := range txs {
		out = append(out, fiber.Map{
			"id":        t.ID,
			"amount":    t.Amount,
			"timestamp": t.CreatedAt,
		})
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"customer_id":  c.Params("customerId"),
		"transactions": out,
	})
}
