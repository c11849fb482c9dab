package handler

import (
	"club_manager/database"
	"club_manager/model"
	"club_manager/service"
	"club_manager/utils"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jinzhu/copier"
)

type OrderItemView struct {
	Kind      string  `json:"kind"`
	Label     string  `json:"label"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
	Discount  float64 `json:"discount"`
}

type OrderView struct {
	PublicCode  string          `json:"orderCode"`
	Status      string          `json:"status"`
	TotalAmount float64         `json:"totalAmount"`
	PaymentRef  string          `json:"paymentRef,omitempty"`
	Items       []OrderItemView `json:"items"`
	PaidAt      *time.Time      `json:"paidAt,omitempty"`
	CancelledAt *time.Time      `json:"cancelledAt,omitempty"`
}

func orderView(order *model.Order) OrderView {
	var view OrderView
	copier.Copy(&view, order)
	return view
}

// serviceError maps pipeline errors onto HTTP responses with a reason the
// client can render.
func serviceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrInsufficientStock):
		return utils.ErrorResponse(c, fiber.StatusConflict, "Insufficient stock", err)
	case errors.Is(err, service.ErrUnknownUnit), errors.Is(err, service.ErrOrderNotFound):
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Not found", err)
	case errors.Is(err, service.ErrInvalidQuantity):
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid quantity", err)
	case errors.Is(err, service.ErrInvalidTransition):
		return utils.ErrorResponse(c, fiber.StatusConflict, "Invalid order state change", err)
	case errors.Is(err, service.ErrGatewayUnavailable):
		return utils.ErrorResponse(c, fiber.StatusBadGateway, "Payment provider unavailable", err)
	}
	// Unexpected failures stay generic for the caller; detail is logged
	// by the services.
	return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Internal error", nil)
}

// PlaceOrder creates a shop order: every line is reserved or none is.
func (h *Handler) PlaceOrder(c *fiber.Ctx) error {
	input := c.Locals("input").(model.PlaceOrderInput)

	var lines []service.OrderLine
	for _, l := range input.Lines {
		var size model.ProductSize
		if err := database.DB.Preload("Product").First(&size, l.ProductSizeID).Error; err != nil {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Product size not found", err)
		}
		lines = append(lines, service.OrderLine{
			Kind:      model.ArtifactGoods,
			UnitID:    model.SizeUnitID(size.ID),
			RefID:     size.ID,
			Label:     size.Product.Name + " " + size.Size,
			Quantity:  l.Quantity,
			UnitPrice: size.Price,
			Discount:  l.Discount,
		})
	}

	result, err := h.Orders.PlaceOrder(c.UserContext(), input.CustomerID, lines)
	if err != nil {
		return serviceError(c, err)
	}

	return utils.SuccessResponse(c, fiber.StatusCreated, fiber.Map{
		"order":      orderView(result.Order),
		"paymentUrl": result.PaymentURL,
		"paymentRef": result.PaymentRef,
	})
}

// GetOrderDetail returns one order by public code.
func (h *Handler) GetOrderDetail(c *fiber.Ctx) error {
	code := c.Params("orderCode")

	order, err := h.Orders.GetOrder(c.UserContext(), code)
	if err != nil {
		return serviceError(c, err)
	}
	tickets, err := h.Orders.TicketsForOrder(c.UserContext(), order.ID)
	if err != nil {
		return serviceError(c, err)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{
		"order":   orderView(order),
		"tickets": tickets,
	})
}

// ChangeOrderState is the admin surface: mark shipped/delivered, refund,
// cancel a pending order.
func (h *Handler) ChangeOrderState(c *fiber.Ctx) error {
	code := c.Params("orderCode")
	input := c.Locals("input").(model.ChangeOrderStateInput)

	order, err := h.Orders.ChangeOrderState(c.UserContext(), code, input.State)
	if err != nil {
		return serviceError(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, orderView(order))
}
