package handler

import (
	"club_manager/config"
	"club_manager/utils"
	"fmt"
	"net/url"

	"github.com/gofiber/fiber/v2"
)

// PaymentReturn handles the browser redirect back from the provider.
func (h *Handler) PaymentReturn(c *fiber.Ctx) error {
	query, err := url.ParseQuery(string(c.Request().URI().QueryString()))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid callback", err)
	}

	result := h.Gateway.VerifyReturn(query)
	if result.IsSuccess {
		confirmed, err := h.Orders.ConfirmOrder(c.UserContext(), result.TxnRef)
		if err != nil {
			return serviceError(c, err)
		}
		return c.Redirect(fmt.Sprintf("%s/orders/%s/success", config.Config("FRONT_URL"), confirmed.Order.PublicCode))
	}

	if result.TxnRef != "" {
		if _, err := h.Orders.FailOrder(c.UserContext(), result.TxnRef, result.Message); err != nil {
			return serviceError(c, err)
		}
	}
	return c.Redirect(fmt.Sprintf("%s/payment-failed?reason=%s", config.Config("FRONT_URL"), url.QueryEscape(result.Message)))
}

// PaymentIPN handles the server-to-server notification. The provider
// retries this call, so confirmation must stay idempotent downstream.
func (h *Handler) PaymentIPN(c *fiber.Ctx) error {
	query, err := url.ParseQuery(string(c.Body()))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid IPN body", err)
	}

	result := h.Gateway.VerifyIPN(query)
	if !result.IsSuccess {
		if result.TxnRef != "" {
			if _, err := h.Orders.FailOrder(c.UserContext(), result.TxnRef, result.Message); err != nil {
				return serviceError(c, err)
			}
		}
		return c.JSON(fiber.Map{"RspCode": "01", "Message": "Failed"})
	}

	if _, err := h.Orders.ConfirmOrder(c.UserContext(), result.TxnRef); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"RspCode": "00", "Message": "Success"})
}
