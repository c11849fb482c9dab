package handler

import (
	"club_manager/database"
	"club_manager/model"
	"club_manager/service"
	"club_manager/utils"
	"encoding/base64"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// PurchaseTicket runs the reserve-confirm-issue pipeline for one match
// sector.
func (h *Handler) PurchaseTicket(c *fiber.Ctx) error {
	input := c.Locals("input").(model.PurchaseTicketInput)

	var match model.Match
	if err := database.DB.First(&match, input.MatchID).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Match not found", err)
	}
	var sector model.Sector
	if err := database.DB.Where("id = ? AND match_id = ?", input.SectorID, match.ID).First(&sector).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Sector not found", err)
	}

	result, err := h.Orders.PurchaseTicket(c.UserContext(), service.TicketPurchaseInput{
		MatchID:    match.ID,
		SectorID:   sector.ID,
		Quantity:   input.Quantity,
		CustomerID: input.CustomerID,
		UnitPrice:  sector.Price,
		Label:      fmt.Sprintf("%s vs %s - %s", match.Venue, match.Opponent, sector.Name),
		KickoffAt:  match.KickoffAt,
	})
	if err != nil {
		return serviceError(c, err)
	}

	return utils.SuccessResponse(c, fiber.StatusCreated, fiber.Map{
		"order":      orderView(result.Order),
		"paymentUrl": result.PaymentURL,
		"paymentRef": result.PaymentRef,
	})
}

// PurchaseMembership buys a membership plan; the card is issued on
// payment confirmation.
func (h *Handler) PurchaseMembership(c *fiber.Ctx) error {
	input := c.Locals("input").(model.PurchaseMembershipInput)

	var plan model.MembershipPlan
	if err := database.DB.First(&plan, input.PlanID).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Membership plan not found", err)
	}

	result, err := h.Orders.PurchaseMembership(c.UserContext(), service.MembershipPurchaseInput{
		PlanID:         plan.ID,
		CustomerID:     input.CustomerID,
		Price:          plan.Price,
		Label:          plan.Name,
		ValidityMonths: plan.ValidityMonths,
	})
	if err != nil {
		return serviceError(c, err)
	}

	return utils.SuccessResponse(c, fiber.StatusCreated, fiber.Map{
		"order":      orderView(result.Order),
		"paymentUrl": result.PaymentURL,
		"paymentRef": result.PaymentRef,
	})
}

// ValidateQRCode checks a presented token and redeems it once.
func (h *Handler) ValidateQRCode(c *fiber.Ctx) error {
	input := c.Locals("input").(model.ValidateTokenInput)

	result, err := h.Validator.Validate(c.UserContext(), input.Token)
	if err != nil {
		return serviceError(c, err)
	}
	status := fiber.StatusOK
	if !result.Valid {
		status = fiber.StatusUnprocessableEntity
	}
	return utils.SuccessResponse(c, status, result)
}

// GetTicketQRCode renders the validation token of an issued record as a
// base64 PNG for display in the order detail view.
func (h *Handler) GetTicketQRCode(c *fiber.Ctx) error {
	code := c.Params("code")

	var rec model.TicketRecord
	if err := database.DB.Where("code = ?", code).First(&rec).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Ticket not found", err)
	}

	qrBytes, err := utils.GenerateQRCode(rec.Token, 400)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Cannot render QR code", err)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{
		"code":   rec.Code,
		"kind":   rec.Kind,
		"status": rec.Status,
		"qrCode": "data:image/png;base64," + base64.StdEncoding.EncodeToString(qrBytes),
	})
}

// GetSectorAvailability reports what is left in one sector.
func (h *Handler) GetSectorAvailability(c *fiber.Ctx) error {
	matchID := c.Locals("matchId").(uint)
	sectorID := c.Locals("sectorId").(uint)

	available, err := h.Ledger.Available(c.UserContext(), model.SectorUnitID(matchID, sectorID))
	if err != nil {
		return serviceError(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{
		"unitId":    model.SectorUnitID(matchID, sectorID),
		"available": available,
	})
}
