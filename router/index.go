package router

import (
	"club_manager/handler"
	"club_manager/model"
	"club_manager/validate"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

func SetupRoutes(app *fiber.App, h *handler.Handler) {
	api := app.Group("/api", logger.New())
	v1 := api.Group("/v1")

	orders := v1.Group("/orders")
	orders.Post("/", validate.Body[model.PlaceOrderInput](), h.PlaceOrder)
	orders.Get("/:orderCode", h.GetOrderDetail)
	orders.Patch("/:orderCode/state", validate.Body[model.ChangeOrderStateInput](), h.ChangeOrderState)

	tickets := v1.Group("/tickets")
	tickets.Post("/purchase", validate.Body[model.PurchaseTicketInput](), h.PurchaseTicket)
	tickets.Post("/validate", validate.Body[model.ValidateTokenInput](), h.ValidateQRCode)
	tickets.Get("/:code/qrcode", h.GetTicketQRCode)

	memberships := v1.Group("/memberships")
	memberships.Post("/purchase", validate.Body[model.PurchaseMembershipInput](), h.PurchaseMembership)

	matches := v1.Group("/matches")
	matches.Get("/:matchId/sectors/:sectorId/availability",
		validate.GetById("matchId"), validate.GetById("sectorId"), h.GetSectorAvailability)

	payments := v1.Group("/payments")
	payments.Get("/return", h.PaymentReturn)
	payments.Post("/ipn", h.PaymentIPN)

	v1.Get("/ws/inventory/:unitId", websocket.New(h.InventoryFeed))
}
