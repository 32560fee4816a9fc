package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/PauloMartins337/tnp-finance/controllers"
	"github.com/PauloMartins337/tnp-finance/middlewares"
)

// Register wires all HTTP routes.
func Register(app *fiber.App) {
	api := app.Group("/api")

	// Public auth endpoints
	api.Post("/registration", controllers.Register)
	api.Post("/login", controllers.Login)
	api.Post("/logout", controllers.Logout)

	// Protected endpoints (JWT auth)
	protected := api.Group("")
	protected.Use(middlewares.IsAuthenticatedHeader())

	// Users (chat recipient picker)
	protected.Get("/users", controllers.GetUsers)

	// Receipts and deductions
	protected.Post("/receipt", controllers.CreateReceipt)
	protected.Get("/receipts", controllers.GetReceipts)
	protected.Get("/receipt/:id", controllers.GetReceipt)
	protected.Post("/receipt/:id/deductions", controllers.CreateDeduction)
	protected.Get("/receipt/:id/deductions", controllers.GetDeductions)
	protected.Get("/receipt/:id/status-changes", controllers.GetStatusChanges)
	protected.Put("/receipt/:id/cancel", controllers.CancelReceipt)
	protected.Get("/deductions", controllers.GetAllDeductions)

	// Dashboard aggregates
	protected.Get("/dashboard", controllers.GetDashboard)

	// Chat storage surface
	protected.Post("/messages", controllers.SendMessage)
	protected.Get("/messages/:peer", controllers.GetConversation)
	protected.Get("/messages/:peer/unread", controllers.GetUnreadCount)
	protected.Put("/messages/:peer/read", controllers.MarkMessagesRead)
	protected.Get("/chat/updates", controllers.GetChatUpdates)
}
