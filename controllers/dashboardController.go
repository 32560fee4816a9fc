package controllers

import (
	"github.com/gofiber/fiber/v2"
)

// GetDashboard serves the overview figures: receipt count, total
// issued, total deducted, open balance.
func GetDashboard(c *fiber.Ctx) error {
	overview, err := Ledger.Overview(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(overview)
}
