package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/PauloMartins337/tnp-finance/ledger"
	"github.com/PauloMartins337/tnp-finance/middlewares"
	"github.com/PauloMartins337/tnp-finance/utils"
)

// Ledger is wired in main before routes are served.
var Ledger *ledger.Store

type createReceiptRequest struct {
	ReceiptNumber string  `json:"receipt_number" validate:"required"`
	Date          string  `json:"date" validate:"required,datetime=2006-01-02"`
	Client        string  `json:"client"`
	TotalValue    float64 `json:"total_value" validate:"required,gt=0"`
	Description   string  `json:"description"`
}

type createDeductionRequest struct {
	Date        string  `json:"date" validate:"required,datetime=2006-01-02"`
	Value       float64 `json:"value" validate:"required,gt=0"`
	Description string  `json:"description"`
}

func CreateReceipt(c *fiber.Ctx) error {
	var req createReceiptRequest
	if err := middlewares.BindAndValidate(c, &req); err != nil {
		return err
	}
	utils.NormalizeDTO(&req)

	receipt, err := Ledger.CreateReceipt(c.Context(), middlewares.SessionFromCtx(c), ledger.CreateReceiptInput{
		Number:      req.ReceiptNumber,
		Date:        req.Date,
		Client:      req.Client,
		TotalValue:  req.TotalValue,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(receipt)
}

func GetReceipts(c *fiber.Ctx) error {
	receipts, err := Ledger.ListReceiptsWithStats(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"receipts": receipts,
		"message":  "success",
	})
}

func GetReceipt(c *fiber.Ctx) error {
	receipt, err := Ledger.Receipt(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(receipt)
}

func CreateDeduction(c *fiber.Ctx) error {
	var req createDeductionRequest
	if err := middlewares.BindAndValidate(c, &req); err != nil {
		return err
	}
	utils.NormalizeDTO(&req)

	deduction, err := Ledger.AddDeduction(c.Context(), middlewares.SessionFromCtx(c), ledger.AddDeductionInput{
		ReceiptID:   c.Params("id"),
		Date:        req.Date,
		Value:       req.Value,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(deduction)
}

// GetDeductions lists one receipt's deductions.
func GetDeductions(c *fiber.Ctx) error {
	deductions, err := Ledger.Deductions(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"deductions": deductions,
		"message":    "success",
	})
}

// GetAllDeductions lists every deduction, optionally filtered by the
// receipt_id query parameter.
func GetAllDeductions(c *fiber.Ctx) error {
	deductions, err := Ledger.Deductions(c.Context(), c.Query("receipt_id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"deductions": deductions,
		"message":    "success",
	})
}

func CancelReceipt(c *fiber.Ctx) error {
	if err := Ledger.CancelReceipt(c.Context(), middlewares.SessionFromCtx(c), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "success",
	})
}

// GetStatusChanges returns the audit trail of one receipt's transitions.
func GetStatusChanges(c *fiber.Ctx) error {
	changes, err := Ledger.StatusChanges(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"status_changes": changes,
		"message":        "success",
	})
}
