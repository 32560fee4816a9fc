package controllers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/PauloMartins337/tnp-finance/chat"
	"github.com/PauloMartins337/tnp-finance/middlewares"
)

// Chat is wired in main before routes are served.
var Chat *chat.Service

type sendMessageRequest struct {
	Receiver string `json:"receiver" validate:"required"`
	Content  string `json:"content" validate:"required"`
}

func SendMessage(c *fiber.Ctx) error {
	var req sendMessageRequest
	if err := middlewares.BindAndValidate(c, &req); err != nil {
		return err
	}

	msg, err := Chat.Send(c.Context(), middlewares.SessionFromCtx(c), req.Receiver, req.Content)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(msg)
}

func GetConversation(c *fiber.Ctx) error {
	msgs, err := Chat.Conversation(c.Context(), middlewares.SessionFromCtx(c), c.Params("peer"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"messages": msgs,
		"message":  "success",
	})
}

func GetUnreadCount(c *fiber.Ctx) error {
	n, err := Chat.UnreadCount(c.Context(), middlewares.SessionFromCtx(c), c.Params("peer"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"unread": n,
	})
}

func MarkMessagesRead(c *fiber.Ctx) error {
	if err := Chat.MarkRead(c.Context(), middlewares.SessionFromCtx(c), c.Params("peer")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "success",
	})
}

// GetChatUpdates long-polls the change-notification channel. It answers
// {"changed": true} as soon as any messages-table event arrives, or
// {"changed": false} after the timeout; clients re-query on true.
func GetChatUpdates(c *fiber.Ctx) error {
	timeout := c.QueryInt("timeout", 25)
	if timeout < 1 || timeout > 60 {
		timeout = 25
	}

	ctx, cancel := context.WithTimeout(c.Context(), time.Duration(timeout)*time.Second)
	defer cancel()

	event, err := Chat.WaitForChange(ctx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return c.JSON(fiber.Map{"changed": false})
		}
		return err
	}
	return c.JSON(fiber.Map{
		"changed": true,
		"event":   event,
	})
}
