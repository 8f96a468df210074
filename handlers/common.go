package handlers

import (
	"context"
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"esg-engagement/engine"
	"esg-engagement/models"
	"esg-engagement/services"
	"esg-engagement/utils"
)

// EventStore is the event side of the service layer.
type EventStore interface {
	List(ctx context.Context, category *models.Category) ([]models.Event, error)
	Get(ctx context.Context, id string) (models.Event, error)
	Create(ctx context.Context, input models.NewEventInput) (models.Event, error)
	Publish(ctx context.Context, id string) (models.Event, error)
	RevisePoints(ctx context.Context, id string, points int64) (models.Event, error)
}

// ParticipationStore runs lifecycle transitions.
type ParticipationStore interface {
	Register(ctx context.Context, memberID, eventID string) (models.Participation, error)
	ListForMember(ctx context.Context, memberID string) ([]models.Participation, error)
	Cancel(ctx context.Context, memberID, participationID string) (models.Participation, error)
	MarkAttended(ctx context.Context, participationID string) (models.Participation, error)
	Complete(ctx context.Context, participationID string, rating *int, feedback *string) (models.Participation, engine.Progression, error)
	MarkMissed(ctx context.Context, participationID string) (models.Participation, error)
}

type ProgressReader interface {
	GetProgress(ctx context.Context, memberID string) (services.ProgressView, error)
	GetHistory(ctx context.Context, memberID string, page, size int) (services.HistoryPage, error)
}

type BadgeReader interface {
	Statuses(ctx context.Context, memberID string) ([]models.BadgeStatus, error)
}

type LeaderboardReader interface {
	Top(ctx context.Context, limit int) ([]models.LeaderboardEntry, error)
	Around(ctx context.Context, memberID string, radius int) ([]models.LeaderboardEntry, error)
	Snapshot(ctx context.Context) (services.SnapshotResult, error)
}

type ShopStore interface {
	ListItems(ctx context.Context) ([]models.ShopItem, error)
	Purchase(ctx context.Context, memberID, itemID string) (models.Redemption, int64, error)
}

type MemberStore interface {
	Register(ctx context.Context, input services.RegisterMemberInput) (models.Member, error)
	Search(ctx context.Context, query string, limit int) ([]services.MemberSummary, error)
}

var validationErrors = []error{
	models.ErrEmptyID, models.ErrEmptyDisplayName, models.ErrInvalidCategory,
	models.ErrNonPositivePoints, models.ErrNegativeCapacity, models.ErrEventWindow,
	models.ErrInvalidRating, utils.ErrInvalidEmail, utils.ErrNameTooShort,
	utils.ErrInvalidStudentID,
}

// statusFor maps service and engine errors to HTTP status codes.
func statusFor(err error) (int, string) {
	if kind, ok := engine.KindOf(err); ok {
		switch kind {
		case engine.KindAlreadyRegistered, engine.KindCapacityExceeded:
			return fiber.StatusConflict, string(kind)
		case engine.KindEventNotJoinable, engine.KindInvalidTransition:
			return fiber.StatusUnprocessableEntity, string(kind)
		case engine.KindInvalidState:
			return fiber.StatusBadRequest, string(kind)
		}
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fiber.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, services.ErrMemberExists):
		return fiber.StatusConflict, "MEMBER_EXISTS"
	case errors.Is(err, services.ErrInsufficientBalance):
		return fiber.StatusUnprocessableEntity, "INSUFFICIENT_BALANCE"
	case errors.Is(err, services.ErrItemUnavailable):
		return fiber.StatusUnprocessableEntity, "ITEM_UNAVAILABLE"
	}
	for _, v := range validationErrors {
		if errors.Is(err, v) {
			return fiber.StatusBadRequest, "INVALID_INPUT"
		}
	}
	return fiber.StatusInternalServerError, "INTERNAL"
}

func respondError(c *fiber.Ctx, msg string, err error) error {
	status, code := statusFor(err)
	if status == fiber.StatusInternalServerError {
		log.Printf("❌ [API] %s %s: %s: %v", c.Method(), c.Path(), msg, err)
		return c.Status(status).JSON(fiber.Map{"error": msg, "code": code})
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error(), "code": code})
}
