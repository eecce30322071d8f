package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/sdfoods/restaurant-backend/api/responses"
	"github.com/sdfoods/restaurant-backend/api/validators"
	"github.com/sdfoods/restaurant-backend/internal/feedback"
	"github.com/sdfoods/restaurant-backend/pkg/db/models"
	"github.com/sdfoods/restaurant-backend/pkg/enums"
	pkgerrors "github.com/sdfoods/restaurant-backend/pkg/errors"
	"github.com/sdfoods/restaurant-backend/pkg/logger"
	"github.com/sdfoods/restaurant-backend/pkg/pagination"
)

type submitFeedbackRequest struct {
	CustomerID *uuid.UUID `json:"customerId"`
	TargetType string     `json:"targetType" validate:"required"`
	TargetID   *uuid.UUID `json:"targetId"`
	OrderID    *uuid.UUID `json:"orderId"`
	Type       string     `json:"type" validate:"required"`
	Message    string     `json:"message" validate:"required,max=2000"`
}

// SubmitFeedback files a complaint or compliment. Customers target the chef or
// driver of one of their orders; staff may also target a customer directly.
func SubmitFeedback(svc feedback.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "feedback service unavailable"))
			return
		}
		caller, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body submitFeedbackRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		author, err := subjectFor(caller, body.CustomerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		target, err := feedback.ParseTarget(body.TargetType, body.TargetID, body.OrderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		kind, err := enums.ParseFeedbackType(body.Type)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid feedback type"))
			return
		}

		row, err := svc.Submit(r.Context(), feedback.SubmitInput{
			FromUserID: author,
			Target:     target,
			Type:       kind,
			Message:    validators.SanitizeString(body.Message, 2000),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, row)
	}
}

func ApproveFeedback(svc feedback.Service, logg *logger.Logger) http.HandlerFunc {
	return reviewFeedback(svc, logg, feedback.DecisionApprove)
}

func DismissFeedback(svc feedback.Service, logg *logger.Logger) http.HandlerFunc {
	return reviewFeedback(svc, logg, feedback.DecisionDismiss)
}

func reviewFeedback(svc feedback.Service, logg *logger.Logger, decision feedback.Decision) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "feedback service unavailable"))
			return
		}
		caller, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		feedbackID, err := uuidParam(r, "feedbackId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Review(r.Context(), feedback.ReviewInput{
			FeedbackID: feedbackID,
			ManagerID:  caller.ID,
			Decision:   decision,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// DisputeFeedback lets the target contest a complaint before review.
func DisputeFeedback(svc feedback.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "feedback service unavailable"))
			return
		}
		caller, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		feedbackID, err := uuidParam(r, "feedbackId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		row, err := svc.Dispute(r.Context(), feedbackID, caller.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, row)
	}
}

func SentFeedback(svc feedback.Service, logg *logger.Logger) http.HandlerFunc {
	return listFeedback(svc, logg, func(svc feedback.Service, r *http.Request, userID uuid.UUID, params pagination.Params) (*pagination.Page[models.Feedback], error) {
		return svc.ListSent(r.Context(), userID, params)
	})
}

func ReceivedFeedback(svc feedback.Service, logg *logger.Logger) http.HandlerFunc {
	return listFeedback(svc, logg, func(svc feedback.Service, r *http.Request, userID uuid.UUID, params pagination.Params) (*pagination.Page[models.Feedback], error) {
		return svc.ListReceived(r.Context(), userID, params)
	})
}

// AllFeedback is the manager queue, optionally filtered with ?status=.
func AllFeedback(svc feedback.Service, logg *logger.Logger) http.HandlerFunc {
	return listFeedback(svc, logg, func(svc feedback.Service, r *http.Request, _ uuid.UUID, params pagination.Params) (*pagination.Page[models.Feedback], error) {
		var status *enums.FeedbackStatus
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			parsed, err := enums.ParseFeedbackStatus(raw)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter")
			}
			status = &parsed
		}
		return svc.ListAll(r.Context(), status, params)
	})
}

type feedbackLister func(svc feedback.Service, r *http.Request, userID uuid.UUID, params pagination.Params) (*pagination.Page[models.Feedback], error)

func listFeedback(svc feedback.Service, logg *logger.Logger, list feedbackLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "feedback service unavailable"))
			return
		}
		caller, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := pageParams(r, pagination.DefaultLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := list(svc, r, caller.ID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}
