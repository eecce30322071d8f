package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/sdfoods/restaurant-backend/api/responses"
	"github.com/sdfoods/restaurant-backend/api/validators"
	"github.com/sdfoods/restaurant-backend/internal/chat"
	pkgerrors "github.com/sdfoods/restaurant-backend/pkg/errors"
	"github.com/sdfoods/restaurant-backend/pkg/logger"
)

type askRequest struct {
	Message   string `json:"message" validate:"required,max=1000"`
	SessionID string `json:"sessionId" validate:"max=64"`
}

type chatRateRequest struct {
	ChatID   uuid.UUID `json:"chatId" validate:"required"`
	Rating   int       `json:"rating" validate:"min=0,max=5"`
	Feedback string    `json:"feedback" validate:"max=2000"`
}

type knowledgeRequest struct {
	Question string `json:"question" validate:"required,max=1000"`
	Answer   string `json:"answer" validate:"required,max=4000"`
	Category string `json:"category" validate:"max=80"`
}

type reviewFlaggedRequest struct {
	Action string `json:"action" validate:"required,oneof=remove keep"`
}

// ChatAsk answers from the knowledge base, falling back to the language model.
// Anonymous visitors may ask.
func ChatAsk(svc chat.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "chat service unavailable"))
			return
		}

		var body askRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := chat.AskInput{SessionID: body.SessionID, Message: body.Message}
		if caller := optionalActor(r); caller != nil {
			input.UserID = &caller.ID
		}

		answer, err := svc.Ask(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, answer)
	}
}

func ChatRate(svc chat.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "chat service unavailable"))
			return
		}

		var body chatRateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := chat.RateInput{
			ChatID:   body.ChatID,
			Rating:   body.Rating,
			Feedback: validators.SanitizeString(body.Feedback, 2000),
		}
		if caller := optionalActor(r); caller != nil {
			input.UserID = &caller.ID
		}

		rating, err := svc.Rate(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, rating)
	}
}

func ChatHistory(svc chat.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "chat service unavailable"))
			return
		}
		caller, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 20, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.History(r.Context(), caller.ID, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// ChatAddKnowledge submits a question and answer for the knowledge base.
func ChatAddKnowledge(svc chat.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "chat service unavailable"))
			return
		}
		caller, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body knowledgeRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entry, err := svc.AddKnowledge(r.Context(), chat.AddKnowledgeInput{
			UserID:   caller.ID,
			Question: body.Question,
			Answer:   body.Answer,
			Category: body.Category,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, entry)
	}
}

func PendingKnowledge(svc chat.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "chat service unavailable"))
			return
		}

		rows, err := svc.PendingKnowledge(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

func FlaggedChatRatings(svc chat.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "chat service unavailable"))
			return
		}

		rows, err := svc.FlaggedRatings(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

func ApproveKnowledge(svc chat.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "chat service unavailable"))
			return
		}
		id, err := uuidParam(r, "entryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entry, err := svc.ApproveKnowledge(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, entry)
	}
}

func RejectKnowledge(svc chat.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "chat service unavailable"))
			return
		}
		id, err := uuidParam(r, "entryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entry, err := svc.RejectKnowledge(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, entry)
	}
}

// ReviewFlaggedRating resolves a flagged chat rating. Removing it deactivates
// the knowledge entry and warns its author.
func ReviewFlaggedRating(svc chat.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "chat service unavailable"))
			return
		}
		caller, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ratingID, err := uuidParam(r, "ratingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body reviewFlaggedRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ReviewFlagged(r.Context(), ratingID, caller.ID, chat.ReviewAction(body.Action))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
