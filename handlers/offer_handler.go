package handlers

import (
	"net/http"

	"github.com/Dosada05/league-system/middleware"
	"github.com/Dosada05/league-system/services"
)

type OfferHandler struct {
	offerService services.OfferService
}

func NewOfferHandler(offerService services.OfferService) *OfferHandler {
	return &OfferHandler{offerService: offerService}
}

func (h *OfferHandler) Create(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	var input services.CreateOfferInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	input.CurrentUserID = currentUserID

	offer, err := h.offerService.CreateOffer(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"offer": offer}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *OfferHandler) Accept(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}
	offerID, err := getIDFromURL(r, "offerID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.offerService.AcceptOffer(r.Context(), offerID, currentUserID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"message": "offer accepted"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *OfferHandler) Decline(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}
	offerID, err := getIDFromURL(r, "offerID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.offerService.DeclineOffer(r.Context(), offerID, currentUserID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"message": "offer declined"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListMine returns the caller's pending offers in the current season.
func (h *OfferHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	offers, err := h.offerService.ListUserOffers(r.Context(), currentUserID, currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"offers": offers}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *OfferHandler) ListForTeam(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}
	teamID, err := getIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	offers, err := h.offerService.ListTeamOffers(r.Context(), teamID, currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"offers": offers}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
