package handlers

import (
	"net/http"

	"github.com/Dosada05/league-system/middleware"
	"github.com/Dosada05/league-system/services"
)

type SeasonHandler struct {
	seasonService services.SeasonService
	teamService   services.TeamService
}

func NewSeasonHandler(seasonService services.SeasonService, teamService services.TeamService) *SeasonHandler {
	return &SeasonHandler{
		seasonService: seasonService,
		teamService:   teamService,
	}
}

func (h *SeasonHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input services.CreateSeasonInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	season, err := h.seasonService.CreateSeason(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"season": season}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SeasonHandler) List(w http.ResponseWriter, r *http.Request) {
	seasons, err := h.seasonService.ListSeasons(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"seasons": seasons}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SeasonHandler) Current(w http.ResponseWriter, r *http.Request) {
	season, err := h.seasonService.CurrentSeason(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"season": season}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SeasonHandler) Get(w http.ResponseWriter, r *http.Request) {
	seasonID, err := getIDFromURL(r, "seasonID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	season, err := h.seasonService.GetSeasonByID(r.Context(), seasonID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"season": season}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SeasonHandler) ListTeams(w http.ResponseWriter, r *http.Request) {
	seasonID, err := getIDFromURL(r, "seasonID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	teams, err := h.teamService.ListTeamsBySeason(r.Context(), seasonID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"teams": teams}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Join enrolls the caller in a season as a free agent.
func (h *SeasonHandler) Join(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}
	seasonID, err := getIDFromURL(r, "seasonID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	entry, err := h.seasonService.EnsureEntry(r.Context(), currentUserID, seasonID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"entry": entry}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
