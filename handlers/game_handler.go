package handlers

import (
	"net/http"

	"github.com/Dosada05/league-system/services"
)

type GameHandler struct {
	scheduleService services.ScheduleService
}

func NewGameHandler(scheduleService services.ScheduleService) *GameHandler {
	return &GameHandler{scheduleService: scheduleService}
}

// GenerateSchedule builds the season's round-robin fixtures. Admin only.
func (h *GameHandler) GenerateSchedule(w http.ResponseWriter, r *http.Request) {
	seasonID, err := getIDFromURL(r, "seasonID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.GenerateScheduleInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	input.SeasonID = seasonID

	games, err := h.scheduleService.GenerateSchedule(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"games": games}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *GameHandler) RecordResult(w http.ResponseWriter, r *http.Request) {
	gameID, err := getIDFromURL(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.RecordResultInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	game, err := h.scheduleService.RecordResult(r.Context(), gameID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"game": game}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *GameHandler) ListForSeason(w http.ResponseWriter, r *http.Request) {
	seasonID, err := getIDFromURL(r, "seasonID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	games, err := h.scheduleService.ListSeasonGames(r.Context(), seasonID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"games": games}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *GameHandler) ListForTeam(w http.ResponseWriter, r *http.Request) {
	teamID, err := getIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	games, err := h.scheduleService.ListTeamGames(r.Context(), teamID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"games": games}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *GameHandler) Standings(w http.ResponseWriter, r *http.Request) {
	seasonID, err := getIDFromURL(r, "seasonID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	standings, err := h.scheduleService.Standings(r.Context(), seasonID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"standings": standings}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Finalize stamps final placements onto the season's teams. Admin only.
func (h *GameHandler) Finalize(w http.ResponseWriter, r *http.Request) {
	seasonID, err := getIDFromURL(r, "seasonID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	standings, err := h.scheduleService.FinalizeSeason(r.Context(), seasonID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"standings": standings}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
