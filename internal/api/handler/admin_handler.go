package handler

import (
	"encoding/json"
	"net/http"

	"codetrack/internal/api/middleware"
	"codetrack/internal/app/service"
	"codetrack/internal/common"

	"github.com/go-chi/chi/v5"
)

// AdminHandler exposes the tracker management API: phase and group CRUD, the
// question catalog, column allocation, the sheet sync workflow, and user
// registration.
type AdminHandler struct {
	catalogService     *service.CatalogService
	masterSheetService *service.MasterSheetService
	syncService        *service.SyncService
	userService        *service.UserService
}

func NewAdminHandler(
	catalogService *service.CatalogService,
	masterSheetService *service.MasterSheetService,
	syncService *service.SyncService,
	userService *service.UserService,
) *AdminHandler {
	return &AdminHandler{
		catalogService:     catalogService,
		masterSheetService: masterSheetService,
		syncService:        syncService,
		userService:        userService,
	}
}

func (h *AdminHandler) RegisterRoutes(r chi.Router) {
	r.Use(middleware.Authenticator)
	r.Use(middleware.AdminOnly)

	r.Route("/phases", func(r chi.Router) {
		r.Post("/", h.createPhase)
		r.Get("/", h.listPhases)
		r.Get("/{phaseID}", h.getPhase)
		r.Put("/{phaseID}", h.updatePhase)
		r.Delete("/{phaseID}", h.deletePhase)
	})

	r.Route("/groups", func(r chi.Router) {
		r.Post("/", h.createGroup)
		r.Get("/", h.listGroups)
		r.Put("/{groupID}", h.updateGroup)
		r.Delete("/{groupID}", h.deleteGroup)
	})

	r.Route("/questions", func(r chi.Router) {
		r.Get("/", h.listQuestions)
		r.Post("/add-to-sheet", h.addQuestionToSheet)
		r.Get("/next-column/{phaseID}", h.nextColumn)
		r.Get("/{questionID}", h.getQuestion)
		r.Delete("/{questionID}", h.deleteQuestion)
	})

	r.Get("/mappings", h.listMappings)

	r.Post("/sync", h.detectChanges)
	r.Post("/sync/approve", h.approveChanges)
	r.Get("/tabs/health", h.tabsHealth)

	r.Route("/users", func(r chi.Router) {
		r.Post("/", h.createUser)
		r.Get("/", h.listUsers)
	})
}

func (h *AdminHandler) createPhase(w http.ResponseWriter, r *http.Request) {
	var req service.CreatePhaseInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}
	if err := validate.Struct(req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}
	phase, err := h.catalogService.CreatePhase(r.Context(), req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, phase)
}

func (h *AdminHandler) listPhases(w http.ResponseWriter, r *http.Request) {
	phases, err := h.catalogService.ListPhases(r.Context())
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, phases)
}

func (h *AdminHandler) getPhase(w http.ResponseWriter, r *http.Request) {
	phase, err := h.catalogService.GetPhase(r.Context(), chi.URLParam(r, "phaseID"))
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, phase)
}

func (h *AdminHandler) updatePhase(w http.ResponseWriter, r *http.Request) {
	var req service.UpdatePhaseInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}
	phase, err := h.catalogService.UpdatePhase(r.Context(), chi.URLParam(r, "phaseID"), req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, phase)
}

func (h *AdminHandler) deletePhase(w http.ResponseWriter, r *http.Request) {
	if err := h.catalogService.DeletePhase(r.Context(), chi.URLParam(r, "phaseID")); err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) createGroup(w http.ResponseWriter, r *http.Request) {
	var req service.CreateGroupInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}
	if err := validate.Struct(req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}
	group, err := h.catalogService.CreateGroup(r.Context(), req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, group)
}

func (h *AdminHandler) listGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.catalogService.ListGroups(r.Context())
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, groups)
}

func (h *AdminHandler) updateGroup(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateGroupInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}
	group, err := h.catalogService.UpdateGroup(r.Context(), chi.URLParam(r, "groupID"), req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, group)
}

func (h *AdminHandler) deleteGroup(w http.ResponseWriter, r *http.Request) {
	if err := h.catalogService.DeleteGroup(r.Context(), chi.URLParam(r, "groupID")); err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) listQuestions(w http.ResponseWriter, r *http.Request) {
	var phaseID *string
	if v := r.URL.Query().Get("phase_id"); v != "" {
		phaseID = &v
	}
	questions, err := h.catalogService.ListQuestions(r.Context(), phaseID)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, questions)
}

func (h *AdminHandler) listMappings(w http.ResponseWriter, r *http.Request) {
	mappings, err := h.catalogService.ListMappings(r.Context())
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, mappings)
}

func (h *AdminHandler) getQuestion(w http.ResponseWriter, r *http.Request) {
	question, err := h.catalogService.GetQuestion(r.Context(), chi.URLParam(r, "questionID"))
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, question)
}

func (h *AdminHandler) deleteQuestion(w http.ResponseWriter, r *http.Request) {
	if err := h.catalogService.DeleteQuestion(r.Context(), chi.URLParam(r, "questionID")); err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) addQuestionToSheet(w http.ResponseWriter, r *http.Request) {
	var req service.AddQuestionInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}
	if err := validate.Struct(req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}
	question, err := h.masterSheetService.AddQuestionToSheet(r.Context(), req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, question)
}

func (h *AdminHandler) nextColumn(w http.ResponseWriter, r *http.Request) {
	questionCol, timeCol, err := h.masterSheetService.PreviewNextColumn(r.Context(), chi.URLParam(r, "phaseID"))
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]string{
		"question_column": questionCol,
		"time_column":     timeCol,
	})
}

func (h *AdminHandler) detectChanges(w http.ResponseWriter, r *http.Request) {
	report, err := h.syncService.DetectChanges(r.Context())
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, report)
}

func (h *AdminHandler) approveChanges(w http.ResponseWriter, r *http.Request) {
	var report service.SyncReport
	if err := json.NewDecoder(r.Body).Decode(&report); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}
	result, err := h.syncService.ApproveChanges(r.Context(), &report)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, result)
}

func (h *AdminHandler) tabsHealth(w http.ResponseWriter, r *http.Request) {
	results, err := h.syncService.CheckGroupTabs(r.Context())
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, results)
}

func (h *AdminHandler) createUser(w http.ResponseWriter, r *http.Request) {
	var req service.CreateUserInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}
	if err := validate.Struct(req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}
	user, err := h.userService.CreateUser(r.Context(), req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, user)
}

func (h *AdminHandler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.ListUsers(r.Context())
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, users)
}
