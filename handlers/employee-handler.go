package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/iStreamsERP/istreams-task-management/services"
)

type EmployeeHandler struct {
	service *services.EmployeeService
}

func NewEmployeeHandler(service *services.EmployeeService) *EmployeeHandler {
	return &EmployeeHandler{service: service}
}

// GetActiveEmployees serves the directory of non-expired accounts,
// optionally narrowed by a name search.
func (h *EmployeeHandler) GetActiveEmployees(w http.ResponseWriter, r *http.Request) {
	if _, err := viewerFromRequest(r); err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	users, err := h.service.ActiveUsers(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(users)
}

// GetEmployeeImage serves one avatar as its base64 payload. Misses are an
// empty body, not an error, matching how avatars degrade everywhere else.
func (h *EmployeeHandler) GetEmployeeImage(w http.ResponseWriter, r *http.Request) {
	if _, err := viewerFromRequest(r); err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	empNo := mux.Vars(r)["empNo"]
	image := h.service.ImageOrEmpty(r.Context(), empNo)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"empNo": empNo, "image": image})
}
