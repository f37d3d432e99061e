package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"claimflow/auth"
	"claimflow/claim"
	"claimflow/docstore"
)

// maxSubmitMemory bounds multipart parsing; uploads above the document size
// limit are rejected by the docstore anyway.
const maxSubmitMemory = 8 << 20

// ClaimService is the workflow surface the HTTP layer depends on.
type ClaimService interface {
	Submit(ctx context.Context, draft claim.Draft, doc *docstore.Upload) (claim.Claim, error)
	List(ctx context.Context, key claim.SortKey) ([]claim.Claim, error)
	Approve(ctx context.Context, id int64, approver string) (claim.Claim, error)
	Reject(ctx context.Context, id int64, reason, role string) (claim.Claim, error)
	Verify(ctx context.Context, id int64, comments *string, role string) (claim.Claim, error)
	Return(ctx context.Context, id int64, comments *string, role string) (claim.Claim, error)
	AutoVerify(ctx context.Context) (claim.AutoVerifyResult, error)
	CoordinatorAutoApprove(ctx context.Context) (claim.CoordinatorResult, error)
	ManagerProcessFlagged(ctx context.Context) (claim.ManagerResult, error)
}

// RoleSessions issues and verifies role-session tokens.
type RoleSessions interface {
	SelectRole(role auth.Role, passphrase string) (string, auth.Role, error)
	VerifyToken(token string) (auth.Role, error)
}

// Server exposes the claim workflow over HTTP.
type Server struct {
	claims   ClaimService
	sessions RoleSessions
}

// NewServer builds a Server over the given services.
func NewServer(claims ClaimService, sessions RoleSessions) *Server {
	return &Server{claims: claims, sessions: sessions}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/session/role", s.handleSelectRole)
	mux.HandleFunc("POST /api/claims", s.handleSubmit)
	mux.HandleFunc("GET /api/claims", s.handleListClaims)
	mux.HandleFunc("POST /api/claims/{id}/approve", s.handleApprove)
	mux.HandleFunc("POST /api/claims/{id}/reject", s.handleReject)
	mux.HandleFunc("POST /api/claims/{id}/verify", s.handleVerify)
	mux.HandleFunc("POST /api/claims/{id}/return", s.handleReturn)
	mux.HandleFunc("POST /api/automation/verify", s.handleAutoVerify)
	mux.HandleFunc("POST /api/automation/coordinator", s.handleCoordinatorAutoApprove)
	mux.HandleFunc("POST /api/automation/manager", s.handleManagerProcessFlagged)
	return mux
}

type claimResponse struct {
	ID                     int64   `json:"id"`
	LecturerName           string  `json:"lecturer_name"`
	StartTime              *string `json:"start_time,omitempty"`
	EndTime                *string `json:"end_time,omitempty"`
	HoursWorked            string  `json:"hours_worked"`
	HourlyRate             string  `json:"hourly_rate"`
	TotalAmount            string  `json:"total_amount"`
	SupportingDocumentPath *string `json:"supporting_document_path,omitempty"`
	Notes                  *string `json:"notes,omitempty"`
	Status                 string  `json:"status"`
	DateSubmitted          string  `json:"date_submitted"`
	VerifiedBy             *string `json:"verified_by,omitempty"`
	VerifiedDate           *string `json:"verified_date,omitempty"`
	HODComments            *string `json:"hod_comments,omitempty"`
	LastActionNote         *string `json:"last_action_note,omitempty"`
	EscalatedToManager     bool    `json:"escalated_to_manager"`
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func toClaimResponse(c claim.Claim) claimResponse {
	resp := claimResponse{
		ID:                     c.ID,
		LecturerName:           c.LecturerName,
		StartTime:              formatTimePtr(c.StartTime),
		EndTime:                formatTimePtr(c.EndTime),
		HoursWorked:            c.HoursWorked.String(),
		HourlyRate:             c.HourlyRate.String(),
		TotalAmount:            c.TotalAmount().String(),
		SupportingDocumentPath: c.SupportingDocumentPath,
		Notes:                  c.Notes,
		Status:                 string(c.Status),
		DateSubmitted:          c.DateSubmitted.Format(time.RFC3339),
		VerifiedBy:             c.VerifiedBy,
		VerifiedDate:           formatTimePtr(c.VerifiedDate),
		HODComments:            c.HODComments,
		LastActionNote:         c.LastActionNote,
		EscalatedToManager:     c.EscalatedToManager,
	}
	return resp
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}

func (s *Server) handleSelectRole(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Role       string `json:"role"`
		Passphrase string `json:"passphrase"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	token, role, err := s.sessions.SelectRole(auth.Role(req.Role), req.Passphrase)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidPassphrase) {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid reviewer passphrase"})
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"token": token,
		"role":  string(role),
	})
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxSubmitMemory); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid multipart form"})
		return
	}

	draft := claim.Draft{
		LecturerName: r.FormValue("lecturer_name"),
	}
	if notes := strings.TrimSpace(r.FormValue("notes")); notes != "" {
		draft.Notes = &notes
	}

	var parseErr *errorResponse
	draft.HoursWorked, parseErr = parseDecimalField(r.FormValue("hours_worked"), "hours_worked")
	if parseErr != nil {
		writeJSON(w, http.StatusBadRequest, *parseErr)
		return
	}
	draft.HourlyRate, parseErr = parseDecimalField(r.FormValue("hourly_rate"), "hourly_rate")
	if parseErr != nil {
		writeJSON(w, http.StatusBadRequest, *parseErr)
		return
	}

	draft.StartTime, parseErr = parseTimeField(r.FormValue("start_time"), "start_time")
	if parseErr != nil {
		writeJSON(w, http.StatusBadRequest, *parseErr)
		return
	}
	draft.EndTime, parseErr = parseTimeField(r.FormValue("end_time"), "end_time")
	if parseErr != nil {
		writeJSON(w, http.StatusBadRequest, *parseErr)
		return
	}

	var doc *docstore.Upload
	file, header, err := r.FormFile("supporting_document")
	switch {
	case err == nil:
		defer file.Close()
		doc = &docstore.Upload{
			Filename: header.Filename,
			Size:     header.Size,
			Content:  file,
		}
	case errors.Is(err, http.ErrMissingFile):
		// no document attached
	default:
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid supporting document"})
		return
	}

	created, err := s.claims.Submit(r.Context(), draft, doc)
	if err != nil {
		s.writeSubmitError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toClaimResponse(created))
}

func (s *Server) writeSubmitError(w http.ResponseWriter, err error) {
	var fieldErr *claim.FieldError
	switch {
	case errors.As(err, &fieldErr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: fieldErr.Message, Field: fieldErr.Field})
	case errors.Is(err, claim.ErrDocumentRequired):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "hours or hourly rate exceed allowed limits; upload a supporting document"})
	case errors.Is(err, docstore.ErrUnsupportedType):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "unsupported file type"})
	case errors.Is(err, docstore.ErrTooLarge):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "file too large (max 5 MB)"})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func (s *Server) handleListClaims(w http.ResponseWriter, r *http.Request) {
	key := claim.SortByDateSubmitted
	if r.URL.Query().Get("sort") == "id" {
		key = claim.SortByID
	}

	claims, err := s.claims.List(r.Context(), key)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}

	items := make([]claimResponse, 0, len(claims))
	for _, c := range claims {
		items = append(items, toClaimResponse(c))
	}

	// The role is informational only: every role sees the full set.
	role := r.URL.Query().Get("role")
	if role == "" {
		role = string(auth.RoleHOD)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"role":   role,
		"claims": items,
	})
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	id, ok := claimID(w, r)
	if !ok {
		return
	}
	role, ok := s.roleFromRequest(w, r)
	if !ok {
		return
	}

	updated, err := s.claims.Approve(r.Context(), id, string(role))
	if err != nil {
		s.writeDecisionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toClaimResponse(updated))
}

func (s *Server) handleReject(w http.ResponseWriter, r *http.Request) {
	id, ok := claimID(w, r)
	if !ok {
		return
	}
	role, ok := s.roleFromRequest(w, r)
	if !ok {
		return
	}

	reason := strings.TrimSpace(r.FormValue("reason"))
	if reason == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "reason is required", Field: "reason"})
		return
	}

	updated, err := s.claims.Reject(r.Context(), id, reason, string(role))
	if err != nil {
		s.writeDecisionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toClaimResponse(updated))
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	id, ok := claimID(w, r)
	if !ok {
		return
	}
	role, ok := s.roleFromRequest(w, r)
	if !ok {
		return
	}

	updated, err := s.claims.Verify(r.Context(), id, commentsField(r), string(role))
	if err != nil {
		s.writeDecisionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toClaimResponse(updated))
}

func (s *Server) handleReturn(w http.ResponseWriter, r *http.Request) {
	id, ok := claimID(w, r)
	if !ok {
		return
	}
	role, ok := s.roleFromRequest(w, r)
	if !ok {
		return
	}

	updated, err := s.claims.Return(r.Context(), id, commentsField(r), string(role))
	if err != nil {
		s.writeDecisionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toClaimResponse(updated))
}

func (s *Server) handleAutoVerify(w http.ResponseWriter, r *http.Request) {
	res, err := s.claims.AutoVerify(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{
		"approved": res.Approved,
		"flagged":  res.Flagged,
	})
}

func (s *Server) handleCoordinatorAutoApprove(w http.ResponseWriter, r *http.Request) {
	res, err := s.claims.CoordinatorAutoApprove(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{
		"approved":  res.Approved,
		"escalated": res.Escalated,
	})
}

func (s *Server) handleManagerProcessFlagged(w http.ResponseWriter, r *http.Request) {
	res, err := s.claims.ManagerProcessFlagged(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{
		"approved":      res.Approved,
		"still_flagged": res.StillFlagged,
	})
}

func (s *Server) writeDecisionError(w http.ResponseWriter, err error) {
	if errors.Is(err, claim.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "claim not found"})
		return
	}
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
}

// roleFromRequest resolves the acting role from the bearer token. A request
// without a token falls back to HOD; a present but invalid token is rejected.
func (s *Server) roleFromRequest(w http.ResponseWriter, r *http.Request) (auth.Role, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return auth.RoleHOD, true
	}

	token := strings.TrimPrefix(header, "Bearer ")
	role, err := s.sessions.VerifyToken(token)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid session token"})
		return "", false
	}
	return role, true
}

func claimID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid claim id"})
		return 0, false
	}
	return id, true
}

func commentsField(r *http.Request) *string {
	comments := strings.TrimSpace(r.FormValue("comments"))
	if comments == "" {
		return nil
	}
	return &comments
}

func parseDecimalField(raw, field string) (decimal.Decimal, *errorResponse) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, &errorResponse{Error: "must be a decimal number", Field: field}
	}
	return d, nil
}

func parseTimeField(raw, field string) (*time.Time, *errorResponse) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, &errorResponse{Error: "must be an RFC 3339 timestamp", Field: field}
	}
	return &t, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
