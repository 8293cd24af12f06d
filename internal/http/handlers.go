package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"splitledger/internal/core"
	"splitledger/internal/services"
	"splitledger/internal/storage"
)

type errorDetail struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

// statusForKind maps a stable error kind to its HTTP status.
func statusForKind(kind string) int {
	switch kind {
	case "account_exists":
		return http.StatusConflict
	case "account_not_found", "expense_not_found", "empty_expense_set":
		return http.StatusNotFound
	case "invalid_input", "unknown_strategy", "count_mismatch",
		"percent_sum_mismatch", "exact_sum_mismatch":
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := services.ErrorKind(err)
	status := statusForKind(kind)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "Request failed",
			"url", r.URL.Path, "kind", kind, "error", err)
	}
	writeJSON(w, status, errorBody{Error: errorDetail{Kind: kind, Message: err.Error()}})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		s.writeError(w, r, core.ErrInvalidInput)
		return
	}

	account := core.Account{
		Email: p.Get("email"),
		Name:  p.Get("name"),
		Phone: p.Get("phone"),
	}
	if err := account.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.accounts.CreateAccount(r.Context(), account); err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"email":   account.Email,
		"message": "account registered",
	})
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseCreateExpense(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	expense, err := s.ledger.CreateExpense(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"expense_id": expense.ID,
		"share_type": string(req.Strategy),
		"total":      expense.Total.String(),
	})
}

// parseCreateExpense turns the raw request into the typed write-path input.
// All field parsing happens here; the service layer only ever sees typed
// values.
func (s *Server) parseCreateExpense(r *http.Request) (services.CreateExpenseRequest, error) {
	var req services.CreateExpenseRequest

	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		return req, core.ErrInvalidInput
	}

	req.OwnerID = p.Get("email")
	req.Name = p.Get("expense_name")
	req.StrictExact = s.strictExact

	total, err := core.ParseMoney(p.Get("total"))
	if err != nil {
		return req, err
	}
	req.Total = total

	strategy, err := core.ParseStrategy(p.Get("share_type"))
	if err != nil {
		return req, err
	}
	req.Strategy = strategy

	req.Participants = p.GetList("participants")
	for _, name := range req.Participants {
		if name == "" {
			return req, core.ErrInvalidInput
		}
	}

	switch strategy {
	case core.StrategyExact:
		for _, item := range p.GetList("exact_share") {
			amount, err := core.ParseMoney(item)
			if err != nil {
				return req, err
			}
			req.ExactAmounts = append(req.ExactAmounts, amount)
		}
	case core.StrategyPercent:
		for _, item := range p.GetList("percent_share") {
			pct, err := strconv.ParseFloat(item, 64)
			if err != nil {
				return req, core.ErrInvalidInput
			}
			req.Percentages = append(req.Percentages, pct)
		}
	}

	return req, nil
}

func (s *Server) handleSumParticipant(w http.ResponseWriter, r *http.Request) {
	participant := r.PathValue("participant")
	if participant == "" {
		s.writeError(w, r, core.ErrInvalidInput)
		return
	}

	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		s.writeError(w, r, core.ErrInvalidInput)
		return
	}
	owner := p.Get("email")

	if err := s.requireAccount(r, owner); err != nil {
		s.writeError(w, r, err)
		return
	}

	sum, err := s.agg.SumByParticipant(r.Context(), owner, participant)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"email":       owner,
		"participant": participant,
		"total":       sum.String(),
	})
}

func (s *Server) handleSumOverall(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		s.writeError(w, r, core.ErrInvalidInput)
		return
	}
	owner := p.Get("email")

	if err := s.requireAccount(r, owner); err != nil {
		s.writeError(w, r, err)
		return
	}

	sum, err := s.agg.SumByAccount(r.Context(), owner)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	// A total of zero is a valid answer for an account with no expenses.
	writeJSON(w, http.StatusOK, map[string]string{
		"email": owner,
		"total": sum.String(),
	})
}

func (s *Server) handleBalanceSheet(w http.ResponseWriter, r *http.Request) {
	owner := r.URL.Query().Get("email")
	if err := s.requireAccount(r, owner); err != nil {
		s.writeError(w, r, err)
		return
	}

	statement, err := s.statements.BuildStatement(r.Context(), owner)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", services.StatementContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+services.StatementFileName+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(statement)
}

// requireAccount turns a missing or unregistered email into the not-found
// error the retrieval endpoints report.
func (s *Server) requireAccount(r *http.Request, owner string) error {
	if owner == "" {
		return core.ErrInvalidInput
	}
	exists, err := s.accounts.AccountExists(r.Context(), owner)
	if err != nil {
		return err
	}
	if !exists {
		return storage.ErrAccountNotFound
	}
	return nil
}
