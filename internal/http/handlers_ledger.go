package http

import (
	"net/http"

	"dicipfinance/internal/core"
	"dicipfinance/internal/services"
)

type listResponse[T any] struct {
	Mode  core.DataMode `json:"mode"`
	Items []T           `json:"items"`
}

func writeList[T any](w http.ResponseWriter, mode core.DataMode, items []T) {
	if items == nil {
		items = []T{}
	}
	NewResponse().JSON(listResponse[T]{Mode: mode, Items: items}).Write(w)
}

// writeResult answers a mutation with the record and its notification. A
// delete of a missing id changes nothing and answers 204.
func writeResult[T any](w http.ResponseWriter, status int, res services.Result[T]) {
	if res.Notification == (services.Notification{}) {
		NewResponse().Status(http.StatusNoContent).Write(w)
		return
	}
	NewResponse().Status(status).Notify(res.Notification).JSON(res).Write(w)
}

// --- categories ---

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	writeList(w, s.ledger.Mode(), s.ledger.ListCategories())
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	c, err := s.ledger.GetCategory(pathID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().JSON(c).Write(w)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var in categoryInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := s.ledger.CreateCategory(r.Context(), in.category())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeResult(w, http.StatusCreated, res)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	var in categoryInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := s.ledger.UpdateCategory(r.Context(), pathID(r), in.category())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeResult(w, http.StatusOK, res)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	res, err := s.ledger.DeleteCategory(r.Context(), pathID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeResult(w, http.StatusOK, res)
}

// --- transactions ---

// transactionView adds the resolved category label the list screen shows.
type transactionView struct {
	core.Transaction
	Category core.CategoryLabel `json:"category"`
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	period, err := parsePeriod(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	categories := s.ledger.ListCategories()
	txs := period.Filter(s.ledger.ListTransactions())

	views := make([]transactionView, 0, len(txs))
	for _, tx := range txs {
		views = append(views, transactionView{Transaction: tx, Category: core.ResolveCategory(categories, tx.CategoryID)})
	}
	writeList(w, s.ledger.Mode(), views)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	tx, err := s.ledger.GetTransaction(pathID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().JSON(transactionView{
		Transaction: tx,
		Category:    core.ResolveCategory(s.ledger.ListCategories(), tx.CategoryID),
	}).Write(w)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var in transactionInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := s.ledger.CreateTransaction(r.Context(), in.transaction())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeResult(w, http.StatusCreated, res)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var in transactionInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := s.ledger.UpdateTransaction(r.Context(), pathID(r), in.transaction())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeResult(w, http.StatusOK, res)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	res, err := s.ledger.DeleteTransaction(r.Context(), pathID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeResult(w, http.StatusOK, res)
}

// --- budget goals ---

func (s *Server) handleListBudgetGoals(w http.ResponseWriter, r *http.Request) {
	writeList(w, s.ledger.Mode(), s.ledger.ListBudgetGoals())
}

type budgetProgressResponse struct {
	Details []core.BudgetDetail `json:"details"`
	// AvailableCategories are the expense categories that can still get a goal.
	AvailableCategories []core.Category `json:"availableCategories"`
}

func (s *Server) handleBudgetProgress(w http.ResponseWriter, r *http.Request) {
	resp := budgetProgressResponse{
		Details:             s.ledger.BudgetDetails(),
		AvailableCategories: s.ledger.AvailableGoalCategories(),
	}
	if resp.Details == nil {
		resp.Details = []core.BudgetDetail{}
	}
	if resp.AvailableCategories == nil {
		resp.AvailableCategories = []core.Category{}
	}
	NewResponse().JSON(resp).Write(w)
}

func (s *Server) handleGetBudgetGoal(w http.ResponseWriter, r *http.Request) {
	g, err := s.ledger.GetBudgetGoal(pathID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().JSON(g).Write(w)
}

func (s *Server) handleCreateBudgetGoal(w http.ResponseWriter, r *http.Request) {
	var in budgetGoalInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := s.ledger.CreateBudgetGoal(r.Context(), in.goal())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeResult(w, http.StatusCreated, res)
}

func (s *Server) handleUpdateBudgetGoal(w http.ResponseWriter, r *http.Request) {
	var in budgetGoalInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := s.ledger.UpdateBudgetGoal(r.Context(), pathID(r), in.goal())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeResult(w, http.StatusOK, res)
}

func (s *Server) handleDeleteBudgetGoal(w http.ResponseWriter, r *http.Request) {
	res, err := s.ledger.DeleteBudgetGoal(r.Context(), pathID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeResult(w, http.StatusOK, res)
}
