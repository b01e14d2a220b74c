// This file holds request decoding: JSON bodies, path ids and period query
// parameters.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"dicipfinance/internal/core"
	"dicipfinance/internal/report"
)

const maxBodyBytes = 1 << 20

// badRequestError marks input that could not be read at all. It maps to 400,
// while readable input that breaks a domain rule maps to 422.
type badRequestError struct {
	msg string
	err error
}

func (e *badRequestError) Error() string { return e.msg }
func (e *badRequestError) Unwrap() error { return e.err }

func badRequest(msg string, err error) error {
	return &badRequestError{msg: msg, err: err}
}

// decodeJSON reads a single JSON object into dst. Unknown fields are rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.Is(err, io.EOF):
			return badRequest("el cuerpo de la solicitud está vacío", err)
		case errors.As(err, &maxErr):
			return badRequest("el cuerpo de la solicitud es demasiado grande", err)
		case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
			return badRequest("JSON mal formado", err)
		case errors.As(err, &typeErr):
			return badRequest(fmt.Sprintf("valor inválido para el campo %q", typeErr.Field), err)
		case strings.HasPrefix(err.Error(), "json: unknown field"):
			return badRequest("campo desconocido: "+strings.TrimPrefix(err.Error(), "json: unknown field "), err)
		case core.IsValidationError(err):
			// Money and Date report their own parse errors.
			return err
		default:
			return badRequest("JSON inválido", err)
		}
	}
	if dec.More() {
		return badRequest("el cuerpo debe contener un único objeto JSON", nil)
	}
	return nil
}

// pathID returns the {id} path segment.
func pathID(r *http.Request) string {
	return strings.TrimSpace(r.PathValue("id"))
}

// parsePeriod reads the optional year and month query parameters.
func parsePeriod(r *http.Request) (report.Period, error) {
	q := r.URL.Query()
	p, err := report.ParsePeriod(strings.TrimSpace(q.Get("year")), strings.TrimSpace(q.Get("month")))
	if err != nil {
		return report.Period{}, badRequest("periodo inválido: use year=AAAA&month=1..12", err)
	}
	return p, nil
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

type categoryInput struct {
	Name     string               `json:"name"`
	Type     core.TransactionType `json:"type"`
	Color    string               `json:"color"`
	IconName string               `json:"iconName"`
}

func (in categoryInput) category() core.Category {
	return core.Category{
		Name:     sanitizeInput(in.Name),
		Type:     core.TransactionType(strings.ToLower(strings.TrimSpace(string(in.Type)))),
		Color:    strings.TrimSpace(in.Color),
		IconName: strings.TrimSpace(in.IconName),
	}
}

type transactionInput struct {
	Date        core.Date            `json:"date"`
	Description string               `json:"description"`
	Amount      core.Money           `json:"amount"`
	Type        core.TransactionType `json:"type"`
	CategoryID  string               `json:"categoryId"`
}

func (in transactionInput) transaction() core.Transaction {
	return core.Transaction{
		Date:        in.Date,
		Description: sanitizeInput(in.Description),
		Amount:      in.Amount,
		Type:        core.TransactionType(strings.ToLower(strings.TrimSpace(string(in.Type)))),
		CategoryID:  strings.TrimSpace(in.CategoryID),
	}
}

type budgetGoalInput struct {
	CategoryID string     `json:"categoryId"`
	Amount     core.Money `json:"amount"`
}

func (in budgetGoalInput) goal() core.BudgetGoal {
	return core.BudgetGoal{
		CategoryID: strings.TrimSpace(in.CategoryID),
		Amount:     in.Amount,
	}
}

type modeInput struct {
	Mode string `json:"mode"`
}
