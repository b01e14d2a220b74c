package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"dicipfinance/internal/core"
	"dicipfinance/internal/report"
)

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantMsg string
		wantBad bool
	}{
		{name: "valid", body: `{"categoryId":"food","amount":"1500,50"}`},
		{name: "empty", body: "", wantBad: true, wantMsg: "vacío"},
		{name: "malformed", body: `{"categoryId":`, wantBad: true, wantMsg: "mal formado"},
		{name: "wrong type", body: `{"categoryId":12}`, wantBad: true, wantMsg: "categoryId"},
		{name: "unknown field", body: `{"category":"food"}`, wantBad: true, wantMsg: "campo desconocido"},
		{name: "two objects", body: `{"categoryId":"a"}{"categoryId":"b"}`, wantBad: true, wantMsg: "único objeto"},
		{name: "too large", body: `{"categoryId":"` + strings.Repeat("x", maxBodyBytes) + `"}`, wantBad: true, wantMsg: "demasiado grande"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/budgets", strings.NewReader(tt.body))
			var in budgetGoalInput
			err := decodeJSON(httptest.NewRecorder(), req, &in)

			var br *badRequestError
			if tt.wantBad {
				if !errors.As(err, &br) {
					t.Fatalf("expected bad request, got %v", err)
				}
				if !strings.Contains(err.Error(), tt.wantMsg) {
					t.Fatalf("message %q does not mention %q", err.Error(), tt.wantMsg)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if in.goal().Amount != (core.Money{Cents: 150050}) {
				t.Fatalf("amount = %s", in.Amount)
			}
		})
	}
}

func TestDecodeJSONValidationPassesThrough(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/budgets", strings.NewReader(`{"amount":"doce"}`))
	var in budgetGoalInput
	err := decodeJSON(httptest.NewRecorder(), req, &in)
	if !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected invalid amount, got %v", err)
	}
	if statusFor(err) != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", statusFor(err))
	}
}

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		query   string
		want    report.Period
		wantErr bool
	}{
		{query: "", want: report.Period{}},
		{query: "year=2024&month=7", want: report.Period{Year: 2024, Month: 7}},
		{query: "year=%202024%20&month=07", want: report.Period{Year: 2024, Month: 7}},
		{query: "year=2024&month=0", wantErr: true},
		{query: "year=abc&month=1", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/dashboard?"+tt.query, nil)
			got, err := parsePeriod(req)
			if tt.wantErr {
				if statusFor(err) != http.StatusBadRequest {
					t.Fatalf("expected bad request, got %v", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Fatalf("parsePeriod = %+v, %v; want %+v", got, err, tt.want)
			}
		})
	}
}

func TestInputNormalization(t *testing.T) {
	tx := transactionInput{
		Description: " Pago\x00 de luz\n",
		Type:        " INCOME ",
		CategoryID:  " salary ",
	}.transaction()
	if tx.Description != "Pago de luz" || tx.Type != core.Income || tx.CategoryID != "salary" {
		t.Fatalf("unexpected transaction %+v", tx)
	}

	c := categoryInput{Name: "\tViajes ", Type: "Expense", Color: " #00AA00 ", IconName: " Plane"}.category()
	if c.Name != "Viajes" || c.Type != core.Expense || c.Color != "#00AA00" || c.IconName != "Plane" {
		t.Fatalf("unexpected category %+v", c)
	}
}
