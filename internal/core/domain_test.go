package core

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false},
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestDateJSON(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{`"2024-07-01"`, "2024-07-01"},
		{`"2024-07-15T03:00:00.000Z"`, "2024-07-15"},
		{`"2024-07-15T23:30:00-04:00"`, "2024-07-15"},
	}
	for _, tc := range cases {
		var d Date
		if err := json.Unmarshal([]byte(tc.in), &d); err != nil {
			t.Fatalf("%s: %v", tc.in, err)
		}
		if d.String() != tc.want {
			t.Fatalf("%s: expected %s, got %s", tc.in, tc.want, d.String())
		}
		b, _ := json.Marshal(d)
		if string(b) != `"`+tc.want+`"` {
			t.Fatalf("%s: marshal got %s", tc.in, b)
		}
	}

	var d Date
	if err := json.Unmarshal([]byte(`"yesterday"`), &d); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 1}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Money{Cents: 0}).Validate(); err == nil {
		t.Fatalf("expected error for zero")
	}
	if err := (Money{Cents: -5}).Validate(); err == nil {
		t.Fatalf("expected error for negative")
	}
}

func TestCategoryValidate(t *testing.T) {
	good := Category{ID: "x", Name: "Mascotas", Type: Expense, Color: "#a1B2c3", IconName: "Palette"}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		name string
		mut  func(c *Category)
		want error
	}{
		{"empty name", func(c *Category) { c.Name = " " }, ErrEmptyName},
		{"bad type", func(c *Category) { c.Type = "transfer" }, ErrInvalidType},
		{"short color", func(c *Category) { c.Color = "#fff" }, ErrInvalidColor},
		{"color without hash", func(c *Category) { c.Color = "FF6384" }, ErrInvalidColor},
		{"non hex color", func(c *Category) { c.Color = "#GG6384" }, ErrInvalidColor},
		{"empty icon", func(c *Category) { c.IconName = "" }, ErrEmptyIcon},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := good
			tc.mut(&c)
			err := c.Validate()
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if !IsValidationError(err) {
				t.Fatalf("expected validation error classification")
			}
		})
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		Date:        NewDate(2024, 7, 1),
		Description: "Supermercado",
		Amount:      FromMajor(70215),
		Type:        Expense,
		CategoryID:  "food",
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Transaction{
		{Date: Date{}, Description: "a", Amount: Money{Cents: 1}, Type: Expense, CategoryID: "c"},
		{Date: NewDate(2024, 7, 1), Description: "", Amount: Money{Cents: 1}, Type: Expense, CategoryID: "c"},
		{Date: NewDate(2024, 7, 1), Description: strings.Repeat("a", 201), Amount: Money{Cents: 1}, Type: Expense, CategoryID: "c"},
		{Date: NewDate(2024, 7, 1), Description: "a", Amount: Money{Cents: 0}, Type: Expense, CategoryID: "c"},
		{Date: NewDate(2024, 7, 1), Description: "a", Amount: Money{Cents: 1}, Type: "", CategoryID: "c"},
		{Date: NewDate(2024, 7, 1), Description: "a", Amount: Money{Cents: 1}, Type: Income, CategoryID: ""},
	}
	for i, tx := range bads {
		if err := tx.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestTransactionDescriptionLengthCountsCharacters(t *testing.T) {
	tx := Transaction{
		Date:       NewDate(2024, 7, 1),
		Amount:     FromMajor(1000),
		Type:       Expense,
		CategoryID: "food",
	}

	// 200 accented characters are 400 bytes.
	tx.Description = strings.Repeat("á", 200)
	if err := tx.Validate(); err != nil {
		t.Fatalf("200 characters must be accepted, got %v", err)
	}
	tx.Description = strings.Repeat("ñ", 201)
	if err := tx.Validate(); !errors.Is(err, ErrDescriptionTooLong) {
		t.Fatalf("expected ErrDescriptionTooLong, got %v", err)
	}
}

func TestBudgetGoalValidate(t *testing.T) {
	if err := (BudgetGoal{CategoryID: "food", Amount: FromMajor(1)}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (BudgetGoal{CategoryID: "food"}).Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if err := (BudgetGoal{Amount: FromMajor(1)}).Validate(); !errors.Is(err, ErrEmptyCategory) {
		t.Fatalf("expected ErrEmptyCategory, got %v", err)
	}
}

func TestParseDataMode(t *testing.T) {
	if m, err := ParseDataMode(" Online "); err != nil || m != Online {
		t.Fatalf("expected online, got %v %v", m, err)
	}
	if _, err := ParseDataMode("cloud"); !errors.Is(err, ErrInvalidMode) {
		t.Fatalf("expected ErrInvalidMode, got %v", err)
	}
	if m := ModeOrDefault("garbage"); m != Offline {
		t.Fatalf("expected offline fallback, got %v", m)
	}
}

func TestIconOrDefault(t *testing.T) {
	if got := IconOrDefault("Car"); got != "Car" {
		t.Fatalf("got %s", got)
	}
	if got := IconOrDefault("Rocket"); got != DefaultIcon {
		t.Fatalf("expected fallback icon, got %s", got)
	}
}

func TestIDGeneratorMonotonic(t *testing.T) {
	fixed := time.UnixMilli(1720000000000)
	g := NewIDGeneratorWithClock(func() time.Time { return fixed })
	a, b, c := g.Next(), g.Next(), g.Next()
	if a != "1720000000000" || b != "1720000000001" || c != "1720000000002" {
		t.Fatalf("unexpected ids %s %s %s", a, b, c)
	}
}

func TestSeedDataConsistent(t *testing.T) {
	cats := SeedCategories()
	ids := map[string]Category{}
	for _, c := range cats {
		if err := c.Validate(); err != nil {
			t.Fatalf("seed category %s invalid: %v", c.ID, err)
		}
		ids[c.ID] = c
	}
	for _, tx := range SeedTransactions() {
		if err := tx.Validate(); err != nil {
			t.Fatalf("seed transaction %s invalid: %v", tx.ID, err)
		}
		if c, ok := ids[tx.CategoryID]; !ok || c.Type != tx.Type {
			t.Fatalf("seed transaction %s has mismatched category", tx.ID)
		}
	}
	for _, g := range SeedBudgetGoals() {
		if c, ok := ids[g.CategoryID]; !ok || c.Type != Expense {
			t.Fatalf("seed goal %s must target an expense category", g.ID)
		}
	}
}
