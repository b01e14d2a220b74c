package core

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// maxDescriptionLen is counted in characters, not bytes.
const maxDescriptionLen = 200

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

const (
	Offline DataMode = "offline"
	Online  DataMode = "online"
)

// Entities a change can refer to.
const (
	EntityCategory    Entity = "category"
	EntityTransaction Entity = "transaction"
	EntityBudgetGoal  Entity = "budget_goal"
)

// Placeholders used when a record points at a category that no longer exists.
const (
	UnknownCategoryName  = "Desconocida"
	UnknownCategoryColor = "#808080"
	DefaultIcon          = "Palette"
)

type (
	TransactionType string

	// DataMode selects where the working lists come from.
	DataMode string

	Entity string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	Category struct {
		ID       string          `json:"id"`
		Name     string          `json:"name"`
		Type     TransactionType `json:"type"`
		Color    string          `json:"color"`
		IconName string          `json:"iconName"`
	}

	Transaction struct {
		ID          string          `json:"id"`
		Date        Date            `json:"date"`
		Description string          `json:"description"`
		Amount      Money           `json:"amount"`
		Type        TransactionType `json:"type"`
		CategoryID  string          `json:"categoryId"`
	}

	BudgetGoal struct {
		ID         string `json:"id"`
		CategoryID string `json:"categoryId"`
		Amount     Money  `json:"amount"`
	}
)

var (
	ErrInvalidDay         = errors.New("invalid day")
	ErrInvalidMonth       = errors.New("invalid month")
	ErrZeroDate           = errors.New("date cannot be zero")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrEmptyDescription   = errors.New("empty description")
	ErrDescriptionTooLong = errors.New("description too long (max 200 characters)")
	ErrEmptyName          = errors.New("empty name")
	ErrInvalidType        = errors.New("invalid transaction type")
	ErrInvalidColor       = errors.New("invalid color, expected #RRGGBB")
	ErrEmptyIcon          = errors.New("empty icon name")
	ErrEmptyCategory      = errors.New("empty category id")
	ErrInvalidMode        = errors.New("invalid data mode")
)

var hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

var knownIcons = map[string]struct{}{
	"Utensils":    {},
	"Car":         {},
	"Film":        {},
	"ShoppingBag": {},
	"Home":        {},
	"Zap":         {},
	"Landmark":    {},
	"HandCoins":   {},
	"Palette":     {},
}

// IconOrDefault maps unknown icon names to the fallback icon.
func IconOrDefault(name string) string {
	if _, ok := knownIcons[name]; ok {
		return name
	}
	return DefaultIcon
}

func (t TransactionType) Validate() error {
	switch t {
	case Income, Expense:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidType, string(t))
	}
}

// ParseDataMode returns the mode for s, or ErrInvalidMode.
func ParseDataMode(s string) (DataMode, error) {
	switch DataMode(strings.ToLower(strings.TrimSpace(s))) {
	case Offline:
		return Offline, nil
	case Online:
		return Online, nil
	default:
		return Offline, fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}

// ModeOrDefault resets anything unrecognized to offline.
func ModeOrDefault(s string) DataMode {
	m, err := ParseDataMode(s)
	if err != nil {
		return Offline
	}
	return m
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrZeroDate
	}
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate accepts YYYY-MM-DD or an RFC 3339 timestamp and keeps only the calendar day.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return Date{Time: t}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return NewDate(t.Year(), int(t.Month()), t.Day()), nil
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format("2006-01-02")
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if err := c.Type.Validate(); err != nil {
		return err
	}
	if !hexColor.MatchString(c.Color) {
		return ErrInvalidColor
	}
	if strings.TrimSpace(c.IconName) == "" {
		return ErrEmptyIcon
	}
	return nil
}

func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if utf8.RuneCountInString(t.Description) > maxDescriptionLen {
		return ErrDescriptionTooLong
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if err := t.Type.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.CategoryID) == "" {
		return ErrEmptyCategory
	}
	return nil
}

func (g BudgetGoal) Validate() error {
	if strings.TrimSpace(g.CategoryID) == "" {
		return ErrEmptyCategory
	}
	return g.Amount.Validate()
}

// IsValidationError reports whether err comes from one of the Validate methods.
func IsValidationError(err error) bool {
	for _, target := range []error{
		ErrInvalidDay, ErrInvalidMonth, ErrZeroDate, ErrInvalidAmount,
		ErrEmptyDescription, ErrDescriptionTooLong, ErrEmptyName, ErrInvalidType,
		ErrInvalidColor, ErrEmptyIcon, ErrEmptyCategory, ErrInvalidMode,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
