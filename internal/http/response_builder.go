// Package http serves the DicipFinance JSON API.
//
// This file implements the builder used by every handler to write JSON
// bodies together with the HX-Trigger header that carries notifications.
package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf16"

	"dicipfinance/internal/services"
)

// TriggerShowNotification is the client event that displays a notification.
const TriggerShowNotification = "show-notification"

// ResponseBuilder provides a fluent API for building API responses.
type ResponseBuilder struct {
	triggers    map[string]any
	statusCode  int
	headers     map[string]string
	body        any
	raw         []byte
	contentType string
}

// NewResponse creates a builder with a 200 status.
func NewResponse() *ResponseBuilder {
	return &ResponseBuilder{
		triggers:   make(map[string]any),
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.statusCode = code
	return b
}

// Trigger adds a named event with its data to the HX-Trigger header.
func (b *ResponseBuilder) Trigger(name string, data any) *ResponseBuilder {
	b.triggers[name] = data
	return b
}

// Notify mirrors n into the show-notification trigger. Empty notifications
// are skipped.
func (b *ResponseBuilder) Notify(n services.Notification) *ResponseBuilder {
	if n.Title == "" && n.Description == "" {
		return b
	}
	return b.Trigger(TriggerShowNotification, n)
}

func (b *ResponseBuilder) Header(name, value string) *ResponseBuilder {
	b.headers[name] = value
	return b
}

// JSON sets a value to be encoded as the response body.
func (b *ResponseBuilder) JSON(v any) *ResponseBuilder {
	b.body = v
	b.raw = nil
	return b
}

// Bytes sets a pre-encoded body, such as a PNG or XLSX file.
func (b *ResponseBuilder) Bytes(contentType string, content []byte) *ResponseBuilder {
	b.raw = content
	b.body = nil
	b.contentType = contentType
	return b
}

// Write sends the built response.
func (b *ResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if len(b.triggers) > 0 {
		if trigger, err := json.Marshal(b.triggers); err == nil {
			w.Header().Set("HX-Trigger", asciiJSON(trigger))
		} else {
			slog.Error("Failed to encode HX-Trigger", "error", err)
		}
	}

	switch {
	case b.raw != nil:
		w.Header().Set("Content-Type", b.contentType)
		w.Header().Set("Content-Length", strconv.Itoa(len(b.raw)))
		w.WriteHeader(b.statusCode)
		_, _ = w.Write(b.raw)
	case b.body != nil:
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(b.statusCode)
		if err := json.NewEncoder(w).Encode(b.body); err != nil {
			slog.Error("Failed to encode response", "error", err)
		}
	default:
		w.WriteHeader(b.statusCode)
	}
}

// asciiJSON escapes non-ASCII runes so the JSON fits in a header value.
func asciiJSON(b []byte) string {
	var sb strings.Builder
	for _, r := range string(b) {
		if r < 0x80 {
			sb.WriteRune(r)
			continue
		}
		for _, u := range utf16.Encode([]rune{r}) {
			sb.WriteString(`\u`)
			hex := strconv.FormatInt(int64(u), 16)
			sb.WriteString(strings.Repeat("0", 4-len(hex)))
			sb.WriteString(hex)
		}
	}
	return sb.String()
}

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error string `json:"error"`
}

// ErrorResponse creates a JSON error response.
func ErrorResponse(statusCode int, message string) *ResponseBuilder {
	return NewResponse().Status(statusCode).JSON(errorBody{Error: message})
}

func BadRequestError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

func UnprocessableEntityError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusUnprocessableEntity, message)
}

func NotFoundError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

func InternalServerError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}
