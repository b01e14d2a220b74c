package insights

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"dicipfinance/internal/config"
	"dicipfinance/internal/core"
	"dicipfinance/internal/report"
)

type fakeGenerator struct {
	mu      sync.Mutex
	answer  string
	err     error
	delay   time.Duration
	prompts []string
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.answer, f.err
}

func TestSummarizeSpending(t *testing.T) {
	ctx := context.Background()
	spending := core.ExpenseTotalsByName(core.SeedCategories(), core.SeedTransactions())

	cases := []struct {
		name   string
		gen    *fakeGenerator
		input  map[string]core.Money
		want   string
		failed bool
	}{
		{"success", &fakeGenerator{answer: `{"summary":"Gastas mucho en vivienda."}`}, spending, "Gastas mucho en vivienda.", false},
		{"fenced json", &fakeGenerator{answer: "```json\n{\"summary\":\"ok\"}\n```"}, spending, "ok", false},
		{"no data", &fakeGenerator{answer: `{"summary":"x"}`}, map[string]core.Money{"Food": {}}, NoSpendingData, false},
		{"provider error", &fakeGenerator{err: errors.New("boom")}, spending, SummaryFallback, true},
		{"invalid json", &fakeGenerator{answer: "not json"}, spending, SummaryFallback, true},
		{"unknown field", &fakeGenerator{answer: `{"summary":"x","extra":1}`}, spending, SummaryFallback, true},
		{"empty field", &fakeGenerator{answer: `{"summary":"  "}`}, spending, SummaryFallback, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := NewService(tc.gen, time.Second).SummarizeSpending(ctx, tc.input)
			if got.Text != tc.want || got.Failed != tc.failed {
				t.Fatalf("got %+v", got)
			}
		})
	}
}

func TestSummarizeSpendingPrompt(t *testing.T) {
	gen := &fakeGenerator{answer: `{"summary":"ok"}`}
	NewService(gen, time.Second).SummarizeSpending(context.Background(), map[string]core.Money{
		"Transporte":   core.FromMajor(55800),
		"Alimentación": core.FromMajor(167865),
	})
	if len(gen.prompts) != 1 {
		t.Fatalf("expected one call, got %d", len(gen.prompts))
	}
	p := gen.prompts[0]
	if !strings.Contains(p, "- Alimentación: 167865") || !strings.Contains(p, "- Transporte: 55800") {
		t.Fatalf("prompt missing spending lines:\n%s", p)
	}
}

func TestBudgetTips(t *testing.T) {
	ctx := context.Background()
	cats, txs, goals := core.SeedCategories(), core.SeedTransactions(), core.SeedBudgetGoals()

	gen := &fakeGenerator{answer: `{"tips":"Reduce salidas."}`}
	got := NewService(gen, time.Second).BudgetTips(ctx, cats, txs, goals)
	if got.Text != "Reduce salidas." || got.Failed {
		t.Fatalf("got %+v", got)
	}
	if !strings.Contains(gen.prompts[0], `{"category":"Alimentación","amount":70215,"type":"expense","date":"2024-07-01"}`) {
		t.Fatalf("prompt missing transaction json:\n%s", gen.prompts[0])
	}
	if !strings.Contains(gen.prompts[0], `{"category":"Transporte","goal":139500}`) {
		t.Fatalf("prompt missing goal json:\n%s", gen.prompts[0])
	}

	if got := NewService(gen, time.Second).BudgetTips(ctx, cats, txs, nil); got.Text != NoTipsData || got.Failed {
		t.Fatalf("expected no-data message, got %+v", got)
	}
	if got := NewService(gen, time.Second).BudgetTips(ctx, cats, nil, goals); got.Text != NoTipsData {
		t.Fatalf("expected no-data message, got %+v", got)
	}

	failing := NewService(&fakeGenerator{err: errors.New("quota")}, time.Second)
	if got := failing.BudgetTips(ctx, cats, txs, goals); got.Text != TipsFallback || !got.Failed {
		t.Fatalf("expected fallback, got %+v", got)
	}
}

func TestReportInsight(t *testing.T) {
	ctx := context.Background()
	r := report.Build(report.Period{Year: 2024, Month: 7}, core.SeedCategories(), core.SeedTransactions(), core.SeedBudgetGoals(), "")

	gen := &fakeGenerator{answer: `{"reportSummary":"Salud financiera sólida."}`}
	got := NewService(gen, time.Second).ReportInsight(ctx, r)
	if got.Text != "Salud financiera sólida." {
		t.Fatalf("got %+v", got)
	}
	p := gen.prompts[0]
	for _, want := range []string{"Moneda: CLP", "Ingresos Totales: 3255000", "período 2024-07", "- Vivienda: 1116000"} {
		if !strings.Contains(p, want) {
			t.Fatalf("prompt missing %q:\n%s", want, p)
		}
	}

	empty := report.Build(report.Period{Year: 2024, Month: 8}, nil, nil, nil, "USD")
	gen = &fakeGenerator{answer: `{"reportSummary":"Sin movimientos."}`}
	NewService(gen, time.Second).ReportInsight(ctx, empty)
	if !strings.Contains(gen.prompts[0], "No se registraron gastos detallados") || !strings.Contains(gen.prompts[0], "No se establecieron objetivos") {
		t.Fatalf("expected empty-section lines:\n%s", gen.prompts[0])
	}

	if got := NewService(Disabled{}, time.Second).ReportInsight(ctx, r); got.Text != ReportFallback || !got.Failed {
		t.Fatalf("expected fallback, got %+v", got)
	}
}

func TestTimeoutReturnsFallback(t *testing.T) {
	gen := &fakeGenerator{answer: `{"summary":"late"}`, delay: time.Second}
	got := NewService(gen, 20*time.Millisecond).SummarizeSpending(context.Background(), map[string]core.Money{"A": core.FromMajor(1)})
	if got.Text != SummaryFallback || !got.Failed {
		t.Fatalf("expected fallback after timeout, got %+v", got)
	}
}

func TestAllRunsBothFlows(t *testing.T) {
	gen := &fakeGenerator{answer: `{"summary":"s"}`}
	d := NewService(gen, time.Second).All(context.Background(), core.SeedCategories(), core.SeedTransactions(), core.SeedBudgetGoals())
	if d.Summary.Text != "s" || d.Summary.Failed {
		t.Fatalf("unexpected summary %+v", d.Summary)
	}
	// the tips flow rejects an answer without its field
	if d.Tips.Text != TipsFallback || !d.Tips.Failed {
		t.Fatalf("unexpected tips %+v", d.Tips)
	}
	if len(gen.prompts) != 2 {
		t.Fatalf("expected two model calls, got %d", len(gen.prompts))
	}
}

func TestGeminiClient(t *testing.T) {
	var got geminiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1beta/models/gemini-test:generateContent" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("x-goog-api-key") != "key" {
			t.Errorf("missing api key header")
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"{\"summary\":\"hola\"}"}],"role":"model"},"finishReason":"STOP"}]}`))
	}))
	defer srv.Close()

	c := NewGeminiClient("key", "gemini-test", srv.Client())
	c.baseURL = srv.URL

	text, err := c.Generate(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if text != `{"summary":"hola"}` {
		t.Fatalf("unexpected text %q", text)
	}
	if got.GenerationConfig == nil || got.GenerationConfig.ResponseMIMEType != "application/json" {
		t.Fatalf("expected JSON response mime type")
	}
	if len(got.Contents) != 1 || got.Contents[0].Parts[0].Text != "prompt" {
		t.Fatalf("unexpected request %+v", got)
	}
}

func TestGeminiClientErrors(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
	}{
		{"http error", http.StatusTooManyRequests, `{"error":"quota"}`},
		{"no candidates", http.StatusOK, `{"candidates":[]}`},
		{"bad body", http.StatusOK, `nope`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			c := NewGeminiClient("key", "m", srv.Client())
			c.baseURL = srv.URL
			if _, err := c.Generate(context.Background(), "p"); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestOllamaClient(t *testing.T) {
	var got ollamaRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"model":"llama3.1","response":"{\"tips\":\"ahorra\"}","done":true}`))
	}))
	defer srv.Close()

	c := NewOllamaClient(srv.URL+"/", "llama3.1", srv.Client())
	text, err := c.Generate(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if text != `{"tips":"ahorra"}` {
		t.Fatalf("unexpected text %q", text)
	}
	if got.Format != "json" || got.Stream || got.Model != "llama3.1" {
		t.Fatalf("unexpected request %+v", got)
	}
}

func TestOllamaClientEmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"model":"m","response":"","done":true}`))
	}))
	defer srv.Close()

	if _, err := NewOllamaClient(srv.URL, "m", nil).Generate(context.Background(), "p"); err == nil {
		t.Fatalf("expected error for empty response")
	}
}

func TestOpenAIClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req map[string]any
		_ = json.NewDecoder(r.Body).Decode(&req)
		if rf, ok := req["response_format"].(map[string]any); !ok || rf["type"] != "json_object" {
			t.Errorf("expected json_object response format, got %v", req["response_format"])
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","model":"gpt-4o-mini","choices":[{"index":0,"message":{"role":"assistant","content":"{\"summary\":\"ok\"}"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient("key", "gpt-4o-mini", srv.URL+"/v1")
	text, err := c.Generate(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if text != `{"summary":"ok"}` {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestNewGenerator(t *testing.T) {
	cases := []struct {
		provider string
		check    func(Generator) bool
		wantErr  bool
	}{
		{"gemini", func(g Generator) bool { _, ok := g.(*GeminiClient); return ok }, false},
		{"ollama", func(g Generator) bool { _, ok := g.(*OllamaClient); return ok }, false},
		{"openai", func(g Generator) bool { _, ok := g.(*OpenAIClient); return ok }, false},
		{"none", func(g Generator) bool { _, ok := g.(Disabled); return ok }, false},
		{"claude", nil, true},
	}
	for _, tc := range cases {
		t.Run(tc.provider, func(t *testing.T) {
			g, err := NewGenerator(&config.Config{AIProvider: tc.provider, AITimeout: time.Second})
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil || !tc.check(g) {
				t.Fatalf("unexpected generator %T, err %v", g, err)
			}
		})
	}

	if _, err := (Disabled{}).Generate(context.Background(), "p"); !errors.Is(err, ErrDisabled) {
		t.Fatalf("expected ErrDisabled, got %v", err)
	}
}
