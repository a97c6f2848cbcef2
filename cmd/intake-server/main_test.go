package main

import (
	"bytes"
	"encoding/json"
	"io"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/Inreet-Kaur/capstone/internal/config"
	"github.com/Inreet-Kaur/capstone/internal/platform/db"
	"github.com/Inreet-Kaur/capstone/internal/platform/synthetic"
	"github.com/Inreet-Kaur/capstone/internal/platform/webhook"
)

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestRootCmd_Subcommands(t *testing.T) {
	root := newRootCmd()
	want := []string{"serve", "extract", "generate", "evaluate", "classify", "migrate"}
	for _, name := range want {
		found := false
		for _, c := range root.Commands() {
			if c.Name() == name {
				found = true
			}
		}
		if !found {
			t.Errorf("expected subcommand %q", name)
		}
	}
}

func TestGenerateCmd_JSON(t *testing.T) {
	out, err := runCLI(t, "", "generate", "--count", "3", "--seed", "7", "--style", "structured")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var records []synthetic.Record
	if err := json.Unmarshal([]byte(out), &records); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	for _, r := range records {
		if r.Style != synthetic.StyleStructured {
			t.Errorf("expected structured style, got %s", r.Style)
		}
		if !strings.Contains(r.Text, r.Truth.Name) {
			t.Errorf("expected text to contain name %q", r.Truth.Name)
		}
	}

	again, _ := runCLI(t, "", "generate", "--count", "3", "--seed", "7", "--style", "structured")
	if again != out {
		t.Error("expected the same seed to produce the same output")
	}
}

func TestGenerateCmd_YAML(t *testing.T) {
	out, err := runCLI(t, "", "generate", "--count", "2", "--format", "yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var records []synthetic.Record
	if err := yaml.Unmarshal([]byte(out), &records); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if len(records) != 2 || records[0].Text == "" {
		t.Errorf("unexpected records: %+v", records)
	}
}

func TestGenerateCmd_InvalidFlags(t *testing.T) {
	if _, err := runCLI(t, "", "generate", "--style", "freeform"); err == nil {
		t.Error("expected error for unknown style")
	}
	if _, err := runCLI(t, "", "generate", "--format", "xml"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestExtractCmd_Files(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	if err := os.WriteFile(a, []byte("NAME: Ana Diaz\nAGE: 30\nGENDER: female"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(b, []byte("Patient Bo Chen (61 years old male) arrived complaining of cough."), 0644); err != nil {
		t.Fatal(err)
	}

	out, err := runCLI(t, "", "extract", "--workers", "2", a, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var results []extractOutput
	if err := json.Unmarshal([]byte(out), &results); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Input != a || results[1].Input != b {
		t.Errorf("expected results in argument order, got %s, %s", results[0].Input, results[1].Input)
	}
	if n := results[0].Record.Name; n == nil || *n != "Ana Diaz" {
		t.Errorf("expected Ana Diaz, got %v", n)
	}
	if age := results[1].Record.Age; age == nil || *age != 61 {
		t.Errorf("expected age 61, got %v", age)
	}
}

func TestExtractCmd_Stdin(t *testing.T) {
	out, err := runCLI(t, "NAME: Ana Diaz\nAGE: 30", "extract")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var results []extractOutput
	if err := json.Unmarshal([]byte(out), &results); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if len(results) != 1 || results[0].Input != "-" {
		t.Fatalf("expected one stdin result, got %+v", results)
	}
}

func TestExtractCmd_MissingFile(t *testing.T) {
	if _, err := runCLI(t, "", "extract", filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestEvaluateCmd(t *testing.T) {
	out, err := runCLI(t, "", "evaluate", "--count", "40", "--style", "structured", "--fail-under", "0.95")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, field := range []string{"Name", "Age", "Current Medications", "samples"} {
		if !strings.Contains(out, field) {
			t.Errorf("expected report to mention %q:\n%s", field, out)
		}
	}
}

func TestClassifyCmd(t *testing.T) {
	out, err := runCLI(t, "", "classify", "--text", "Patient reports a dry cough", "--trees", "10", "--samples", "5")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out) == "" {
		t.Error("expected a label")
	}
}

func TestClassifyCmd_Errors(t *testing.T) {
	if _, err := runCLI(t, "", "classify"); err == nil {
		t.Error("expected error without --text")
	}
	if _, err := runCLI(t, "", "classify", "--text", "x", "--corpus", filepath.Join(t.TempDir(), "none.yaml")); err == nil {
		t.Error("expected error for missing corpus file")
	}
}

func TestMigrationFS_Embedded(t *testing.T) {
	data, err := fs.ReadFile(migrationFS(""), "001_intake_record.sql")
	if err != nil {
		t.Fatalf("embedded migration missing: %v", err)
	}
	if !bytes.Contains(data, []byte("intake_record")) {
		t.Error("expected migration to create intake_record")
	}
	migrations, err := db.NewMigrator(nil, migrationFS("")).LoadMigrations()
	if err != nil {
		t.Fatalf("LoadMigrations error: %v", err)
	}
	if len(migrations) == 0 || migrations[0].Version != 1 {
		t.Errorf("expected migration version 1 first, got %+v", migrations)
	}
}

func TestWriteMigrationStatus(t *testing.T) {
	at := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	var buf bytes.Buffer
	err := writeMigrationStatus(&buf, []db.MigrationStatus{
		{Version: 1, Name: "001_intake_record.sql", Applied: true, AppliedAt: &at},
		{Version: 2, Name: "002_next.sql"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "applied") || !strings.Contains(out, "2024-03-01 09:30:00") {
		t.Errorf("expected applied row, got:\n%s", out)
	}
	if !strings.Contains(out, "pending") {
		t.Errorf("expected pending row, got:\n%s", out)
	}
}

// -- HTTP shell --

func testConfig() *config.Config {
	return &config.Config{
		Port:                  "0",
		Env:                   "development",
		LogLevel:              "info",
		CORSOrigins:           []string{"http://localhost:3000"},
		TranscriberURL:        "http://127.0.0.1:1/voice_to_text",
		TranscriberTimeout:    time.Second,
		BodyLimit:             "10M",
		AudioBodyLimit:        "25M",
		RequestTimeout:        5 * time.Second,
		ClassifierTrees:       10,
		ClassifierMaxFeatures: 5000,
		ClassifierSeed:        42,
	}
}

func serve(t *testing.T, cfg *config.Config, method, path, body string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	e, _ := newServer(cfg, zerolog.Nop(), serverDeps{})
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestServer_OperationalEndpoints(t *testing.T) {
	cfg := testConfig()
	for _, path := range []string{"/health", "/health/db", "/metrics"} {
		rec := serve(t, cfg, http.MethodGet, path, "", nil)
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s: expected 200, got %d", path, rec.Code)
		}
	}

	rec := serve(t, cfg, http.MethodGet, "/health", "", nil)
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if body["persistence"] != false || body["classifier_trained"] != false {
		t.Errorf("unexpected health body %v", body)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected a request id header")
	}
}

func TestServer_ExtractDevMode(t *testing.T) {
	rec := serve(t, testConfig(), http.MethodPost, "/api/v1/intake/extract", `{"text":"NAME: Ana Diaz\nAGE: 30"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"Name":"Ana Diaz"`) {
		t.Errorf("expected extracted name in body: %s", rec.Body.String())
	}
}

func TestServer_ExtractPublishesWebhook(t *testing.T) {
	var (
		bodies [][]byte
		sigs   []string
	)
	receiver := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		bodies = append(bodies, b)
		sigs = append(sigs, strings.TrimPrefix(r.Header.Get("X-Webhook-Signature"), "sha256="))
	}))
	defer receiver.Close()

	notifier := webhook.NewNotifier([]webhook.Endpoint{{URL: receiver.URL, Secret: "k"}})
	e, _ := newServer(testConfig(), zerolog.Nop(), serverDeps{events: notifier})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/intake/extract", strings.NewReader(`{"text":"NAME: Ana Diaz\nAGE: 30"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	notifier.Close()

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(bodies) != 1 {
		t.Fatalf("expected 1 delivery, got %d", len(bodies))
	}
	if !webhook.VerifySignature(bodies[0], "k", sigs[0]) {
		t.Error("expected delivery to carry a valid signature")
	}
	var ev webhook.Event
	if err := json.Unmarshal(bodies[0], &ev); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if ev.Type != webhook.EventRecordExtracted {
		t.Errorf("expected event %s, got %s", webhook.EventRecordExtracted, ev.Type)
	}
	if !strings.Contains(string(ev.Payload), `"Name":"Ana Diaz"`) {
		t.Errorf("expected payload to carry the record, got %s", ev.Payload)
	}
}

func TestServer_ClassifyBeforeTraining(t *testing.T) {
	rec := serve(t, testConfig(), http.MethodPost, "/api/v1/sections/classify", `{"text":"cough"}`, nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", rec.Code)
	}
}

func TestServer_StorageDisabled(t *testing.T) {
	rec := serve(t, testConfig(), http.MethodGet, "/api/v1/intake-records", "", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
}

func TestServer_RequiresTokenOutsideDev(t *testing.T) {
	cfg := testConfig()
	cfg.Env = "production"
	cfg.JWTSigningKey = "test-signing-key"
	rec := serve(t, cfg, http.MethodPost, "/api/v1/intake/extract", `{"text":"fever."}`, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}

	rec = serve(t, cfg, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("expected unauthenticated /health, got %d", rec.Code)
	}
}

func TestServer_BodyLimit(t *testing.T) {
	cfg := testConfig()
	cfg.BodyLimit = "1K"
	body := `{"text":"` + strings.Repeat("a", 2048) + `"}`
	rec := serve(t, cfg, http.MethodPost, "/api/v1/intake/extract", body, nil)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413, got %d", rec.Code)
	}
}

func TestServer_TranscriberDown(t *testing.T) {
	rec := serve(t, testConfig(), http.MethodPost, "/api/v1/intake/transcribe", "RIFF0000WAVE", http.Header{"Content-Type": {"audio/wav"}})
	if rec.Code != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", rec.Code)
	}
}

func TestNewLogger_Level(t *testing.T) {
	cfg := testConfig()
	cfg.LogLevel = "DEBUG"
	if l := newLogger(cfg); l.GetLevel() != zerolog.DebugLevel {
		t.Errorf("expected debug level, got %s", l.GetLevel())
	}
	cfg.LogLevel = "nonsense"
	if l := newLogger(cfg); l.GetLevel() != zerolog.InfoLevel {
		t.Errorf("expected info fallback, got %s", l.GetLevel())
	}
}
