package cli

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/quiz-app/backend/internal/config"
	"github.com/quiz-app/backend/internal/database"
	"github.com/quiz-app/backend/internal/questions"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestImportCommand(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "quiz.db")
	csvPath := writeFile(t, "questions.csv",
		"topic,question,answer\nMath,2+2?,4\nMath,3+3?,\nMath,3+3?,6\nScience,H2O is?,Water\n")

	out, err := run(t, "import", csvPath, "--db-driver", "sqlite", "--db-dsn", dbPath)
	if err != nil {
		t.Fatalf("import: %v\n%s", err, out)
	}
	if !strings.Contains(out, "skipped row 3: missing answer") {
		t.Errorf("expected skipped row report, got:\n%s", out)
	}
	if !strings.Contains(out, "imported 3 questions, skipped 1, 3 stored in total") {
		t.Errorf("unexpected summary:\n%s", out)
	}

	out, err = run(t, "import", csvPath, "--db-driver", "sqlite", "--db-dsn", dbPath)
	if err != nil {
		t.Fatalf("second import: %v", err)
	}
	if !strings.Contains(out, "6 stored in total") {
		t.Errorf("expected questions to accumulate, got:\n%s", out)
	}

	out, err = run(t, "import", csvPath, "--replace", "--db-driver", "sqlite", "--db-dsn", dbPath)
	if err != nil {
		t.Fatalf("replace import: %v", err)
	}
	if !strings.Contains(out, "3 stored in total") {
		t.Errorf("expected --replace to clear first, got:\n%s", out)
	}
}

func TestImportCommandRejectsBadFile(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "quiz.db")
	path := writeFile(t, "notes.csv", "topic,question,answer\n")

	if _, err := run(t, "import", path, "--db-driver", "sqlite", "--db-dsn", dbPath); err == nil {
		t.Fatal("expected error for file without questions")
	}
	if _, err := os.Stat(dbPath); !os.IsNotExist(err) {
		t.Error("database should not be touched when the file cannot be parsed")
	}
}

func TestMigrateCommand(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "quiz.db")

	out, err := run(t, "migrate", "--db-driver", "sqlite", "--db-dsn", dbPath)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if !strings.Contains(out, "migrations applied (sqlite)") {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestRouter(t *testing.T) {
	cfg := config.Default()
	cfg.DB = config.DBConfig{Driver: database.DriverSQLite, DSN: filepath.Join(t.TempDir(), "quiz.db")}

	db, err := openDatabase(&cfg)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	defer db.Close()

	h := questions.NewHandler(questions.NewService(questions.NewStore(db, cfg.DB.Driver)), cfg.Upload.MaxBytes)
	router := newRouter(&cfg, h)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != `{"status":"ok"}` {
		t.Errorf("health: got %d %q", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}

	tests := []struct {
		origin  string
		allowed bool
	}{
		{"http://localhost:3000", true},
		{"http://evil.example", false},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodOptions, "/api/questions/1/mark-known", nil)
		req.Header.Set("Origin", tt.origin)
		req.Header.Set("Access-Control-Request-Method", http.MethodPut)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		got := rec.Header().Get("Access-Control-Allow-Origin")
		if tt.allowed && got != tt.origin {
			t.Errorf("origin %s: expected allow header, got %q", tt.origin, got)
		}
		if !tt.allowed && got != "" {
			t.Errorf("origin %s: expected no allow header, got %q", tt.origin, got)
		}
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/questions/topics", nil))
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("topics: got %d %q", rec.Code, rec.Body.String())
	}
}
