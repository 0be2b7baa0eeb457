package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func newTestServer(t *testing.T) (*httptest.Server, *[]string) {
	t.Helper()
	var auth []string

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/habits", func(w http.ResponseWriter, r *http.Request) {
		auth = append(auth, r.Header.Get("Authorization"))
		if r.URL.Query().Get("limit") != "" && r.URL.Query().Get("limit") != "5" {
			http.Error(w, "bad limit", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[{"id":"h1","time":"07:30","action":"зарядка","place":"дома","frequency":2,"duration":60,"reminder_state":"DUE"}],"total":1}`))
	})
	mux.HandleFunc("POST /api/v1/habits", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req["action"] == "" {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":{"code":"VALIDATION_ERROR","message":"validation failed","fields":{"action":"Обязательное поле.","duration":"too long"}}}`))
			return
		}
		if _, ok := req["reward"]; ok {
			http.Error(w, "reward must not be sent", http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"data":{"id":"h2","time":"` + req["time"].(string) + `","action":"бег","place":"парк","frequency":1,"duration":90}}`))
	})
	mux.HandleFunc("GET /api/v1/habits/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"id":"` + r.PathValue("id") + `","time":"07:30","action":"зарядка","place":"дома","frequency":1,"duration":60,"reward":"кофе","last_reminder":"2024-01-01T07:30:00+03:00","reminder_state":"REMINDED"}}`))
	})
	mux.HandleFunc("DELETE /api/v1/habits/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "h1" {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":{"code":"NOT_FOUND","message":"habit not found"}}`))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("POST /api/v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"token":"tok123","token_type":"Bearer","expires_in":86400}}`))
	})
	mux.HandleFunc("POST /api/v1/telegram/link", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"data":{"code":"ABCDE12345","expires_at":"2026-01-01T12:15:00Z","command":"/start ABCDE12345"}}`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &auth
}

func execute(t *testing.T, srv *httptest.Server, jsonMode bool, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	clientFn := func() *Client { return NewClient(srv.URL, "tok123") }
	outputFn := func() *Output { return NewOutputTo(&stdout, &stderr, jsonMode) }

	root := &cobra.Command{Use: "habit-cli", SilenceUsage: true, SilenceErrors: true}
	root.AddCommand(
		NewHabitCmd(clientFn, outputFn),
		NewUserCmd(clientFn, outputFn),
		NewTelegramCmd(clientFn, outputFn),
	)
	root.SetArgs(args)

	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestHabitList_Table(t *testing.T) {
	srv, auth := newTestServer(t)

	out, _, err := execute(t, srv, false, "habit", "list", "--limit", "5")
	if err != nil {
		t.Fatalf("habit list error = %v", err)
	}

	for _, want := range []string{"ID", "h1", "07:30", "зарядка", "2d", "60s", "DUE"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if len(*auth) != 1 || (*auth)[0] != "Bearer tok123" {
		t.Errorf("Authorization = %v, want Bearer tok123", *auth)
	}
}

func TestHabitList_JSON(t *testing.T) {
	srv, _ := newTestServer(t)

	out, _, err := execute(t, srv, true, "habit", "list")
	if err != nil {
		t.Fatalf("habit list error = %v", err)
	}

	var habits []HabitResponse
	if err := json.Unmarshal([]byte(out), &habits); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if len(habits) != 1 || habits[0].ID != "h1" {
		t.Errorf("habits = %+v, want [h1]", habits)
	}
}

func TestHabitCreate(t *testing.T) {
	srv, _ := newTestServer(t)

	_, errOut, err := execute(t, srv, false, "habit", "create", "--action", "бег", "--place", "парк", "--time", "06:45", "--duration", "90")
	if err != nil {
		t.Fatalf("habit create error = %v", err)
	}
	if !strings.Contains(errOut, "Habit created: h2") {
		t.Errorf("stderr = %q, want creation message", errOut)
	}

	_, _, err = execute(t, srv, false, "habit", "create", "--action", "", "--place", "парк", "--time", "06:45")
	if err == nil {
		t.Fatal("habit create with empty action error = nil")
	}
	if !strings.Contains(err.Error(), "VALIDATION_ERROR") || !strings.Contains(err.Error(), "action: Обязательное поле.") {
		t.Errorf("error = %v, want validation fields", err)
	}

	_, _, err = execute(t, srv, false, "habit", "create", "--place", "парк")
	if err == nil {
		t.Error("habit create without required flags error = nil")
	}
}

func TestHabitDelete(t *testing.T) {
	srv, _ := newTestServer(t)

	if _, _, err := execute(t, srv, false, "habit", "delete", "h1"); err != nil {
		t.Fatalf("delete error = %v", err)
	}

	_, _, err := execute(t, srv, false, "habit", "delete", "nope")
	if err == nil || !strings.Contains(err.Error(), "NOT_FOUND") {
		t.Errorf("delete unknown error = %v, want NOT_FOUND", err)
	}
}

func TestUserLogin(t *testing.T) {
	srv, _ := newTestServer(t)

	out, _, err := execute(t, srv, false, "user", "login", "--email", "a@example.com", "--password", "pass")
	if err != nil {
		t.Fatalf("login error = %v", err)
	}
	if !strings.Contains(out, "tok123") || !strings.Contains(out, "86400s") {
		t.Errorf("output = %q, want token and ttl", out)
	}
}

func TestTelegramLink(t *testing.T) {
	srv, _ := newTestServer(t)

	out, _, err := execute(t, srv, false, "telegram", "link")
	if err != nil {
		t.Fatalf("telegram link error = %v", err)
	}
	if !strings.Contains(out, "/start ABCDE12345") {
		t.Errorf("output = %q, want bot command", out)
	}
}

func TestHabitShow_Detail(t *testing.T) {
	srv, _ := newTestServer(t)

	out, _, err := execute(t, srv, false, "habit", "show", "h1")
	if err != nil {
		t.Fatalf("habit show error = %v", err)
	}
	for _, want := range []string{"Action:", "зарядка", "Reward:", "кофе", "Last reminder:", "2024-01-01T07:30:00+03:00", "REMINDED"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Related habit:") {
		t.Errorf("empty fields must be skipped:\n%s", out)
	}
}

func TestClip(t *testing.T) {
	if got := clip("короткое", 10); got != "короткое" {
		t.Errorf("clip short = %q", got)
	}
	if got := clip("очень длинное действие", 6); got != "очень…" {
		t.Errorf("clip long = %q, want очень…", got)
	}
	if got := clip("a\tb\nc", 10); got != "a b c" {
		t.Errorf("clip whitespace = %q", got)
	}
}

func TestPrint_EmptyList(t *testing.T) {
	var stdout, stderr bytes.Buffer
	NewOutputTo(&stdout, &stderr, false).Print([]string{"ID"}, nil, []HabitResponse{})

	if stdout.Len() != 0 {
		t.Errorf("stdout = %q, want empty", stdout.String())
	}
	if !strings.Contains(stderr.String(), "Nothing found.") {
		t.Errorf("stderr = %q", stderr.String())
	}

	stdout.Reset()
	NewOutputTo(&stdout, &stderr, true).Print([]string{"ID"}, nil, []HabitResponse{})
	if strings.TrimSpace(stdout.String()) != "[]" {
		t.Errorf("json stdout = %q, want []", stdout.String())
	}
}
