package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/dalemusser/taskhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const fixture = `
users:
  - {name: Alice, email: alice@example.com}
  - {name: Bob, email: bob@example.com}
groups:
  - name: Platform
    creator: alice@example.com
    members: [bob@example.com]
tasks:
  - {title: Plan sprint, creator: alice@example.com, group: Platform}
`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSeedThenInspect(t *testing.T) {
	dir := t.TempDir()
	dsn := filepath.Join(dir, "taskhub.db")
	file := filepath.Join(dir, "fixtures.yaml")
	if err := os.WriteFile(file, []byte(fixture), 0o644); err != nil {
		t.Fatal(err)
	}
	conn := []string{"--backend", "sqlite", "--sqlite-dsn", dsn}

	out, err := run(t, append([]string{"seed", "--file", file}, conn...)...)
	if err != nil {
		t.Fatalf("seed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "users:   2 created") || !strings.Contains(out, "tasks:   1 created") {
		t.Errorf("seed output:\n%s", out)
	}

	again, err := run(t, append([]string{"seed", "--file", file}, conn...)...)
	if err != nil {
		t.Fatalf("second seed: %v\n%s", err, again)
	}
	for _, want := range []string{"users:   0 created, 2 reused", "groups:  0 created, 1 reused", "tasks:   0 created, 1 already present"} {
		if !strings.Contains(again, want) {
			t.Errorf("second seed output missing %q:\n%s", want, again)
		}
	}

	s, err := (&connOptions{backend: "sqlite", sqliteDSN: dsn}).open(t.Context())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if !regexp.MustCompile(`group Platform\s+[0-9a-f]{24}`).MatchString(out) {
		t.Errorf("no group id in output:\n%s", out)
	}
	tasks, err := s.conn.Backend().Repos().Tasks.ListCreatedBy(t.Context(), mustUser(t, s, "alice@example.com"))
	s.close()
	if err != nil || len(tasks) != 1 {
		t.Fatalf("tasks = %v, %v", tasks, err)
	}
	taskID := tasks[0].ID.Hex()

	out, err = run(t, append([]string{"progress", taskID}, conn...)...)
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	if strings.TrimSpace(out) != "0/2 completed (0%)" {
		t.Errorf("progress output = %q", out)
	}

	out, err = run(t, append([]string{"participants", taskID}, conn...)...)
	if err != nil {
		t.Fatalf("participants: %v", err)
	}
	if !strings.Contains(out, "Alice") || !strings.Contains(out, "Bob") {
		t.Errorf("participants output:\n%s", out)
	}
}

func TestProgress_BadID(t *testing.T) {
	_, err := run(t, "progress", "nope", "--backend", "sqlite", "--sqlite-dsn", filepath.Join(t.TempDir(), "x.db"))
	if err == nil || !strings.Contains(err.Error(), "invalid taskID") {
		t.Errorf("err = %v", err)
	}
}

func TestSeed_RequiresFile(t *testing.T) {
	if _, err := run(t, "seed", "--backend", "sqlite"); err == nil {
		t.Error("expected missing --file error")
	}
}

func TestAudit_RequiresMongo(t *testing.T) {
	_, err := run(t, "audit", "--backend", "sqlite", "--sqlite-dsn", filepath.Join(t.TempDir(), "x.db"))
	if !errors.Is(err, errNoAuditTrail) {
		t.Errorf("err = %v, want errNoAuditTrail", err)
	}
}

func TestAudit_BadID(t *testing.T) {
	_, err := run(t, "audit", "--task", "nope", "--backend", "sqlite", "--sqlite-dsn", filepath.Join(t.TempDir(), "x.db"))
	if err == nil || !strings.Contains(err.Error(), "invalid task") {
		t.Errorf("err = %v", err)
	}
}

func TestAudit_ShowsDenials(t *testing.T) {
	db := testutil.SetupTestDB(t)
	file := filepath.Join(t.TempDir(), "fixtures.yaml")
	if err := os.WriteFile(file, []byte(fixture), 0o644); err != nil {
		t.Fatal(err)
	}
	conn := []string{"--backend", "mongo", "--mongo-uri", testutil.MongoURI(), "--mongo-db", db.Name()}

	if out, err := run(t, append([]string{"seed", "--file", file}, conn...)...); err != nil {
		t.Fatalf("seed: %v\n%s", err, out)
	}

	s, err := (&connOptions{backend: "mongo", mongoURI: testutil.MongoURI(), mongoDB: db.Name()}).open(t.Context())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	alice := mustUser(t, s, "alice@example.com")
	bob := mustUser(t, s, "bob@example.com")
	tasks, err := s.engine.TasksCreatedBy(t.Context(), alice)
	if err != nil || len(tasks) != 1 {
		s.close()
		t.Fatalf("tasks = %v, %v", tasks, err)
	}
	taskID := tasks[0].ID.Hex()
	// Only group admins may finalize.
	_, ferr := s.engine.FinalizeGroupTask(t.Context(), bob, tasks[0].ID)
	s.close()
	if ferr == nil {
		t.Fatal("member finalize succeeded")
	}

	out, err := run(t, append([]string{"audit", "--task", taskID, "--failure", "forbidden"}, conn...)...)
	if err != nil {
		t.Fatalf("audit: %v\n%s", err, out)
	}
	if !strings.Contains(out, bob.Hex()) || !strings.Contains(out, "forbidden: ") {
		t.Errorf("audit output:\n%s", out)
	}
	if !strings.Contains(out, "1 of 1 events") {
		t.Errorf("want one denial, got:\n%s", out)
	}

	out, err = run(t, append([]string{"audit", "--actor", alice.Hex()}, conn...)...)
	if err != nil {
		t.Fatalf("audit --actor: %v", err)
	}
	if strings.Contains(out, "forbidden") || !strings.Contains(out, "ok") {
		t.Errorf("alice's events:\n%s", out)
	}
}

func mustUser(t *testing.T, s *session, email string) primitive.ObjectID {
	t.Helper()
	u, err := s.conn.Backend().Repos().Users.GetByEmail(t.Context(), email)
	if err != nil {
		t.Fatalf("GetByEmail(%s): %v", email, err)
	}
	return u.ID
}
