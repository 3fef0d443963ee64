package database

import "testing"

func TestPgxURL(t *testing.T) {
	cases := map[string]string{
		"postgres://u:p@localhost:5432/db?sslmode=disable": "pgx5://u:p@localhost:5432/db?sslmode=disable",
		"postgresql://u@host/db":                           "pgx5://u@host/db",
		"pgx5://already":                                   "pgx5://already",
	}
	for in, want := range cases {
		if got := pgxURL(in); got != want {
			t.Fatalf("pgxURL(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNewMigratorRejectsUnknownDialect(t *testing.T) {
	if _, err := NewMigrator(Dialect("mysql"), "x"); err == nil {
		t.Fatal("expected error for unknown dialect")
	}
}
