package store

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"
)

func TestAssignmentsMergeByPresence(t *testing.T) {
	p := PartialLead{
		Email:             String("a@b.com"),
		VideoWatchSeconds: Int(30),
		RequestedCallback: Bool(true),
	}

	assigns := assignments(p)
	if len(assigns) != 3 {
		t.Fatalf("len = %d, want 3 (nil fields must produce no assignment)", len(assigns))
	}

	byColumn := make(map[string]assignment, len(assigns))
	for _, a := range assigns {
		byColumn[a.column] = a
	}

	if a, ok := byColumn["email"]; !ok || a.value != "a@b.com" {
		t.Errorf("email assignment missing or wrong: %+v", a)
	}
	if a, ok := byColumn["video_watch_seconds"]; !ok || !a.monotonic {
		t.Errorf("video_watch_seconds must be monotonic: %+v", a)
	}
	if a, ok := byColumn["requested_callback"]; !ok || a.value != true {
		t.Errorf("requested_callback assignment missing or wrong: %+v", a)
	}
}

func TestAssignmentsEmpty(t *testing.T) {
	if got := assignments(PartialLead{}); len(got) != 0 {
		t.Errorf("empty partial produced %d assignments", len(got))
	}
}

func TestAssignmentsExplicitFalse(t *testing.T) {
	assigns := assignments(PartialLead{RequestedCallback: Bool(false)})
	if len(assigns) != 1 || assigns[0].value != false {
		t.Errorf("explicit false must produce an assignment: %+v", assigns)
	}
}

// Every column the store writes must exist in the leads DDL, and vice versa
// for the generated columns. A drift here fails every query at runtime with
// undefined_column, which the funnel would mask as an unsynced session.
func TestAssignmentColumnsMatchMigration(t *testing.T) {
	ddl, err := os.ReadFile(filepath.Join("..", "..", "..", "migrations", "00001_create_leads.sql"))
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}

	columnPattern := regexp.MustCompile(`(?m)^\s{4}(\w+)\s`)
	declared := make(map[string]bool)
	for _, m := range columnPattern.FindAllStringSubmatch(string(ddl), -1) {
		declared[m[1]] = true
	}

	full := PartialLead{
		FirstName:            String("x"),
		LastName:             String("x"),
		Email:                String("x"),
		Phone:                String("x"),
		LawFirm:              String("x"),
		Website:              String("x"),
		CurrentMonthlySpend:  String("x"),
		CurrentCpql:          String("x"),
		GuaranteedCpql:       String("x"),
		NewMonthlySpend:      String("x"),
		MonthlySavings:       String("x"),
		AnnualSavings:        String("x"),
		CpqlReduction:        String("x"),
		LeadsCount:           String("x"),
		SameBudgetLeads:      String("x"),
		MetaBudgetCommitment: String("x"),
		DedicatedIntake:      String("x"),
		UsesCRM:              String("x"),
		FirmDifferentiator:   String("x"),
		VideoWatchSeconds:    Int(1),
		VideoWatchPercent:    Int(1),
		RequestedCallback:    Bool(true),
	}

	for _, a := range assignments(full) {
		if !declared[a.column] {
			t.Errorf("column %q used by postgres store is not in migration DDL", a.column)
		}
	}

	// The select list must only name declared columns too.
	identPattern := regexp.MustCompile(`[a-z_]+`)
	for _, ident := range identPattern.FindAllString(leadColumns, -1) {
		if ident == "id" || ident == "created_at" {
			continue
		}
		if !declared[ident] {
			t.Errorf("column %q selected by postgres store is not in migration DDL", ident)
		}
	}
}
