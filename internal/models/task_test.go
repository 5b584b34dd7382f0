package models

import "testing"

func TestLabel(t *testing.T) {
	t.Parallel()
	tests := map[string]string{
		"in_progress": "In Progress",
		"pending":     "Pending",
		"pickup":      "Pickup",
		"":            "",
	}
	for in, want := range tests {
		if got := Label(in); got != want {
			t.Fatalf("Label(%q) = %q, want %q", in, got, want)
		}
	}
	if got := TaskStatusCancelled.Label(); got != "Cancelled" {
		t.Fatalf("Cancelled label = %q", got)
	}
}

func TestParseDate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"", "", false},
		{"2026-03-14", "2026-03-14", false},
		{"2026-02-30", "", true},
		{"14/03/2026", "", true},
	}
	for _, tt := range tests {
		got, err := ParseDate(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Fatalf("ParseDate(%q) = %q, %v; want %q, err=%v", tt.in, got, err, tt.want, tt.wantErr)
		}
	}
}

func TestStatusAndTypeValid(t *testing.T) {
	t.Parallel()
	for _, s := range TaskStatuses {
		if !s.Valid() {
			t.Fatalf("%q not valid", s)
		}
	}
	if TaskStatus("lost").Valid() || TaskType("teleport").Valid() {
		t.Fatal("unknown enum accepted")
	}
	if !RoleCourier.Valid() || Role("owner").Valid() {
		t.Fatal("role validation wrong")
	}
}
