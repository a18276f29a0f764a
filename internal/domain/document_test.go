package domain

import "testing"

func TestConvention_Matches(t *testing.T) {
	conv := DefaultConvention()

	tests := []struct {
		id   string
		want bool
	}{
		{"PMC1234567", true},
		{"PMC1234567_treatment_0", true},
		{"schema_version", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := conv.Matches(tt.id); got != tt.want {
			t.Errorf("Matches(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestConvention_Parent(t *testing.T) {
	conv := DefaultConvention()

	tests := []struct {
		id   string
		want string
	}{
		{"PMC123", "PMC123"},
		{"PMC123_treatment_0", "PMC123"},
		{"PMC123_result_7", "PMC123"},
	}
	for _, tt := range tests {
		if got := conv.Parent(tt.id); got != tt.want {
			t.Errorf("Parent(%q) = %q, want %q", tt.id, got, tt.want)
		}
	}
}

func TestConvention_Parent_NoDelimiter(t *testing.T) {
	conv := Convention{IDPrefix: "PMC"}
	if got := conv.Parent("PMC123_treatment_0"); got != "PMC123_treatment_0" {
		t.Errorf("Parent without delimiter = %q, want identity", got)
	}
}

func TestDocument_IsSubEntity(t *testing.T) {
	top := Document{ID: "PMC1", ParentID: "PMC1"}
	if top.IsSubEntity() {
		t.Error("top-level document reported as sub-entity")
	}
	sub := Document{ID: "PMC1_treatment_0", ParentID: "PMC1"}
	if !sub.IsSubEntity() {
		t.Error("sub-entity not recognized")
	}
}
