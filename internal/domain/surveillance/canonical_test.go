package surveillance

import (
	"reflect"
	"testing"
)

func TestCanonicalProgramID(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"sve-auditory", "sve-auditory"},
		{"SVE Auditory", "sve-auditory"},
		{"sve_auditory", "sve-auditory"},
		{"Auditory", "sve-auditory"},
		{"SVE Auditivo", "sve-auditivo"},
		{"  sve auditivo  ", "sve-auditivo"},
		{"SVE/Respiratorio", "sve-respiratorio"},
		{"sve--visual", "sve-visual"},
		{"Visión", "sve-vision"},
		{"", ""},
		{"   ", ""},
		{"---", ""},
	}
	for _, tc := range cases {
		if got := CanonicalProgramID(tc.in); got != tc.want {
			t.Errorf("CanonicalProgramID(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestProgramTokens(t *testing.T) {
	got := programTokens("SVE Auditory")
	want := []string{"sve-auditory", "auditory"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("programTokens(SVE Auditory) = %v, want %v", got, want)
	}
	if programTokens("") != nil {
		t.Error("expected nil for empty identifier")
	}
}

func TestCodeVariants(t *testing.T) {
	got := codeVariants("h90.3")
	want := []string{"H90.3", "H903", "H90"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("codeVariants(h90.3) = %v, want %v", got, want)
	}

	got = codeVariants("I10")
	want = []string{"I10"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("codeVariants(I10) = %v, want %v", got, want)
	}
}
