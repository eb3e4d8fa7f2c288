package chat

import "testing"

func TestClassifyCrisis(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    bool
	}{
		{"empty message", "", false},
		{"neutral message", "I feel sad today", false},
		{"ordinary stress", "I'm stressed about my marriage", false},
		{"direct keyword", "I want to kill myself", true},
		{"keyword mid-sentence", "sometimes I think about suicide at night", true},
		{"uppercase keyword", "I WANT TO DIE", true},
		{"mixed case", "No Reason To Live anymore", true},
		{"self harm", "I have thoughts of self harm", true},
		{"hurt myself", "I might hurt myself", true},
		{"end my life", "I want to end my life", true},
		{"keyword as substring of larger text", "my friend said the word suicidewatch once", true},
		{"paraphrase not matched", "I do not want to be here anymore", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyCrisis(tt.content); got != tt.want {
				t.Errorf("ClassifyCrisis(%q) = %v, want %v", tt.content, got, tt.want)
			}
		})
	}
}

func TestClassifyCrisis_Deterministic(t *testing.T) {
	msg := "I want to die"
	first := ClassifyCrisis(msg)
	for i := 0; i < 10; i++ {
		if got := ClassifyCrisis(msg); got != first {
			t.Fatal("classification should be deterministic")
		}
	}
}

func TestHelplineDirectory_FixedEntries(t *testing.T) {
	directory := HelplineDirectory()

	want := map[string]string{
		"AASRA":                 "91-9820466726",
		"Kiran Mental Health":   "1800-599-0019",
		"Vandrevala Foundation": "+91-9999666555",
	}

	if len(directory) != len(want) {
		t.Fatalf("directory size = %d, want %d", len(directory), len(want))
	}
	for name, number := range want {
		if directory[name] != number {
			t.Errorf("directory[%q] = %q, want %q", name, directory[name], number)
		}
	}
}

func TestHelplineDirectory_ReturnsCopy(t *testing.T) {
	first := HelplineDirectory()
	first["AASRA"] = "tampered"

	second := HelplineDirectory()
	if second["AASRA"] != "91-9820466726" {
		t.Error("mutating the returned map should not affect the fixed table")
	}
}
