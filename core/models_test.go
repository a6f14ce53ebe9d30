package core

import (
	"testing"
)

func sampleCondition() *ConditionRecord {
	return &ConditionRecord{
		ID:    "cavity",
		Names: []string{"Dental cavity"},
		Symptoms: map[Language][]string{
			English: {"toothache", "sensitive to sweets"},
			Hindi:   {"दांत दर्द"},
		},
		Description: map[Language]string{
			English: "Decay of the tooth enamel.",
		},
		Advice: map[Language]string{
			English: "Visit a dentist for a filling.",
		},
		Specialist: "dentist",
		Urgency:    UrgencyMedium,
	}
}

func TestConditionRecord_Document(t *testing.T) {
	c := sampleCondition()

	tests := []struct {
		name string
		lang Language
		want string
	}{
		{
			name: "symptoms then description",
			lang: English,
			want: "toothache sensitive to sweets Decay of the tooth enamel.",
		},
		{
			name: "symptoms without description",
			lang: Hindi,
			want: "दांत दर्द ",
		},
		{
			name: "language without data",
			lang: Bengali,
			want: " ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Document(tt.lang); got != tt.want {
				t.Errorf("Document(%q) = %q, want %q", tt.lang, got, tt.want)
			}
		})
	}
}

func TestConditionRecord_AdviceFor(t *testing.T) {
	c := sampleCondition()
	c.Advice[Bengali] = "   "

	if got := c.AdviceFor(English); got != "Visit a dentist for a filling." {
		t.Errorf("AdviceFor(en) = %q", got)
	}
	if got := c.AdviceFor(Hindi); got != NoAdviceAvailable {
		t.Errorf("AdviceFor(hi) = %q, want marker", got)
	}
	if got := c.AdviceFor(Bengali); got != NoAdviceAvailable {
		t.Errorf("AdviceFor(bn) with blank advice = %q, want marker", got)
	}
}

func TestLanguage_IsSupported(t *testing.T) {
	for _, lang := range SupportedLanguages {
		if !lang.IsSupported() {
			t.Errorf("%q should be supported", lang)
		}
	}
	for _, lang := range []Language{"", "fr", "hi-IN", "EN"} {
		if lang.IsSupported() {
			t.Errorf("%q should not be supported", lang)
		}
	}
}

func TestUrgency_Level(t *testing.T) {
	tests := []struct {
		urgency Urgency
		want    int
	}{
		{UrgencyLow, 1},
		{UrgencyMedium, 2},
		{"HIGH", 3},
		{UrgencyEmergency, 4},
		{"whenever", 0},
	}
	for _, tt := range tests {
		t.Run(string(tt.urgency), func(t *testing.T) {
			if got := tt.urgency.Level(); got != tt.want {
				t.Errorf("Level() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestFingerprint(t *testing.T) {
	a := []*ConditionRecord{sampleCondition()}
	b := []*ConditionRecord{sampleCondition()}

	if Fingerprint(a) != Fingerprint(b) {
		t.Fatal("Fingerprint() differs for identical knowledge bases")
	}

	b[0].Advice[Hindi] = "दंत चिकित्सक से मिलें"
	if Fingerprint(a) == Fingerprint(b) {
		t.Error("Fingerprint() did not change when advice was added")
	}

	c := []*ConditionRecord{sampleCondition()}
	c[0].Symptoms[English] = []string{"sensitive to sweets", "toothache"}
	if Fingerprint(a) == Fingerprint(c) {
		t.Error("Fingerprint() should depend on symptom order")
	}

	other := sampleCondition()
	other.ID = "gum_disease"
	if Fingerprint([]*ConditionRecord{a[0], other}) == Fingerprint([]*ConditionRecord{other, a[0]}) {
		t.Error("Fingerprint() should depend on declaration order")
	}
}
