// internal/words/words_test.go

package words

import "testing"

func TestInitEmbeddedPool(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if Count() < MinPoolSize {
		t.Fatalf("embedded pool has %d entries, need at least %d", Count(), MinPoolSize)
	}
	pool := Pool()
	seen := map[string]bool{}
	for _, w := range pool {
		if !isWord(w) {
			t.Errorf("pool entry %q is not a valid word", w)
		}
		if seen[w] {
			t.Errorf("pool entry %q duplicated", w)
		}
		seen[w] = true
		if !Contains(w) {
			t.Errorf("Contains(%q) = false for a pool entry", w)
		}
	}
	if Contains("definitely-not-in-the-pool-xyz") {
		t.Error("Contains matched an absent word")
	}
}

func TestPoolReturnsACopy(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	a := Pool()
	a[0] = "mutated"
	if b := Pool(); b[0] == "mutated" {
		t.Fatal("Pool exposes internal storage")
	}
}

func TestIsWord(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"orange", true},
		{"new york", true},
		{"loch-ness", true},
		{"", false},
		{"Orange", false},  // callers lowercase first
		{"word1", false},   // digits never appear
		{"-leading", false},
		{"trailing ", false},
	}
	for _, tc := range cases {
		if got := isWord(tc.in); got != tc.want {
			t.Errorf("isWord(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestDedupePreservesOrder(t *testing.T) {
	got := dedupe([]string{"b", "a", "b", "c", "a"})
	want := []string{"b", "a", "c"}
	if len(got) != len(want) {
		t.Fatalf("dedupe = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("dedupe = %v, want %v", got, want)
		}
	}
}
