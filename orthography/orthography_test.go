package orthography

import "testing"

func TestApplyRuleExamples(t *testing.T) {
	cases := []struct{ word, suffix, want string }{
		// Straight concatenation already spells the word correctly and
		// "artistically" is in the bundled wordlist, so it is returned
		// before any rule is tried (rule 1 only fires on the
		// steno-dictionary-typical bare "ly" suffix; see
		// TestApplyArtisticLy below).
		{"artistic", "ally", "artistically"},
		{"cherry", "s", "cherries"},
		{"write", "en", "written"},
		{"free", "ed", "freed"},
	}
	for _, c := range cases {
		if got := Apply(c.word, c.suffix); got != c.want {
			t.Errorf("Apply(%q, %q) = %q, want %q", c.word, c.suffix, got, c.want)
		}
	}
}

func TestApplyArtisticLy(t *testing.T) {
	// This is the case rule 1 actually exists for: a steno dictionary
	// types the suffix as the shorter "ly", and the rule supplies the
	// "ally" spelling.
	if got, want := Apply("artistic", "ly"), "artistically"; got != want {
		t.Errorf("Apply(artistic, ly) = %q, want %q", got, want)
	}
}

func TestApplySpeechPluralization(t *testing.T) {
	if got, want := Apply("speech", "s"), "speeches"; got != want {
		t.Errorf("Apply(speech, s) = %q, want %q", got, want)
	}
}

func TestApplyConsonantDoubling(t *testing.T) {
	if got, want := Apply("defer", "ed"), "deferred"; got != want {
		t.Errorf("Apply(defer, ed) = %q, want %q", got, want)
	}
}

func TestApplyWordlistVerbatim(t *testing.T) {
	// "cats" is in the bundled wordlist, so it's returned verbatim
	// regardless of whether any rule in the table could also apply.
	if got, want := Apply("cat", "s"), "cats"; got != want {
		t.Errorf("Apply(cat, s) = %q, want %q", got, want)
	}
}

func TestApplyNoRuleFallsBackToConcatenation(t *testing.T) {
	if got, want := Apply("moreover", "ly"), "moreoverly"; got != want {
		t.Errorf("Apply(moreover, ly) = %q, want %q", got, want)
	}
}

func TestApplySimilarIsh(t *testing.T) {
	if got, want := Apply("similar", "ish"), "similarish"; got != want {
		t.Errorf("Apply(similar, ish) = %q, want %q", got, want)
	}
}

func TestApplyNarrateSilentE(t *testing.T) {
	if got, want := Apply("narrate", "ing"), "narrating"; got != want {
		t.Errorf("Apply(narrate, ing) = %q, want %q", got, want)
	}
}
