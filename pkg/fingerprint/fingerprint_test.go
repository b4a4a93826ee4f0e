package fingerprint

import "testing"

func TestFingerprintNormalization(t *testing.T) {
	cases := []struct{ a, b string }{
		{"Breaking News Today", "breaking\nnews\ntoday"},
		{"  spaced   out  ", "spacedout"},
		{"Tabs\tand\tspaces", "TABS AND SPACES"},
		{"line one\r\nline two", "lineone linetwo"},
	}
	for _, c := range cases {
		fa, fb := Fingerprint(c.a), Fingerprint(c.b)
		if fa != fb {
			t.Fatalf("expected equal fingerprints for %q and %q: %s vs %s", c.a, c.b, fa, fb)
		}
	}
}

func TestFingerprintDistinct(t *testing.T) {
	seen := map[string]string{}
	inputs := []string{
		"first story", "second story", "first story!", "FIRST STORIES",
		"a", "b", "ab", "ba",
	}
	for _, in := range inputs {
		fp := Fingerprint(in)
		if prev, ok := seen[fp]; ok {
			t.Fatalf("collision: %q and %q both map to %s", prev, in, fp)
		}
		seen[fp] = in
	}
}

func TestFingerprintBlankSentinel(t *testing.T) {
	for _, in := range []string{"", " ", "\n\t  \r\n"} {
		fp := Fingerprint(in)
		if !IsEmpty(fp) {
			t.Fatalf("blank input %q got non-sentinel fingerprint %s", in, fp)
		}
	}
	if IsEmpty(Fingerprint("content")) {
		t.Fatal("real content must not map to the sentinel")
	}
}

func TestFingerprintDeterministic(t *testing.T) {
	if Fingerprint("same input") != Fingerprint("same input") {
		t.Fatal("fingerprint not deterministic")
	}
	if len(Fingerprint("x")) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(Fingerprint("x")))
	}
}
