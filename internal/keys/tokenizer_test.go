package keys

import "testing"

func TestTokenizeIdentifiersAndStrings(t *testing.T) {
	toks := tokenize(`const x = "hi"; // comment`)

	var kinds []tokenKind
	for _, tk := range toks {
		kinds = append(kinds, tk.kind)
	}

	want := []tokenKind{tokKeyword, tokIdent, tokPunct, tokString, tokPunct}
	if len(kinds) != len(want) {
		t.Fatalf("got %d tokens, want %d: %+v", len(kinds), len(want), toks)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("token %d kind = %v, want %v", i, kinds[i], want[i])
		}
	}
}

func TestEnclosingIdentifierAssignment(t *testing.T) {
	src := `var token = "abc123";`
	toks := tokenize(src)
	pos := indexOf(src, "abc123")
	if got := enclosingIdentifier(toks, pos); got != "token" {
		t.Errorf("enclosingIdentifier = %q, want token", got)
	}
}

func TestEnclosingIdentifierObjectProperty(t *testing.T) {
	src := `const cfg = { secret: "abc123" };`
	toks := tokenize(src)
	pos := indexOf(src, "abc123")
	if got := enclosingIdentifier(toks, pos); got != "secret" {
		t.Errorf("enclosingIdentifier = %q, want secret", got)
	}
}

func TestEnclosingIdentifierCallArgument(t *testing.T) {
	src := `headers.set("Authorization", "abc123")`
	toks := tokenize(src)
	pos := indexOf(src, "abc123")
	if got := enclosingIdentifier(toks, pos); got != "set" {
		t.Errorf("enclosingIdentifier = %q, want set", got)
	}
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}
