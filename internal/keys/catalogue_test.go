package keys

import "testing"

func TestLoadDefaultCatalogue(t *testing.T) {
	cat, err := LoadDefaultCatalogue()
	if err != nil {
		t.Fatalf("LoadDefaultCatalogue returned error: %v", err)
	}
	if len(cat.Rules()) == 0 {
		t.Fatal("expected at least one rule in the default catalogue")
	}
}

func TestParseCatalogueRejectsEmptyRuleSet(t *testing.T) {
	_, err := ParseCatalogue([]byte(""), "test.toml")
	if err == nil {
		t.Fatal("expected error for catalogue with no rules")
	}
}

func TestParseCatalogueRejectsBadRegex(t *testing.T) {
	doc := `
[[rules]]
id = "bad"
regex = "(unterminated"
`
	_, err := ParseCatalogue([]byte(doc), "test.toml")
	if err == nil {
		t.Fatal("expected error for invalid regex")
	}
}

func TestCandidateRulesKeywordPrefilter(t *testing.T) {
	doc := `
[[rules]]
id = "needs-foo"
regex = '''foo-(\w+)'''
secretGroup = 1
keywords = ["foo"]

[[rules]]
id = "always-on"
regex = '''bar-(\w+)'''
secretGroup = 1
`
	cat, err := ParseCatalogue([]byte(doc), "test.toml")
	if err != nil {
		t.Fatalf("ParseCatalogue returned error: %v", err)
	}

	candidates := cat.CandidateRules("nothing relevant here")
	if len(candidates) != 1 || candidates[0].ID != "always-on" {
		t.Fatalf("expected only the keyword-less rule, got %v", ruleIDs(candidates))
	}

	candidates = cat.CandidateRules("this text mentions foo somewhere")
	if len(candidates) != 2 {
		t.Fatalf("expected both rules once keyword is present, got %v", ruleIDs(candidates))
	}
}

func ruleIDs(rules []*KeyRule) []string {
	var ids []string
	for _, r := range rules {
		ids = append(ids, r.ID)
	}
	return ids
}

func TestKeyRuleMatchesAppliesAllowlist(t *testing.T) {
	doc := `
[[rules]]
id = "generic"
regex = '''secret=(\w+)'''
secretGroup = 1

  [rules.allowlist]
  stopwords = ["placeholder"]
`
	cat, err := ParseCatalogue([]byte(doc), "test.toml")
	if err != nil {
		t.Fatalf("ParseCatalogue returned error: %v", err)
	}
	rule := cat.Rules()[0]

	matches := rule.matches("secret=placeholder123")
	if len(matches) != 0 {
		t.Fatalf("expected allowlisted secret to be filtered, got %v", matches)
	}

	matches = rule.matches("secret=abc123realvalue")
	if len(matches) != 1 {
		t.Fatalf("expected one match for non-allowlisted secret, got %d", len(matches))
	}
}

func TestKeyRuleMatchesAppliesEntropyFloor(t *testing.T) {
	doc := `
[[rules]]
id = "high-entropy"
regex = '''key=(\w+)'''
secretGroup = 1
entropy = 4.0
`
	cat, err := ParseCatalogue([]byte(doc), "test.toml")
	if err != nil {
		t.Fatalf("ParseCatalogue returned error: %v", err)
	}
	rule := cat.Rules()[0]

	matches := rule.matches("key=aaaaaaaaaaaaaaaaaaaa")
	if len(matches) != 0 {
		t.Fatalf("expected low-entropy secret to be filtered, got %v", matches)
	}

	matches = rule.matches("key=xK9m2PqZw8rT4vLn7Yc1")
	if len(matches) != 1 {
		t.Fatalf("expected high-entropy secret to match, got %d", len(matches))
	}
}
