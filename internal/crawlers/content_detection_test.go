package crawlers

import "testing"

func TestIsValidJavaScript(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        []byte
		want        bool
	}{
		{
			name:        "content-type application/javascript",
			contentType: "application/javascript; charset=utf-8",
			body:        []byte("var x = 1;"),
			want:        true,
		},
		{
			name:        "content-type text/javascript",
			contentType: "text/javascript",
			body:        []byte("function test() {}"),
			want:        true,
		},
		{
			name:        "text/html body with enough JS keywords",
			contentType: "text/html",
			body:        []byte("function foo() { var x = 1; const y = 2; }"),
			want:        true,
		},
		{
			name:        "text/html body with one JS keyword only",
			contentType: "text/html",
			body:        []byte("<html><body>function is a keyword</body></html>"),
			want:        false,
		},
		{
			name:        "plain HTML with no JS features",
			contentType: "text/html",
			body:        []byte("<html><head><title>Test</title></head><body>Hello World</body></html>"),
			want:        false,
		},
		{
			name:        "empty body",
			contentType: "text/plain",
			body:        []byte(""),
			want:        false,
		},
		{
			name:        "only the first 1KB is sampled",
			contentType: "text/plain",
			body:        append([]byte("function test() { var x = 1; } "), make([]byte, 2000)...),
			want:        true,
		},
		{
			name:        "arrow function syntax",
			contentType: "text/plain",
			body:        []byte("const fn = () => { return x; }"),
			want:        true,
		},
		{
			name:        "es module syntax",
			contentType: "text/plain",
			body:        []byte("import React from 'react'; export default App;"),
			want:        true,
		},
		{
			name:        "json body is not javascript",
			contentType: "application/json",
			body:        []byte(`{"key": "value", "number": 123}`),
			want:        false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isValidJavaScript(tt.contentType, tt.body); got != tt.want {
				t.Errorf("isValidJavaScript(%q, %q) = %v, want %v", tt.contentType, tt.body, got, tt.want)
			}
		})
	}
}

func TestIsValidJavaScriptCaseInsensitive(t *testing.T) {
	body := []byte("var x = 1;")
	for _, ct := range []string{"APPLICATION/JAVASCRIPT", "Application/JavaScript", "text/JAVASCRIPT"} {
		if !isValidJavaScript(ct, body) {
			t.Errorf("content type %s should be recognized as javascript", ct)
		}
	}
}

func TestIsValidJavaScriptKeywordThreshold(t *testing.T) {
	if isValidJavaScript("text/plain", []byte("function only one keyword here")) {
		t.Error("a single keyword should not be classified as javascript")
	}
	if !isValidJavaScript("text/plain", []byte("function test() { var x = 1; }")) {
		t.Error("two keywords should be classified as javascript")
	}
}

func TestFindSourceMapURL(t *testing.T) {
	tests := []struct {
		name      string
		scriptURL string
		text      string
		want      string
	}{
		{
			name:      "relative map reference",
			scriptURL: "https://example.com/static/app.js",
			text:      "console.log(1);\n//# sourceMappingURL=app.js.map\n",
			want:      "https://example.com/static/app.js.map",
		},
		{
			name:      "no reference present",
			scriptURL: "https://example.com/app.js",
			text:      "console.log(1);",
			want:      "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := findSourceMapURL(tt.scriptURL, tt.text); got != tt.want {
				t.Errorf("findSourceMapURL() = %q, want %q", got, tt.want)
			}
		})
	}
}
