package llm

import (
	"errors"
	"reflect"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"whitespace", "  \n{\"a\":1}\n\t", `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"fence same line", "```json {\"a\":1}```", `{"a":1}`},
		{"tag on next line", "```\njson\n{\"a\":1}\n```", `{"a":1}`},
		{"json label", "json{\"a\":1}", `{"a":1}`},
		{"array", "```json\n[1,2]\n```", `[1,2]`},
		{"prose untouched", `sure! {"a":1}`, `sure! {"a":1}`},
		{"empty", "   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDecodeJSON_FencedEqualsPlain(t *testing.T) {
	plain, ok := DecodeJSON(`{"a":1}`)
	if !ok {
		t.Fatal("expected plain json to decode")
	}
	fenced, ok := DecodeJSON("```json\n{\"a\":1}\n```")
	if !ok {
		t.Fatal("expected fenced json to decode")
	}
	if !reflect.DeepEqual(plain, fenced) {
		t.Errorf("fenced = %v, plain = %v", fenced, plain)
	}
	m, _ := fenced.(map[string]any)
	if m["a"] != float64(1) {
		t.Errorf("expected a=1, got %v", m["a"])
	}
}

func TestDecodeJSON_Failures(t *testing.T) {
	for _, in := range []string{"", "   ", `sure! {"a":1}`, "```json\n{\"a\":\n```", "not json", "{", "```"} {
		if v, ok := DecodeJSON(in); ok {
			t.Errorf("DecodeJSON(%q) = %v, expected failure", in, v)
		}
	}
}

func TestDecodeJSON_Scalars(t *testing.T) {
	v, ok := DecodeJSON("42")
	if !ok || v != float64(42) {
		t.Errorf("expected 42, got %v (ok=%v)", v, ok)
	}
}

func TestDecodeJSONInto(t *testing.T) {
	var out struct {
		A int `json:"a"`
	}
	if err := DecodeJSONInto("```json\n{\"a\":7}\n```", &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.A != 7 {
		t.Errorf("expected 7, got %d", out.A)
	}

	err := DecodeJSONInto("nope", &out)
	if !errors.Is(err, ErrUndecodable) {
		t.Errorf("expected ErrUndecodable, got %v", err)
	}
}

func TestFailureUnwrap(t *testing.T) {
	f := &Failure{Kind: KindInvalidJSON, Raw: "nope", Err: ErrUndecodable}
	var err error = f
	if !errors.Is(err, ErrUndecodable) {
		t.Error("Failure should unwrap to its cause")
	}
	if f.Error() != "invalid_json: "+ErrUndecodable.Error() {
		t.Errorf("Error() = %q", f.Error())
	}
	if (&Failure{Kind: KindEmptyResponse}).Error() != "empty_response" {
		t.Error("Error() without cause should be the kind")
	}
}
