package xmlprog

import (
	"strings"
	"testing"
)

func TestParseBuildsAttributeAndChildTree(t *testing.T) {
	doc := `<one in="B" out="W"><observe value="B" to="W"/></one>`
	el, err := Parse(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if el.Tag() != "one" {
		t.Fatalf("Tag() = %q, want \"one\"", el.Tag())
	}
	in, ok := el.Get("in")
	if !ok || in != "B" {
		t.Fatalf("Get(\"in\") = (%q, %v), want (\"B\", true)", in, ok)
	}
	if _, ok := el.Get("missing"); ok {
		t.Fatalf("Get of a missing attribute must report ok=false")
	}
	if v := el.GetDefault("missing", "fallback"); v != "fallback" {
		t.Fatalf("GetDefault = %q, want \"fallback\"", v)
	}

	kids := el.Children("observe")
	if len(kids) != 1 {
		t.Fatalf("want 1 observe child, got %d", len(kids))
	}
	if v, _ := kids[0].Get("value"); v != "B" {
		t.Fatalf("observe child's value attribute = %q, want \"B\"", v)
	}
}

func TestChildrenFiltersByTag(t *testing.T) {
	doc := `<sequence><one/><all/><one/></sequence>`
	el, err := Parse(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(el.Children("one")) != 2 {
		t.Fatalf("want 2 <one> children, got %d", len(el.Children("one")))
	}
	if len(el.Children("all")) != 1 {
		t.Fatalf("want 1 <all> child, got %d", len(el.Children("all")))
	}
	if len(el.Children("prl")) != 0 {
		t.Fatalf("want 0 <prl> children, got %d", len(el.Children("prl")))
	}
}
