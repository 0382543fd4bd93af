package glotta

import (
	"context"
	"strings"
	"testing"
)

func TestTranslateHTML_Basic(t *testing.T) {
	tr, _, be := newTestTranslator()

	input := `<html><body><h1>Hello</h1><p>World</p></body></html>`
	out, err := tr.TranslateHTML(context.Background(), input, BatchParams{To: "he"})
	if err != nil {
		t.Fatalf("TranslateHTML failed: %v", err)
	}

	if !strings.Contains(out, "שלום") || !strings.Contains(out, "עולם") {
		t.Errorf("Expected translated content, got: %s", out)
	}
	if be.calls() != 2 {
		t.Errorf("Expected 2 backend calls, got %d", be.calls())
	}
}

func TestTranslateHTML_SetsLangAndDir(t *testing.T) {
	tr, _, _ := newTestTranslator()

	input := `<html><body><p>Hello</p></body></html>`
	out, err := tr.TranslateHTML(context.Background(), input, BatchParams{To: "he"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `lang="he"`) {
		t.Errorf("Expected lang attribute, got: %s", out)
	}
	if !strings.Contains(out, `dir="rtl"`) {
		t.Errorf("Expected rtl direction for Hebrew, got: %s", out)
	}

	out, err = tr.TranslateHTML(context.Background(), input, BatchParams{To: "fr"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `dir="ltr"`) {
		t.Errorf("Expected ltr direction for French, got: %s", out)
	}
}

func TestTranslateHTML_SkipsIgnoredTags(t *testing.T) {
	tr, _, be := newTestTranslator()

	input := `<html><body>
		<p>Hello</p>
		<script>var x = "World";</script>
		<style>.World { color: red; }</style>
		<code>World</code>
		<pre>World</pre>
	</body></html>`
	out, err := tr.TranslateHTML(context.Background(), input, BatchParams{To: "he"})
	if err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(out, `var x = "World";`) {
		t.Errorf("Script content must survive untranslated: %s", out)
	}
	if !strings.Contains(out, "<code>World</code>") {
		t.Errorf("Code content must survive untranslated: %s", out)
	}
	if be.calls() != 1 {
		t.Errorf("Expected only the paragraph to be translated, got %d calls", be.calls())
	}
}

func TestTranslateHTML_SkipsNoTranslateAttr(t *testing.T) {
	tr, _, be := newTestTranslator()

	input := `<html><body><p>Hello</p><div data-no-translate><p>World</p></div></body></html>`
	out, err := tr.TranslateHTML(context.Background(), input, BatchParams{To: "he"})
	if err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(out, "World") {
		t.Errorf("data-no-translate content must survive: %s", out)
	}
	if strings.Contains(out, "עולם") {
		t.Errorf("data-no-translate content was translated: %s", out)
	}
	if be.calls() != 1 {
		t.Errorf("Expected 1 backend call, got %d", be.calls())
	}
}

func TestTranslateHTML_DedupesRepeatedStrings(t *testing.T) {
	tr, _, be := newTestTranslator()

	input := `<html><body><p>Hello</p><p>Hello</p><p>Hello</p></body></html>`
	out, err := tr.TranslateHTML(context.Background(), input, BatchParams{To: "he"})
	if err != nil {
		t.Fatal(err)
	}

	if strings.Count(out, "שלום") != 3 {
		t.Errorf("Expected 3 translated occurrences, got: %s", out)
	}
	if be.calls() != 1 {
		t.Errorf("Expected 1 backend call for repeated text, got %d", be.calls())
	}
}

func TestTranslateHTML_PreservesWhitespace(t *testing.T) {
	tr, _, _ := newTestTranslator()

	input := "<html><body><p>\n  Hello\n</p></body></html>"
	out, err := tr.TranslateHTML(context.Background(), input, BatchParams{To: "he"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "\n  שלום\n") {
		t.Errorf("Expected surrounding whitespace preserved, got: %s", out)
	}
}

func TestTranslateHTML_NoTextNodes(t *testing.T) {
	tr, _, be := newTestTranslator()

	out, err := tr.TranslateHTML(context.Background(), `<html><body><img src="x.png"></body></html>`, BatchParams{To: "he"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `<img src="x.png"`) {
		t.Errorf("Markup must survive: %s", out)
	}
	if be.calls() != 0 {
		t.Errorf("Expected zero backend calls, got %d", be.calls())
	}
}

func TestTranslateHTML_UsesCache(t *testing.T) {
	tr, _, be := newTestTranslator()
	ctx := context.Background()

	if _, err := tr.TranslateText(ctx, TranslateParams{Text: "Hello", To: "he"}); err != nil {
		t.Fatal(err)
	}
	tr.Flush()

	_, err := tr.TranslateHTML(ctx, `<html><body><p>Hello</p></body></html>`, BatchParams{To: "he"})
	if err != nil {
		t.Fatal(err)
	}
	if be.calls() != 1 {
		t.Errorf("Cached string must not hit the backend again, got %d calls", be.calls())
	}
}
