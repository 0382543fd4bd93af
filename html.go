package glotta

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// IgnoredTags contains HTML tags whose content is never translated.
var IgnoredTags = map[string]bool{
	"script":   true,
	"style":    true,
	"code":     true,
	"pre":      true,
	"textarea": true,
	"noscript": true,
}

// TranslateHTML translates the text content of an HTML document through
// the batch path, so repeated strings cost one backend call and cached
// strings cost none. Ignored tags and elements marked data-no-translate
// are skipped. The lang and dir attributes on <html> are set for the
// target language.
func (t *Translator) TranslateHTML(ctx context.Context, content string, p BatchParams) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return "", &TranslationError{Message: "failed to parse HTML", Cause: err}
	}

	var textNodes []*html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if IgnoredTags[strings.ToLower(n.Data)] {
				return
			}
			for _, attr := range n.Attr {
				if attr.Key == "data-no-translate" {
					return
				}
			}
		}
		if n.Type == html.TextNode && strings.TrimSpace(n.Data) != "" {
			textNodes = append(textNodes, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, root := range doc.Nodes {
		walk(root)
	}

	if len(textNodes) > 0 {
		texts := make([]string, len(textNodes))
		for i, n := range textNodes {
			texts[i] = strings.TrimSpace(n.Data)
		}

		results, err := t.TranslateBatch(ctx, texts, p)
		if err != nil {
			return "", err
		}

		for i, n := range textNodes {
			// Preserve surrounding whitespace inside the text node.
			n.Data = strings.Replace(n.Data, texts[i], results[i].Text, 1)
		}
	}

	htmlTag := doc.Find("html")
	if htmlTag.Length() > 0 {
		htmlTag.SetAttr("lang", ToHTMLLang(p.To))
		htmlTag.SetAttr("dir", GetDirection(p.To))
	}

	return doc.Html()
}
