// Package extract maps rendered search-result markup to Article records.
package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"github.com/use-agent/leninka/config"
	"github.com/use-agent/leninka/models"
)

// Selectors names the nodes an item is built from.
type Selectors struct {
	Item    string // list item, e.g. "li"
	Title   string // title node inside the item, e.g. ".title"
	Authors string // authors node inside the item, e.g. "span"
	Anchor  string // link inside the title node, e.g. "a"
}

// SelectorsFrom converts the extract configuration.
func SelectorsFrom(cfg config.ExtractConfig) Selectors {
	return Selectors{Item: cfg.Item, Title: cfg.Title, Authors: cfg.Authors, Anchor: cfg.Anchor}
}

// Extractor is a compiled set of selectors plus the domain that prefixes
// every link. It holds no mutable state and is safe for concurrent use.
type Extractor struct {
	baseDomain string
	item       cascadia.Selector
	title      cascadia.Selector
	authors    cascadia.Selector
	anchor     cascadia.Selector
}

// New compiles sel. Invalid selectors fail with EXTRACTION_FAILED.
func New(baseDomain string, sel Selectors) (*Extractor, error) {
	e := &Extractor{baseDomain: baseDomain}
	for _, c := range []struct {
		dst  *cascadia.Selector
		name string
		expr string
	}{
		{&e.item, "item", sel.Item},
		{&e.title, "title", sel.Title},
		{&e.authors, "authors", sel.Authors},
		{&e.anchor, "anchor", sel.Anchor},
	} {
		compiled, err := cascadia.Compile(c.expr)
		if err != nil {
			return nil, models.NewCrawlError(models.ErrCodeExtraction,
				fmt.Sprintf("invalid %s selector %q", c.name, c.expr), err)
		}
		*c.dst = compiled
	}
	return e, nil
}

// Extract parses markup and returns one Article per top-level item in
// document order. Items are never dropped: missing fields become "".
func (e *Extractor) Extract(markup string) ([]models.Article, error) {
	root, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, models.NewCrawlError(models.ErrCodeExtraction, "failed to parse markup", err)
	}
	doc := goquery.NewDocumentFromNode(root)

	// Items nested inside another item belong to that item's content.
	items := doc.FindMatcher(e.item).FilterFunction(func(_ int, s *goquery.Selection) bool {
		return s.ParentsMatcher(e.item).Length() == 0
	})

	articles := make([]models.Article, 0, items.Length())
	items.Each(func(_ int, s *goquery.Selection) {
		articles = append(articles, e.article(s))
	})
	return articles, nil
}

// article applies the field rules to a single item. Absent title, authors
// or href each degrade to the empty string; link is always baseDomain + href.
func (e *Extractor) article(item *goquery.Selection) models.Article {
	var a models.Article

	title := item.FindMatcher(e.title).First()
	if title.Length() > 0 {
		a.Title = title.Text()
	}

	if authors := item.FindMatcher(e.authors).First(); authors.Length() > 0 {
		a.Authors = authors.Text()
	}

	href := ""
	if title.Length() > 0 {
		if v, ok := title.FindMatcher(e.anchor).First().Attr("href"); ok {
			href = v
		}
	}
	a.Link = e.baseDomain + href

	return a
}
