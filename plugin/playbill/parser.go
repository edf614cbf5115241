package playbill

import (
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var (
	cellDatePattern = regexp.MustCompile(`\d{2}\.\d{2}\.\d{4}`)
	cellTimePattern = regexp.MustCompile(`\d{1,2}:\d{2}`)
	newsDatePattern = regexp.MustCompile(`^\d{2}\.\d{2}\.\d{4}`)
)

// playbill table columns
const (
	colDate  = 0
	colTitle = 1
	colTime  = 3
	colHall  = 4
	minCols  = 5
)

// ParsePlaybill extracts listings from the playbill page. Rows with fewer than
// five cells or without a dd.mm.yyyy date are skipped.
func ParsePlaybill(r io.Reader) ([]Listing, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse playbill html")
	}

	var listings []Listing
	walk(doc, func(n *html.Node) bool {
		if n.DataAtom != atom.Tr {
			return true
		}
		if l, ok := parseRow(n); ok {
			listings = append(listings, l)
		}
		return false
	})
	return listings, nil
}

func parseRow(tr *html.Node) (Listing, bool) {
	var cells []string
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == atom.Td {
			cells = append(cells, textOf(c))
		}
	}
	if len(cells) < minCols {
		return Listing{}, false
	}

	raw := cellDatePattern.FindString(cells[colDate])
	if raw == "" {
		return Listing{}, false
	}
	day, err := time.Parse("02.01.2006", raw)
	if err != nil {
		return Listing{}, false
	}

	start := strings.TrimSpace(cells[colTime])
	if clock := cellTimePattern.FindString(start); clock != "" {
		start = clock
		if len(start) == 4 {
			start = "0" + start
		}
	}

	return Listing{
		Title: cleanTitle(cells[colTitle]),
		Date:  day.Format(time.DateOnly),
		Time:  start,
		Hall:  normalizeHall(cells[colHall]),
		Kind:  classify(cells[colTitle]),
	}, true
}

// ParseNews returns up to limit items formatted "dd.mm.yyyy — text" from list
// items nested in a <ul>. Items without a leading date are skipped.
func ParseNews(r io.Reader, limit int) ([]string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse news html")
	}

	var items []string
	var visit func(n *html.Node, inList bool)
	visit = func(n *html.Node, inList bool) {
		if limit > 0 && len(items) >= limit {
			return
		}
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Ul:
				inList = true
			case atom.Li:
				if inList {
					if item, ok := newsItem(textOf(n)); ok {
						items = append(items, item)
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c, inList)
		}
	}
	visit(doc, false)
	return items, nil
}

func newsItem(text string) (string, bool) {
	date := newsDatePattern.FindString(text)
	if date == "" {
		return "", false
	}
	body := strings.TrimSpace(text[len(date):])
	// The site repeats the date as a separate element.
	body = strings.TrimSpace(strings.TrimPrefix(body, date))
	if body == "" {
		return "", false
	}
	return date + " — " + body, true
}

// walk visits n depth first; fn returns false to skip a node's children.
func walk(n *html.Node, fn func(*html.Node) bool) {
	if n.Type == html.ElementNode && !fn(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

// textOf joins the trimmed text fragments below n with single spaces.
func textOf(n *html.Node) string {
	var parts []string
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			if s := strings.TrimSpace(n.Data); s != "" {
				parts = append(parts, s)
			}
			return
		}
		if n.Type == html.ElementNode && (n.DataAtom == atom.Script || n.DataAtom == atom.Style) {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}
