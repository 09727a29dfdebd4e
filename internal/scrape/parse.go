package scrape

import (
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var mepIDRe = regexp.MustCompile(`/meps/en/(\d+)`)

// ParseList extracts the MEPs linked from the full list page. Every link
// whose path contains /meps/en/<digits> yields one entry; ids are unique
// and kept in first-appearance order. Profile URLs are canonicalised to
// <base>/meps/en/<id>.
func ParseList(r io.Reader, baseURL string) ([]Entry, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base url: %w", err)
	}
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing list page: %w", err)
	}

	seen := make(map[string]bool)
	var entries []Entry
	walk(doc, func(n *html.Node) bool {
		if n.Type != html.ElementNode || n.DataAtom != atom.A {
			return true
		}
		href := attr(n, "href")
		if !strings.Contains(href, "/meps/en/") {
			return true
		}
		m := mepIDRe.FindStringSubmatch(href)
		if m == nil || seen[m[1]] {
			return true
		}
		seen[m[1]] = true
		profile := base.ResolveReference(&url.URL{Path: "/meps/en/" + m[1]})
		entries = append(entries, Entry{ID: m[1], URL: profile.String()})
		return true
	})
	return entries, nil
}

// ParseProfile extracts a profile from an MEP page.
func ParseProfile(id, pageURL string, r io.Reader) (Profile, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return Profile{}, fmt.Errorf("parsing profile %s: %w", id, err)
	}

	p := Profile{ID: id, ProfileURL: pageURL}

	if h1 := find(doc, func(n *html.Node) bool { return n.DataAtom == atom.H1 }); h1 != nil {
		p.Name = text(h1)
	}
	if p.Name == "" {
		p.Name = "MEP-" + id
	}

	group := find(doc, func(n *html.Node) bool {
		return n.DataAtom == atom.H3 && hasClasses(n, "erpl_title-h3", "mt-1", "sln-political-group-name")
	})
	if group != nil {
		p.PoliticalGroup = text(group)
	}

	block := find(doc, func(n *html.Node) bool {
		return n.DataAtom == atom.Div && hasClasses(n, "erpl_title-h3", "mt-1", "mb-1")
	})
	if block != nil {
		p.CountryAndNationalParty = text(block)
		p.Country = p.CountryAndNationalParty
		if country, party, ok := strings.Cut(p.CountryAndNationalParty, " - "); ok {
			p.Country = strings.TrimSpace(country)
			p.NationalParty = strings.TrimSpace(party)
		}
	}

	email := find(doc, func(n *html.Node) bool {
		return n.DataAtom == atom.A && hasClasses(n, "link_email") &&
			strings.HasPrefix(attr(n, "href"), "mailto:")
	})
	if email != nil {
		p.Email = strings.TrimSpace(strings.TrimPrefix(attr(email, "href"), "mailto:"))
	}

	x := find(doc, func(n *html.Node) bool {
		return n.DataAtom == atom.A && hasClasses(n, "link_twitt") && attr(n, "href") != ""
	})
	if x != nil {
		p.XURL = attr(x, "href")
		p.XHandle = XHandle(p.XURL)
	}

	return p, nil
}

// walk visits n and its descendants depth first until visit returns false.
func walk(n *html.Node, visit func(*html.Node) bool) bool {
	if !visit(n) {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !walk(c, visit) {
			return false
		}
	}
	return true
}

// find returns the first element below n in document order that
// satisfies match.
func find(n *html.Node, match func(*html.Node) bool) *html.Node {
	var found *html.Node
	walk(n, func(c *html.Node) bool {
		if c.Type == html.ElementNode && match(c) {
			found = c
			return false
		}
		return true
	})
	return found
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClasses(n *html.Node, want ...string) bool {
	have := strings.Fields(attr(n, "class"))
	for _, w := range want {
		found := false
		for _, h := range have {
			if h == w {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// text returns the text content of n with runs of whitespace collapsed.
func text(n *html.Node) string {
	var b strings.Builder
	walk(n, func(c *html.Node) bool {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
			b.WriteByte(' ')
		}
		return true
	})
	return strings.Join(strings.Fields(b.String()), " ")
}
