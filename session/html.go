package session

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

var (
	ErrFormNotFound  = errors.New("form not found")
	ErrLinkNotFound  = errors.New("link not found")
	ErrInputNotFound = errors.New("input not found")
)

func parseHTML(r io.Reader) (*html.Node, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}
	return doc, nil
}

// findFirst walks the tree depth first and returns the first element with
// the given tag for which match returns true.
func findFirst(n *html.Node, tag string, match func(*html.Node) bool) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag && (match == nil || match(n)) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, tag, match); found != nil {
			return found
		}
	}
	return nil
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val, true
		}
	}
	return "", false
}

// formAction returns the action of the first form on the page.
func formAction(doc *html.Node) (string, error) {
	form := findFirst(doc, "form", nil)
	if form == nil {
		return "", ErrFormNotFound
	}
	action, ok := attr(form, "action")
	if !ok {
		return "", fmt.Errorf("%w: form has no action", ErrFormNotFound)
	}
	return action, nil
}

// linkHref returns the href of the first anchor on the page.
func linkHref(doc *html.Node) (string, error) {
	a := findFirst(doc, "a", func(n *html.Node) bool {
		_, ok := attr(n, "href")
		return ok
	})
	if a == nil {
		return "", ErrLinkNotFound
	}
	href, _ := attr(a, "href")
	return href, nil
}

// inputValue returns the value of the first input with the given name.
func inputValue(doc *html.Node, name string) (string, error) {
	input := findFirst(doc, "input", func(n *html.Node) bool {
		v, ok := attr(n, "name")
		return ok && v == name
	})
	if input == nil {
		return "", fmt.Errorf("%w: %s", ErrInputNotFound, name)
	}
	value, _ := attr(input, "value")
	return value, nil
}
