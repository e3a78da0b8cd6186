package htmlutil

import (
	"bytes"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

var innerWhitespace = regexp.MustCompile(`\s\s+`)

// CleanText strips non-printable runes, trims the ends and collapses
// runs of inner whitespace into a single space.
func CleanText(s string) string {
	newStr := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) {
			newStr.WriteRune(c)
		} else {
			newStr.WriteRune(' ')
		}
	}
	out := strings.Trim(newStr.String(), " \t\n")
	return innerWhitespace.ReplaceAllString(out, " ")
}

type Anchor struct {
	Name string
	Href string
}

func GetAnchors(sel *goquery.Selection) []Anchor {
	anchors := []Anchor{}
	for _, n := range sel.Nodes {
		href := ""
		for _, a := range n.Attr {
			if a.Key == "href" {
				href = a.Val
				break
			}
		}
		anchors = append(anchors, Anchor{
			Name: CleanText(GetText(n)),
			Href: href,
		})
	}
	return anchors
}

// FindTextNodes walks the tree under root and returns the parent element of
// every text node whose contents include substr.
func FindTextNodes(root *html.Node, substr string) []*html.Node {
	var found []*html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n == nil {
			return
		}
		if n.Type == html.TextNode && strings.Contains(n.Data, substr) {
			if n.Parent != nil {
				found = append(found, n.Parent)
			}
			return
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(root)
	return found
}

// PrecedingText collects document-order text immediately before node, walking
// previous siblings and then up through parents until limit runes have been
// gathered. Used to attribute a list to whatever heading precedes it.
func PrecedingText(node *html.Node, limit int) string {
	var parts []string
	total := 0

	cur := node
	for cur != nil && total < limit {
		prev := cur.PrevSibling
		for prev != nil && total < limit {
			text := GetText(prev)
			if text != "" {
				parts = append(parts, text)
				total += len(text)
			}
			prev = prev.PrevSibling
		}
		cur = cur.Parent
	}

	// parts were collected nearest-first, rebuild in document order
	var buffer bytes.Buffer
	for i := len(parts) - 1; i >= 0; i-- {
		buffer.WriteString(parts[i])
	}
	return buffer.String()
}

// AncestorText returns the text of the nearest ancestor, widening upward
// until pred matches or the root is reached. Returns "" when nothing matches.
func AncestorText(node *html.Node, pred func(text string) bool) string {
	cur := node.Parent
	for cur != nil {
		text := GetText(cur)
		if pred(text) {
			return text
		}
		cur = cur.Parent
	}
	return ""
}
