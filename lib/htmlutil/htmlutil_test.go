package htmlutil

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func parse(t *testing.T, src string) *html.Node {
	node, err := html.Parse(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	return node
}

func TestCleanText(t *testing.T) {
	require.Equal(t, "School of Informatics", CleanText("  School \n\t of    Informatics  "))
	require.Equal(t, "a b", CleanText("a\x00\x00b"))
	require.Equal(t, "", CleanText("  \n "))
}

func TestGetText(t *testing.T) {
	root := parse(t, `<p>Hello <a href="x.htm">linked <b>world</b></a></p>`)
	require.Equal(t, "Hello linked world", GetText(root))
}

func TestFindTextNodes(t *testing.T) {
	root := parse(t, `<div><p>College of Science and Engineering</p><span>other</span></div>`)

	found := FindTextNodes(root, "College of Science")
	require.Len(t, found, 1)
	require.Equal(t, "p", found[0].Data)

	require.Empty(t, FindTextNodes(root, "College of Medicine"))
}

func TestPrecedingText(t *testing.T) {
	root := parse(t, `<div><h3>College of Arts</h3><ul id="target"><li>x</li></ul></div>`)

	var ul *html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "ul" {
			ul = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	require.NotNil(t, ul)

	before := PrecedingText(ul, 200)
	require.Contains(t, before, "College of Arts")
}

func TestGetAnchors(t *testing.T) {
	root := parse(t, `<ul><li><a href="cx_s_su210.htm">  School of   Divinity </a></li></ul>`)
	doc := goquery.NewDocumentFromNode(root)

	anchors := GetAnchors(doc.Find("a"))
	require.Len(t, anchors, 1)
	require.Equal(t, "School of Divinity", anchors[0].Name)
	require.Equal(t, "cx_s_su210.htm", anchors[0].Href)
}
