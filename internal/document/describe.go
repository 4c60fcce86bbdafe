package document

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"golang.org/x/net/html"
)

// summaryWords caps the plain-text summary carried in snapshots.
const summaryWords = 60

// Description is the explanatory panel shown beside a visual: rendered
// markdown plus a plain-text summary for the document snapshot.
type Description struct {
	HTML template.HTML
	Text string
}

// DescribeData loads the description for a dataset. An explicit
// override file wins; otherwise a README.md beside the data path is
// used when present. A missing default README is not an error, a
// missing override is.
func DescribeData(dataPath, override string) (Description, error) {
	path := override
	if path == "" {
		path = filepath.Join(filepath.Dir(filepath.Clean(dataPath)), "README.md")
	}
	src, err := os.ReadFile(path)
	if err != nil {
		if override == "" && os.IsNotExist(err) {
			return Description{}, nil
		}
		return Description{}, fmt.Errorf("read description %s: %w", path, err)
	}
	return renderDescription(src)
}

func renderDescription(src []byte) (Description, error) {
	var buf bytes.Buffer
	if err := goldmark.New().Convert(src, &buf); err != nil {
		return Description{}, fmt.Errorf("render markdown: %w", err)
	}
	return Description{
		HTML: template.HTML(buf.String()),
		Text: summarize(buf.Bytes(), summaryWords),
	}, nil
}

// summarize flattens rendered HTML to its first maxWords words of
// visible text.
func summarize(fragment []byte, maxWords int) string {
	doc, err := html.Parse(bytes.NewReader(fragment))
	if err != nil {
		return ""
	}
	var words []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style":
				return
			}
		}
		if n.Type == html.TextNode {
			words = append(words, strings.Fields(n.Data)...)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	if len(words) > maxWords {
		words = append(words[:maxWords], "...")
	}
	return strings.Join(words, " ")
}
