// only the href of <a> tags is extracted, in document order
// duplicates are kept, the listing decides what they mean
package analyzer

import (
	"io"

	"github.com/PuerkitoBio/goquery"
)

type SimpleAnalyzer struct{}

func NewSimpleAnalyzer() Analyzer {
	return &SimpleAnalyzer{}
}

func (a *SimpleAnalyzer) Analyze(body io.Reader) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, err
	}

	var hrefs []string
	doc.Find("a").Each(func(index int, element *goquery.Selection) {
		href, exists := element.Attr("href")
		if exists && href != "" {
			hrefs = append(hrefs, href)
		}
	})
	return hrefs, nil
}
