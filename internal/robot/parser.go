// Package robot reads Robot Framework output.xml reports into typed test
// counts and failed tests.
//
// The report is parsed eagerly into a small element tree; everything
// downstream works on models.TestRun and models.FailedTest only.
package robot

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/harrison/qatriage/internal/models"
)

const (
	elementTest   = "test"
	elementStatus = "status"
	attrName      = "name"
	attrStatus    = "status"
	statusFail    = "FAIL"
)

// ParseError reports a document that could not be parsed. It is fatal: no
// partial result accompanies it.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse report: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Report is the typed content of one output.xml document.
type Report struct {
	Run         models.TestRun
	FailedTests []models.FailedTest
}

// MessageCount returns the total number of failure messages across tests.
func (r *Report) MessageCount() int {
	n := 0
	for _, t := range r.FailedTests {
		n += len(t.Messages)
	}
	return n
}

// element is a generic XML node. Text holds only the character data placed
// directly inside the element.
type element struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Text     string     `xml:",chardata"`
	Children []element  `xml:",any"`
}

func (e *element) attr(name string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

// ownStatus returns the first direct status child.
func (e *element) ownStatus() *element {
	for i := range e.Children {
		if e.Children[i].XMLName.Local == elementStatus {
			return &e.Children[i]
		}
	}
	return nil
}

func (e *element) failed() bool {
	v, _ := e.attr(attrStatus)
	return v == statusFail
}

// ParseReader reads the whole document from r and parses it.
func ParseReader(r io.Reader) (*Report, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}
	return Parse(data)
}

// Parse parses an output.xml document.
//
// Every test element anywhere under the root is counted. A test is failed
// when its own status is FAIL; its messages are the non-empty texts of FAIL
// statuses nested in its keywords, in document order. When a failed test
// carries no keyword message, the text of its own status is used instead.
func Parse(data []byte) (*Report, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &ParseError{Err: fmt.Errorf("empty document")}
	}

	root, err := decodeDocument(data)
	if err != nil {
		return nil, &ParseError{Err: err}
	}

	report := &Report{FailedTests: []models.FailedTest{}}
	collectTests(root, report)
	report.Run.Passed = report.Run.Total - report.Run.Failed

	return report, nil
}

// decodeDocument decodes the single root element of data. Only comments,
// processing instructions, directives and whitespace may surround it.
func decodeDocument(data []byte) (*element, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))

	var root *element
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if root != nil {
				return nil, fmt.Errorf("unexpected element <%s> after root element", t.Name.Local)
			}
			var e element
			if err := dec.DecodeElement(&e, &t); err != nil {
				return nil, err
			}
			root = &e
		case xml.CharData:
			if len(bytes.TrimSpace(t)) > 0 {
				return nil, fmt.Errorf("unexpected text %q outside root element", truncate(string(bytes.TrimSpace(t)), 40))
			}
		}
	}

	if root == nil {
		return nil, fmt.Errorf("no root element")
	}
	return root, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// collectTests walks the tree and records every test element it finds.
// Tests do not nest, so the walk stops descending at a test.
func collectTests(e *element, report *Report) {
	if e.XMLName.Local == elementTest {
		report.Run.Total++
		if ft, ok := failedTest(e); ok {
			report.Run.Failed++
			report.FailedTests = append(report.FailedTests, ft)
		}
		return
	}

	for i := range e.Children {
		collectTests(&e.Children[i], report)
	}
}

func failedTest(test *element) (models.FailedTest, bool) {
	own := test.ownStatus()
	if own == nil || !own.failed() {
		return models.FailedTest{}, false
	}

	name, ok := test.attr(attrName)
	if !ok || strings.TrimSpace(name) == "" {
		name = models.UnnamedTest
	}

	messages := []string{}
	for i := range test.Children {
		child := &test.Children[i]
		if child == own {
			continue
		}
		messages = appendFailMessages(child, messages)
	}

	if len(messages) == 0 {
		if text := strings.TrimSpace(own.Text); text != "" {
			messages = append(messages, text)
		}
	}

	return models.FailedTest{Name: name, Messages: messages}, true
}

// appendFailMessages appends the FAIL status texts found at or below e.
func appendFailMessages(e *element, messages []string) []string {
	if e.XMLName.Local == elementStatus {
		if e.failed() {
			if text := strings.TrimSpace(e.Text); text != "" {
				messages = append(messages, text)
			}
		}
	}

	for i := range e.Children {
		messages = appendFailMessages(&e.Children[i], messages)
	}
	return messages
}
