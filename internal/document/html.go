package document

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/net/html/charset"
)

// HTMLTokenizer reports table events from an HTML export. It streams through
// the markup with the x/net tokenizer and never builds a DOM, so cells are
// closed implicitly when a new cell or row begins without an end tag.
type HTMLTokenizer struct {
	z       *html.Tokenizer
	queue   []Token
	inRow   bool
	inCell  bool
	skip    int
	done    bool
	lastErr error
}

// NewHTMLTokenizer decodes r using the charset declared by the document
// (falling back to UTF-8) and returns a tokenizer over it. An empty body
// yields a tokenizer that reports io.EOF straight away.
func NewHTMLTokenizer(r io.Reader) (*HTMLTokenizer, error) {
	br := bufio.NewReader(r)
	if _, err := br.Peek(1); err != nil {
		if errors.Is(err, io.EOF) {
			return &HTMLTokenizer{z: html.NewTokenizer(SanitizeUTF8(br))}, nil
		}
		return nil, fmt.Errorf("read html: %w", err)
	}

	decoded, err := charset.NewReader(br, "text/html")
	if err != nil {
		return nil, fmt.Errorf("detect html charset: %w", err)
	}
	return &HTMLTokenizer{z: html.NewTokenizer(SanitizeUTF8(decoded))}, nil
}

// Next implements Tokenizer.
func (t *HTMLTokenizer) Next() (Token, error) {
	for len(t.queue) == 0 {
		if t.done {
			return Token{}, t.lastErr
		}
		t.step()
	}
	tok := t.queue[0]
	t.queue = t.queue[1:]
	return tok, nil
}

func (t *HTMLTokenizer) emit(k Kind, text string) {
	t.queue = append(t.queue, Token{Kind: k, Text: text})
}

func (t *HTMLTokenizer) closeCell() {
	if t.inCell {
		t.emit(CellEnd, "")
		t.inCell = false
	}
}

func (t *HTMLTokenizer) closeRow() {
	t.closeCell()
	if t.inRow {
		t.emit(RowEnd, "")
		t.inRow = false
	}
}

func (t *HTMLTokenizer) step() {
	tt := t.z.Next()
	switch tt {
	case html.ErrorToken:
		t.closeRow()
		t.done = true
		t.lastErr = t.z.Err()
		if !errors.Is(t.lastErr, io.EOF) {
			t.lastErr = fmt.Errorf("read html: %w", t.lastErr)
		}

	case html.StartTagToken, html.SelfClosingTagToken:
		name, _ := t.z.TagName()
		switch atom.Lookup(name) {
		case atom.Script, atom.Style:
			if tt == html.StartTagToken {
				t.skip++
			}
		case atom.Tr:
			t.closeRow()
			t.emit(RowStart, "")
			t.inRow = true
		case atom.Td, atom.Th:
			t.closeCell()
			if !t.inRow {
				t.emit(RowStart, "")
				t.inRow = true
			}
			t.inCell = true
		case atom.Br, atom.P:
			if t.inCell && t.skip == 0 {
				t.emit(Text, "\n")
			}
		}

	case html.EndTagToken:
		name, _ := t.z.TagName()
		switch atom.Lookup(name) {
		case atom.Script, atom.Style:
			if t.skip > 0 {
				t.skip--
			}
		case atom.Td, atom.Th:
			t.closeCell()
		case atom.Tr, atom.Table, atom.Tbody, atom.Thead, atom.Tfoot:
			t.closeRow()
		}

	case html.TextToken:
		if t.inCell && t.skip == 0 {
			t.emit(Text, string(t.z.Text()))
		}
	}
}
