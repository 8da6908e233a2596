package document

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// RTFTokenizer reports table events from an RTF export. Rows are delimited by
// \trowd and \row, cells by \cell. Text is decoded through the document's
// ANSI code page and \uN escapes.
type RTFTokenizer struct {
	r      *bufio.Reader
	queue  []Token
	text   strings.Builder
	state  rtfGroup
	stack  []rtfGroup
	cp     *charmap.Charmap
	inRow  bool
	ucSkip int
	done   bool
	err    error
}

type rtfGroup struct {
	skip bool
	uc   int
}

// skippedDestinations are groups whose content is never cell text.
var skippedDestinations = map[string]bool{
	"fonttbl": true, "colortbl": true, "stylesheet": true, "info": true,
	"pict": true, "object": true, "fldinst": true, "header": true,
	"headerl": true, "headerr": true, "headerf": true, "footer": true,
	"footerl": true, "footerr": true, "footerf": true, "listtable": true,
	"listoverridetable": true, "rsidtbl": true, "generator": true,
	"xmlnstbl": true, "themedata": true, "colorschememapping": true,
	"datastore": true, "latentstyles": true, "pgdsctbl": true,
	"bkmkstart": true, "bkmkend": true, "footnote": true, "annotation": true,
}

var codePages = map[int]*charmap.Charmap{
	437:   charmap.CodePage437,
	850:   charmap.CodePage850,
	1250:  charmap.Windows1250,
	1251:  charmap.Windows1251,
	1252:  charmap.Windows1252,
	10000: charmap.Macintosh,
}

var symbolWords = map[string]string{
	"par": "\n", "line": "\n", "tab": "\t",
	"emdash": "—", "endash": "–", "bullet": "•",
	"lquote": "‘", "rquote": "’",
	"ldblquote": "“", "rdblquote": "”",
	"emspace": " ", "enspace": " ", "qmspace": " ",
}

// NewRTFTokenizer returns a tokenizer reading RTF from r.
func NewRTFTokenizer(r io.Reader) *RTFTokenizer {
	return &RTFTokenizer{
		r:     bufio.NewReader(SkipBOM(r)),
		state: rtfGroup{uc: 1},
		cp:    charmap.Windows1252,
	}
}

// Next implements Tokenizer.
func (t *RTFTokenizer) Next() (Token, error) {
	for len(t.queue) == 0 {
		if t.done {
			return Token{}, t.err
		}
		if err := t.step(); err != nil {
			t.finish(err)
		}
	}
	tok := t.queue[0]
	t.queue = t.queue[1:]
	return tok, nil
}

func (t *RTFTokenizer) finish(err error) {
	t.flushText()
	if t.inRow {
		t.queue = append(t.queue, Token{Kind: RowEnd})
		t.inRow = false
	}
	t.done = true
	if errors.Is(err, io.EOF) {
		t.err = io.EOF
		return
	}
	t.err = fmt.Errorf("read rtf: %w", err)
}

func (t *RTFTokenizer) flushText() {
	if t.text.Len() == 0 {
		return
	}
	t.queue = append(t.queue, Token{Kind: Text, Text: t.text.String()})
	t.text.Reset()
}

func (t *RTFTokenizer) structural(k Kind) {
	t.flushText()
	t.queue = append(t.queue, Token{Kind: k})
}

// writeRune appends cell text unless the current group is skipped, the
// character is consumed by a preceding \uN, or we are outside a row.
func (t *RTFTokenizer) writeRune(r rune) {
	if t.ucSkip > 0 {
		t.ucSkip--
		return
	}
	if t.state.skip || !t.inRow {
		return
	}
	t.text.WriteRune(r)
}

func (t *RTFTokenizer) step() error {
	b, err := t.r.ReadByte()
	if err != nil {
		return err
	}

	switch b {
	case '{':
		t.stack = append(t.stack, t.state)
		t.ucSkip = 0
	case '}':
		if n := len(t.stack); n > 0 {
			t.state = t.stack[n-1]
			t.stack = t.stack[:n-1]
		}
		t.ucSkip = 0
	case '\\':
		return t.control()
	case '\r', '\n':
	default:
		if b < 0x80 {
			t.writeRune(rune(b))
		} else {
			t.writeRune(t.cp.DecodeByte(b))
		}
	}
	return nil
}

func (t *RTFTokenizer) control() error {
	b, err := t.r.ReadByte()
	if err != nil {
		return err
	}

	if !isLetter(b) {
		return t.controlSymbol(b)
	}

	var word strings.Builder
	word.WriteByte(b)
	for {
		c, err := t.r.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}
		if isLetter(c) {
			word.WriteByte(c)
			continue
		}
		_ = t.r.UnreadByte()
		break
	}

	param, hasParam, err := t.readParam()
	if err != nil {
		return err
	}

	t.word(word.String(), param, hasParam)
	return nil
}

func (t *RTFTokenizer) readParam() (int, bool, error) {
	var num strings.Builder
	for {
		c, err := t.r.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return 0, false, err
		}
		if (c == '-' && num.Len() == 0) || (c >= '0' && c <= '9') {
			num.WriteByte(c)
			continue
		}
		// A single space delimits the control word and is not text.
		if c != ' ' {
			_ = t.r.UnreadByte()
		}
		break
	}
	if num.Len() == 0 || num.String() == "-" {
		return 0, false, nil
	}
	n, err := strconv.Atoi(num.String())
	if err != nil {
		return 0, false, nil
	}
	return n, true, nil
}

func (t *RTFTokenizer) controlSymbol(b byte) error {
	switch b {
	case '\\', '{', '}':
		t.writeRune(rune(b))
	case '~':
		t.writeRune(' ')
	case '_':
		t.writeRune('-')
	case '*':
		t.state.skip = true
	case '\r', '\n':
		t.writeRune('\n')
	case '\'':
		hex := make([]byte, 2)
		if _, err := io.ReadFull(t.r, hex); err != nil {
			return err
		}
		v, err := strconv.ParseUint(string(hex), 16, 8)
		if err != nil {
			return nil
		}
		t.writeRune(t.cp.DecodeByte(byte(v)))
	}
	return nil
}

func (t *RTFTokenizer) word(w string, param int, hasParam bool) {
	if t.ucSkip > 0 {
		t.ucSkip--
		return
	}

	switch w {
	case "ansicpg":
		if cp, ok := codePages[param]; ok {
			t.cp = cp
		}
		return
	case "uc":
		if hasParam && param >= 0 {
			t.state.uc = param
		}
		return
	}

	if skippedDestinations[w] {
		t.state.skip = true
		return
	}
	if t.state.skip {
		return
	}

	switch w {
	case "trowd":
		if !t.inRow {
			t.structural(RowStart)
			t.inRow = true
		}
	case "cell":
		if t.inRow {
			t.structural(CellEnd)
		}
	case "row":
		if t.inRow {
			t.structural(RowEnd)
			t.inRow = false
		}
	case "u":
		if hasParam {
			if param < 0 {
				param += 65536
			}
			t.writeRune(rune(param))
			t.ucSkip = t.state.uc
		}
	default:
		if s, ok := symbolWords[w]; ok {
			for _, r := range s {
				t.writeRune(r)
			}
		}
	}
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
