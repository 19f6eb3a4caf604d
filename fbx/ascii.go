package fbx

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/timtadh/lexmachine"
	"github.com/timtadh/lexmachine/machines"

	"github.com/mogaika/sceneimport/importer"
)

const (
	tokenName = iota
	tokenIdent
	tokenNumber
	tokenString
	tokenStar
	tokenComma
	tokenLBrace
	tokenRBrace
)

var asciiLexer *lexmachine.Lexer

func init() {
	asciiLexer = lexmachine.NewLexer()
	asciiLexer.Add([]byte(`;[^\n]*`), skipToken)
	asciiLexer.Add([]byte(`[ \t\r\n]+`), skipToken)
	asciiLexer.Add([]byte(`[a-zA-Z_][a-zA-Z0-9_]*[ \t]*:`), getToken(tokenName))
	asciiLexer.Add([]byte(`[a-zA-Z_][a-zA-Z0-9_]*`), getToken(tokenIdent))
	asciiLexer.Add([]byte(`[\+\-]?([0-9]+\.?[0-9]*|\.[0-9]+)([eE][\+\-]?[0-9]+)?`), getToken(tokenNumber))
	asciiLexer.Add([]byte(`"[^"]*"`), getToken(tokenString))
	asciiLexer.Add([]byte(`\*[0-9]+`), getToken(tokenStar))
	asciiLexer.Add([]byte(`,`), getToken(tokenComma))
	asciiLexer.Add([]byte(`\{`), getToken(tokenLBrace))
	asciiLexer.Add([]byte(`\}`), getToken(tokenRBrace))
	if err := asciiLexer.Compile(); err != nil {
		panic(err)
	}
}

func getToken(tokenType int) lexmachine.Action {
	return func(s *lexmachine.Scanner, m *machines.Match) (interface{}, error) {
		return s.Token(tokenType, string(m.Bytes), m), nil
	}
}

func skipToken(scan *lexmachine.Scanner, match *machines.Match) (interface{}, error) {
	return nil, nil
}

type asciiParser struct {
	root  *Node
	stack []*Node
	last  *Node

	pendingArray bool
	arrayOwner   *Node
	arrayCount   int
	arrayInts    []int64
	arrayFloats  []float64
	arrayIsInt   bool
}

// ParseASCII tokenizes a text FBX document into the same generic tree
// shape the binary front-end produces.
func ParseASCII(data []byte) (*Node, uint32, error) {
	scanner, err := asciiLexer.Scanner(data)
	if err != nil {
		return nil, 0, errors.Wrapf(err, "Failed to create lexer scanner")
	}

	p := &asciiParser{root: NewNode("")}
	p.stack = append(p.stack, p.root)

	for itok, err, eos := scanner.Next(); !eos; itok, err, eos = scanner.Next() {
		if err != nil {
			return nil, 0, importer.Structuralf("fbx", "lexer error: %v", err)
		}
		if err := p.feed(itok.(*lexmachine.Token)); err != nil {
			return nil, 0, err
		}
	}
	if len(p.stack) != 1 {
		return nil, 0, importer.Structuralf("fbx", "unbalanced braces: %d unclosed nodes", len(p.stack)-1)
	}

	version := uint32(p.root.Get("FBXHeaderExtension").ChildInt64("FBXVersion", 0))
	if version < 7000 {
		return nil, version, importer.Formatf("fbx", "unsupported ascii FBXVersion %d (need >= 7000)", version)
	}
	return p.root, version, nil
}

func (p *asciiParser) top() *Node {
	return p.stack[len(p.stack)-1]
}

func (p *asciiParser) feed(tok *lexmachine.Token) error {
	lexeme := string(tok.Lexeme)

	switch tok.Type {
	case tokenName:
		name := strings.TrimSpace(strings.TrimSuffix(lexeme, ":"))
		if p.arrayOwner != nil {
			if name != "a" {
				return importer.Structuralf("fbx", "unexpected %q inside array block on line %d", lexeme, tok.StartLine)
			}
			return nil
		}
		node := NewNode(name)
		p.top().AddChild(node)
		p.last = node

	case tokenNumber:
		if i, err := strconv.ParseInt(lexeme, 10, 64); err == nil {
			p.pushValue(i, float64(i), true)
			return nil
		}
		f, err := strconv.ParseFloat(lexeme, 64)
		if err != nil {
			return importer.Structuralf("fbx", "bad number %q on line %d", lexeme, tok.StartLine)
		}
		p.pushValue(int64(f), f, false)

	case tokenString:
		if p.last == nil {
			return importer.Structuralf("fbx", "value without a node on line %d", tok.StartLine)
		}
		p.last.Properties = append(p.last.Properties, strings.Trim(lexeme, `"`))

	case tokenIdent:
		if p.last == nil {
			return importer.Structuralf("fbx", "value without a node on line %d", tok.StartLine)
		}
		// single-letter booleans written by some exporters
		switch lexeme {
		case "T", "Y":
			p.last.Properties = append(p.last.Properties, true)
		case "N", "F":
			p.last.Properties = append(p.last.Properties, false)
		default:
			p.last.Properties = append(p.last.Properties, lexeme)
		}

	case tokenStar:
		count, _ := strconv.Atoi(lexeme[1:])
		p.pendingArray = true
		p.arrayCount = count

	case tokenLBrace:
		if p.pendingArray {
			p.pendingArray = false
			p.arrayOwner = p.last
			p.arrayInts = make([]int64, 0, p.arrayCount)
			p.arrayFloats = make([]float64, 0, p.arrayCount)
			p.arrayIsInt = true
		} else {
			if p.last == nil {
				return importer.Structuralf("fbx", "block without a node on line %d", tok.StartLine)
			}
			p.stack = append(p.stack, p.last)
		}

	case tokenRBrace:
		if p.arrayOwner != nil {
			p.finishArray()
		} else {
			if len(p.stack) <= 1 {
				return importer.Structuralf("fbx", "unbalanced closing brace on line %d", tok.StartLine)
			}
			p.stack = p.stack[:len(p.stack)-1]
			p.last = nil
		}

	case tokenComma:
	}
	return nil
}

func (p *asciiParser) pushValue(i int64, f float64, isInt bool) {
	if p.arrayOwner != nil {
		p.arrayInts = append(p.arrayInts, i)
		p.arrayFloats = append(p.arrayFloats, f)
		if !isInt {
			p.arrayIsInt = false
		}
		return
	}
	if p.last == nil {
		return
	}
	if isInt {
		p.last.Properties = append(p.last.Properties, i)
	} else {
		p.last.Properties = append(p.last.Properties, f)
	}
}

// integer sequences stay integer arrays so index buffers survive the
// round trip, anything with a fractional sample becomes float64
func (p *asciiParser) finishArray() {
	if p.arrayIsInt {
		p.arrayOwner.Properties = append(p.arrayOwner.Properties, p.arrayInts)
	} else {
		p.arrayOwner.Properties = append(p.arrayOwner.Properties, p.arrayFloats)
	}
	p.arrayOwner = nil
	p.arrayInts = nil
	p.arrayFloats = nil
}
