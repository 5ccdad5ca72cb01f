package compiler

import (
	"go/token"
	"strconv"
	"strings"

	"github.com/roach88/bindgen/internal/ir"
)

// Directive prefixes recognised in comments.
const (
	DirectivePrefix = "//bindgen:"
	FnDirective     = "//bindgen:fn"
)

// Directive keys.
const (
	keyName      = "name"
	keyGet       = "get"
	keySet       = "set"
	keyPure      = "pure"
	keyReturnRaw = "return_raw"
	keySkip      = "skip"
	keyGlobal    = "global"
	keyInternal  = "internal"
	keyPublic    = "public"
	keyPrivate   = "private"
)

var valuedKeys = map[string]bool{keyName: true, keyGet: true, keySet: true}

var flagKeys = map[string]bool{
	keyPure:      true,
	keyReturnRaw: true,
	keySkip:      true,
	keyGlobal:    true,
	keyInternal:  true,
	keyPublic:    true,
	keyPrivate:   true,
}

// FnParams is the parsed content of one //bindgen:fn directive.
// Zero values mean "not specified".
type FnParams struct {
	Name      string
	Get       string
	Set       string
	Pure      bool
	ReturnRaw bool
	Skip      bool
	Access    ir.Access
	Namespace ir.Namespace
	Pos       token.Position
}

// IsDirective reports whether a comment line is a bindgen directive of any kind.
func IsDirective(text string) bool {
	return strings.HasPrefix(text, DirectivePrefix)
}

// ParseDirective parses the text of a //bindgen:fn comment. pos is the
// position of the comment and is used to locate errors within it.
func ParseDirective(text string, pos token.Position) (*FnParams, error) {
	rest, ok := strings.CutPrefix(text, FnDirective)
	if !ok || (rest != "" && rest[0] != ' ' && rest[0] != '\t') {
		name, _, _ := strings.Cut(strings.TrimPrefix(text, "//"), " ")
		return nil, errorAt(pos, "directive", "unknown directive %q", name)
	}

	p := &FnParams{Pos: pos}
	seen := make(map[string]bool)
	s := &directiveScanner{src: rest, base: pos, offset: len(FnDirective)}

	for {
		s.skipSeparators()
		if s.done() {
			break
		}
		keyPos := s.pos()
		key := s.ident()
		if key == "" {
			return nil, errorAt(keyPos, "directive", "unexpected character %q", s.peek())
		}
		if !valuedKeys[key] && !flagKeys[key] {
			return nil, errorAt(keyPos, "directive", "unknown key %q", key)
		}
		if seen[key] {
			return nil, errorAt(keyPos, "directive", "duplicate key %q", key)
		}
		seen[key] = true

		s.skipSpaces()
		hasValue := s.peek() == '='
		if flagKeys[key] {
			if hasValue {
				return nil, errorAt(keyPos, "directive", "key %q does not take a value", key)
			}
			p.setFlag(key)
			continue
		}
		if !hasValue {
			return nil, errorAt(keyPos, "directive", "key %q requires a value", key)
		}
		s.advance(1)
		s.skipSpaces()
		valPos := s.pos()
		val, err := s.quoted()
		if err != nil {
			return nil, errorAt(valPos, "directive", "value of %q: %v", key, err)
		}
		if val == "" {
			return nil, errorAt(valPos, "directive", "value of %q must not be empty", key)
		}
		switch key {
		case keyName:
			p.Name = val
		case keyGet:
			p.Get = val
		case keySet:
			p.Set = val
		}
	}

	if err := checkDirectiveConflicts(seen, pos); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *FnParams) setFlag(key string) {
	switch key {
	case keyPure:
		p.Pure = true
	case keyReturnRaw:
		p.ReturnRaw = true
	case keySkip:
		p.Skip = true
	case keyGlobal:
		p.Namespace = ir.NamespaceGlobal
	case keyInternal:
		p.Namespace = ir.NamespaceInternal
	case keyPublic:
		p.Access = ir.AccessPublic
	case keyPrivate:
		p.Access = ir.AccessPrivate
	}
}

func checkDirectiveConflicts(seen map[string]bool, pos token.Position) error {
	pairs := [][2]string{
		{keyGet, keySet},
		{keyPublic, keyPrivate},
		{keyGlobal, keyInternal},
	}
	for _, pair := range pairs {
		if seen[pair[0]] && seen[pair[1]] {
			return errorAt(pos, "directive", "%q and %q are mutually exclusive", pair[0], pair[1])
		}
	}
	if seen[keySkip] && len(seen) > 1 {
		return errorAt(pos, "directive", "%q cannot be combined with other keys", keySkip)
	}
	return nil
}

type directiveScanner struct {
	src    string
	i      int
	base   token.Position
	offset int
}

func (s *directiveScanner) done() bool { return s.i >= len(s.src) }

func (s *directiveScanner) peek() byte {
	if s.done() {
		return 0
	}
	return s.src[s.i]
}

func (s *directiveScanner) advance(n int) { s.i += n }

func (s *directiveScanner) pos() token.Position {
	p := s.base
	if p.IsValid() {
		p.Column += s.offset + s.i
		p.Offset += s.offset + s.i
	}
	return p
}

func (s *directiveScanner) skipSpaces() {
	for !s.done() && (s.peek() == ' ' || s.peek() == '\t') {
		s.i++
	}
}

func (s *directiveScanner) skipSeparators() {
	for !s.done() && (s.peek() == ' ' || s.peek() == '\t' || s.peek() == ',') {
		s.i++
	}
}

func (s *directiveScanner) ident() string {
	start := s.i
	for !s.done() {
		c := s.peek()
		if c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || (s.i > start && '0' <= c && c <= '9') {
			s.i++
			continue
		}
		break
	}
	return s.src[start:s.i]
}

func (s *directiveScanner) quoted() (string, error) {
	if s.peek() != '"' {
		return "", errMissingQuote
	}
	lit, err := strconv.QuotedPrefix(s.src[s.i:])
	if err != nil {
		return "", errUnterminated
	}
	s.i += len(lit)
	return strconv.Unquote(lit)
}

type scanError string

func (e scanError) Error() string { return string(e) }

const (
	errMissingQuote = scanError("expected a double-quoted string")
	errUnterminated = scanError("unterminated or malformed string")
)
