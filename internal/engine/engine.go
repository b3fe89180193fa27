package engine

import (
	"errors"
	"io"
)

// Kind represents token kinds from a generic source.
type Kind int

const (
	KindBeginObject Kind = iota
	KindEndObject
	KindBeginArray
	KindEndArray
	KindKey
	KindString
	KindNumber
	KindBool
	KindNull
)

// String returns the JSON type name used in issue messages.
func (k Kind) String() string {
	switch k {
	case KindBeginObject, KindEndObject:
		return "object"
	case KindBeginArray, KindEndArray:
		return "array"
	case KindKey:
		return "key"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "boolean"
	case KindNull:
		return "null"
	default:
		return "unknown"
	}
}

// Token represents a streaming token with approximate input offset.
type Token struct {
	Kind   Kind
	String string
	Number string
	Bool   bool
	Offset int64
}

// TokenSource is a minimal interface required by the engine.
type TokenSource interface {
	NextToken() (Token, error)
	Location() int64
}

// ErrUnbalanced is returned by SkipValue when a container closes with the
// wrong delimiter or a key appears outside an object.
var ErrUnbalanced = errors.New("engine: unbalanced token stream")

// SkipValue consumes the remainder of the value that starts with first.
// Scalars return immediately; objects and arrays are consumed up to and
// including their closing token. An io.EOF before the value completes is
// reported as io.ErrUnexpectedEOF.
func SkipValue(src TokenSource, first Token) error {
	var stack []Kind
	switch first.Kind {
	case KindBeginObject:
		stack = append(stack, KindEndObject)
	case KindBeginArray:
		stack = append(stack, KindEndArray)
	case KindString, KindNumber, KindBool, KindNull:
		return nil
	default:
		return ErrUnbalanced
	}
	for len(stack) > 0 {
		tok, err := src.NextToken()
		if err != nil {
			if err == io.EOF {
				return io.ErrUnexpectedEOF
			}
			return err
		}
		switch tok.Kind {
		case KindBeginObject:
			stack = append(stack, KindEndObject)
		case KindBeginArray:
			stack = append(stack, KindEndArray)
		case KindEndObject, KindEndArray:
			if stack[len(stack)-1] != tok.Kind {
				return ErrUnbalanced
			}
			stack = stack[:len(stack)-1]
		}
	}
	return nil
}
