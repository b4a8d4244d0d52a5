package content

import (
	"errors"
	"fmt"
	"io"
)

// Parse splits a decoded content stream into operations. Inline images are
// reported as a single BI operation whose only operand is the image dictionary.
func Parse(data []byte) ([]Operation, error) {
	lexer := NewLexer(data)
	var ops []Operation
	var operands []Object

	for {
		obj, err := lexer.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse content stream: %w", err)
		}

		kw, ok := obj.(Keyword)
		if !ok {
			operands = append(operands, obj)
			continue
		}

		if kw == "BI" {
			dict, err := readInlineImage(lexer)
			if err != nil {
				return nil, fmt.Errorf("parse content stream: %w", err)
			}
			ops = append(ops, Operation{Operator: "BI", Operands: []Object{dict}})
			operands = nil
			continue
		}

		ops = append(ops, Operation{Operator: string(kw), Operands: operands})
		operands = nil
	}

	return ops, nil
}

func readInlineImage(lexer *Lexer) (Dict, error) {
	dict := Dict{}
	for {
		key, err := lexer.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("inline image: %w", ErrUnterminated)
			}
			return nil, err
		}
		if kw, ok := key.(Keyword); ok && kw == "ID" {
			if _, err := lexer.readInlineImageData(); err != nil {
				return nil, err
			}
			return dict, nil
		}
		val, err := lexer.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("inline image: %w", ErrUnterminated)
			}
			return nil, err
		}
		if name, ok := key.(Name); ok {
			dict[string(name)] = val
		}
	}
}
