// Package resolver loads euolaVM's line-oriented textual assembly
// dialect: tokenizer, function-section splitter, opcode table, literal
// decoder, and the parallel linker that registers each section into a
// context.Context's function registry.
package resolver

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/sisungo/euola-vm/vm/context"
	"github.com/sisungo/euola-vm/vm/isa"
	"golang.org/x/sync/errgroup"
)

// Resolve reads path and links its function sections into ctx.
func Resolve(ctx *context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return err
	}
	return ResolveParsed(ctx, lines)
}

// ResolveParsed splits pre-read lines into function sections and links
// them into ctx. Nesting `|> name` sections is forbidden.
func ResolveParsed(ctx *context.Context, lines []string) error {
	sections := make(map[string][][]string)
	var order []string
	var current string
	inSection := false

	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, "|>"):
			if inSection {
				return fmt.Errorf("syntax error: nested function section")
			}
			name := strings.TrimSpace(strings.TrimPrefix(line, "|>"))
			current = name
			inSection = true
			if _, exists := sections[name]; !exists {
				order = append(order, name)
			}
			sections[name] = nil
		case line == "<|":
			inSection = false
		case line == "" || strings.HasPrefix(line, ";"):
			continue
		default:
			if !inSection {
				return fmt.Errorf("syntax error: instruction outside function section")
			}
			sections[current] = append(sections[current], tokens(line))
		}
	}

	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)
	for _, name := range order {
		name := name
		toks := sections[name]
		g.Go(func() error {
			if err := ResolveFn(ctx, name, toks); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	g.Wait()
	return errors.Join(errs...)
}

// ResolveFn lowers one function section's already-tokenized lines into
// a frozen isa.VirtFuncPtr and registers it under name.
func ResolveFn(ctx *context.Context, name string, lines [][]string) error {
	result := make(isa.VirtFuncPtr, 0, len(lines))
	for _, toks := range lines {
		if len(toks) == 0 {
			continue
		}
		instr, err := assemble(toks)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		result = append(result, instr)
	}
	ctx.Functions.PutVirtual(name, result)
	return nil
}

func need(toks []string, i int) (string, error) {
	if i >= len(toks) {
		return "", fmt.Errorf("syntax error: missing arguments or argument is invalid")
	}
	return toks[i], nil
}

func needInt(toks []string, i int) (int, error) {
	s, err := need(toks, i)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	return n, nil
}

func assemble(toks []string) (isa.Instruction, error) {
	op := toks[0]
	switch op {
	case "N":
		slot, err := needInt(toks, 1)
		if err != nil {
			return isa.Instruction{}, err
		}
		typeTag, err := need(toks, 2)
		if err != nil {
			return isa.Instruction{}, err
		}
		v, err := DecodeLiteral(typeTag, "N")
		if err != nil {
			return isa.Instruction{}, err
		}
		return isa.Instruction{Op: isa.OpSetConstant, A: slot, Const: v}, nil
	case "v":
		slot, err := needInt(toks, 1)
		if err != nil {
			return isa.Instruction{}, err
		}
		typeTag, err := need(toks, 2)
		if err != nil {
			return isa.Instruction{}, err
		}
		payload, err := need(toks, 3)
		if err != nil {
			return isa.Instruction{}, err
		}
		v, err := DecodeLiteral(typeTag, payload)
		if err != nil {
			return isa.Instruction{}, err
		}
		return isa.Instruction{Op: isa.OpSetConstant, A: slot, Const: v}, nil
	case "d":
		slot, err := needInt(toks, 1)
		if err != nil {
			return isa.Instruction{}, err
		}
		typeTag, err := need(toks, 2)
		if err != nil {
			return isa.Instruction{}, err
		}
		payload, err := need(toks, 3)
		if err != nil {
			return isa.Instruction{}, err
		}
		return isa.Instruction{Op: isa.OpDynSetConstant, A: slot, TypeTag: typeTag, Payload: payload}, nil
	case "?":
		a, b, err := two(toks)
		return isa.Instruction{Op: isa.OpIsNull, A: a, B: b}, err
	case "g":
		name, err := need(toks, 1)
		if err != nil {
			return isa.Instruction{}, err
		}
		slot, err := needInt(toks, 2)
		if err != nil {
			return isa.Instruction{}, err
		}
		return isa.Instruction{Op: isa.OpGetStatic, Name: name, A: slot}, nil
	case "s":
		name, err := need(toks, 1)
		if err != nil {
			return isa.Instruction{}, err
		}
		slot, err := needInt(toks, 2)
		if err != nil {
			return isa.Instruction{}, err
		}
		return isa.Instruction{Op: isa.OpSetStatic, Name: name, A: slot}, nil
	case "G":
		a, err := needInt(toks, 1)
		if err != nil {
			return isa.Instruction{}, err
		}
		key, err := need(toks, 2)
		if err != nil {
			return isa.Instruction{}, err
		}
		c, err := needInt(toks, 3)
		if err != nil {
			return isa.Instruction{}, err
		}
		return isa.Instruction{Op: isa.OpGetField, A: a, Name: key, C: c}, nil
	case "S":
		a, err := needInt(toks, 1)
		if err != nil {
			return isa.Instruction{}, err
		}
		key, err := need(toks, 2)
		if err != nil {
			return isa.Instruction{}, err
		}
		c, err := needInt(toks, 3)
		if err != nil {
			return isa.Instruction{}, err
		}
		return isa.Instruction{Op: isa.OpSetField, A: a, Name: key, C: c}, nil
	case "[":
		a, b, c, err := three(toks)
		return isa.Instruction{Op: isa.OpOffsetGet, A: a, B: b, C: c}, err
	case "]":
		a, b, c, err := three(toks)
		return isa.Instruction{Op: isa.OpOffsetSet, A: a, B: b, C: c}, err
	case "T":
		a, b, err := two(toks)
		return isa.Instruction{Op: isa.OpGetTypeID, A: a, B: b}, err
	case "L":
		a, b, err := two(toks)
		return isa.Instruction{Op: isa.OpGetLength, A: a, B: b}, err
	case "D":
		a, b, err := two(toks)
		return isa.Instruction{Op: isa.OpDuplicate, A: a, B: b}, err
	case "t":
		a, b, c, err := three(toks)
		return isa.Instruction{Op: isa.OpTransmute, A: a, B: b, C: c}, err
	case "+":
		a, b, c, err := three(toks)
		return isa.Instruction{Op: isa.OpAdd, A: a, B: b, C: c}, err
	case "-":
		a, b, c, err := three(toks)
		return isa.Instruction{Op: isa.OpSub, A: a, B: b, C: c}, err
	case "*":
		a, b, c, err := three(toks)
		return isa.Instruction{Op: isa.OpMul, A: a, B: b, C: c}, err
	case "/":
		a, b, c, err := three(toks)
		return isa.Instruction{Op: isa.OpDiv, A: a, B: b, C: c}, err
	case "%":
		a, b, c, err := three(toks)
		return isa.Instruction{Op: isa.OpRem, A: a, B: b, C: c}, err
	case "&":
		a, b, c, err := three(toks)
		return isa.Instruction{Op: isa.OpAnd, A: a, B: b, C: c}, err
	case "|":
		a, b, c, err := three(toks)
		return isa.Instruction{Op: isa.OpOr, A: a, B: b, C: c}, err
	case "!":
		a, b, err := two(toks)
		return isa.Instruction{Op: isa.OpNot, A: a, B: b}, err
	case "^":
		a, b, c, err := three(toks)
		return isa.Instruction{Op: isa.OpXor, A: a, B: b, C: c}, err
	case "l":
		a, b, c, err := three(toks)
		return isa.Instruction{Op: isa.OpShl, A: a, B: b, C: c}, err
	case "R":
		a, b, c, err := three(toks)
		return isa.Instruction{Op: isa.OpShr, A: a, B: b, C: c}, err
	case "=":
		a, b, c, err := three(toks)
		return isa.Instruction{Op: isa.OpEqual, A: a, B: b, C: c}, err
	case ">":
		a, b, c, err := three(toks)
		return isa.Instruction{Op: isa.OpMt, A: a, B: b, C: c}, err
	case "<":
		a, b, c, err := three(toks)
		return isa.Instruction{Op: isa.OpLt, A: a, B: b, C: c}, err
	case "J":
		target, err := needInt(toks, 1)
		return isa.Instruction{Op: isa.OpJmp, A: target}, err
	case "j":
		a, target, err := two(toks)
		return isa.Instruction{Op: isa.OpJnz, A: a, B: target}, err
	case "C":
		name, err := need(toks, 1)
		return isa.Instruction{Op: isa.OpCall, Name: name}, err
	case "c":
		slot, err := needInt(toks, 1)
		return isa.Instruction{Op: isa.OpCallPtr, A: slot}, err
	case "~":
		name, err := need(toks, 1)
		return isa.Instruction{Op: isa.OpInt, Name: name}, err
	case "r":
		return isa.Instruction{Op: isa.OpRet}, nil
	case "n":
		return isa.Instruction{Op: isa.OpNoop}, nil
	default:
		return isa.Instruction{}, fmt.Errorf("unexpected keyword `%s`", op)
	}
}

func two(toks []string) (a, b int, err error) {
	a, err = needInt(toks, 1)
	if err != nil {
		return
	}
	b, err = needInt(toks, 2)
	return
}

func three(toks []string) (a, b, c int, err error) {
	a, err = needInt(toks, 1)
	if err != nil {
		return
	}
	b, err = needInt(toks, 2)
	if err != nil {
		return
	}
	c, err = needInt(toks, 3)
	return
}
