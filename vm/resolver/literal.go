package resolver

import (
	"fmt"
	"strconv"

	"github.com/sisungo/euola-vm/vm/value"
)

// DecodeLiteral is the `ins(type, payload)` decoder shared between the
// resolver's "v" opcode and the executor's DynSetConstant instruction
// (SPEC_FULL.md §4.5).
func DecodeLiteral(typeTag, payload string) (value.Var, error) {
	switch typeTag {
	case "8":
		n, err := strconv.ParseInt(payload, 10, 8)
		if err != nil {
			return value.Var{}, err
		}
		return value.I8(int8(n)), nil
	case "9":
		n, err := strconv.ParseUint(payload, 10, 8)
		if err != nil {
			return value.Var{}, err
		}
		return value.U8(uint8(n)), nil
	case "16":
		n, err := strconv.ParseInt(payload, 10, 16)
		if err != nil {
			return value.Var{}, err
		}
		return value.I16(int16(n)), nil
	case "17":
		n, err := strconv.ParseUint(payload, 10, 16)
		if err != nil {
			return value.Var{}, err
		}
		return value.U16(uint16(n)), nil
	case "32":
		n, err := strconv.ParseInt(payload, 10, 32)
		if err != nil {
			return value.Var{}, err
		}
		return value.I32(int32(n)), nil
	case "33":
		n, err := strconv.ParseUint(payload, 10, 32)
		if err != nil {
			return value.Var{}, err
		}
		return value.U32(uint32(n)), nil
	case "64":
		n, err := strconv.ParseInt(payload, 10, 64)
		if err != nil {
			return value.Var{}, err
		}
		return value.I64(n), nil
	case "65":
		n, err := strconv.ParseUint(payload, 10, 64)
		if err != nil {
			return value.Var{}, err
		}
		return value.U64(n), nil
	case "c":
		r := []rune(payload)
		if len(r) != 1 {
			return value.Var{}, value.ErrNotAChar
		}
		return value.U32(uint32(r[0])), nil
	case "U":
		switch {
		case len(payload) >= 1 && payload[0] == 'f':
			us, err := value.UStringFrom(payload[1:])
			if err != nil {
				return value.Var{}, err
			}
			return value.FromUString(us), nil
		case payload == "E" || payload == "n":
			return value.FromUString(value.UStringEmpty()), nil
		case payload == "N":
			return value.NullUString(), nil
		default:
			return value.Var{}, fmt.Errorf("invalid creation of ustring: %s", payload)
		}
	case "b":
		switch payload {
		case "n", "E":
			return value.FromBytes(value.BytesEmpty()), nil
		case "N":
			return value.NullBytes(), nil
		default:
			return value.Var{}, fmt.Errorf("invalid creation of bytes: %s", payload)
		}
	case "v":
		switch payload {
		case "n", "E":
			return value.FromVector(value.VectorEmpty()), nil
		case "N":
			return value.NullVector(), nil
		default:
			return value.Var{}, fmt.Errorf("invalid creation of vector: %s", payload)
		}
	default:
		switch payload {
		case "n":
			obj, err := value.NewObject(typeTag)
			if err != nil {
				return value.Var{}, err
			}
			return value.FromObject(obj), nil
		case "N":
			return value.NullObject(), nil
		default:
			return value.Var{}, fmt.Errorf("invalid creation of %s@object: %s", typeTag, payload)
		}
	}
}
