package michelson

import (
	"encoding/binary"
	"fmt"
	"math/big"
	"strings"
)

// PackPrefix is the leading byte of PACKed Michelson data.
const PackPrefix byte = 0x05

const (
	tagInt              byte = 0x00
	tagString           byte = 0x01
	tagSeq              byte = 0x02
	tagPrim0            byte = 0x03
	tagPrim0Annots      byte = 0x04
	tagPrim1            byte = 0x05
	tagPrim1Annots      byte = 0x06
	tagPrim2            byte = 0x07
	tagPrim2Annots      byte = 0x08
	tagPrimGeneric      byte = 0x09
	tagBytes            byte = 0x0a
	maxDynamicFieldSize      = 1 << 30
)

var primCodes = map[string]byte{
	"parameter": 0x00,
	"storage":   0x01,
	"code":      0x02,
	"False":     0x03,
	"Elt":       0x04,
	"Left":      0x05,
	"None":      0x06,
	"Pair":      0x07,
	"Right":     0x08,
	"Some":      0x09,
	"True":      0x0a,
	"Unit":      0x0b,
	"bool":      0x59,
	"int":       0x5b,
	"key_hash":  0x5d,
	"list":      0x5f,
	"nat":       0x62,
	"option":    0x63,
	"or":        0x64,
	"pair":      0x65,
	"string":    0x68,
	"bytes":     0x69,
	"mutez":     0x6a,
	"unit":      0x6c,
	"address":   0x6e,
}

var primNames = func() map[byte]string {
	names := make(map[byte]string, len(primCodes))
	for name, code := range primCodes {
		names[code] = name
	}
	return names
}()

// Pack serializes a node the way the PACK instruction does.
func Pack(n Node) ([]byte, error) {
	body, err := Encode(n)
	if err != nil {
		return nil, err
	}
	return append([]byte{PackPrefix}, body...), nil
}

// Unpack reverses Pack. Trailing bytes are an error.
func Unpack(data []byte) (Node, error) {
	if len(data) == 0 || data[0] != PackPrefix {
		return nil, fmt.Errorf("packed data must start with 0x%02x", PackPrefix)
	}
	n, used, err := Decode(data[1:])
	if err != nil {
		return nil, err
	}
	if used != len(data)-1 {
		return nil, fmt.Errorf("%d trailing bytes after packed value", len(data)-1-used)
	}
	return n, nil
}

// Encode produces the binary Micheline encoding of n.
func Encode(n Node) ([]byte, error) {
	var out []byte
	if err := encodeNode(&out, n); err != nil {
		return nil, err
	}
	return out, nil
}

func encodeNode(out *[]byte, n Node) error {
	switch v := n.(type) {
	case Int:
		if v.Value == nil {
			return fmt.Errorf("int node without value")
		}
		*out = append(*out, tagInt)
		*out = append(*out, EncodeInt(v.Value)...)
	case String:
		*out = append(*out, tagString)
		appendDynamic(out, []byte(v.Value))
	case Bytes:
		*out = append(*out, tagBytes)
		appendDynamic(out, v.Value)
	case Seq:
		var items []byte
		for _, item := range v.Items {
			if err := encodeNode(&items, item); err != nil {
				return err
			}
		}
		*out = append(*out, tagSeq)
		appendDynamic(out, items)
	case Prim:
		return encodePrim(out, v)
	default:
		return fmt.Errorf("unsupported node type %T", n)
	}
	return nil
}

func encodePrim(out *[]byte, p Prim) error {
	code, ok := primCodes[p.Name]
	if !ok {
		return fmt.Errorf("unsupported primitive %q", p.Name)
	}
	hasAnnots := len(p.Annots) > 0
	switch {
	case len(p.Args) <= 2:
		tag := tagPrim0 + byte(2*len(p.Args))
		if hasAnnots {
			tag++
		}
		*out = append(*out, tag, code)
		for _, arg := range p.Args {
			if err := encodeNode(out, arg); err != nil {
				return err
			}
		}
	default:
		*out = append(*out, tagPrimGeneric, code)
		var args []byte
		for _, arg := range p.Args {
			if err := encodeNode(&args, arg); err != nil {
				return err
			}
		}
		appendDynamic(out, args)
		// the generic form always carries an annotation field
		appendDynamic(out, []byte(strings.Join(p.Annots, " ")))
		return nil
	}
	if hasAnnots {
		appendDynamic(out, []byte(strings.Join(p.Annots, " ")))
	}
	return nil
}

func appendDynamic(out *[]byte, data []byte) {
	var size [4]byte
	binary.BigEndian.PutUint32(size[:], uint32(len(data)))
	*out = append(*out, size[:]...)
	*out = append(*out, data...)
}

func readDynamic(data []byte) ([]byte, int, error) {
	if len(data) < 4 {
		return nil, 0, fmt.Errorf("truncated length prefix")
	}
	size := binary.BigEndian.Uint32(data[:4])
	if size > maxDynamicFieldSize || int(size) > len(data)-4 {
		return nil, 0, fmt.Errorf("field length %d exceeds remaining %d bytes", size, len(data)-4)
	}
	return data[4 : 4+size], 4 + int(size), nil
}

// Decode reads one node from data and reports how many bytes were consumed.
func Decode(data []byte) (Node, int, error) {
	if len(data) == 0 {
		return nil, 0, fmt.Errorf("unexpected end of input")
	}
	tag := data[0]
	rest := data[1:]
	switch tag {
	case tagInt:
		v, used, err := DecodeInt(rest)
		if err != nil {
			return nil, 0, err
		}
		return Int{Value: v}, 1 + used, nil
	case tagString:
		s, used, err := readDynamic(rest)
		if err != nil {
			return nil, 0, fmt.Errorf("string: %w", err)
		}
		return String{Value: string(s)}, 1 + used, nil
	case tagBytes:
		b, used, err := readDynamic(rest)
		if err != nil {
			return nil, 0, fmt.Errorf("bytes: %w", err)
		}
		return Bytes{Value: append([]byte{}, b...)}, 1 + used, nil
	case tagSeq:
		body, used, err := readDynamic(rest)
		if err != nil {
			return nil, 0, fmt.Errorf("sequence: %w", err)
		}
		items, err := decodeAll(body)
		if err != nil {
			return nil, 0, err
		}
		return Seq{Items: items}, 1 + used, nil
	case tagPrim0, tagPrim0Annots, tagPrim1, tagPrim1Annots, tagPrim2, tagPrim2Annots:
		return decodePrim(tag, rest)
	case tagPrimGeneric:
		return decodeGenericPrim(rest)
	default:
		return nil, 0, fmt.Errorf("unknown node tag 0x%02x", tag)
	}
}

func primName(code byte) (string, error) {
	name, ok := primNames[code]
	if !ok {
		return "", fmt.Errorf("unsupported primitive code 0x%02x", code)
	}
	return name, nil
}

func decodePrim(tag byte, data []byte) (Node, int, error) {
	if len(data) == 0 {
		return nil, 0, fmt.Errorf("truncated primitive")
	}
	name, err := primName(data[0])
	if err != nil {
		return nil, 0, err
	}
	argc := int(tag-tagPrim0) / 2
	hasAnnots := (tag-tagPrim0)%2 == 1
	offset := 1
	p := Prim{Name: name}
	for i := 0; i < argc; i++ {
		arg, used, err := Decode(data[offset:])
		if err != nil {
			return nil, 0, fmt.Errorf("%s argument %d: %w", name, i, err)
		}
		p.Args = append(p.Args, arg)
		offset += used
	}
	if hasAnnots {
		annots, used, err := readDynamic(data[offset:])
		if err != nil {
			return nil, 0, fmt.Errorf("%s annotations: %w", name, err)
		}
		p.Annots = strings.Fields(string(annots))
		offset += used
	}
	return p, 1 + offset, nil
}

func decodeGenericPrim(data []byte) (Node, int, error) {
	if len(data) == 0 {
		return nil, 0, fmt.Errorf("truncated primitive")
	}
	name, err := primName(data[0])
	if err != nil {
		return nil, 0, err
	}
	offset := 1
	body, used, err := readDynamic(data[offset:])
	if err != nil {
		return nil, 0, fmt.Errorf("%s arguments: %w", name, err)
	}
	offset += used
	args, err := decodeAll(body)
	if err != nil {
		return nil, 0, err
	}
	annots, used, err := readDynamic(data[offset:])
	if err != nil {
		return nil, 0, fmt.Errorf("%s annotations: %w", name, err)
	}
	offset += used
	return Prim{Name: name, Args: args, Annots: strings.Fields(string(annots))}, 1 + offset, nil
}

func decodeAll(data []byte) ([]Node, error) {
	var nodes []Node
	for len(data) > 0 {
		n, used, err := Decode(data)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
		data = data[used:]
	}
	return nodes, nil
}

// natValue extracts a non-negative integer from an Int node.
func natValue(n Node) (*big.Int, error) {
	i, ok := n.(Int)
	if !ok || i.Value == nil {
		return nil, fmt.Errorf("expected nat, got %T", n)
	}
	if i.Value.Sign() < 0 {
		return nil, fmt.Errorf("expected nat, got negative %s", i.Value)
	}
	return i.Value, nil
}
