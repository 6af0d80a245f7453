// Package michelson implements the subset of Micheline needed to pack and unpack
// bridge token descriptors, and to render contract arguments as Michelson text.
package michelson

import (
	"encoding/hex"
	"math/big"
	"strconv"
	"strings"
)

// Node is a Micheline expression.
type Node interface {
	String() string
	isNode()
}

type Int struct {
	Value *big.Int
}

type String struct {
	Value string
}

type Bytes struct {
	Value []byte
}

type Seq struct {
	Items []Node
}

type Prim struct {
	Name   string
	Args   []Node
	Annots []string
}

func (Int) isNode()    {}
func (String) isNode() {}
func (Bytes) isNode()  {}
func (Seq) isNode()    {}
func (Prim) isNode()   {}

func NewInt(v int64) Int {
	return Int{Value: big.NewInt(v)}
}

func NewPrim(name string, args ...Node) Prim {
	return Prim{Name: name, Args: args}
}

func (n Int) String() string {
	if n.Value == nil {
		return "0"
	}
	return n.Value.String()
}

func (n String) String() string {
	return strconv.Quote(n.Value)
}

func (n Bytes) String() string {
	return "0x" + hex.EncodeToString(n.Value)
}

func (n Seq) String() string {
	if len(n.Items) == 0 {
		return "{}"
	}
	items := make([]string, len(n.Items))
	for i, item := range n.Items {
		items[i] = item.String()
	}
	return "{ " + strings.Join(items, " ; ") + " }"
}

func (n Prim) String() string {
	parts := make([]string, 0, 1+len(n.Annots)+len(n.Args))
	parts = append(parts, n.Name)
	parts = append(parts, n.Annots...)
	for _, arg := range n.Args {
		parts = append(parts, argString(arg))
	}
	return strings.Join(parts, " ")
}

// argString wraps nested applications and negative numbers in parentheses.
func argString(n Node) string {
	switch v := n.(type) {
	case Prim:
		if len(v.Args) > 0 || len(v.Annots) > 0 {
			return "(" + v.String() + ")"
		}
	case Int:
		if v.Value != nil && v.Value.Sign() < 0 {
			return "(" + v.String() + ")"
		}
	}
	return n.String()
}
