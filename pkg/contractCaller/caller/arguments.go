package caller

import (
	"math/big"

	"github.com/tezos-bridge/rollup-bridge-go/pkg/michelson"
	"github.com/tezos-bridge/rollup-bridge-go/pkg/types"
)

// DepositArg is the bridge deposit parameter: Pair <token> <amount>.
func DepositArg(token types.TokenRef, amount *big.Int) (string, error) {
	tokenNode, err := michelson.TokenNode(token, false)
	if err != nil {
		return "", err
	}
	return michelson.NewPrim("Pair", tokenNode, michelson.Int{Value: amount}).String(), nil
}

// ApproveArg is the FA1.2 approve parameter: Pair <spender> <value>.
func ApproveArg(spender string, value *big.Int) string {
	return michelson.NewPrim("Pair", michelson.String{Value: spender}, michelson.Int{Value: value}).String()
}

// AddOperatorArg is the FA2 update_operators parameter holding a single add_operator.
func AddOperatorArg(owner, operator string, tokenID *big.Int) string {
	add := michelson.NewPrim("Left",
		michelson.NewPrim("Pair",
			michelson.String{Value: owner},
			michelson.NewPrim("Pair", michelson.String{Value: operator}, michelson.Int{Value: tokenID}),
		),
	)
	return michelson.Seq{Items: []michelson.Node{add}}.String()
}
