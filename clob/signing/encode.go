package signing

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/fillbot/gofill/clob/types"
)

// abiInput 订单输入侧的 ABI 表示
type abiInput struct {
	Token       common.Address
	StartAmount *big.Int
	EndAmount   *big.Int
}

// abiOutput 订单输出侧的 ABI 表示
type abiOutput struct {
	Token       common.Address
	StartAmount *big.Int
	EndAmount   *big.Int
	Recipient   common.Address
}

// abiOrder 与 reactor 合约约定的订单 tuple
type abiOrder struct {
	Reactor        common.Address
	Swapper        common.Address
	Nonce          *big.Int
	Deadline       *big.Int
	DecayStartTime *big.Int
	DecayEndTime   *big.Int
	Input          abiInput
	Outputs        []abiOutput
}

var (
	orderArgsOnce sync.Once
	orderArgs     abi.Arguments
	orderArgsErr  error
)

// orderABIArguments 懒构造订单 tuple 的 ABI 类型（构意失败只会发生在类型表写错时）
func orderABIArguments() (abi.Arguments, error) {
	orderArgsOnce.Do(func() {
		t, err := abi.NewType("tuple", "", []abi.ArgumentMarshaling{
			{Name: "reactor", Type: "address"},
			{Name: "swapper", Type: "address"},
			{Name: "nonce", Type: "uint256"},
			{Name: "deadline", Type: "uint256"},
			{Name: "decayStartTime", Type: "uint256"},
			{Name: "decayEndTime", Type: "uint256"},
			{Name: "input", Type: "tuple", Components: []abi.ArgumentMarshaling{
				{Name: "token", Type: "address"},
				{Name: "startAmount", Type: "uint256"},
				{Name: "endAmount", Type: "uint256"},
			}},
			{Name: "outputs", Type: "tuple[]", Components: []abi.ArgumentMarshaling{
				{Name: "token", Type: "address"},
				{Name: "startAmount", Type: "uint256"},
				{Name: "endAmount", Type: "uint256"},
				{Name: "recipient", Type: "address"},
			}},
		})
		if err != nil {
			orderArgsErr = fmt.Errorf("构造订单 ABI 类型失败: %w", err)
			return
		}
		orderArgs = abi.Arguments{{Type: t}}
	})
	return orderArgs, orderArgsErr
}

// EncodeOrder 把订单编码成中继要求的 encodedOrder（0x 前缀 ABI tuple）
func EncodeOrder(o *types.DutchOrder) (string, error) {
	if o == nil {
		return "", fmt.Errorf("订单为空")
	}
	args, err := orderABIArguments()
	if err != nil {
		return "", err
	}

	outputs := make([]abiOutput, 0, len(o.Outputs))
	for i, out := range o.Outputs {
		if out.StartAmount == nil || out.EndAmount == nil {
			return "", fmt.Errorf("outputs[%d] 金额缺失", i)
		}
		outputs = append(outputs, abiOutput{
			Token:       common.HexToAddress(out.Token),
			StartAmount: out.StartAmount,
			EndAmount:   out.EndAmount,
			Recipient:   common.HexToAddress(out.Recipient),
		})
	}
	if o.Nonce == nil || o.Input.StartAmount == nil || o.Input.EndAmount == nil {
		return "", fmt.Errorf("订单字段缺失，无法编码")
	}

	packed, err := args.Pack(abiOrder{
		Reactor:        common.HexToAddress(o.Reactor),
		Swapper:        common.HexToAddress(o.Swapper),
		Nonce:          o.Nonce,
		Deadline:       big.NewInt(o.Deadline),
		DecayStartTime: big.NewInt(o.DecayStartTime),
		DecayEndTime:   big.NewInt(o.DecayEndTime),
		Input: abiInput{
			Token:       common.HexToAddress(o.Input.Token),
			StartAmount: o.Input.StartAmount,
			EndAmount:   o.Input.EndAmount,
		},
		Outputs: outputs,
	})
	if err != nil {
		return "", fmt.Errorf("订单 ABI 编码失败: %w", err)
	}
	return "0x" + common.Bytes2Hex(packed), nil
}
