// Package signing 负责 Dutch 订单的 EIP-712 typed-data 组装、
// 订单哈希计算和上链 ABI 编码。只组装、不持钥：
// 私钥签名委托给 wallet.Signer。
package signing

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/fillbot/gofill/clob/types"
)

// PrimaryType EIP-712 主类型名
const PrimaryType = "DutchOrder"

// BuildOrderTypedData 组装 Dutch 订单的 EIP-712 typed data。
// 域的 name/version 来自链配置，verifyingContract 是订单里的 reactor。
func BuildOrderTypedData(o *types.DutchOrder, domainName, domainVersion string) (apitypes.TypedData, error) {
	if o == nil {
		return apitypes.TypedData{}, fmt.Errorf("订单为空")
	}
	if o.Nonce == nil {
		return apitypes.TypedData{}, fmt.Errorf("订单缺少 nonce")
	}
	if o.Input.StartAmount == nil || o.Input.EndAmount == nil {
		return apitypes.TypedData{}, fmt.Errorf("订单输入金额缺失")
	}
	if len(o.Outputs) == 0 {
		return apitypes.TypedData{}, fmt.Errorf("订单没有输出侧")
	}

	domain := apitypes.TypedDataDomain{
		Name:              domainName,
		Version:           domainVersion,
		ChainId:           math.NewHexOrDecimal256(o.ChainID),
		VerifyingContract: common.HexToAddress(o.Reactor).Hex(),
	}

	typeDefs := apitypes.Types{
		"EIP712Domain": {
			{Name: "name", Type: "string"},
			{Name: "version", Type: "string"},
			{Name: "chainId", Type: "uint256"},
			{Name: "verifyingContract", Type: "address"},
		},
		PrimaryType: {
			{Name: "reactor", Type: "address"},
			{Name: "swapper", Type: "address"},
			{Name: "nonce", Type: "uint256"},
			{Name: "deadline", Type: "uint256"},
			{Name: "decayStartTime", Type: "uint256"},
			{Name: "decayEndTime", Type: "uint256"},
			{Name: "inputToken", Type: "address"},
			{Name: "inputStartAmount", Type: "uint256"},
			{Name: "inputEndAmount", Type: "uint256"},
			{Name: "outputs", Type: "DutchOutput[]"},
		},
		"DutchOutput": {
			{Name: "token", Type: "address"},
			{Name: "startAmount", Type: "uint256"},
			{Name: "endAmount", Type: "uint256"},
			{Name: "recipient", Type: "address"},
		},
	}

	outputs := make([]interface{}, 0, len(o.Outputs))
	for i, out := range o.Outputs {
		if out.StartAmount == nil || out.EndAmount == nil {
			return apitypes.TypedData{}, fmt.Errorf("outputs[%d] 金额缺失", i)
		}
		outputs = append(outputs, map[string]interface{}{
			"token":       common.HexToAddress(out.Token).Hex(),
			"startAmount": out.StartAmount,
			"endAmount":   out.EndAmount,
			"recipient":   common.HexToAddress(out.Recipient).Hex(),
		})
	}

	message := map[string]interface{}{
		"reactor":          common.HexToAddress(o.Reactor).Hex(),
		"swapper":          common.HexToAddress(o.Swapper).Hex(),
		"nonce":            o.Nonce,
		"deadline":         big.NewInt(o.Deadline),
		"decayStartTime":   big.NewInt(o.DecayStartTime),
		"decayEndTime":     big.NewInt(o.DecayEndTime),
		"inputToken":       common.HexToAddress(o.Input.Token).Hex(),
		"inputStartAmount": o.Input.StartAmount,
		"inputEndAmount":   o.Input.EndAmount,
		"outputs":          outputs,
	}

	return apitypes.TypedData{
		Types:       typeDefs,
		PrimaryType: PrimaryType,
		Domain:      domain,
		Message:     message,
	}, nil
}

// OrderHash 计算 typed data 的最终摘要（0x 前缀 hex）。
// 这个摘要就是订单在全系统里的身份：锁表、中继查询都用它。
func OrderHash(typedData apitypes.TypedData) (string, error) {
	hash, _, err := apitypes.TypedDataAndHash(typedData)
	if err != nil {
		return "", fmt.Errorf("计算 EIP-712 哈希失败: %w", err)
	}
	return "0x" + common.Bytes2Hex(hash), nil
}

// HashBytes 把 0x 前缀的订单哈希还原成字节（取消请求要对它签名）
func HashBytes(orderHash string) ([]byte, error) {
	b := common.FromHex(orderHash)
	if len(b) != 32 {
		return nil, fmt.Errorf("订单哈希长度非法: %s", orderHash)
	}
	return b, nil
}
