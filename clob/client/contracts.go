package client

import (
	"github.com/betbot/polytrader/clob/types"
)

// ContractConfig 链上合约配置
type ContractConfig struct {
	// Exchange CTF 交易所合约
	Exchange string
	// NegRiskAdapter 负风险适配器合约
	NegRiskAdapter string
	// NegRiskExchange 负风险交易所合约
	NegRiskExchange string
	// Collateral 抵押品（USDC）合约
	Collateral string
	// ConditionalTokens 条件代币合约
	ConditionalTokens string
}

// CollateralTokenDecimals USDC 精度
const CollateralTokenDecimals = 6

// GetContractConfig 根据链 ID 返回合约配置
func GetContractConfig(chainID types.Chain) *ContractConfig {
	switch chainID {
	case types.ChainPolygon:
		return &ContractConfig{
			Exchange:          "0x4bFb41d5B3570DeFd03C39a9A4D8dE6Bd8B8982E",
			NegRiskAdapter:    "0xd91E80cF2E7be2e162c6513ceD06f1dD0dA35296",
			NegRiskExchange:   "0xC5d563A36AE78145C45a50134d48A1215220f80a",
			Collateral:        "0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174",
			ConditionalTokens: "0x4D97DCd97eC945f40cF65F87097ACe5EA0476045",
		}
	case types.ChainAmoy:
		return &ContractConfig{
			Exchange:          "0xdFE02Eb6733538f8Ea35D585af8DE5958AD99E40",
			NegRiskAdapter:    "0xd91E80cF2E7be2e162c6513ceD06f1dD0dA35296",
			NegRiskExchange:   "0xC5d563A36AE78145C45a50134d48A1215220f80a",
			Collateral:        "0x9c4e1703476e875070ee25b56a58b008cfb8fa78",
			ConditionalTokens: "0x69308FB512518e39F9b16112fA8d994F4e2Bf8bB",
		}
	default:
		return nil
	}
}
