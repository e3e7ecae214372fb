package config

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"boxchain/crypto"
	"boxchain/native/boxmint"
)

// Config is the deployment configuration for the boxmint daemon.
type Config struct {
	DataDir        string `toml:"DataDir"`
	MetricsAddress string `toml:"MetricsAddress"`
	Environment    string `toml:"Environment"`

	Ledger Ledger `toml:"Ledger"`
}

// Ledger carries the one-time initialization parameters for the
// configuration record. Addresses are bech32, collections hex, amounts
// decimal strings.
type Ledger struct {
	Admin    string `toml:"Admin"`
	Treasury string `toml:"Treasury"`
	Cosigner string `toml:"Cosigner"`

	BoxCollection     string `toml:"BoxCollection"`
	FigureCollection  string `toml:"FigureCollection"`
	ReceiptCollection string `toml:"ReceiptCollection"`

	Price     string `toml:"Price"`
	MaxSupply uint32 `toml:"MaxSupply"`
	MaxPerTx  uint8  `toml:"MaxPerTx"`

	NamePrefix string `toml:"NamePrefix"`
	Symbol     string `toml:"Symbol"`
	URIBase    string `toml:"URIBase"`

	DeliveryFeeMin string `toml:"DeliveryFeeMin"`
	DeliveryFeeMax string `toml:"DeliveryFeeMax"`
	RecordDeposit  string `toml:"RecordDeposit"`

	// MaxFigureID defaults to three figures per box when left zero.
	MaxFigureID uint64 `toml:"MaxFigureID"`

	Bump uint8 `toml:"Bump"`
}

// Load reads and validates the configuration file at path. Unknown keys are
// rejected so typos fail at startup instead of silently using defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, key := range undecoded {
			keys[i] = key.String()
		}
		return nil, fmt.Errorf("config: unknown keys: %s", strings.Join(keys, ", "))
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = "./data"
	}
	if strings.TrimSpace(cfg.MetricsAddress) == "" {
		cfg.MetricsAddress = ":9464"
	}
	return cfg, nil
}

func decodeAddr(field, value string) ([20]byte, error) {
	var out [20]byte
	addr, err := crypto.DecodeAddress(strings.TrimSpace(value))
	if err != nil {
		return out, fmt.Errorf("config: %s: %w", field, err)
	}
	copy(out[:], addr.Bytes())
	return out, nil
}

func decodeRef(field, value string) ([32]byte, error) {
	var out [32]byte
	raw, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(value), "0x"))
	if err != nil {
		return out, fmt.Errorf("config: %s: %w", field, err)
	}
	if len(raw) != 32 {
		return out, fmt.Errorf("config: %s: expected 32 bytes, got %d", field, len(raw))
	}
	copy(out[:], raw)
	return out, nil
}

func decodeAmount(field, value string) (*big.Int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return big.NewInt(0), nil
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("config: %s: invalid amount %q", field, value)
	}
	return amount, nil
}

// Params converts the ledger section into engine initialization parameters.
func (l Ledger) Params() (boxmint.InitializeParams, error) {
	var params boxmint.InitializeParams
	var err error
	if params.Admin, err = decodeAddr("Admin", l.Admin); err != nil {
		return params, err
	}
	if params.Treasury, err = decodeAddr("Treasury", l.Treasury); err != nil {
		return params, err
	}
	if params.Cosigner, err = decodeAddr("Cosigner", l.Cosigner); err != nil {
		return params, err
	}
	if params.BoxCollection, err = decodeRef("BoxCollection", l.BoxCollection); err != nil {
		return params, err
	}
	if params.FigureCollection, err = decodeRef("FigureCollection", l.FigureCollection); err != nil {
		return params, err
	}
	if params.ReceiptCollection, err = decodeRef("ReceiptCollection", l.ReceiptCollection); err != nil {
		return params, err
	}
	if params.Price, err = decodeAmount("Price", l.Price); err != nil {
		return params, err
	}
	if params.DeliveryFeeMin, err = decodeAmount("DeliveryFeeMin", l.DeliveryFeeMin); err != nil {
		return params, err
	}
	if params.DeliveryFeeMax, err = decodeAmount("DeliveryFeeMax", l.DeliveryFeeMax); err != nil {
		return params, err
	}
	if params.RecordDeposit, err = decodeAmount("RecordDeposit", l.RecordDeposit); err != nil {
		return params, err
	}
	params.MaxSupply = l.MaxSupply
	params.MaxPerTx = l.MaxPerTx
	params.NamePrefix = l.NamePrefix
	params.Symbol = l.Symbol
	params.URIBase = l.URIBase
	params.MaxFigureID = l.MaxFigureID
	if params.MaxFigureID == 0 {
		params.MaxFigureID = uint64(l.MaxSupply) * boxmint.RevealFigureCount
	}
	params.Bump = l.Bump
	return params, nil
}
