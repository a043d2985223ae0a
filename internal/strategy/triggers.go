package strategy

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/mitchellh/mapstructure"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// BuyTriggers fire only when every enabled condition holds at once.
type BuyTriggers struct {
	RSIBelow    float64 `json:"rsi_below" mapstructure:"rsi_below"`
	DipPercent  float64 `json:"dip_percent" mapstructure:"dip_percent"`
	VolumeSpike float64 `json:"volume_spike" mapstructure:"volume_spike"`
	Enabled     bool    `json:"enabled" mapstructure:"enabled"`
}

// SellTriggers fire when any single condition holds.
type SellTriggers struct {
	RSIAbove    float64 `json:"rsi_above" mapstructure:"rsi_above"`
	RisePercent float64 `json:"rise_percent" mapstructure:"rise_percent"`
	StopLoss    float64 `json:"stop_loss" mapstructure:"stop_loss"`
	TakeProfit  float64 `json:"take_profit" mapstructure:"take_profit"`
	Enabled     bool    `json:"enabled" mapstructure:"enabled"`
}

type TriggerConfig struct {
	Buy  BuyTriggers  `json:"buy" mapstructure:"buy"`
	Sell SellTriggers `json:"sell" mapstructure:"sell"`
}

// triggerUpdateSchema bounds every threshold at zero and rejects unknown
// fields, so a typo in an API payload fails loudly instead of being dropped.
const triggerUpdateSchema = `{
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "buy": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "rsi_below":    {"type": "number", "minimum": 0},
        "dip_percent":  {"type": "number", "minimum": 0},
        "volume_spike": {"type": "number", "minimum": 0},
        "enabled":      {"type": "boolean"}
      }
    },
    "sell": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "rsi_above":    {"type": "number", "minimum": 0},
        "rise_percent": {"type": "number", "minimum": 0},
        "stop_loss":    {"type": "number", "minimum": 0},
        "take_profit":  {"type": "number", "minimum": 0},
        "enabled":      {"type": "boolean"}
      }
    }
  }
}`

var triggerSchema = jsonschema.MustCompileString("triggers.json", triggerUpdateSchema)

// merged returns a copy of cfg with only the fields present in raw replaced.
// Validation runs before anything is applied, so a rejected update leaves the
// config untouched.
func (cfg TriggerConfig) merged(raw []byte) (TriggerConfig, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return cfg, fmt.Errorf("trigger update is not valid json: %w", err)
	}
	if err := triggerSchema.Validate(doc); err != nil {
		return cfg, fmt.Errorf("trigger update rejected: %w", err)
	}
	fields, ok := doc.(map[string]any)
	if !ok {
		return cfg, fmt.Errorf("trigger update must be a json object")
	}
	next := cfg
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &next,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return cfg, err
	}
	if err := decoder.Decode(fields); err != nil {
		return cfg, fmt.Errorf("trigger update decode failed: %w", err)
	}
	return next, nil
}
