package store

import (
	"time"

	"gorm.io/datatypes"
)

// SignalRecord is one evaluation outcome for one symbol. Every evaluation is
// logged, including holds, so the decision history can be audited later.
type SignalRecord struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	TraceID    string         `gorm:"size:64;index" json:"trace_id"`
	Symbol     string         `gorm:"size:32;index" json:"symbol"`
	Signal     string         `gorm:"size:8;index" json:"signal"`
	Price      float64        `json:"price"`
	RSI        float64        `json:"rsi"`
	DipPercent float64        `json:"dip_percent"`
	Reasons    datatypes.JSON `json:"reasons"`
	Executed   bool           `json:"executed"`
	OrderID    string         `gorm:"size:64" json:"order_id,omitempty"`
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`
}

func (SignalRecord) TableName() string { return "signal_records" }
