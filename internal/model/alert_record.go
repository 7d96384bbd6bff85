package model

// AlertRecord is the journal entry written for every handled pair event.
// Dispatched is set only when the notification call succeeded; a failed
// send leaves it false with SendError holding the cause.
type AlertRecord struct {
	ChainID     uint64 `json:"chain_id"`
	Pair        string `json:"pair"`
	BlockNumber uint64 `json:"block_number"`
	TxHash      string `json:"tx_hash"`
	LogIndex    uint64 `json:"log_index"`
	EventName   string `json:"event_name"`
	Message     string `json:"message"`
	Dispatched  bool   `json:"dispatched"`
	SendError   string `json:"send_error,omitempty"`
	SkipReason  string `json:"skip_reason,omitempty"`
	CreatedAt   string `json:"created_at"`
}

// NewAlertRecord fills the location fields of a record from an event.
func NewAlertRecord(event PoolEvent) AlertRecord {
	meta := event.Meta()
	return AlertRecord{
		Pair:        meta.Pair.Hex(),
		BlockNumber: meta.BlockNumber,
		TxHash:      meta.TxHash.Hex(),
		LogIndex:    uint64(meta.LogIndex),
		EventName:   string(event.Kind()),
	}
}
