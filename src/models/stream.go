package models

// MStreamCommand is sent by price-stream clients.
//
//	{"command":"subscribe","assets":["bitcoin","solana"]}
//	{"command":"refresh"}
type MStreamCommand struct {
	Command string   `json:"command"`
	Assets  []string `json:"assets,omitempty"`
}

// MPriceStreamMessage is pushed to price-stream clients.
type MPriceStreamMessage struct {
	Type      string         `json:"type"`
	Data      MPriceQuoteSet `json:"data"`
	Timestamp int64          `json:"timestamp"`
}
