// Package decoder maps the partner's wire JSON to typed records. It is a
// pure collaborator: type coercion only, no invariants beyond the schema.
package decoder

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// JSON decodes partner files.
type JSON struct{}

// New returns a JSON decoder.
func New() *JSON {
	return &JSON{}
}

// Decode parses raw bytes into the generic mapping the ETL stage validates.
func (JSON) Decode(raw []byte) (map[string]any, error) {
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return payload, nil
}

// Account is one account in a partner client export.
type Account struct {
	ID       string  `json:"id"`
	Value    float64 `json:"value"`
	Currency string  `json:"currency"`
	Name     string  `json:"name"`
	Type     string  `json:"type"`
}

// Holding is one position in a partner client export.
type Holding struct {
	ID         string  `json:"id"`
	AccountID  string  `json:"accountId"`
	Name       string  `json:"name"`
	Security   *string `json:"security"`
	Quantity   float64 `json:"quantity"`
	BuyPrice   float64 `json:"buyPrice"`
	IsCashLike bool    `json:"isCashLike"`
}

// Transaction is one transaction in a partner client export.
type Transaction struct {
	ID        string  `json:"id"`
	AccountID string  `json:"accountId"`
	HoldingID *string `json:"holdingId"`
	Type      string  `json:"type"`
	Quantity  float64 `json:"quantity"`
	Value     float64 `json:"value"`
}

// Client is the full typed form of a partner client export.
type Client struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Accounts     []Account     `json:"accounts"`
	Holdings     []Holding     `json:"holdings"`
	Transactions []Transaction `json:"transactions"`
}

// DecodeClient parses the partner's full client document. The wire format
// is loosely typed: numeric fields may arrive as strings and isCashLike may
// be the string "true"/"false", so each field is coerced individually.
func (JSON) DecodeClient(raw []byte) (Client, error) {
	var doc struct {
		ID           string           `json:"id"`
		Name         string           `json:"name"`
		Accounts     []map[string]any `json:"accounts"`
		Holdings     []map[string]any `json:"holdings"`
		Transactions []map[string]any `json:"transactions"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Client{}, fmt.Errorf("decode client document: %w", err)
	}

	client := Client{ID: doc.ID, Name: doc.Name}
	for i, a := range doc.Accounts {
		value, err := toFloat(a["value"])
		if err != nil {
			return Client{}, fmt.Errorf("account %d: %w", i, err)
		}
		client.Accounts = append(client.Accounts, Account{
			ID:       toString(a["id"]),
			Value:    value,
			Currency: toString(a["currency"]),
			Name:     toString(a["name"]),
			Type:     toString(a["type"]),
		})
	}
	for i, h := range doc.Holdings {
		quantity, err := toFloat(h["quantity"])
		if err != nil {
			return Client{}, fmt.Errorf("holding %d: %w", i, err)
		}
		buyPrice, err := toFloat(h["buyPrice"])
		if err != nil {
			return Client{}, fmt.Errorf("holding %d: %w", i, err)
		}
		client.Holdings = append(client.Holdings, Holding{
			ID:         toString(h["id"]),
			AccountID:  toString(h["accountId"]),
			Name:       toString(h["name"]),
			Security:   toStringPtr(h["security"]),
			Quantity:   quantity,
			BuyPrice:   buyPrice,
			IsCashLike: toBool(h["isCashLike"]),
		})
	}
	for i, tx := range doc.Transactions {
		quantity, err := toFloat(tx["quantity"])
		if err != nil {
			return Client{}, fmt.Errorf("transaction %d: %w", i, err)
		}
		value, err := toFloat(tx["value"])
		if err != nil {
			return Client{}, fmt.Errorf("transaction %d: %w", i, err)
		}
		client.Transactions = append(client.Transactions, Transaction{
			ID:        toString(tx["id"]),
			AccountID: toString(tx["accountId"]),
			HoldingID: toStringPtr(tx["holdingId"]),
			Type:      toString(tx["type"]),
			Quantity:  quantity,
			Value:     value,
		})
	}
	return client, nil
}

func toString(v any) string {
	s, _ := v.(string)
	return s
}

func toStringPtr(v any) *string {
	s, ok := v.(string)
	if !ok || s == "" {
		return nil
	}
	return &s
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, fmt.Errorf("parse numeric value %q: %w", n, err)
		}
		return f, nil
	case nil:
		return 0, fmt.Errorf("missing numeric value")
	default:
		return 0, fmt.Errorf("unsupported numeric type %T", v)
	}
}

func toBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return strings.EqualFold(b, "true")
	default:
		return false
	}
}
