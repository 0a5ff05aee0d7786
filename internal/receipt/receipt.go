// Package receipt holds the receipt payload the host UI hands to the print
// dispatcher.
//
// The dispatcher itself treats receipts as opaque text. This package exists for
// callers that build a receipt from structured data and want the same JSON wire
// format the print tooling consumes.
package receipt

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var ErrInvalidReceipt = errors.New("invalid receipt")

// Payload is a single receipt as rendered by the external print tool.
type Payload struct {
	Title    string          `json:"title"`
	Address  string          `json:"address"`
	Phone    string          `json:"phone"`
	Items    []LineItem      `json:"items"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	TaxRate  decimal.Decimal `json:"taxRate"`
	Total    decimal.Decimal `json:"total"`
	Footer   string          `json:"footer"`
	Date     string          `json:"date"`
	Time     string          `json:"time"`
}

// LineItem is one row of a receipt.
type LineItem struct {
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Total    decimal.Decimal `json:"total"`
}

// wire mirrors Payload but emits money as bare JSON numbers, which is what the
// print tooling expects (decimal.Decimal marshals as a quoted string).
type wirePayload struct {
	Title    string      `json:"title"`
	Address  string      `json:"address"`
	Phone    string      `json:"phone"`
	Items    []wireItem  `json:"items"`
	Subtotal json.Number `json:"subtotal"`
	Tax      json.Number `json:"tax"`
	TaxRate  json.Number `json:"taxRate"`
	Total    json.Number `json:"total"`
	Footer   string      `json:"footer"`
	Date     string      `json:"date"`
	Time     string      `json:"time"`
}

type wireItem struct {
	Name     string      `json:"name"`
	Quantity int         `json:"quantity"`
	Price    json.Number `json:"price"`
	Total    json.Number `json:"total"`
}

func number(d decimal.Decimal) json.Number { return json.Number(d.String()) }

// Encode serializes p into the JSON text that is handed to the dispatcher.
func Encode(p Payload) (string, error) {
	w := wirePayload{
		Title:    p.Title,
		Address:  p.Address,
		Phone:    p.Phone,
		Items:    make([]wireItem, 0, len(p.Items)),
		Subtotal: number(p.Subtotal),
		Tax:      number(p.Tax),
		TaxRate:  number(p.TaxRate),
		Total:    number(p.Total),
		Footer:   p.Footer,
		Date:     p.Date,
		Time:     p.Time,
	}
	for _, it := range p.Items {
		w.Items = append(w.Items, wireItem{
			Name:     it.Name,
			Quantity: it.Quantity,
			Price:    number(it.Price),
			Total:    number(it.Total),
		})
	}
	b, err := json.Marshal(w)
	if err != nil {
		return "", fmt.Errorf("encoding receipt: %w", err)
	}
	return string(b), nil
}

// Decode parses receipt JSON. Money fields may be JSON numbers or strings.
func Decode(text string) (Payload, error) {
	var p Payload
	if err := json.Unmarshal([]byte(text), &p); err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrInvalidReceipt, err)
	}
	return p, nil
}

// Validate checks the arithmetic a well-formed receipt satisfies.
//
// The dispatcher never calls this; dispatched text is passed through as-is.
func (p Payload) Validate() error {
	for i, it := range p.Items {
		if it.Quantity < 0 {
			return fmt.Errorf("%w: item %d (%q): negative quantity %d", ErrInvalidReceipt, i, it.Name, it.Quantity)
		}
		want := it.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
		if !it.Total.Equal(want) {
			return fmt.Errorf("%w: item %d (%q): total %s != %d x %s", ErrInvalidReceipt, i, it.Name, it.Total, it.Quantity, it.Price)
		}
	}
	if want := p.Subtotal.Add(p.Tax); !p.Total.Equal(want) {
		return fmt.Errorf("%w: total %s != subtotal %s + tax %s", ErrInvalidReceipt, p.Total, p.Subtotal, p.Tax)
	}
	return nil
}
