package alert

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
)

// ErrInvalidPayload is returned for any body that is not a usable alert.
// Callers surface it without field detail; the wrapped message is for logs.
var ErrInvalidPayload = errors.New("invalid alert payload")

// Item is one stock line: a part name and a quantity.
type Item struct {
	Name     string
	Quantity int
}

// Stock is an ordered list of items decoded from a JSON object.
type Stock []Item

// UnmarshalJSON decodes a JSON object of name -> integer, preserving key order.
func (s *Stock) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("stock: expected object, got %v", tok)
	}

	items := Stock{}
	// A repeated name keeps its first position and takes the last quantity.
	seen := map[string]int{}
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return err
		}
		name, _ := kt.(string)

		vt, err := dec.Token()
		if err != nil {
			return err
		}
		num, ok := vt.(json.Number)
		if !ok {
			return fmt.Errorf("stock[%q]: quantity must be a number", name)
		}
		q, err := num.Int64()
		if err != nil || q > math.MaxInt32 || q < math.MinInt32 {
			return fmt.Errorf("stock[%q]: quantity %s is not an integer", name, num)
		}
		if i, ok := seen[name]; ok {
			items[i].Quantity = int(q)
			continue
		}
		seen[name] = len(items)
		items = append(items, Item{Name: name, Quantity: int(q)})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*s = items
	return nil
}

// Payload is the body accepted by the alert endpoints.
//
// Pointers distinguish a missing key from an empty value.
type Payload struct {
	Employee *string
	Stock    *Stock
}

// Actor returns the trimmed employee name.
func (p Payload) Actor() string {
	if p.Employee == nil {
		return ""
	}
	return strings.TrimSpace(*p.Employee)
}

// Items returns the stock items (nil if absent).
func (p Payload) Items() Stock {
	if p.Stock == nil {
		return nil
	}
	return *p.Stock
}

// Validate checks that employee and stock are present, the employee is not
// blank and no quantity is negative. An empty stock object is accepted.
func (p Payload) Validate() error {
	if p.Employee == nil {
		return fmt.Errorf("%w: missing employee", ErrInvalidPayload)
	}
	if p.Stock == nil {
		return fmt.Errorf("%w: missing stock", ErrInvalidPayload)
	}
	if p.Actor() == "" {
		return fmt.Errorf("%w: employee is blank", ErrInvalidPayload)
	}
	for _, it := range *p.Stock {
		if it.Quantity < 0 {
			return fmt.Errorf("%w: stock[%q] has negative quantity %d", ErrInvalidPayload, it.Name, it.Quantity)
		}
	}
	return nil
}

// Decode reads a single JSON object from r and validates it. The keys
// "employee" and "stock" must appear with exactly that spelling, and nothing
// may follow the object. Every failure wraps ErrInvalidPayload.
func Decode(r io.Reader) (Payload, error) {
	var raw map[string]json.RawMessage
	dec := json.NewDecoder(r)
	if err := dec.Decode(&raw); err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return Payload{}, fmt.Errorf("%w: trailing data after object", ErrInvalidPayload)
	}

	var p Payload
	if v, ok := raw["employee"]; ok {
		if err := json.Unmarshal(v, &p.Employee); err != nil {
			return Payload{}, fmt.Errorf("%w: employee: %v", ErrInvalidPayload, err)
		}
	}
	if v, ok := raw["stock"]; ok {
		if err := json.Unmarshal(v, &p.Stock); err != nil {
			return Payload{}, fmt.Errorf("%w: stock: %v", ErrInvalidPayload, err)
		}
	}
	if err := p.Validate(); err != nil {
		return Payload{}, err
	}
	return p, nil
}
