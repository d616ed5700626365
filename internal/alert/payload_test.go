package alert

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestDecodeKeepsStockOrder(t *testing.T) {
	body := `{"employee":"Somchai","stock":{"nut":10,"bolt":5,"washer":0,"a":1}}`
	p, err := Decode(strings.NewReader(body))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	want := Stock{{"nut", 10}, {"bolt", 5}, {"washer", 0}, {"a", 1}}
	if !reflect.DeepEqual(p.Items(), want) {
		t.Fatalf("items = %+v, want %+v", p.Items(), want)
	}
	if p.Actor() != "Somchai" {
		t.Fatalf("actor = %q", p.Actor())
	}
}

func TestDecodeAcceptsEmptyStock(t *testing.T) {
	p, err := Decode(strings.NewReader(`{"employee":"A","stock":{}}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if p.Stock == nil || len(p.Items()) != 0 {
		t.Fatalf("expected present, empty stock: %+v", p.Stock)
	}
}

func TestDecodeRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"empty body":          ``,
		"empty object":        `{}`,
		"null":                `null`,
		"not json":            `employee=a`,
		"array":               `[]`,
		"missing employee":    `{"stock":{"bolt":1}}`,
		"missing stock":       `{"employee":"A"}`,
		"null stock":          `{"employee":"A","stock":null}`,
		"blank employee":      `{"employee":"  ","stock":{}}`,
		"employee not string": `{"employee":5,"stock":{}}`,
		"stock not object":    `{"employee":"A","stock":["bolt"]}`,
		"quantity string":     `{"employee":"A","stock":{"bolt":"5"}}`,
		"quantity fraction":   `{"employee":"A","stock":{"bolt":1.5}}`,
		"quantity negative":   `{"employee":"A","stock":{"bolt":-1}}`,
		"quantity object":     `{"employee":"A","stock":{"bolt":{"n":1}}}`,
		"keys in other case":  `{"EMPLOYEE":"x","Stock":{}}`,
		"trailing data":       `{"employee":"A","stock":{}} garbage`,
		"two objects":         `{"employee":"A","stock":{}}{"employee":"B","stock":{}}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(body))
			if !errors.Is(err, ErrInvalidPayload) {
				t.Fatalf("err = %v, want ErrInvalidPayload", err)
			}
		})
	}
}

func TestDecodeMergesRepeatedStockNames(t *testing.T) {
	p, err := Decode(strings.NewReader(`{"employee":"A","stock":{"bolt":1,"nut":3,"bolt":2}}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	want := Stock{{"bolt", 2}, {"nut", 3}}
	if !reflect.DeepEqual(p.Items(), want) {
		t.Fatalf("items = %+v, want %+v", p.Items(), want)
	}
}

func TestDecodeAllowsTrailingWhitespace(t *testing.T) {
	if _, err := Decode(strings.NewReader("{\"employee\":\"A\",\"stock\":{}}\n\t ")); err != nil {
		t.Fatalf("Decode: %v", err)
	}
}
