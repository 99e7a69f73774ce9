package domain

import (
	"bytes"
	"regexp"
	"strconv"
)

var plainDecimal = regexp.MustCompile(`^-?[0-9]+(\.[0-9]+)?$`)

// Price is the exact decimal text of a numeric column. It is rendered as a
// JSON number without passing through float64.
type Price string

func (p Price) String() string {
	if p == "" {
		return "0"
	}
	return string(p)
}

func (p Price) MarshalJSON() ([]byte, error) {
	s := p.String()
	if !plainDecimal.MatchString(s) {
		return strconv.AppendQuote(nil, s), nil
	}
	return []byte(s), nil
}

func (p *Price) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		s, err := strconv.Unquote(string(data))
		if err != nil {
			return err
		}
		*p = Price(s)
		return nil
	}
	*p = Price(data)
	return nil
}
