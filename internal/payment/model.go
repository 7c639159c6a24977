package payment

import "net/url"

// Encoding is the PENC marker describing how PTOK was encoded.
type Encoding string

const (
	EncodingNone  Encoding = ""
	EncodingKHash Encoding = "KHASH"
	EncodingMask  Encoding = "MASK"
)

// Payment holds the payment fields of a single request. It is owned by that
// request and is not safe for concurrent use.
type Payment struct {
	Type     Type
	Token    string
	Encoding Encoding

	last4    string
	last4Set bool
}

func (p *Payment) Last4() (string, bool) {
	return p.last4, p.last4Set
}

// SetLast4 stores last4 explicitly. Later token assignments keep it.
func (p *Payment) SetLast4(last4 string) {
	p.last4 = last4
	p.last4Set = true
}

// Params renders the payment as RIS form fields.
func (p *Payment) Params() url.Values {
	v := url.Values{}
	if p.Type != "" {
		v.Set("PTYP", string(p.Type))
	}
	v.Set("PTOK", p.Token)

	enc := p.Encoding
	if p.Token == "" && enc == EncodingKHash {
		enc = EncodingNone
	}
	v.Set("PENC", string(enc))

	if p.last4Set {
		v.Set("LAST4", p.last4)
	}
	return v
}
