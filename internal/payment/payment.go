package payment

import (
	"ris-sdk/internal/khash"
)

// Dispatcher encodes payment identifiers into a request's Payment.
type Dispatcher struct {
	encoder    *khash.Encoder
	merchantID int64
}

func NewDispatcher(encoder *khash.Encoder, merchantID int64) *Dispatcher {
	return &Dispatcher{encoder: encoder, merchantID: merchantID}
}

// SetPayment sets the PTYP tag for method and encodes rawID with the
// payment's current encoding.
func (d *Dispatcher) SetPayment(p *Payment, method Method, rawID string) error {
	if method == None {
		d.SetNoPayment(p)
		return nil
	}

	typ, err := TypeOf(method)
	if err != nil {
		return err
	}
	return d.SetPaymentWithType(p, typ, rawID)
}

// SetPaymentWithType accepts a raw PTYP tag. Prefer SetPayment.
func (d *Dispatcher) SetPaymentWithType(p *Payment, typ Type, rawID string) error {
	prev := p.Type
	p.Type = typ
	if err := d.SetPaymentToken(p, rawID); err != nil {
		p.Type = prev
		return err
	}
	return nil
}

// SetPaymentToken encodes token according to p.Encoding. LAST4 is taken from
// the first token set on p and never recomputed. A failed encoding leaves p
// unchanged.
func (d *Dispatcher) SetPaymentToken(p *Payment, token string) error {
	encoded, err := d.encode(p.Type, p.Encoding, token)
	if err != nil {
		return err
	}

	if !p.last4Set {
		p.SetLast4(khash.Last4(token))
	}
	p.Token = encoded
	return nil
}

// SetCardPaymentMasked always sends a MASK encoded CARD payment, whatever
// encoding the request was configured with.
func (d *Dispatcher) SetCardPaymentMasked(p *Payment, cardNumber string) error {
	if _, err := khash.MaskToken(cardNumber); err != nil {
		return err
	}
	p.Type = TypeCard
	p.Encoding = EncodingMask
	return d.SetPaymentToken(p, cardNumber)
}

func (d *Dispatcher) SetNoPayment(p *Payment) {
	p.Type = TypeNone
	p.Token = ""
}

func (d *Dispatcher) encode(typ Type, enc Encoding, token string) (string, error) {
	switch enc {
	case EncodingKHash:
		if typ == TypeGiftCard {
			return d.encoder.HashGiftCard(d.merchantID, token)
		}
		return d.encoder.HashPaymentToken(token)
	case EncodingMask:
		return khash.MaskToken(token)
	default:
		return token, nil
	}
}
