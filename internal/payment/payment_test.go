package payment

import (
	"testing"

	"ris-sdk/internal/khash"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMerchantID int64 = 900100

func newDispatcher(t *testing.T) *Dispatcher {
	t.Helper()
	enc, err := khash.New("ris-test-salt")
	require.NoError(t, err)
	return NewDispatcher(enc, testMerchantID)
}

func TestDispatcher_SetPayment(t *testing.T) {
	d := newDispatcher(t)

	tests := []struct {
		name     string
		method   Method
		rawID    string
		encoding Encoding
		wantType Type
		wantTok  string
		wantEnc  string
		wantL4   string
	}{
		{
			name:     "Token KHASH",
			method:   Token,
			rawID:    "6011476613608633",
			encoding: EncodingKHash,
			wantType: TypeToken,
			wantTok:  "601147RRMVLUSLX9GOFU",
			wantEnc:  "KHASH",
			wantL4:   "8633",
		},
		{
			name:     "Alphanumeric token KHASH",
			method:   Token,
			rawID:    "1A2B3C6613608633",
			encoding: EncodingKHash,
			wantType: TypeToken,
			wantTok:  "1A2B3CT4YKX4YFEV9RZV",
			wantEnc:  "KHASH",
			wantL4:   "8633",
		},
		{
			name:     "Carte Bleue KHASH",
			method:   CarteBleue,
			rawID:    "AABBCC661360DDD",
			encoding: EncodingKHash,
			wantType: TypeCarteBleue,
			wantTok:  "AABBCCTU97U6HP4OE221",
			wantEnc:  "KHASH",
			wantL4:   "0DDD",
		},
		{
			name:     "Skrill KHASH",
			method:   Skrill,
			rawID:    "XYZ123661360SKMB",
			encoding: EncodingKHash,
			wantType: TypeSkrill,
			wantTok:  "XYZ123XJI9RRG8WRGGBB",
			wantEnc:  "KHASH",
			wantL4:   "SKMB",
		},
		{
			name:     "Gift card uses merchant prefix",
			method:   GiftCard,
			rawID:    "6011476613608633",
			encoding: EncodingKHash,
			wantType: TypeGiftCard,
			wantTok:  "900100RRMVLUSLX9GOFU",
			wantEnc:  "KHASH",
			wantL4:   "8633",
		},
		{
			name:     "Mask mode",
			method:   Paypal,
			rawID:    "0007380568572514",
			encoding: EncodingMask,
			wantType: TypePaypal,
			wantTok:  "000738XXXXXX2514",
			wantEnc:  "MASK",
			wantL4:   "2514",
		},
		{
			name:     "No encoding passes raw token",
			method:   Card,
			rawID:    "4111111111111111",
			encoding: EncodingNone,
			wantType: TypeCard,
			wantTok:  "4111111111111111",
			wantEnc:  "",
			wantL4:   "1111",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Payment{Encoding: tt.encoding}

			err := d.SetPayment(p, tt.method, tt.rawID)
			require.NoError(t, err)

			params := p.Params()
			assert.Equal(t, string(tt.wantType), params.Get("PTYP"))
			assert.Equal(t, tt.wantTok, params.Get("PTOK"))
			assert.Equal(t, tt.wantEnc, params.Get("PENC"))
			assert.Equal(t, tt.wantL4, params.Get("LAST4"))
		})
	}
}

func TestDispatcher_SetPayment_Unsupported(t *testing.T) {
	d := newDispatcher(t)
	p := &Payment{Encoding: EncodingKHash}

	err := d.SetPayment(p, Method(0), "6011476613608633")

	var unsupported *UnsupportedTypeError
	assert.ErrorAs(t, err, &unsupported)
	assert.Empty(t, p.Type)
	_, set := p.Last4()
	assert.False(t, set)
}

func TestDispatcher_Last4SetOnce(t *testing.T) {
	d := newDispatcher(t)
	p := &Payment{Encoding: EncodingKHash}

	require.NoError(t, d.SetPayment(p, Card, "4111111111111111"))
	require.NoError(t, d.SetPayment(p, Token, "6011476613608633"))

	last4, set := p.Last4()
	assert.True(t, set)
	assert.Equal(t, "1111", last4)
	assert.Equal(t, "601147RRMVLUSLX9GOFU", p.Token)

	t.Run("Explicit last4 wins", func(t *testing.T) {
		p := &Payment{Encoding: EncodingKHash}
		p.SetLast4("9999")

		require.NoError(t, d.SetPayment(p, Card, "4111111111111111"))
		assert.Equal(t, "9999", p.Params().Get("LAST4"))
	})

	t.Run("Masked after hashed", func(t *testing.T) {
		p := &Payment{Encoding: EncodingKHash}
		require.NoError(t, d.SetPayment(p, Card, "4111111111111111"))
		require.NoError(t, d.SetCardPaymentMasked(p, "0007380568572514"))

		assert.Equal(t, "1111", p.Params().Get("LAST4"))
		assert.Equal(t, "000738XXXXXX2514", p.Token)
	})
}

func TestDispatcher_SetCardPaymentMasked(t *testing.T) {
	d := newDispatcher(t)

	t.Run("Overrides KHASH mode", func(t *testing.T) {
		p := &Payment{Encoding: EncodingKHash}

		require.NoError(t, d.SetCardPaymentMasked(p, "0007380568572514"))

		params := p.Params()
		assert.Equal(t, "CARD", params.Get("PTYP"))
		assert.Equal(t, "000738XXXXXX2514", params.Get("PTOK"))
		assert.Equal(t, "MASK", params.Get("PENC"))
		assert.Equal(t, "2514", params.Get("LAST4"))
	})

	t.Run("Short card is rejected", func(t *testing.T) {
		p := &Payment{Encoding: EncodingKHash}

		err := d.SetCardPaymentMasked(p, "411111")
		assert.ErrorIs(t, err, khash.ErrTokenTooShort)
		assert.Equal(t, EncodingKHash, p.Encoding)
		assert.Empty(t, p.Type)
	})

	t.Run("Already masked card is hashed by SetPayment", func(t *testing.T) {
		p := &Payment{Encoding: EncodingKHash}

		require.NoError(t, d.SetPayment(p, Card, "000738XXXXXX2514"))
		assert.NotEqual(t, "000738XXXXXX2514", p.Token)
		assert.Equal(t, "KHASH", p.Params().Get("PENC"))
		assert.Equal(t, "2514", p.Params().Get("LAST4"))
	})
}

func TestDispatcher_SetNoPayment(t *testing.T) {
	d := newDispatcher(t)
	p := &Payment{Encoding: EncodingKHash}

	require.NoError(t, d.SetPayment(p, None, "ignored"))

	params := p.Params()
	assert.Equal(t, "NONE", params.Get("PTYP"))
	assert.Equal(t, "", params.Get("PTOK"))
	// KHASH marker is dropped when there is nothing to hash
	assert.Equal(t, "", params.Get("PENC"))
	_, hasLast4 := params["LAST4"]
	assert.False(t, hasLast4)
}

func TestDispatcher_MissingSalt(t *testing.T) {
	d := NewDispatcher(nil, testMerchantID)
	p := &Payment{Encoding: EncodingKHash}

	err := d.SetPayment(p, Token, "6011476613608633")
	assert.ErrorIs(t, err, khash.ErrMissingSalt)
	assert.Empty(t, p.Token)
}
