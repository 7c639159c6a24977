package payment

import "strconv"

// Type is the PTYP tag sent for a payment.
type Type string

const (
	TypeApple            Type = "APAY"
	TypeBillMeLater      Type = "BLML"
	TypeBpay             Type = "BPAY"
	TypeCard             Type = "CARD"
	TypeCarteBleue       Type = "CARTE_BLEUE"
	TypeCheck            Type = "CHEK"
	TypeElv              Type = "ELV"
	TypeGreenDotMoneyPak Type = "GDMP"
	TypeGiftCard         Type = "GIFT"
	TypeGiroPay          Type = "GIROPAY"
	TypeGoogle           Type = "GOOG"
	TypeInterac          Type = "INTERAC"
	TypeMercadePago      Type = "MERCADE_PAGO"
	TypeNeteller         Type = "NETELLER"
	TypeNone             Type = "NONE"
	TypePoli             Type = "POLI"
	TypePaypal           Type = "PYPL"
	TypeSEPA             Type = "SEPA"
	TypeSkrill           Type = "SKRILL"
	TypeSofort           Type = "SOFORT"
	TypeToken            Type = "TOKEN"
)

// Method identifies the payment method a caller is submitting.
type Method int

const (
	Apple Method = iota + 1
	BillMeLater
	Bpay
	Card
	CarteBleue
	Check
	Elv
	GreenDotMoneyPak
	GiftCard
	GiroPay
	Google
	Interac
	MercadePago
	Neteller
	None
	Poli
	Paypal
	SEPA
	Skrill
	Sofort
	Token
)

var typeMap = map[Method]Type{
	Apple:            TypeApple,
	BillMeLater:      TypeBillMeLater,
	Bpay:             TypeBpay,
	Card:             TypeCard,
	CarteBleue:       TypeCarteBleue,
	Check:            TypeCheck,
	Elv:              TypeElv,
	GreenDotMoneyPak: TypeGreenDotMoneyPak,
	GiftCard:         TypeGiftCard,
	GiroPay:          TypeGiroPay,
	Google:           TypeGoogle,
	Interac:          TypeInterac,
	MercadePago:      TypeMercadePago,
	Neteller:         TypeNeteller,
	None:             TypeNone,
	Poli:             TypePoli,
	Paypal:           TypePaypal,
	SEPA:             TypeSEPA,
	Skrill:           TypeSkrill,
	Sofort:           TypeSofort,
	Token:            TypeToken,
}

var methodNames = map[Method]string{
	Apple:            "Apple",
	BillMeLater:      "BillMeLater",
	Bpay:             "Bpay",
	Card:             "Card",
	CarteBleue:       "CarteBleue",
	Check:            "Check",
	Elv:              "Elv",
	GreenDotMoneyPak: "GreenDotMoneyPak",
	GiftCard:         "GiftCard",
	GiroPay:          "GiroPay",
	Google:           "Google",
	Interac:          "Interac",
	MercadePago:      "MercadePago",
	Neteller:         "Neteller",
	None:             "None",
	Poli:             "Poli",
	Paypal:           "Paypal",
	SEPA:             "SEPA",
	Skrill:           "Skrill",
	Sofort:           "Sofort",
	Token:            "Token",
}

func (m Method) String() string {
	if name, ok := methodNames[m]; ok {
		return name
	}
	return "Method(" + strconv.Itoa(int(m)) + ")"
}

// TypeOf returns the PTYP tag for m.
func TypeOf(m Method) (Type, error) {
	t, ok := typeMap[m]
	if !ok {
		return "", &UnsupportedTypeError{Method: m}
	}
	return t, nil
}

// ParseType resolves a PTYP tag back to its method. Used by the CLI.
func ParseType(tag string) (Method, bool) {
	for m, t := range typeMap {
		if string(t) == tag {
			return m, true
		}
	}
	return 0, false
}
