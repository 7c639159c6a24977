package ris

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"ris-sdk/internal/config"
	"ris-sdk/internal/khash"
	"ris-sdk/internal/logger"
	"ris-sdk/internal/payment"
)

type InquiryMode string

const (
	InquiryModeQ InquiryMode = "Q"
	InquiryModeP InquiryMode = "P"
	InquiryModeW InquiryMode = "W"
	InquiryModeJ InquiryMode = "J"
)

type UpdateMode string

const (
	UpdateModeU UpdateMode = "U"
	UpdateModeX UpdateMode = "X"
)

const hiddenToken = "payment token hidden"

// Request is the form posted to the risk endpoint. It is built and sent by
// one goroutine.
type Request struct {
	params     url.Values
	payment    payment.Payment
	encoder    *khash.Encoder
	dispatcher *payment.Dispatcher
	merchantID int64
	url        string

	timeout     time.Duration
	credentials credentials
}

// credentials are the static mode settings a single request may override.
type credentials struct {
	apiKey       string
	certFile     string
	certPassword string
	overridden   bool
}

func newRequest(cfg *config.Config) (*Request, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	merchant, setting := cfg.RIS.MerchantID, "ris.merchant_id"
	endpoint := cfg.RIS.URL
	if cfg.MigrationModeEnabled() {
		endpoint = cfg.PaymentsFraud.APIURL
		if cfg.PaymentsFraud.ClientID != "" {
			merchant, setting = cfg.PaymentsFraud.ClientID, "payments_fraud.client_id"
		} else {
			logger.L().Warn("client id is not set, falling back to merchant id",
				zap.String("merchant_id", cfg.RIS.MerchantID),
			)
		}
	}

	merchantID, err := strconv.ParseInt(strings.TrimSpace(merchant), 10, 64)
	if err != nil {
		return nil, &config.ConfigurationError{Setting: setting, Reason: "must be numeric"}
	}

	encoder, err := newEncoder(cfg)
	if err != nil {
		return nil, err
	}

	version := cfg.RIS.Version
	if version == "" {
		version = "0720"
	}

	r := &Request{
		params:  url.Values{},
		encoder: encoder,
		url:     endpoint,
		credentials: credentials{
			apiKey:       cfg.RIS.APIKey,
			certFile:     cfg.RIS.CertificateFile,
			certPassword: cfg.RIS.PrivateKeyPassword,
		},
	}
	r.SetMerchantID(merchantID)
	r.SetVersion(version)
	r.SetKhashPaymentEncoding(true)
	return r, nil
}

// newEncoder decodes ris.config_key unless ris.raw_config_key says it
// already holds the salt.
func newEncoder(cfg *config.Config) (*khash.Encoder, error) {
	if cfg.RIS.RawConfigKey {
		return khash.New(cfg.RIS.ConfigKey)
	}
	enc, err := khash.NewFromConfigKey(cfg.RIS.ConfigKey)
	if errors.Is(err, khash.ErrInvalidConfigKey) {
		return nil, &config.ConfigurationError{Setting: "ris.config_key", Reason: "must be base85 encoded"}
	}
	return enc, err
}

func (r *Request) URL() string {
	return r.url
}

// SetURL posts this request to endpoint instead of the configured one.
func (r *Request) SetURL(endpoint string) {
	r.url = endpoint
}

// SetConnectTimeout bounds this request instead of ris.connect_timeout.
// Zero restores the configured value.
func (r *Request) SetConnectTimeout(d time.Duration) {
	r.timeout = d
}

// SetAPIKey authenticates this request with key in static mode.
func (r *Request) SetAPIKey(key string) {
	r.credentials.apiKey = key
	r.credentials.overridden = true
}

// SetCertificate authenticates this request with a PKCS#12 client
// certificate in static mode. Any API key is dropped, because a key takes
// precedence over the certificate.
func (r *Request) SetCertificate(file, password string) {
	r.credentials.apiKey = ""
	r.credentials.certFile = file
	r.credentials.certPassword = password
	r.credentials.overridden = true
}

func (r *Request) staticCredentials() (credentials, bool) {
	return r.credentials, r.credentials.overridden
}

func (r *Request) MerchantID() int64 {
	return r.merchantID
}

// SetMerchantID changes MERC. Gift card hashes use the new value.
func (r *Request) SetMerchantID(merchantID int64) {
	r.merchantID = merchantID
	r.dispatcher = payment.NewDispatcher(r.encoder, merchantID)
	r.params.Set("MERC", strconv.FormatInt(merchantID, 10))
}

func (r *Request) SetVersion(version string)         { r.params.Set("VERS", version) }
func (r *Request) SetSessionID(sessionID string)     { r.params.Set("SESS", sessionID) }
func (r *Request) SetOrderNumber(orderNumber string) { r.params.Set("ORDR", orderNumber) }
func (r *Request) SetMack(mack rune)                 { r.params.Set("MACK", string(mack)) }
func (r *Request) SetAuth(auth rune)                 { r.params.Set("AUTH", string(auth)) }
func (r *Request) SetAvsz(avsz rune)                 { r.params.Set("AVSZ", string(avsz)) }
func (r *Request) SetAvst(avst rune)                 { r.params.Set("AVST", string(avst)) }
func (r *Request) SetCvvr(cvvr rune)                 { r.params.Set("CVVR", string(cvvr)) }
func (r *Request) SetLbin(lbin string)               { r.params.Set("LBIN", lbin) }
func (r *Request) SetCustomerID(customerID string)   { r.params.Set("CUSTOMER_ID", customerID) }

// SetParameter sets any form field not covered by a dedicated setter.
// Payment fields are owned by the payment setters and are ignored here.
func (r *Request) SetParameter(key, value string) {
	if isPaymentField(key) {
		return
	}
	r.params.Set(key, value)
}

// GetParam returns the value that will be posted for key.
func (r *Request) GetParam(key string) string {
	if isPaymentField(key) {
		return r.payment.Params().Get(key)
	}
	return r.params.Get(key)
}

// SetKhashPaymentEncoding switches between KHASH and raw tokens for the
// payment setters called afterwards.
func (r *Request) SetKhashPaymentEncoding(enabled bool) {
	if enabled {
		r.payment.Encoding = payment.EncodingKHash
		return
	}
	r.payment.Encoding = payment.EncodingNone
}

func (r *Request) SetPaymentEncoding(enc payment.Encoding) {
	r.payment.Encoding = enc
}

func (r *Request) SetPayment(method payment.Method, rawID string) error {
	return r.dispatcher.SetPayment(&r.payment, method, rawID)
}

func (r *Request) SetPaymentWithType(typ payment.Type, rawID string) error {
	return r.dispatcher.SetPaymentWithType(&r.payment, typ, rawID)
}

func (r *Request) SetCardPaymentMasked(cardNumber string) error {
	return r.dispatcher.SetCardPaymentMasked(&r.payment, cardNumber)
}

func (r *Request) SetNoPayment() {
	r.dispatcher.SetNoPayment(&r.payment)
}

func (r *Request) SetPaymentTokenLast4(last4 string) {
	r.payment.SetLast4(last4)
}

func (r *Request) Payment() payment.Payment {
	return r.payment
}

// Params returns the form that Send posts.
func (r *Request) Params() url.Values {
	v := url.Values{}
	for k, vals := range r.params {
		v[k] = append([]string(nil), vals...)
	}
	for k, vals := range r.payment.Params() {
		v[k] = vals
	}
	return v
}

func isPaymentField(key string) bool {
	switch key {
	case "PTYP", "PTOK", "PENC", "LAST4":
		return true
	}
	return false
}

// Inquiry asks the risk service to score a transaction.
type Inquiry struct {
	*Request
}

// NewInquiry builds a mode Q inquiry from cfg.
func NewInquiry(cfg *config.Config) (*Inquiry, error) {
	r, err := newRequest(cfg)
	if err != nil {
		return nil, err
	}
	inq := &Inquiry{Request: r}
	inq.SetMode(InquiryModeQ)
	return inq, nil
}

func (i *Inquiry) SetMode(mode InquiryMode) {
	i.params.Set("MODE", string(mode))
}

// Update changes a previously scored transaction.
type Update struct {
	*Request
}

// NewUpdate builds a mode U update from cfg.
func NewUpdate(cfg *config.Config) (*Update, error) {
	r, err := newRequest(cfg)
	if err != nil {
		return nil, err
	}
	u := &Update{Request: r}
	u.SetMode(UpdateModeU)
	return u, nil
}

func (u *Update) SetMode(mode UpdateMode) {
	u.params.Set("MODE", string(mode))
}

// SetTransactionID sets TRAN, the id returned by the inquiry being updated.
func (u *Update) SetTransactionID(transactionID string) {
	u.params.Set("TRAN", transactionID)
}
