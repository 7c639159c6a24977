package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"ris-sdk/internal/auth"
	"ris-sdk/internal/config"
	"ris-sdk/internal/logger"
	"ris-sdk/internal/metrics"
	"ris-sdk/internal/payment"
	"ris-sdk/internal/ris"
)

func inquiryCmd() *cobra.Command {
	var (
		paymentType string
		paymentID   string
		session     string
		order       string
		mode        string
		masked      bool
		dumpMetrics bool
	)

	cmd := &cobra.Command{
		Use:   "inquiry",
		Short: "Send a risk inquiry built from the configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			logger.Init(cfg.AppEnv)

			inq, err := ris.NewInquiry(cfg)
			if err != nil {
				return err
			}
			inq.SetMode(ris.InquiryMode(mode))
			if session == "" {
				session = uuid.New().String()
			}
			inq.SetSessionID(session)
			if order != "" {
				inq.SetOrderNumber(order)
			}

			if err := setPayment(inq, paymentType, paymentID, masked); err != nil {
				return err
			}

			reg := prometheus.NewRegistry()
			client, err := newClient(cfg, reg)
			if err != nil {
				return err
			}

			body, sendErr := client.Send(cmd.Context(), inq.Request)
			if dumpMetrics {
				if err := writeMetrics(cmd.ErrOrStderr(), reg); err != nil {
					return err
				}
			}
			if sendErr != nil {
				return sendErr
			}

			fmt.Fprint(cmd.OutOrStdout(), string(body))
			return nil
		},
	}

	cmd.Flags().StringVar(&paymentType, "type", "NONE", "Payment type tag (TOKEN, CARD, GIFT, ...)")
	cmd.Flags().StringVar(&paymentID, "id", "", "Raw payment identifier")
	cmd.Flags().BoolVar(&masked, "masked", false, "Send a MASK encoded card instead of KHASH")
	cmd.Flags().StringVar(&session, "session", "", "Session id (generated when empty)")
	cmd.Flags().StringVar(&order, "order", "", "Merchant order number")
	cmd.Flags().StringVar(&mode, "mode", string(ris.InquiryModeQ), "Inquiry mode (Q, P, W, J)")
	cmd.Flags().BoolVar(&dumpMetrics, "metrics-dump", false, "Write request and token metrics to stderr after sending")

	return cmd
}

func setPayment(inq *ris.Inquiry, tag, id string, masked bool) error {
	if masked {
		return inq.SetCardPaymentMasked(id)
	}

	method, ok := payment.ParseType(strings.ToUpper(tag))
	if !ok {
		return fmt.Errorf("unknown payment type %q", tag)
	}
	return inq.SetPayment(method, id)
}

func newClient(cfg *config.Config, reg prometheus.Registerer) (*ris.Client, error) {
	m := metrics.New(reg)

	var cache *auth.TokenCache
	if cfg.MigrationModeEnabled() {
		fetcher := auth.NewHTTPFetcher(cfg.PaymentsFraud.AuthURL, cfg.PaymentsFraud.APIKey, cfg.Timeout())
		cache = auth.NewTokenCache(fetcher, auth.WithMetrics(m))
	}

	provider, err := auth.NewProvider(cfg, cache)
	if err != nil {
		return nil, err
	}
	return ris.NewClient(cfg, provider, ris.WithMetrics(m)), nil
}

// writeMetrics prints every family gathered from g in the Prometheus text
// exposition format.
func writeMetrics(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
