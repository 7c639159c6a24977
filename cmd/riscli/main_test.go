package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ris-sdk/internal/khash"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// testConfigKey is "ris-test-salt" in Base85.
const testConfigKey = "EbTSHFCfN8/TY?:F8"

func isolateConfig(t *testing.T) {
	t.Helper()
	t.Setenv("RIS_CONFIG_FILE", filepath.Join(t.TempDir(), "missing.json"))
}

func TestHashCmd(t *testing.T) {
	isolateConfig(t)

	t.Run("Payment token", func(t *testing.T) {
		out, err := run(t, "hash", "6011476613608633", "--salt", "ris-test-salt")
		require.NoError(t, err)
		assert.Equal(t, "601147RRMVLUSLX9GOFU\n", out)
	})

	t.Run("Gift card", func(t *testing.T) {
		out, err := run(t, "hash", "6011476613608633", "--salt", "ris-test-salt", "--gift", "--merchant", "900100")
		require.NoError(t, err)
		assert.Equal(t, "900100RRMVLUSLX9GOFU\n", out)
	})

	t.Run("Gift card needs merchant", func(t *testing.T) {
		_, err := run(t, "hash", "6011476613608633", "--salt", "ris-test-salt", "--gift")
		assert.Error(t, err)
	})

	t.Run("Config key from environment", func(t *testing.T) {
		t.Setenv("RIS_CONFIG_KEY", testConfigKey)

		out, err := run(t, "hash", "XYZ123661360SKMB")
		require.NoError(t, err)
		assert.Equal(t, "XYZ123XJI9RRG8WRGGBB\n", out)
	})

	t.Run("Raw config key from environment", func(t *testing.T) {
		t.Setenv("RIS_CONFIG_KEY", "ris-test-salt")
		t.Setenv("RIS_RAW_CONFIG_KEY", "true")

		out, err := run(t, "hash", "XYZ123661360SKMB")
		require.NoError(t, err)
		assert.Equal(t, "XYZ123XJI9RRG8WRGGBB\n", out)
	})

	t.Run("Invalid config key", func(t *testing.T) {
		t.Setenv("RIS_CONFIG_KEY", "{not base85}")

		_, err := run(t, "hash", "XYZ123661360SKMB")
		assert.ErrorIs(t, err, khash.ErrInvalidConfigKey)
	})

	t.Run("Missing salt", func(t *testing.T) {
		t.Setenv("RIS_CONFIG_KEY", "")

		_, err := run(t, "hash", "6011476613608633")
		assert.Error(t, err)
	})
}

func TestMaskCmd(t *testing.T) {
	out, err := run(t, "mask", "0007380568572514")
	require.NoError(t, err)
	assert.Equal(t, "000738XXXXXX2514\n", out)

	_, err = run(t, "mask", "12345")
	assert.Error(t, err)
}

func TestInquiryCmd(t *testing.T) {
	isolateConfig(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "900100", r.PostForm.Get("MERC"))
		assert.Equal(t, "TOKEN", r.PostForm.Get("PTYP"))
		assert.Equal(t, "601147RRMVLUSLX9GOFU", r.PostForm.Get("PTOK"))
		assert.Equal(t, "ORD-1", r.PostForm.Get("ORDR"))
		assert.NotEmpty(t, r.PostForm.Get("SESS"))
		_, _ = w.Write([]byte("MODE=Q\nAUTO=A\n"))
	}))
	defer server.Close()

	t.Setenv("RIS_MERCHANT_ID", "900100")
	t.Setenv("RIS_URL", server.URL)
	t.Setenv("RIS_CONFIG_KEY", testConfigKey)
	t.Setenv("RIS_API_KEY", "static-key")
	t.Setenv("APP_ENV", "test")

	out, err := run(t, "inquiry", "--type", "token", "--id", "6011476613608633", "--order", "ORD-1")
	require.NoError(t, err)
	assert.Equal(t, "MODE=Q\nAUTO=A\n", out)

	t.Run("Unknown payment type", func(t *testing.T) {
		_, err := run(t, "inquiry", "--type", "BITCOIN", "--id", "abc")
		assert.ErrorContains(t, err, "unknown payment type")
	})

	t.Run("Metrics dump", func(t *testing.T) {
		out, err := run(t, "inquiry", "--type", "token", "--id", "6011476613608633", "--order", "ORD-1", "--metrics-dump")
		require.NoError(t, err)
		assert.Contains(t, out, `ris_requests_total{mode="static",outcome="ok"} 1`)
		assert.Contains(t, out, "ris_request_duration_seconds")
		assert.True(t, strings.HasSuffix(out, "MODE=Q\nAUTO=A\n"))
	})
}
