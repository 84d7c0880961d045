package passvault

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Operations(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := newTestProtector(t, WithMetricsRegisterer(reg))
	key := bytes.Repeat([]byte{0x01}, KeySize)

	bp, err := p.CreateBlueprint([]byte("x"), key)
	require.NoError(t, err)
	_, err = p.ReconstructBlueprint(bp, key)
	require.NoError(t, err)
	_, err = p.ReconstructBlueprint(bp, bytes.Repeat([]byte{0x02}, KeySize))
	require.Error(t, err)
	_, err = p.ReconstructBlueprint("bad", key)
	require.Error(t, err)

	expected := `
# HELP passvault_operations_total Total number of passvault operations by result
# TYPE passvault_operations_total counter
passvault_operations_total{operation="create_blueprint",result="ok"} 1
passvault_operations_total{operation="reconstruct_blueprint",result="authentication"} 1
passvault_operations_total{operation="reconstruct_blueprint",result="malformed"} 1
passvault_operations_total{operation="reconstruct_blueprint",result="ok"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "passvault_operations_total"))
	assert.Equal(t, 2, testutil.CollectAndCount(p.metrics.duration))
}

func TestMetrics_UnlockHashFailure(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := newTestProtector(t, WithMetricsRegisterer(reg))

	_, err := p.GenerateDualUnlockHash("only one", "")
	require.Error(t, err)

	got := testutil.ToFloat64(p.metrics.operations.WithLabelValues(opGenerateUnlockHash, resultInvalidArgument))
	assert.Equal(t, 1.0, got)
}

func TestMetrics_SharedRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	a := newTestProtector(t, WithMetricsRegisterer(reg))
	b := newTestProtector(t, WithMetricsRegisterer(reg))

	_, err := a.GenerateID(4)
	require.NoError(t, err)
	_, _, err = a.DeriveMatrixKey([]string{"a"}, 1, "")
	require.NoError(t, err)
	_, _, err = b.DeriveMatrixKey([]string{"a"}, 1, "")
	require.NoError(t, err)

	got := testutil.ToFloat64(a.metrics.operations.WithLabelValues(opDeriveMatrixKey, resultOK))
	assert.Equal(t, 2.0, got)
}

func TestMetrics_Disabled(t *testing.T) {
	p := newTestProtector(t)
	assert.Nil(t, p.metrics)

	_, err := p.GenerateUnlockHash("still works")
	assert.NoError(t, err)
}

func TestResultOf(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, resultOK},
		{ErrInvalidPassphrase, resultInvalidPassphrase},
		{&ArgumentError{Message: "x"}, resultInvalidArgument},
		{fmt.Errorf("wrapped: %w", ErrUnsupportedSuite), resultInvalidArgument},
		{&MalformedInputError{Artifact: "voucher", Reason: "json"}, resultMalformed},
		{&AuthenticationError{Stage: "ek"}, resultAuthentication},
		{&KDFError{Err: errors.New("oom")}, resultKDF},
		{&SignatureVerificationError{Err: ErrSignatureInvalid}, resultSignature},
		{errors.New("other"), resultError},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, resultOf(tt.err))
		})
	}
}

func TestLogger_NoSecrets(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.TraceLevel)
	p := newTestProtector(t, WithLogger(logger))

	hash, err := p.GenerateUnlockHash("hunter2-passphrase")
	require.NoError(t, err)
	_, err = p.DecryptVoucher("bm90IGpzb24=", "wrong-candidate", hash, []byte("sys-secret-value"))
	require.ErrorIs(t, err, ErrInvalidPassphrase)

	out := buf.String()
	assert.Contains(t, out, `"operation":"decrypt_voucher"`)
	assert.Contains(t, out, `"result":"invalid_passphrase"`)
	assert.Contains(t, out, `"operation":"generate_unlock_hash"`)
	for _, secret := range []string{"hunter2-passphrase", "wrong-candidate", "sys-secret-value", hash} {
		assert.NotContains(t, out, secret)
	}
}
