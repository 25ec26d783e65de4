package vnpay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret  = "test-secret"
	testTmnCode = "TESTTMN1"
)

func signedParams(t *testing.T, v *Verifier) map[string]string {
	t.Helper()
	params := map[string]string{
		ParamTmnCode:      testTmnCode,
		ParamResponseCode: "00",
		ParamTxnRef:       "12-3-500000-77",
		"vnp_Amount":      "50000000",
		"vnp_OrderInfo":   "fee payment room 12",
	}
	params[ParamSecureHash] = v.Sign(params)
	return params
}

func TestVerifyAcceptsValidSignature(t *testing.T) {
	v := New(testSecret, testTmnCode)

	n, verdict := v.Verify(signedParams(t, v))
	require.Equal(t, VerdictOK, verdict)
	assert.Equal(t, "00", n.ResponseCode)
	assert.Equal(t, "12-3-500000-77", n.TxnRef)
}

func TestVerifyMissingFields(t *testing.T) {
	v := New(testSecret, testTmnCode)

	for _, field := range []string{ParamSecureHash, ParamTmnCode, ParamResponseCode, ParamTxnRef} {
		params := signedParams(t, v)
		delete(params, field)
		_, verdict := v.Verify(params)
		assert.Equal(t, VerdictMissingFields, verdict, "missing %s", field)
	}
}

func TestVerifyRejectsTamperedValue(t *testing.T) {
	v := New(testSecret, testTmnCode)

	// Mutating any single signed value, including a case flip, must flip the
	// verdict.
	mutations := map[string]string{
		"vnp_Amount":    "50000001",
		"vnp_OrderInfo": "Fee payment room 12",
		ParamTxnRef:     "12-3-500000-78",
	}
	for key, mutated := range mutations {
		params := signedParams(t, v)
		params[key] = mutated
		_, verdict := v.Verify(params)
		assert.Equal(t, VerdictInvalidSignature, verdict, "mutated %s", key)
	}
}

func TestVerifyRejectsWrongMerchantCode(t *testing.T) {
	v := New(testSecret, testTmnCode)

	params := signedParams(t, v)
	other := New(testSecret, "OTHERTMN")
	_, verdict := other.Verify(params)
	assert.Equal(t, VerdictInvalidSignature, verdict)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	v := New(testSecret, testTmnCode)
	params := signedParams(t, v)

	other := New("other-secret", testTmnCode)
	_, verdict := other.Verify(params)
	assert.Equal(t, VerdictInvalidSignature, verdict)
}

func TestVerifyCanonicalizationEncodesValues(t *testing.T) {
	v := New(testSecret, testTmnCode)

	params := map[string]string{
		ParamTmnCode:      testTmnCode,
		ParamResponseCode: "00",
		ParamTxnRef:       "12-3-500000-77",
		"vnp_OrderInfo":   "thanh toan phi & dich vu",
	}
	params[ParamSecureHash] = v.Sign(params)

	_, verdict := v.Verify(params)
	assert.Equal(t, VerdictOK, verdict)
}

func TestParseRef(t *testing.T) {
	ref, err := ParseRef("12-3-500000-77")
	require.NoError(t, err)
	assert.Equal(t, Ref{Room: 12, FeeID: 3, Amount: 500000, Nonce: 77}, ref)
	assert.Equal(t, "12-3-500000-77", ref.String())

	_, err = ParseRef("12-3-500000")
	assert.Error(t, err)

	_, err = ParseRef("12-3-abc-77")
	assert.Error(t, err)
}

func TestSuccessResponseCode(t *testing.T) {
	assert.True(t, SuccessResponseCode("00"))
	assert.True(t, SuccessResponseCode("07"))
	assert.False(t, SuccessResponseCode("24"))
	assert.False(t, SuccessResponseCode(""))
}
