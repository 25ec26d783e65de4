// Package vnpay authenticates inbound VNPay IPN notifications. The verifier
// is a pure gate over the notification's parameter map; it performs no I/O.
package vnpay

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// Parameter names defined by the gateway's notification schema.
const (
	ParamSecureHash   = "vnp_SecureHash"
	ParamTmnCode      = "vnp_TmnCode"
	ParamResponseCode = "vnp_ResponseCode"
	ParamTxnRef       = "vnp_TxnRef"
)

// Verdict is the outcome of verifying one notification.
type Verdict int

const (
	// VerdictOK: signature and merchant code check out.
	VerdictOK Verdict = iota
	// VerdictMissingFields: a required parameter is absent.
	VerdictMissingFields
	// VerdictInvalidSignature: the HMAC or merchant code did not match.
	VerdictInvalidSignature
)

// Notification is the authenticated payload a verifier hands to settlement.
type Notification struct {
	ResponseCode string
	TxnRef       string
}

// Verifier checks notification signatures against the pre-shared secret and
// the expected merchant code.
type Verifier struct {
	secret  []byte
	tmnCode string
}

func New(secretKey, tmnCode string) *Verifier {
	return &Verifier{secret: []byte(secretKey), tmnCode: tmnCode}
}

// Verify authenticates params. The signature parameter is excluded from the
// canonical string; every other parameter, merchant code included, is signed.
// Comparison is constant-time, and any single-byte change to a parameter
// value flips the verdict to VerdictInvalidSignature.
func (v *Verifier) Verify(params map[string]string) (Notification, Verdict) {
	signature, ok := params[ParamSecureHash]
	if !ok {
		return Notification{}, VerdictMissingFields
	}
	tmnCode, ok := params[ParamTmnCode]
	if !ok {
		return Notification{}, VerdictMissingFields
	}
	responseCode, ok := params[ParamResponseCode]
	if !ok {
		return Notification{}, VerdictMissingFields
	}
	txnRef, ok := params[ParamTxnRef]
	if !ok {
		return Notification{}, VerdictMissingFields
	}

	expected := v.sign(params)
	if tmnCode != v.tmnCode || !hmac.Equal([]byte(expected), []byte(signature)) {
		return Notification{}, VerdictInvalidSignature
	}

	return Notification{ResponseCode: responseCode, TxnRef: txnRef}, VerdictOK
}

// Sign computes the hex signature for params the way the gateway does. Used
// by tests and by outbound payment URL construction.
func (v *Verifier) Sign(params map[string]string) string {
	return v.sign(params)
}

func (v *Verifier) sign(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		if k == ParamSecureHash {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+url.QueryEscape(params[k]))
	}
	canonical := strings.Join(pairs, "&")

	mac := hmac.New(sha512.New, v.secret)
	mac.Write([]byte(canonical))
	return hex.EncodeToString(mac.Sum(nil))
}

// Ref is the transaction reference decoded from vnp_TxnRef, encoded by the
// payment URL builder as "room-feeId-amount-nonce".
type Ref struct {
	Room   int
	FeeID  uint64
	Amount int64
	Nonce  int64
}

// ParseRef decodes a transaction reference string.
func ParseRef(s string) (Ref, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 4 {
		return Ref{}, fmt.Errorf("transaction reference %q: want 4 dash-separated fields, got %d", s, len(parts))
	}

	room, err := strconv.Atoi(parts[0])
	if err != nil {
		return Ref{}, fmt.Errorf("transaction reference room: %w", err)
	}
	feeID, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return Ref{}, fmt.Errorf("transaction reference fee id: %w", err)
	}
	amount, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return Ref{}, fmt.Errorf("transaction reference amount: %w", err)
	}
	nonce, err := strconv.ParseInt(parts[3], 10, 64)
	if err != nil {
		return Ref{}, fmt.Errorf("transaction reference nonce: %w", err)
	}

	return Ref{Room: room, FeeID: feeID, Amount: amount, Nonce: nonce}, nil
}

// String encodes the reference the way ParseRef expects.
func (r Ref) String() string {
	return fmt.Sprintf("%d-%d-%d-%d", r.Room, r.FeeID, r.Amount, r.Nonce)
}

// SuccessResponseCode reports whether a gateway response code indicates a
// completed payment. "00" is success; "07" is success flagged for review.
func SuccessResponseCode(code string) bool {
	return code == "00" || code == "07"
}
