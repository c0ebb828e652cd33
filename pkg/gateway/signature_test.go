package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

func TestVerifyCheckoutSignature(t *testing.T) {
	const secret = "checkout-secret"

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte("order_abc|pay_def"))
	good := hex.EncodeToString(mac.Sum(nil))

	if !VerifyCheckoutSignature(secret, "order_abc", "pay_def", good) {
		t.Fatalf("expected valid signature to verify")
	}

	if VerifyCheckoutSignature(secret, "order_abc", "pay_def", good[:len(good)-2]+"00") {
		t.Errorf("tampered signature verified")
	}

	if VerifyCheckoutSignature(secret, "order_abc", "pay_other", good) {
		t.Errorf("signature verified against different payment id")
	}

	if VerifyCheckoutSignature("wrong-secret", "order_abc", "pay_def", good) {
		t.Errorf("signature verified with wrong secret")
	}
}

func TestVerifyWebhookSignature(t *testing.T) {
	const secret = "webhook-secret"
	body := []byte(`{"event":"payment.captured"}`)

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	good := hex.EncodeToString(mac.Sum(nil))

	if !VerifyWebhookSignature(secret, body, good) {
		t.Fatalf("expected valid webhook signature to verify")
	}

	// Any change to the raw body must break the signature.
	tampered := []byte(`{"event":"payment.captured" }`)
	if VerifyWebhookSignature(secret, tampered, good) {
		t.Errorf("signature verified against modified body")
	}

	if VerifyWebhookSignature(secret, body, "") {
		t.Errorf("empty signature verified")
	}
}

func TestToMinorUnits(t *testing.T) {
	cases := []struct {
		amount float64
		want   int64
	}{
		{1178.82, 117882},
		{999, 99900},
		{0.01, 1},
		{0, 0},
	}

	for _, tc := range cases {
		if got := toMinorUnits(tc.amount); got != tc.want {
			t.Errorf("toMinorUnits(%v) = %d, want %d", tc.amount, got, tc.want)
		}
	}
}
