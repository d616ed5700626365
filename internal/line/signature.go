package line

import (
	"errors"
	"strings"

	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"
)

// SignatureHeader carries the base64 HMAC-SHA256 of the raw request body.
const SignatureHeader = "X-Line-Signature"

var ErrInvalidSignature = errors.New("invalid signature")

// Verifier checks webhook bodies against the channel secret.
type Verifier struct {
	secret string
}

func NewVerifier(channelSecret string) Verifier {
	return Verifier{secret: channelSecret}
}

// Verify returns ErrInvalidSignature unless signature is the base64-encoded
// HMAC-SHA256 of body keyed by the channel secret.
func (v Verifier) Verify(body []byte, signature string) error {
	signature = strings.TrimSpace(signature)
	if v.secret == "" || signature == "" {
		return ErrInvalidSignature
	}
	if !webhook.ValidateSignature(v.secret, signature, body) {
		return ErrInvalidSignature
	}
	return nil
}
