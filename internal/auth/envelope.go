package auth

import (
	"crypto/ecdsa"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
)

// Header names carrying a signed request.
const (
	HeaderAddress   = "X-VRF-Address"
	HeaderMessage   = "X-VRF-Message"
	HeaderSignature = "X-VRF-Signature"
)

// Envelope is the signed message. Action binds the signature to one endpoint
// and Payload carries that endpoint's arguments.
type Envelope struct {
	Action    string          `json:"action"`
	ExpiresAt int64           `json:"expires_at"`
	Nonce     string          `json:"nonce"`
	Payload   json.RawMessage `json:"payload"`
}

// NewEnvelope wraps payload for action with a random nonce.
func NewEnvelope(action string, payload any, ttl time.Duration) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		Action:    action,
		ExpiresAt: time.Now().Add(ttl).Unix(),
		Nonce:     uuid.NewString(),
		Payload:   raw,
	}, nil
}

// Headers signs the envelope and returns the request headers that carry it.
func (e Envelope) Headers(key *ecdsa.PrivateKey) (http.Header, error) {
	msg, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	sig, err := Sign(msg, key)
	if err != nil {
		return nil, err
	}
	h := http.Header{}
	h.Set(HeaderAddress, crypto.PubkeyToAddress(key.PublicKey).Hex())
	h.Set(HeaderMessage, base64.StdEncoding.EncodeToString(msg))
	h.Set(HeaderSignature, hexutil.Encode(sig))
	return h, nil
}
