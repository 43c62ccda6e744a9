// Package keys holds the process-wide RSA signing key material. The key is
// loaded exactly once at startup and is immutable afterwards, which makes it
// safe for unsynchronized concurrent reads. The public half is exposed as an
// RFC 7517 key set so other services can verify access tokens without a
// shared secret.
package keys

import (
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
)

// JWK is the public description of the signing key.
type JWK struct {
	Kty string `json:"kty"`
	Use string `json:"use"`
	Alg string `json:"alg"`
	Kid string `json:"kid"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// JWKS is the document served on the discovery endpoint.
type JWKS struct {
	Keys []JWK `json:"keys"`
}

// Provider exposes the private key for signing and the public key set for
// verification. Construct it with Load; a zero Provider is unusable.
type Provider struct {
	private *rsa.PrivateKey
	jwks    JWKS
}

// Load parses the RSA private key from pemValue, or from the file at pemFile
// when pemValue is empty. Both PKCS#1 and PKCS#8 encodings are accepted. Any
// failure here must abort startup: the service cannot issue tokens without
// the key.
func Load(pemValue, pemFile string) (*Provider, error) {
	data := []byte(pemValue)
	if len(data) == 0 {
		if pemFile == "" {
			return nil, errors.New("keys: no private key configured")
		}
		b, err := os.ReadFile(pemFile)
		if err != nil {
			return nil, fmt.Errorf("keys: read %s: %w", pemFile, err)
		}
		data = b
	}
	key, err := parsePrivateKey(data)
	if err != nil {
		return nil, err
	}
	p := &Provider{private: key}
	p.jwks = JWKS{Keys: []JWK{publicJWK(&key.PublicKey)}}
	return p, nil
}

// Private returns the signing key for access tokens.
func (p *Provider) Private() *rsa.PrivateKey { return p.private }

// Public returns the verification half of the signing key.
func (p *Provider) Public() *rsa.PublicKey { return &p.private.PublicKey }

// PublicKeySet returns the published JWKS document.
func (p *Provider) PublicKeySet() JWKS { return p.jwks }

func parsePrivateKey(data []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errors.New("keys: no PEM block in private key material")
	}
	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("keys: parse private key: %w", err)
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, errors.New("keys: private key is not RSA")
	}
	return key, nil
}

// publicJWK encodes pub per RFC 7518: n and e are big-endian bytes in
// unpadded base64url. The kid is derived from the modulus so it stays stable
// across restarts with the same key.
func publicJWK(pub *rsa.PublicKey) JWK {
	eBuf := make([]byte, 8)
	binary.BigEndian.PutUint64(eBuf, uint64(pub.E))
	i := 0
	for i < len(eBuf)-1 && eBuf[i] == 0 {
		i++
	}
	nBytes := pub.N.Bytes()
	sum := sha256.Sum256(nBytes)
	return JWK{
		Kty: "RSA",
		Use: "sig",
		Alg: "RS256",
		Kid: hex.EncodeToString(sum[:8]),
		N:   base64.RawURLEncoding.EncodeToString(nBytes),
		E:   base64.RawURLEncoding.EncodeToString(eBuf[i:]),
	}
}
