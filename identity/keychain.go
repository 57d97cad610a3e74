package identity

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"errors"
	"math/big"
	"time"

	"github.com/luxfi/dledger/record"
)

// Keychain signs content on behalf of the local producer identity. It is
// the core's only dependency on key material; on-disk key storage is an
// external collaborator (spec.md §6/§9) and is never touched here.
type Keychain interface {
	// Identity returns the local producer identity prefix.
	Identity() string
	// Sign returns a signature over content, enveloped appropriately for
	// typ: CERTIFICATE/REVOCATION records get a COSE_Sign1 envelope,
	// everything else a bare Ed25519 signature (see VerifyData).
	Sign(typ record.Type, content []byte) ([]byte, error)
	// Certificate returns the certificate the signatures verify under.
	Certificate() *Certificate
}

// ed25519Keychain is a minimal in-memory Keychain, suitable for tests and
// for standalone peers that mint their own self-signed leaf certificate
// at startup. Production deployments plug in a Keychain backed by an
// external keychain/keystore instead.
type ed25519Keychain struct {
	identity string
	priv     ed25519.PrivateKey
	cert     *Certificate
}

// NewEd25519Keychain generates a fresh Ed25519 key pair, issues a
// certificate for identity signed by signerCert/signerKey (pass a nil
// signerCert to self-sign the certificate with the new key), and returns
// a ready-to-use Keychain.
func NewEd25519Keychain(identity string, signerCert *x509.Certificate, signerKey ed25519.PrivateKey) (Keychain, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	return newEd25519Keychain(identity, pub, priv, signerCert, signerKey)
}

// FromEd25519Key builds a Keychain around an already-generated Ed25519
// private key, self-signing a fresh leaf certificate for identity. It
// exists for callers that persist a key to disk across restarts (the
// genkey subcommand) rather than minting an ephemeral identity per run.
func FromEd25519Key(identity string, priv ed25519.PrivateKey) (Keychain, error) {
	return newEd25519Keychain(identity, priv.Public().(ed25519.PublicKey), priv, nil, nil)
}

func newEd25519Keychain(identity string, pub ed25519.PublicKey, priv ed25519.PrivateKey, signerCert *x509.Certificate, signerKey ed25519.PrivateKey) (Keychain, error) {
	template := &x509.Certificate{
		SerialNumber: big.NewInt(time.Now().UnixNano()),
		Subject:      pkix.Name{CommonName: identity},
		NotBefore:    time.Now().Add(-time.Minute),
		NotAfter:     time.Now().AddDate(1, 0, 0),
		KeyUsage:     x509.KeyUsageDigitalSignature,
	}

	parent := template
	signingKey := any(priv)
	if signerCert != nil {
		parent = signerCert
		signingKey = signerKey
	}

	der, err := x509.CreateCertificate(rand.Reader, template, parent, pub, signingKey)
	if err != nil {
		return nil, err
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, err
	}

	return &ed25519Keychain{
		identity: identity,
		priv:     priv,
		cert: &Certificate{
			FullName: identity + "/KEY/" + cert.SerialNumber.String(),
			Identity: identity,
			DER:      der,
			Cert:     cert,
		},
	}, nil
}

func (k *ed25519Keychain) Identity() string { return k.identity }

func (k *ed25519Keychain) Sign(typ record.Type, content []byte) ([]byte, error) {
	if k.priv == nil {
		return nil, errors.New("identity: keychain has no private key")
	}
	switch typ {
	case record.Certificate, record.Revocation:
		return signCOSE(k.priv, content)
	default:
		return ed25519.Sign(k.priv, content), nil
	}
}

func (k *ed25519Keychain) Certificate() *Certificate { return k.cert }
