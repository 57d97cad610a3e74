// Package identity implements the certificate-bound identity and
// revocation layer (CL): it tracks valid producer certificates per
// identity prefix, enforces revocation, and verifies record and interest
// signatures. Grounded on the original dledger CertList
// (original_source/src/cert-list.cpp), reworked as a concurrency-safe Go
// type in the style of the teacher's engine/dag/state.serializer.
package identity

import (
	"crypto/ed25519"
	"crypto/x509"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/luxfi/dledger/internal/xset"
	"github.com/luxfi/dledger/log"
	"github.com/luxfi/dledger/record"
)

// Certificate is a producer certificate tracked by the List.
type Certificate struct {
	// FullName uniquely identifies this certificate (for revocation).
	FullName string
	// Identity is the producer identity prefix this certificate
	// authorizes.
	Identity string
	// DER is the raw certificate bytes.
	DER []byte
	// Cert is the parsed certificate.
	Cert *x509.Certificate
}

// List is the CertList (CL): map from identity prefix to certificates,
// the revocation set, and the rolling certificate-record frontier.
type List struct {
	mu sync.RWMutex

	log         log.Logger
	trustAnchor *x509.Certificate

	certs           map[string][]*Certificate
	revoked         xset.Set[string]
	lastCertRecords xset.Set[string]

	inserted prometheus.Counter
	revokes  prometheus.Counter
}

// New creates an empty CertList. trustAnchor may be nil, in which case
// every inserted certificate is trusted as-is (used in tests and for a
// peer acting as its own trust anchor); otherwise every inserted
// certificate must chain directly to trustAnchor, matching
// config.trustAnchorCert.
func New(trustAnchor *x509.Certificate, logger log.Logger, reg prometheus.Registerer) *List {
	if logger == nil {
		logger = log.NewNoOp()
	}
	l := &List{
		log:             logger,
		trustAnchor:     trustAnchor,
		certs:           make(map[string][]*Certificate),
		revoked:         xset.New[string](0),
		lastCertRecords: xset.New[string](0),
		inserted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dledger_identity_certs_inserted_total",
			Help: "Certificates accepted into the CertList.",
		}),
		revokes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dledger_identity_certs_revoked_total",
			Help: "Certificates revoked.",
		}),
	}
	if reg != nil {
		reg.MustRegister(l.inserted, l.revokes)
	}
	return l
}

// Insert adds cert under its identity prefix. It is a no-op if the
// certificate's full name is already revoked (spec.md §4.2). If a trust
// anchor is configured, cert must chain directly to it.
func (l *List) Insert(cert *Certificate) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.revoked.Contains(cert.FullName) {
		return nil
	}
	if l.trustAnchor != nil {
		if err := cert.Cert.CheckSignatureFrom(l.trustAnchor); err != nil {
			return err
		}
	}

	l.certs[cert.Identity] = append(l.certs[cert.Identity], cert)
	l.inserted.Inc()
	l.log.Info("inserted certificate", "identity", cert.Identity, "fullName", cert.FullName)
	return nil
}

// Revoke adds certFullName to the revoked set. Revocation is
// non-retroactive: records already admitted under the revoked
// certificate remain admitted (spec.md §8 scenario 6).
func (l *List) Revoke(certFullName string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.revoked.Add(certFullName)
	l.revokes.Inc()
	l.log.Info("revoked certificate", "fullName", certFullName)
}

// IsRevoked reports whether certFullName has been revoked.
func (l *List) IsRevoked(certFullName string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.revoked.Contains(certFullName)
}

// VerifyData returns true iff some non-revoked certificate under r's
// producer identity prefix validates r's signature over its content
// bytes.
func (l *List) VerifyData(r *record.Record) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	content := record.ContentBytes(r)
	for _, cert := range l.certs[r.ProducerIdentity] {
		if l.revoked.Contains(cert.FullName) {
			continue
		}
		if verifyWithCert(cert, r.Type, content, r.Signature) {
			return true
		}
	}
	return false
}

// VerifyInterest validates a signed administrative interest (spec.md
// §4.2): identity claims to own payload/signature.
func (l *List) VerifyInterest(identity string, payload, signature []byte) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, cert := range l.certs[identity] {
		if l.revoked.Contains(cert.FullName) {
			continue
		}
		pub, ok := cert.Cert.PublicKey.(ed25519.PublicKey)
		if !ok {
			continue
		}
		if ed25519.Verify(pub, payload, signature) {
			return true
		}
	}
	return false
}

// AuthorizedToGenerate reports whether localIdentity has at least one
// non-revoked certificate.
func (l *List) AuthorizedToGenerate(localIdentity string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, cert := range l.certs[localIdentity] {
		if !l.revoked.Contains(cert.FullName) {
			return true
		}
	}
	return false
}

// SetLastCertRecords registers name as the newest local certificate
// record and prunes any name in referenced from the frontier, mirroring
// the original CertList's push/remove-if logic.
func (l *List) SetLastCertRecords(name record.Name, referenced []record.Name) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lastCertRecords.Add(name.String())
	for _, r := range referenced {
		l.lastCertRecords.Remove(r.String())
	}
}

// LastCertRecords returns the current certificate-record frontier.
func (l *List) LastCertRecords() []record.Name {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]record.Name, 0, l.lastCertRecords.Len())
	for _, k := range l.lastCertRecords.List() {
		out = append(out, record.ParseName(k))
	}
	return out
}

func verifyWithCert(cert *Certificate, typ record.Type, content, signature []byte) bool {
	pub, ok := cert.Cert.PublicKey.(ed25519.PublicKey)
	if !ok {
		return false
	}
	switch typ {
	case record.Certificate, record.Revocation:
		return verifyCOSE(pub, content, signature)
	default:
		return ed25519.Verify(pub, content, signature)
	}
}
