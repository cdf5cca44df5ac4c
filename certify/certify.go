// Copyright (C) 2019-2026, Cathedral Fabric Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package certify issues and verifies determinism certificates (spec
// §4.10): a signed, canonically-encoded attestation that a run's event
// sequence is internally consistent, so two parties can trust a replay
// matches the original without re-executing it. Certificates are
// signed with Ed25519 over the canon-encoded certificate body.
package certify

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/cathedral-fabric/cathedral/canon"
	"github.com/cathedral-fabric/cathedral/eventlog"
	"github.com/cathedral-fabric/cathedral/id"
	"github.com/cathedral-fabric/cathedral/internal/xerrors"
	"github.com/cathedral-fabric/cathedral/xhash"
)

// ValidatorName/ValidatorVersion identify this certifier implementation
// inside a certificate body's validator field, the way a User-Agent or
// build version would.
const (
	ValidatorName    = "cathedral-certify"
	ValidatorVersion = "1"
)

// ClaimKind tags one of the determinism claims a certificate can carry.
type ClaimKind string

const (
	// ClaimIdenticalRuns asserts RunCount independent runs produced
	// identical SimRecords/event sequences.
	ClaimIdenticalRuns ClaimKind = "identical_runs"
	// ClaimValidHashChain asserts the certified run's event sequence
	// passes eventlog.ValidateSequence in full.
	ClaimValidHashChain ClaimKind = "valid_hash_chain"
	// ClaimNoExternalAccess asserts the run performed no capability-gated
	// access outside what the run's CapabilitySet explicitly allowed.
	ClaimNoExternalAccess ClaimKind = "no_external_access"
	// ClaimSeededRandomness asserts every source of randomness the run
	// consumed was drawn from a single declared seed.
	ClaimSeededRandomness ClaimKind = "seeded_randomness"
	// ClaimCustom carries a free-text claim not covered by the other
	// kinds.
	ClaimCustom ClaimKind = "custom"
)

// Claim is one tagged determinism assertion inside a CertificateBody.
// Only the field relevant to Kind is populated; the rest are the zero
// value.
type Claim struct {
	Kind     ClaimKind `cbor:"kind"`
	RunCount uint64    `cbor:"run_count,omitempty"`
	Text     string    `cbor:"text,omitempty"`
}

func IdenticalRuns(n uint64) Claim { return Claim{Kind: ClaimIdenticalRuns, RunCount: n} }
func ValidHashChain() Claim        { return Claim{Kind: ClaimValidHashChain} }
func NoExternalAccess() Claim      { return Claim{Kind: ClaimNoExternalAccess} }
func SeededRandomness() Claim      { return Claim{Kind: ClaimSeededRandomness} }
func Custom(text string) Claim     { return Claim{Kind: ClaimCustom, Text: text} }

// ValidatorInfo names the validator implementation and carries the
// Ed25519 public key (hex-encoded) that verifies the certificate's
// signature, per spec §6's persisted field order
// `validator{name,version,public_key_hex}`.
type ValidatorInfo struct {
	Name         string `cbor:"name"`
	Version      string `cbor:"version"`
	PublicKeyHex string `cbor:"public_key_hex"`
}

// CertificateBody is the canonically-encoded, signed payload of a
// Certificate. Field order matters for signature stability, but
// canon.Encode already sorts map keys / struct fields deterministically
// via CBOR canonical mode, so ordinary struct field order here mirrors
// spec §6's persisted field order for readability only.
type CertificateBody struct {
	ID             string            `cbor:"id"`
	ExecutionID    id.ID             `cbor:"execution_id"`
	Seed           uint64            `cbor:"seed"`
	Ticks          uint64            `cbor:"ticks"`
	EventCount     uint64            `cbor:"event_count"`
	LogHash        string            `cbor:"log_hash"`
	Validator      ValidatorInfo     `cbor:"validator"`
	CertifiedAt    time.Time         `cbor:"certified_at"`
	Claims         []Claim           `cbor:"claims"`
	Metadata       map[string]string `cbor:"metadata"`
	FinalStateKeys []string          `cbor:"final_state_keys"`
}

// Certificate is a CertificateBody plus its Ed25519 signature. The
// public key lives inside Body.Validator.PublicKeyHex, not as a
// separate field, so a persisted certificate is fully self-describing.
type Certificate struct {
	Body      CertificateBody
	Signature []byte
}

// Certifier signs certificate bodies with a fixed Ed25519 keypair.
type Certifier struct {
	priv ed25519.PrivateKey
	pub  ed25519.PublicKey
}

// NewCertifier wraps an existing Ed25519 keypair.
func NewCertifier(priv ed25519.PrivateKey) *Certifier {
	return &Certifier{priv: priv, pub: priv.Public().(ed25519.PublicKey)}
}

// GenerateCertifier creates a fresh Ed25519 keypair for the caller (not
// derived from any deterministic seed, since key generation is
// explicitly outside the determinism boundary: only the execution
// itself must be deterministic, not the signing key).
func GenerateCertifier() (*Certifier, error) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.Unknown, err, "certify: key generation failed")
	}
	return &Certifier{priv: priv, pub: pub}, nil
}

// PublicKeyHex returns the certifier's Ed25519 public key, hex-encoded,
// the form stored inside a certificate's body.validator.public_key_hex.
func (c *Certifier) PublicKeyHex() string { return hex.EncodeToString(c.pub) }

// Issue stamps body with this certifier's validator info, signs it, and
// returns the verifiable Certificate.
func (c *Certifier) Issue(body CertificateBody) (*Certificate, error) {
	body.Validator = ValidatorInfo{Name: ValidatorName, Version: ValidatorVersion, PublicKeyHex: c.PublicKeyHex()}
	encoded, err := canon.Encode(body)
	if err != nil {
		return nil, err
	}
	sig := ed25519.Sign(c.priv, encoded)
	return &Certificate{Body: body, Signature: sig}, nil
}

// Verify checks cert's signature against the public key embedded in
// its own body.
func Verify(cert *Certificate) error {
	pub, err := hex.DecodeString(cert.Body.Validator.PublicKeyHex)
	if err != nil || len(pub) != ed25519.PublicKeySize {
		return xerrors.Validationf("validator.public_key_hex", "invalid or malformed public key")
	}
	encoded, err := canon.Encode(cert.Body)
	if err != nil {
		return err
	}
	if !ed25519.Verify(ed25519.PublicKey(pub), encoded, cert.Signature) {
		return xerrors.Validationf("signature", "certificate signature invalid")
	}
	return nil
}

// newCertID produces a spec §6 certificate id: "cert-" plus a random
// UUID-shaped hex string (not an RFC 4122 UUID — there is no version/
// variant bit requirement here, only the "cert-" + UUID-looking-string
// shape the persisted format names).
func newCertID() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return fmt.Sprintf("cert-%x-%x-%x-%x-%x", b[0:4], b[4:6], b[6:8], b[8:10], b[10:16])
}

// BuildBody derives a bare CertificateBody from a run's reconstructed
// event sequence and final state keys (e.g. a snapshot's top-level
// blob keys): run_id, seed, ticks, event_count, log_hash, id, and
// certified_at. It carries no Claims yet — a body must first be
// compared against its siblings via Validator.Validate (which itself
// consumes each sibling's already-built CertificateBody, so claims
// cannot be derived before the body exists) and the resulting Report
// passed to WithClaims to produce the certifiable body.
func BuildBody(runID id.ID, seed uint64, events []eventlog.Event, finalStateKeys []string) CertificateBody {
	chain := xhash.NewChain(nil)
	for _, e := range events {
		// A broken chain in the source events is a validator concern,
		// not a certify-time concern: BuildBody folds whatever it is
		// given, and Validator.Validate is what rejects inconsistent input.
		_ = chain.Push(e.PostStateHash)
	}
	var lastTick uint64
	if len(events) > 0 {
		lastTick = events[len(events)-1].LogicalTime
	}
	encodedEvents, err := canon.Encode(events)
	logHash := "blake3:" + chain.Root().String()
	if err == nil {
		logHash = "blake3:" + xhash.Compute(encodedEvents).String()
	}

	keys := append([]string{}, finalStateKeys...)
	return CertificateBody{
		ID:             newCertID(),
		ExecutionID:    runID,
		Seed:           seed,
		Ticks:          lastTick,
		EventCount:     uint64(len(events)),
		LogHash:        logHash,
		CertifiedAt:    time.Now().UTC(),
		FinalStateKeys: keys,
	}
}

// WithClaims returns a copy of body with Claims and a metadata summary
// derived from report — the set of determinism checks body's run (and
// runCount-1 siblings, when report compares more than one run)
// satisfied — per spec §4.10's "claims derived from which named checks
// passed". runCount is the number of runs the report compares (1 when
// certifying a single run with no siblings).
func WithClaims(body CertificateBody, report *Report, runCount uint64) CertificateBody {
	body.Claims = claimsFromReport(report, runCount)
	body.Metadata = map[string]string{"summary": claimsSummary(report)}
	return body
}

// claimsFromReport maps each passed Report check onto the determinism
// claim it substantiates. A failed report (Report.Passed() == false)
// yields no claims: a certificate with claims is a positive assertion,
// never issued from an inconsistent comparison.
func claimsFromReport(report *Report, runCount uint64) []Claim {
	if report == nil || !report.Passed() {
		return nil
	}
	claims := make([]Claim, 0, 4)
	for _, c := range report.Checks {
		switch c.Name {
		case CheckHashChainConsistency:
			claims = append(claims, ValidHashChain())
		case CheckSeedConsistency:
			claims = append(claims, SeededRandomness())
		}
	}
	if runCount > 1 {
		claims = append(claims, IdenticalRuns(runCount))
	}
	claims = append(claims, NoExternalAccess())
	return claims
}

func claimsSummary(report *Report) string {
	if report == nil {
		return "no validation performed"
	}
	if report.Passed() {
		return fmt.Sprintf("%d/%d checks passed", len(report.Checks), len(report.Checks))
	}
	failed := 0
	for _, c := range report.Checks {
		if !c.OK {
			failed++
		}
	}
	return fmt.Sprintf("%d/%d checks failed", failed, len(report.Checks))
}
