package kafstore

import (
	"fmt"
	"time"
)

// CertInfo holds the display metadata extracted from one certificate block.
type CertInfo struct {
	// Index is the certificate's position in the source chain.
	Index int `json:"index"`
	// Subject is the distinguished name rendered in RFC 2253 form.
	Subject string `json:"subject"`
	// Issuer is the issuer distinguished name in the same form.
	Issuer string `json:"issuer"`
	// NotBefore and NotAfter bound the validity window, in UTC.
	NotBefore time.Time `json:"not_before"`
	NotAfter  time.Time `json:"not_after"`
	// SelfSigned reports whether the rendered subject equals the rendered
	// issuer. This is a display heuristic, not signature verification.
	SelfSigned bool `json:"self_signed"`
	// Fingerprint is the SHA-256 fingerprint as lowercase hex.
	Fingerprint string `json:"sha256_fingerprint"`
	// Type is "root", "intermediate", or "leaf".
	Type string `json:"type"`
}

// ExtractionError reports a certificate block that could not be decoded,
// carrying the block's position in the source chain.
type ExtractionError struct {
	Index int
	Err   error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("certificate %d: %v", e.Index, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// ExtractInfo decodes one PEM certificate block and extracts its display
// metadata. The index records the block's position in the source chain.
// Decode failures (malformed DER inside the armor, truncated content) return
// an *ExtractionError; the caller decides whether to skip and continue.
//
// pkix.Name.String renders RFC 2253 with a deterministic attribute ordering,
// so the same certificate always produces identical subject and issuer
// strings and the self-signed comparison is stable.
func ExtractInfo(pemBlock string, index int) (*CertInfo, error) {
	cert, err := ParsePEMCertificate([]byte(pemBlock))
	if err != nil {
		return nil, &ExtractionError{Index: index, Err: err}
	}

	subject := cert.Subject.String()
	issuer := cert.Issuer.String()

	return &CertInfo{
		Index:       index,
		Subject:     subject,
		Issuer:      issuer,
		NotBefore:   cert.NotBefore.UTC(),
		NotAfter:    cert.NotAfter.UTC(),
		SelfSigned:  subject == issuer,
		Fingerprint: CertFingerprint(cert),
		Type:        GetCertificateType(cert),
	}, nil
}
