package internal

import (
	"fmt"
	"time"

	"github.com/sensiblebit/kafstore"
)

// VerifyInput holds the raw material for a pre-generation sanity check.
type VerifyInput struct {
	CAChainPEM string
	BundlePEM  string
	KeyPEM     string
	Passwords  []string
}

// VerifyResult reports checks on uploaded material before any store is
// assembled: does the key match the leaf, how many CA certificates were
// found, is the chain root publicly trusted, and is anything expired.
type VerifyResult struct {
	LeafSubject string   `json:"leaf_subject,omitempty"`
	KeyMatch    *bool    `json:"key_match,omitempty"`
	CACount     int      `json:"ca_count"`
	RootTrusted *bool    `json:"root_mozilla_trusted,omitempty"`
	Warnings    []string `json:"warnings,omitempty"`
	Errors      []string `json:"errors,omitempty"`
}

// VerifyMaterial checks the three PEM inputs for the mistakes that would
// otherwise only surface as an opaque tool failure mid-pipeline: a key that
// does not belong to the leaf, an empty CA chain, expired certificates.
// Unlike the pipeline this never invokes external tools.
func VerifyMaterial(input VerifyInput) *VerifyResult {
	result := &VerifyResult{}

	caBlocks := kafstore.SplitCertificateBlocks(input.CAChainPEM)
	result.CACount = len(caBlocks)
	if len(caBlocks) == 0 {
		result.Errors = append(result.Errors, "no certificates found in CA chain")
	} else if root, err := kafstore.ParsePEMCertificate([]byte(caBlocks[0])); err == nil {
		trusted := MozillaTrusted(root)
		result.RootTrusted = &trusted
	}

	leaf, err := kafstore.ParsePEMCertificate([]byte(input.BundlePEM))
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("parsing bundle: %v", err))
	} else {
		result.LeafSubject = leaf.Subject.String()
		if time.Now().After(leaf.NotAfter) {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("leaf certificate expired %s", leaf.NotAfter.UTC().Format("2006-01-02")))
		}
	}

	key, err := kafstore.ParsePEMPrivateKeyWithPasswords([]byte(input.KeyPEM), input.Passwords)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("parsing private key: %v", err))
	} else if leaf != nil {
		match, err := kafstore.KeyMatchesCert(key, leaf)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("comparing key: %v", err))
		} else {
			result.KeyMatch = &match
			if !match {
				result.Errors = append(result.Errors, "private key does not match the bundle's leaf certificate")
			}
		}
	}

	// Expired CA certificates still import, but the handshake will fail
	for i, block := range caBlocks {
		cert, err := kafstore.ParsePEMCertificate([]byte(block))
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("CA certificate %d is not decodable: %v", i, err))
			continue
		}
		if time.Now().After(cert.NotAfter) {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("CA certificate %d expired %s", i, cert.NotAfter.UTC().Format("2006-01-02")))
		}
	}

	return result
}
