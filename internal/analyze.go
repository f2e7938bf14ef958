package internal

import (
	"log/slog"

	"github.com/sensiblebit/kafstore"
)

// ChainEntry is one analyzed certificate block: metadata on success, a
// diagnostic on decode failure. Exactly one of Info and Error is set.
type ChainEntry struct {
	Index int                `json:"index"`
	Info  *kafstore.CertInfo `json:"info,omitempty"`
	Error string             `json:"error,omitempty"`
	// Root marks the first block of the chain, by position. Trusted reports
	// whether a root block's certificate is present in the embedded Mozilla
	// bundle; nil when the check does not apply.
	Root    bool  `json:"is_root"`
	Trusted *bool `json:"mozilla_trusted,omitempty"`
}

// AnalysisResult holds the analyzed entries for one input stream.
type AnalysisResult struct {
	Certificates []ChainEntry `json:"certificates"`
}

// AnalyzeChain splits a PEM stream and extracts metadata for every block.
// This is the bulk analysis mode: a block that fails to decode is recorded
// with its diagnostic and skipped, the remaining blocks are still analyzed.
// Position accounting is preserved so a bad block never shifts later
// indices. The first block is marked as the chain root by convention.
func AnalyzeChain(text string, checkTrust bool) *AnalysisResult {
	result := &AnalysisResult{}

	for i, block := range kafstore.SplitCertificateBlocks(text) {
		entry := ChainEntry{Index: i, Root: i == 0}

		info, err := kafstore.ExtractInfo(block, i)
		if err != nil {
			slog.Debug("skipping undecodable certificate", "index", i, "error", err)
			entry.Error = err.Error()
			result.Certificates = append(result.Certificates, entry)
			continue
		}
		entry.Info = info

		if checkTrust && info.SelfSigned {
			if cert, err := kafstore.ParsePEMCertificate([]byte(block)); err == nil {
				trusted := MozillaTrusted(cert)
				entry.Trusted = &trusted
			}
		}

		result.Certificates = append(result.Certificates, entry)
	}

	return result
}
