package kafstore

import "strings"

const (
	beginCertMarker = "-----BEGIN CERTIFICATE-----"
	endCertMarker   = "-----END CERTIFICATE-----"
)

// SplitCertificateBlocks splits a concatenated PEM stream into individual
// certificate blocks, each including its BEGIN and END marker lines. Blocks
// are returned in source order with line content preserved verbatim, since
// PEM decoding is sensitive to exact framing.
//
// Lines outside a block are ignored. A block whose BEGIN marker is never
// followed by an END marker is silently dropped, as is an accumulator
// abandoned by a second BEGIN marker. No base64 validation happens here;
// undecodable content surfaces later in ExtractInfo. This function never
// fails: an input with zero blocks yields an empty slice.
func SplitCertificateBlocks(text string) []string {
	var blocks []string
	var current []string
	inBlock := false

	for _, line := range strings.Split(text, "\n") {
		switch {
		case strings.Contains(line, beginCertMarker):
			// A new BEGIN discards any unterminated accumulator
			inBlock = true
			current = []string{line}
		case strings.Contains(line, endCertMarker) && inBlock:
			current = append(current, line)
			blocks = append(blocks, strings.Join(current, "\n"))
			inBlock = false
			current = nil
		case inBlock:
			current = append(current, line)
		}
	}

	return blocks
}

// RootCertificateBlock returns the first certificate block from a PEM chain,
// or "" if the chain contains no complete blocks. By convention the first
// certificate in a CA chain file is the root.
func RootCertificateBlock(text string) string {
	blocks := SplitCertificateBlocks(text)
	if len(blocks) == 0 {
		return ""
	}
	return blocks[0]
}
