package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/sensiblebit/kafstore"
	"github.com/sensiblebit/kafstore/internal"
	"github.com/spf13/cobra"
)

var (
	analyzeFormat     string
	analyzeCheckTrust bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <chain.pem>",
	Short: "Analyze every certificate in a PEM chain",
	Long:  "Split a PEM file into certificate blocks and show subject, issuer, validity, and self-signed status for each. Undecodable blocks are reported and skipped.",
	Example: `  kafstore analyze ca-chain.pem
  kafstore analyze ca-chain.pem --check-trust
  kafstore analyze ca-chain.pem --format json | jq .`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeFormat, "format", internal.DefaultFormat(), "Output format: table, text, or json")
	analyzeCmd.Flags().BoolVar(&analyzeCheckTrust, "check-trust", false, "Check self-signed roots against the embedded Mozilla CA bundle")

	registerCompletion(analyzeCmd, completionInput{
		flagName:     "format",
		completeFunc: fixedCompletion("table", "text", "json"),
	})
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	internal.SetupLogger(logLevel)

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading chain file: %w", err)
	}

	// DER and PKCS#7 inputs are re-rendered as PEM so the same chain
	// analysis applies.
	text := string(data)
	if !kafstore.IsPEM(data) {
		certs, err := kafstore.ParseCertificatesAny(data)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", args[0], err)
		}
		var sb strings.Builder
		for _, cert := range certs {
			sb.WriteString(kafstore.CertToPEM(cert))
		}
		text = sb.String()
	}

	result := internal.AnalyzeChain(text, analyzeCheckTrust)
	if len(result.Certificates) == 0 {
		return fmt.Errorf("no certificates found in %s", args[0])
	}

	output, err := internal.FormatAnalysis(result, analyzeFormat)
	if err != nil {
		return err
	}
	fmt.Print(output)
	return nil
}
