package main

import (
	"fmt"
	"os"

	"github.com/sensiblebit/kafstore/internal"
	"github.com/spf13/cobra"
)

var (
	verifyChainPath  string
	verifyBundlePath string
	verifyKeyPath    string
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check PEM material before generating stores",
	Long:  "Check that the private key matches the bundle's leaf certificate, that the CA chain contains certificates, and that nothing is expired. Runs entirely in-process, no external tools.",
	Example: `  kafstore verify --ca-chain ca.pem --bundle cert.pem --key key.pem`,
	RunE:    runVerify,
}

func init() {
	verifyCmd.Flags().StringVar(&verifyChainPath, "ca-chain", "", "CA chain PEM file (required)")
	verifyCmd.Flags().StringVar(&verifyBundlePath, "bundle", "", "Certificate bundle PEM file (required)")
	verifyCmd.Flags().StringVar(&verifyKeyPath, "key", "", "Private key PEM file (required)")

	for _, flag := range []string{"ca-chain", "bundle", "key"} {
		registerCompletion(verifyCmd, completionInput{flagName: flag, completeFunc: fileCompletion})
	}

	_ = verifyCmd.MarkFlagRequired("ca-chain")
	_ = verifyCmd.MarkFlagRequired("bundle")
	_ = verifyCmd.MarkFlagRequired("key")
}

func runVerify(cmd *cobra.Command, args []string) error {
	internal.SetupLogger(logLevel)

	passwords, err := keyPasswords()
	if err != nil {
		return err
	}

	chain, err := os.ReadFile(verifyChainPath)
	if err != nil {
		return fmt.Errorf("reading CA chain: %w", err)
	}
	bundle, err := os.ReadFile(verifyBundlePath)
	if err != nil {
		return fmt.Errorf("reading bundle: %w", err)
	}
	key, err := os.ReadFile(verifyKeyPath)
	if err != nil {
		return fmt.Errorf("reading key: %w", err)
	}

	result := internal.VerifyMaterial(internal.VerifyInput{
		CAChainPEM: string(chain),
		BundlePEM:  string(bundle),
		KeyPEM:     string(key),
		Passwords:  passwords,
	})

	if result.LeafSubject != "" {
		fmt.Printf("Leaf:      %s\n", result.LeafSubject)
	}
	if result.KeyMatch != nil {
		fmt.Printf("Key match: %v\n", *result.KeyMatch)
	}
	fmt.Printf("CA certs:  %d\n", result.CACount)
	if result.RootTrusted != nil {
		fmt.Printf("Root in Mozilla bundle: %v\n", *result.RootTrusted)
	}
	for _, w := range result.Warnings {
		fmt.Printf("Warning: %s\n", w)
	}
	for _, e := range result.Errors {
		fmt.Printf("Error: %s\n", e)
	}

	if len(result.Errors) > 0 {
		return fmt.Errorf("verification failed")
	}
	return nil
}
