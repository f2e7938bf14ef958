package main

import (
	"archive/zip"
	"fmt"
	"io"
	"os"

	"github.com/sensiblebit/kafstore/internal"
	"github.com/spf13/cobra"
)

var (
	testBootstrap  string
	testArchive    string
	testTruststore string
	testKeystore   string
	testP12        string
	testStorePass  string
	testStrategy   string
	testChainPath  string
	testBundlePath string
	testKeyPath    string
)

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Test a Kafka connection with generated stores",
	Long: `Validate generated stores against a live broker. Strategies are tried in
order: the Kafka admin CLI if installed (lists topics), an openssl s_client
handshake, and finally an in-process mutual-TLS handshake built from the
stores themselves. Supplying PEM material instead of stores assembles
throwaway stores first and tests with those.`,
	Example: `  kafstore test --bootstrap broker:9093 --archive kafka-ssl-config.zip --store-password kp
  kafstore test --bootstrap broker:9093 --truststore truststore.jks --keystore keystore.jks --store-password kp
  kafstore test --bootstrap broker:9093 --ca-chain ca.pem --bundle cert.pem --key key.pem --store-password kp`,
	RunE: runTest,
}

func init() {
	testCmd.Flags().StringVarP(&testBootstrap, "bootstrap", "b", "", "Kafka bootstrap server host:port (required)")
	testCmd.Flags().StringVar(&testArchive, "archive", "", "Generated ZIP to read stores from")
	testCmd.Flags().StringVar(&testTruststore, "truststore", "", "Truststore JKS file")
	testCmd.Flags().StringVar(&testKeystore, "keystore", "", "Keystore JKS file")
	testCmd.Flags().StringVar(&testP12, "keystore-p12", "", "Keystore PKCS#12 file (preferred for the native probe)")
	testCmd.Flags().StringVar(&testStorePass, "store-password", "", "Password shared by the stores (required)")
	testCmd.Flags().StringVar(&testStrategy, "strategy", "", "Force one probe strategy: kafka-cli, openssl, or native-tls")
	testCmd.Flags().StringVar(&testChainPath, "ca-chain", "", "CA chain PEM file (generate stores before testing)")
	testCmd.Flags().StringVar(&testBundlePath, "bundle", "", "Certificate bundle PEM file (generate stores before testing)")
	testCmd.Flags().StringVar(&testKeyPath, "key", "", "Private key PEM file (generate stores before testing)")

	for _, flag := range []string{"archive", "truststore", "keystore", "keystore-p12", "ca-chain", "bundle", "key"} {
		registerCompletion(testCmd, completionInput{flagName: flag, completeFunc: fileCompletion})
	}
	registerCompletion(testCmd, completionInput{
		flagName:     "strategy",
		completeFunc: fixedCompletion("kafka-cli", "openssl", "native-tls"),
	})

	_ = testCmd.MarkFlagRequired("bootstrap")
	_ = testCmd.MarkFlagRequired("store-password")
}

func runTest(cmd *cobra.Command, args []string) error {
	internal.SetupLogger(logLevel)

	input := internal.ProbeInput{
		Bootstrap: testBootstrap,
		Password:  testStorePass,
	}
	if err := loadProbeStores(cmd, &input); err != nil {
		return err
	}
	if len(input.Truststore) == 0 {
		return fmt.Errorf("no truststore supplied (use --archive, --truststore, or PEM material)")
	}

	runner := internal.NewToolRunner()
	var result *internal.ProbeResult
	if testStrategy != "" {
		var err error
		result, err = internal.ProbeStrategy(cmd.Context(), runner, testStrategy, input)
		if err != nil {
			return err
		}
	} else {
		result = internal.Probe(cmd.Context(), runner, input)
	}

	var errs []string
	if !result.Success {
		errs = append(errs, result.Message)
	}
	recordRun("test", "", testBootstrap, result.Success, []string{result.Message}, errs)

	fmt.Printf("[%s] %s\n", result.Strategy, result.Message)
	for _, topic := range result.Topics {
		fmt.Printf("  %s\n", topic)
	}
	if result.Details != "" {
		fmt.Printf("  %s\n", result.Details)
	}
	if !result.Success {
		return fmt.Errorf("connection test failed")
	}
	return nil
}

// loadProbeStores fills the probe input from PEM material, the generated
// archive, or individual store files. Explicit store flags override archive
// entries.
func loadProbeStores(cmd *cobra.Command, input *internal.ProbeInput) error {
	if testChainPath != "" || testBundlePath != "" || testKeyPath != "" {
		if err := assembleProbeStores(cmd, input); err != nil {
			return err
		}
	}
	if testArchive != "" {
		if err := loadArchiveStores(input); err != nil {
			return err
		}
	}
	for _, f := range []struct {
		path string
		dest *[]byte
	}{
		{testTruststore, &input.Truststore},
		{testKeystore, &input.Keystore},
		{testP12, &input.KeystoreP12},
	} {
		if f.path == "" {
			continue
		}
		data, err := os.ReadFile(f.path)
		if err != nil {
			return fmt.Errorf("reading store: %w", err)
		}
		*f.dest = data
	}
	return nil
}

// assembleProbeStores runs the pipeline on supplied PEM material and points
// the probe at the in-memory artifacts. Nothing is written to disk.
func assembleProbeStores(cmd *cobra.Command, input *internal.ProbeInput) error {
	if testChainPath == "" || testBundlePath == "" || testKeyPath == "" {
		return fmt.Errorf("generate-then-test needs --ca-chain, --bundle, and --key together")
	}
	chain, err := os.ReadFile(testChainPath)
	if err != nil {
		return fmt.Errorf("reading CA chain: %w", err)
	}
	bundle, err := os.ReadFile(testBundlePath)
	if err != nil {
		return fmt.Errorf("reading bundle: %w", err)
	}
	key, err := os.ReadFile(testKeyPath)
	if err != nil {
		return fmt.Errorf("reading key: %w", err)
	}

	result := internal.Assemble(cmd.Context(), internal.NewToolRunner(), internal.AssembleInput{
		CAChainPEM:         string(chain),
		BundlePEM:          string(bundle),
		KeyPEM:             string(key),
		Alias:              "client",
		TruststorePassword: testStorePass,
		KeystorePassword:   testStorePass,
		Bootstrap:          testBootstrap,
	})
	if !result.Success {
		for _, msg := range result.ErrorStrings() {
			fmt.Fprintf(os.Stderr, "  %s\n", msg)
		}
		return fmt.Errorf("assembling test stores failed")
	}

	input.Truststore = result.Artifact(internal.ArtifactTruststore).Data
	input.Keystore = result.Artifact(internal.ArtifactKeystoreJKS).Data
	input.KeystoreP12 = result.Artifact(internal.ArtifactKeystoreP12).Data
	return nil
}

func loadArchiveStores(input *internal.ProbeInput) error {
	zr, err := zip.OpenReader(testArchive)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		var dest *[]byte
		switch f.Name {
		case internal.ArtifactTruststore:
			dest = &input.Truststore
		case internal.ArtifactKeystoreJKS:
			dest = &input.Keystore
		case internal.ArtifactKeystoreP12:
			dest = &input.KeystoreP12
		default:
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return fmt.Errorf("reading %s from archive: %w", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return fmt.Errorf("reading %s from archive: %w", f.Name, err)
		}
		*dest = data
	}
	return nil
}
