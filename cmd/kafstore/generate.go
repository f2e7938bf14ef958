package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/sensiblebit/kafstore/internal"
	"github.com/spf13/cobra"
)

var (
	genChainPath    string
	genBundlePath   string
	genKeyPath      string
	genAlias        string
	genTrustPass    string
	genKeyPass      string
	genBootstrap    string
	genStrategy     string
	genProfile      string
	genProfilesPath string
	genOutPath      string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Assemble Kafka SSL stores from PEM material",
	Long: `Assemble a JKS truststore, PKCS#12 and JKS keystores, and a matching
client-ssl.properties from a CA chain, a certificate bundle, and a private
key, then package everything into a single ZIP. Requires keytool and openssl
on the PATH.`,
	Example: `  kafstore generate --ca-chain ca.pem --bundle cert.pem --key key.pem \
    --alias client --truststore-password tp --keystore-password kp
  kafstore generate --ca-chain ca.pem --bundle cert.pem --key key.pem --profile prod`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVar(&genChainPath, "ca-chain", "", "CA chain PEM file (required)")
	generateCmd.Flags().StringVar(&genBundlePath, "bundle", "", "Certificate bundle PEM file, leaf first (required)")
	generateCmd.Flags().StringVar(&genKeyPath, "key", "", "Private key PEM file (required)")
	generateCmd.Flags().StringVarP(&genAlias, "alias", "a", "", "Key-store alias and trust-store alias prefix")
	generateCmd.Flags().StringVar(&genTrustPass, "truststore-password", "", "Password for the generated truststore")
	generateCmd.Flags().StringVar(&genKeyPass, "keystore-password", "", "Password for the generated keystores")
	generateCmd.Flags().StringVarP(&genBootstrap, "bootstrap", "b", "", "Kafka bootstrap server host:port")
	generateCmd.Flags().StringVar(&genStrategy, "strategy", "", "Trust import strategy: all or root-only (default all)")
	generateCmd.Flags().StringVar(&genProfile, "profile", "", "Named profile supplying alias, passwords, and endpoint")
	generateCmd.Flags().StringVar(&genProfilesPath, "profiles-file", "profiles.yaml", "Profile YAML file")
	generateCmd.Flags().StringVarP(&genOutPath, "out", "o", "kafka-ssl-config.zip", "Output ZIP path")

	for _, flag := range []string{"ca-chain", "bundle", "key", "profiles-file"} {
		registerCompletion(generateCmd, completionInput{flagName: flag, completeFunc: fileCompletion})
	}
	registerCompletion(generateCmd, completionInput{
		flagName:     "strategy",
		completeFunc: fixedCompletion("all", "root-only"),
	})

	_ = generateCmd.MarkFlagRequired("ca-chain")
	_ = generateCmd.MarkFlagRequired("bundle")
	_ = generateCmd.MarkFlagRequired("key")
}

// applyProfile fills unset generation flags from the named profile.
func applyProfile() error {
	if genProfile == "" {
		return nil
	}
	profiles, err := internal.LoadProfiles(genProfilesPath)
	if err != nil {
		return fmt.Errorf("loading profiles: %w", err)
	}
	p, err := internal.FindProfile(profiles, genProfile)
	if err != nil {
		return err
	}
	if genAlias == "" {
		genAlias = p.Alias
	}
	if genTrustPass == "" {
		genTrustPass = p.TruststorePassword
	}
	if genKeyPass == "" {
		genKeyPass = p.KeystorePassword
	}
	if genBootstrap == "" {
		genBootstrap = p.Bootstrap
	}
	if genStrategy == "" {
		genStrategy = p.TrustStrategy
	}
	return nil
}

func runGenerate(cmd *cobra.Command, args []string) error {
	internal.SetupLogger(logLevel)

	if err := applyProfile(); err != nil {
		return err
	}
	if genAlias == "" {
		genAlias = "client"
	}
	if genTrustPass == "" || genKeyPass == "" {
		return fmt.Errorf("truststore and keystore passwords are required (flags or profile)")
	}
	strategy, err := (&internal.Profile{TrustStrategy: genStrategy}).Strategy()
	if err != nil {
		return err
	}

	chain, err := os.ReadFile(genChainPath)
	if err != nil {
		return fmt.Errorf("reading CA chain: %w", err)
	}
	bundle, err := os.ReadFile(genBundlePath)
	if err != nil {
		return fmt.Errorf("reading bundle: %w", err)
	}
	key, err := os.ReadFile(genKeyPath)
	if err != nil {
		return fmt.Errorf("reading key: %w", err)
	}

	result := internal.Assemble(cmd.Context(), internal.NewToolRunner(), internal.AssembleInput{
		CAChainPEM:         string(chain),
		BundlePEM:          string(bundle),
		KeyPEM:             string(key),
		Alias:              genAlias,
		TruststorePassword: genTrustPass,
		KeystorePassword:   genKeyPass,
		Bootstrap:          genBootstrap,
		Strategy:           strategy,
	})
	recordRun("generate", genAlias, genBootstrap, result.Success, result.Info, result.ErrorStrings())

	if !result.Success {
		for _, msg := range result.ErrorStrings() {
			fmt.Fprintf(os.Stderr, "  %s\n", msg)
		}
		return fmt.Errorf("store assembly failed")
	}

	archive, err := internal.BuildArchive(result.Artifacts)
	if err != nil {
		return fmt.Errorf("packaging artifacts: %w", err)
	}
	if err := os.WriteFile(genOutPath, archive, 0600); err != nil {
		return fmt.Errorf("writing %s: %w", genOutPath, err)
	}

	for _, msg := range result.Info {
		fmt.Println(msg)
	}
	fmt.Printf("Wrote %s (%d artifacts)\n", genOutPath, len(result.Artifacts))
	return nil
}

// recordRun journals the outcome when a history database is configured or
// defaulted. Journaling trouble never fails the command.
func recordRun(kind, alias, bootstrap string, success bool, info, errs []string) {
	h, err := internal.NewHistory(dbPath)
	if err != nil {
		slog.Warn("opening run history", "error", err)
		return
	}
	defer h.Close()
	if err := h.RecordRun(kind, alias, bootstrap, success, info, errs); err != nil {
		slog.Warn("recording run", "error", err)
	}
}
