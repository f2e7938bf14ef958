package main

import (
	"strings"

	"github.com/sensiblebit/kafstore/internal"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	logLevel     string
	dbPath       string
	passwordList string
	passwordFile string
)

var rootCmd = &cobra.Command{
	Use:   "kafstore",
	Short: "Kafka SSL store assembly tool",
	Long:  "Turn PEM certificate chains and keys into JKS/PKCS#12 trust and key stores, generate the matching Kafka client configuration, and test the result against a live broker.",
}

func init() {
	// Accept underscore spellings (--log_level) for flag names.
	rootCmd.SetGlobalNormalizationFunc(func(f *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Run-history SQLite database path (default: in-memory)")
	rootCmd.PersistentFlags().StringVarP(&passwordList, "passwords", "p", "", "Comma-separated passwords for encrypted keys")
	rootCmd.PersistentFlags().StringVar(&passwordFile, "password-file", "", "File containing passwords, one per line")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(testCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(historyCmd)
}

// keyPasswords resolves the candidate password list for encrypted uploaded
// keys from the persistent flags.
func keyPasswords() ([]string, error) {
	var list []string
	if passwordList != "" {
		list = strings.Split(passwordList, ",")
	}
	return internal.ProcessPasswords(list, passwordFile)
}
