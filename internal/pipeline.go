package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"
	"unicode/utf8"

	"github.com/sensiblebit/kafstore"
)

// TrustStrategy selects which CA chain certificates are imported into the
// trust-store.
type TrustStrategy int

const (
	// ImportAllCerts imports every certificate in the chain, each under its
	// own position-derived alias.
	ImportAllCerts TrustStrategy = iota
	// ImportRootOnly imports only the first certificate of the chain.
	ImportRootOnly
)

// toolTimeout bounds each external tool invocation in the pipeline.
const toolTimeout = 60 * time.Second

// Pipeline step names, used to tag errors with their origin.
const (
	StepTruststore = "truststore"
	StepExport     = "export"
	StepConvert    = "convert"
	StepVerify     = "verify"
)

// Artifact names produced by a successful pipeline run.
const (
	ArtifactTruststore  = "truststore.jks"
	ArtifactKeystoreP12 = "keystore.p12"
	ArtifactKeystoreJKS = "keystore.jks"
	ArtifactCAChainP7B  = "ca-chain.p7b"
	ArtifactProperties  = "client-ssl.properties"
)

// AssembleInput holds the raw material and parameters for one pipeline run.
// Password fields are sensitive: they travel through the result into the
// generated properties artifact and must never be logged.
type AssembleInput struct {
	CAChainPEM         string
	BundlePEM          string
	KeyPEM             string
	Alias              string
	TruststorePassword string
	KeystorePassword   string
	Bootstrap          string
	Strategy           TrustStrategy
}

// StoreArtifact is one named blob produced by a pipeline run, held in memory
// only. Sensitive artifacts contain private key material.
type StoreArtifact struct {
	Name      string
	Data      []byte
	Sensitive bool
}

// PipelineResult is the outcome of one Assemble run. Success is true iff
// every step exited zero and every declared artifact was read back into
// memory. On failure Artifacts is empty: partial stores are never exposed.
type PipelineResult struct {
	Success   bool
	Artifacts []StoreArtifact
	// Info holds ordered step messages for display.
	Info []string
	// Errors holds the failures collected before the run aborted, each a
	// *InputError, *ParseError, or *ToolInvocationError.
	Errors []error
	// Inputs echoes the original material and passwords; downstream needs
	// them for the properties artifact and probe. Treat as sensitive.
	Inputs AssembleInput
}

// Artifact returns the named artifact, or nil if the run did not produce it.
func (r *PipelineResult) Artifact(name string) *StoreArtifact {
	for i := range r.Artifacts {
		if r.Artifacts[i].Name == name {
			return &r.Artifacts[i]
		}
	}
	return nil
}

// ErrorStrings renders the collected errors for display or journaling.
func (r *PipelineResult) ErrorStrings() []string {
	out := make([]string, len(r.Errors))
	for i, err := range r.Errors {
		out[i] = err.Error()
	}
	return out
}

// fail records err and returns the result with no artifacts exposed.
func (r *PipelineResult) fail(err error) *PipelineResult {
	r.Errors = append(r.Errors, err)
	r.Artifacts = nil
	return r
}

// checkInput validates one PEM input field before any tool runs.
func checkInput(field, value string) error {
	if value == "" {
		return &InputError{Field: field, Err: errors.New("empty PEM material")}
	}
	if !utf8.ValidString(value) {
		return &InputError{Field: field, Err: errors.New("not valid UTF-8 text")}
	}
	return nil
}

// Assemble runs the ordered store-assembly pipeline: trust-store population
// via keytool, PKCS#12 export via openssl, and PKCS#12-to-JKS conversion via
// keytool. Steps are strictly ordered and fail-fast: the first failing step
// aborts the run, and the work area is discarded on every exit path.
func Assemble(ctx context.Context, runner ToolRunner, input AssembleInput) *PipelineResult {
	result := &PipelineResult{Inputs: input}

	for _, in := range []struct{ field, value string }{
		{"ca_chain", input.CAChainPEM},
		{"bundle", input.BundlePEM},
		{"key", input.KeyPEM},
	} {
		if err := checkInput(in.field, in.value); err != nil {
			return result.fail(err)
		}
	}

	caBlocks := kafstore.SplitCertificateBlocks(input.CAChainPEM)
	if len(caBlocks) == 0 {
		return result.fail(&ParseError{Msg: "no certificates found in CA chain"})
	}
	if input.Strategy == ImportRootOnly {
		caBlocks = caBlocks[:1]
	}

	work, err := NewWorkDir()
	if err != nil {
		return result.fail(&InputError{Field: "workdir", Err: err})
	}
	defer work.Close()

	bundlePath, err := work.WriteFile("bundle.pem", []byte(input.BundlePEM), false)
	if err != nil {
		return result.fail(&InputError{Field: "bundle", Err: err})
	}
	keyPath, err := work.WriteFile("key.pem", []byte(input.KeyPEM), true)
	if err != nil {
		return result.fail(&InputError{Field: "key", Err: err})
	}

	truststorePath := work.Path(ArtifactTruststore)
	p12Path := work.Path(ArtifactKeystoreP12)
	jksPath := work.Path(ArtifactKeystoreJKS)

	// Step 1: trust-store population, one keytool import per certificate.
	// A failure on any single certificate aborts the step; a partial
	// trust-store is never exposed.
	for i, block := range caBlocks {
		certPath, err := work.WriteFile(fmt.Sprintf("ca_%d.pem", i), []byte(block), false)
		if err != nil {
			return result.fail(&InputError{Field: "ca_chain", Err: err})
		}
		ta := trustAlias(input.Alias, i)
		res, err := runner.Run(ctx, toolTimeout, "keytool",
			"-import", "-file", certPath,
			"-alias", ta,
			"-keystore", truststorePath,
			"-storepass", input.TruststorePassword,
			"-noprompt")
		if err != nil {
			return result.fail(stepFailure(StepTruststore, res, err))
		}
		if res.ExitCode != 0 {
			return result.fail(&ToolInvocationError{
				Step:        StepTruststore,
				Diagnostics: fmt.Sprintf("importing certificate %d: %s", i, res.Diagnostics()),
			})
		}
		slog.Debug("imported CA certificate", "alias", ta, "index", i)
	}
	result.Info = append(result.Info, fmt.Sprintf("truststore created with %d CA certificates", len(caBlocks)))

	// Step 2: PKCS#12 export of the leaf bundle and key.
	res, err := runner.Run(ctx, toolTimeout, "openssl",
		"pkcs12", "-export",
		"-in", bundlePath,
		"-inkey", keyPath,
		"-name", input.Alias,
		"-out", p12Path,
		"-passout", "pass:"+input.KeystorePassword)
	if err != nil {
		return result.fail(stepFailure(StepExport, res, err))
	}
	if res.ExitCode != 0 {
		return result.fail(&ToolInvocationError{Step: StepExport, Diagnostics: res.Diagnostics()})
	}
	result.Info = append(result.Info, "PKCS#12 keystore created")

	// Step 3: PKCS#12 to JKS conversion under the same alias and password.
	res, err = runner.Run(ctx, toolTimeout, "keytool",
		"-importkeystore",
		"-srckeystore", p12Path,
		"-srcstoretype", "pkcs12",
		"-srcstorepass", input.KeystorePassword,
		"-destkeystore", jksPath,
		"-deststoretype", "jks",
		"-deststorepass", input.KeystorePassword,
		"-alias", input.Alias)
	if err != nil {
		return result.fail(stepFailure(StepConvert, res, err))
	}
	if res.ExitCode != 0 {
		return result.fail(&ToolInvocationError{Step: StepConvert, Diagnostics: res.Diagnostics()})
	}
	result.Info = append(result.Info, "JKS keystore created")

	// Read every declared artifact back into memory. A missing or unreadable
	// artifact fails the run even though its step exited zero.
	for _, a := range []struct {
		step, name, path string
		sensitive        bool
	}{
		{StepTruststore, ArtifactTruststore, truststorePath, false},
		{StepExport, ArtifactKeystoreP12, p12Path, true},
		{StepConvert, ArtifactKeystoreJKS, jksPath, true},
	} {
		data, err := os.ReadFile(a.path)
		if err != nil {
			return result.fail(&ToolInvocationError{
				Step:        a.step,
				Diagnostics: fmt.Sprintf("reading %s: %v", a.name, err),
			})
		}
		result.Artifacts = append(result.Artifacts, StoreArtifact{Name: a.name, Data: data, Sensitive: a.sensitive})
	}

	if err := verifyArtifacts(result, input, len(caBlocks)); err != nil {
		return result.fail(err)
	}

	// Certs-only PKCS#7 rendition of the CA chain, for clients that want a
	// single-file trust bundle. Best-effort: the chain already imported
	// cleanly, so a parse failure here only drops the extra artifact.
	if certs, err := kafstore.ParsePEMCertificates([]byte(input.CAChainPEM)); err == nil {
		if p7, err := kafstore.EncodePKCS7(certs); err == nil {
			result.Artifacts = append(result.Artifacts, StoreArtifact{Name: ArtifactCAChainP7B, Data: p7})
		}
	}

	props := GenerateProperties(PropertiesInput{
		Bootstrap:          input.Bootstrap,
		TruststorePath:     "/absolute/path/to/" + ArtifactTruststore,
		KeystorePath:       "/absolute/path/to/" + ArtifactKeystoreJKS,
		TruststorePassword: input.TruststorePassword,
		KeystorePassword:   input.KeystorePassword,
	})
	result.Artifacts = append(result.Artifacts, StoreArtifact{Name: ArtifactProperties, Data: []byte(props), Sensitive: true})

	result.Success = true
	slog.Info("store assembly complete", "alias", input.Alias, "artifacts", len(result.Artifacts))
	return result
}

// trustAlias derives the per-certificate trust-store alias from the base
// alias and the certificate's chain position.
func trustAlias(alias string, index int) string {
	return fmt.Sprintf("%s-ca-%d", alias, index)
}

// stepFailure maps a runner-level error (timeout or spawn failure) to a
// step-tagged ToolInvocationError.
func stepFailure(step string, res *ToolResult, err error) error {
	if res != nil && res.TimedOut {
		return &ToolInvocationError{
			Step:        step,
			Diagnostics: fmt.Sprintf("tool did not finish within %s", toolTimeout),
		}
	}
	return &ToolInvocationError{Step: step, Diagnostics: err.Error()}
}

// verifyArtifacts loads the produced stores back with in-process decoders so
// a structurally broken artifact fails the run instead of surfacing later at
// the client. The truststore must hold exactly the expected aliases and the
// keystores must open under the supplied passwords.
func verifyArtifacts(result *PipelineResult, input AssembleInput, caCount int) error {
	ts := result.Artifact(ArtifactTruststore)
	aliases, err := kafstore.JKSTrustedAliases(ts.Data, input.TruststorePassword)
	if err != nil {
		return &ToolInvocationError{Step: StepVerify, Diagnostics: fmt.Sprintf("truststore readback: %v", err)}
	}
	if len(aliases) != caCount {
		return &ToolInvocationError{
			Step:        StepVerify,
			Diagnostics: fmt.Sprintf("truststore holds %d entries, want %d", len(aliases), caCount),
		}
	}

	if _, _, _, err := kafstore.DecodePKCS12(result.Artifact(ArtifactKeystoreP12).Data, input.KeystorePassword); err != nil {
		return &ToolInvocationError{Step: StepVerify, Diagnostics: fmt.Sprintf("keystore.p12 readback: %v", err)}
	}
	if _, _, err := kafstore.DecodeJKS(result.Artifact(ArtifactKeystoreJKS).Data, input.KeystorePassword); err != nil {
		return &ToolInvocationError{Step: StepVerify, Diagnostics: fmt.Sprintf("keystore.jks readback: %v", err)}
	}
	return nil
}
