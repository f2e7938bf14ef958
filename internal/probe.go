package internal

import (
	"context"
	"crypto"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/sensiblebit/kafstore"
)

const (
	// kafkaProbeTimeout bounds the broker-admin CLI invocation.
	kafkaProbeTimeout = 30 * time.Second
	// tlsProbeTimeout bounds the handshake-only fallback probes.
	tlsProbeTimeout = 10 * time.Second
	// maxDiagnosticLen caps error detail length for display.
	maxDiagnosticLen = 800
)

// ProbeInput holds the stores and target for a connection test. Truststore
// and Keystore are JKS artifacts as produced by the pipeline; KeystoreP12 is
// optional and, when present, is the preferred source for the native client's
// key material.
type ProbeInput struct {
	Bootstrap   string
	Truststore  []byte
	Keystore    []byte
	KeystoreP12 []byte
	Password    string
}

// ProbeResult is the outcome of one connection test.
type ProbeResult struct {
	Success bool `json:"success"`
	// Strategy names the cascade stage that produced the verdict:
	// "kafka-cli", "openssl", or "native-tls".
	Strategy string   `json:"strategy"`
	Message  string   `json:"message"`
	Topics   []string `json:"topics,omitempty"`
	// Details carries diagnostic output, truncated to a bounded length.
	Details string `json:"details,omitempty"`
}

// Probe validates the produced stores against a live endpoint. Strategies
// are tried in order, first available wins: the Kafka admin CLI (full
// protocol check, lists topics), an openssl s_client handshake (coarse TLS
// connectivity), and finally an in-process mutual-TLS handshake built from
// the store artifacts. Absence of an external tool is not an error, only a
// reason to fall to the next strategy.
func Probe(ctx context.Context, runner ToolRunner, input ProbeInput) *ProbeResult {
	if bin, ok := lookupKafkaCLI(runner); ok {
		return probeKafkaCLI(ctx, runner, bin, input)
	}
	slog.Debug("kafka admin CLI not found, falling back")

	if _, ok := runner.LookPath("openssl"); ok {
		return probeOpenSSL(ctx, runner, input)
	}
	slog.Debug("openssl not found, falling back to native TLS client")

	return probeNativeTLS(ctx, input)
}

// ProbeStrategy runs one named probe strategy instead of the cascade. A
// strategy whose external tool is missing returns ErrProbeUnavailable.
func ProbeStrategy(ctx context.Context, runner ToolRunner, strategy string, input ProbeInput) (*ProbeResult, error) {
	switch strategy {
	case "kafka-cli":
		bin, ok := lookupKafkaCLI(runner)
		if !ok {
			return nil, fmt.Errorf("kafka admin CLI: %w", ErrProbeUnavailable)
		}
		return probeKafkaCLI(ctx, runner, bin, input), nil
	case "openssl":
		if _, ok := runner.LookPath("openssl"); !ok {
			return nil, fmt.Errorf("openssl: %w", ErrProbeUnavailable)
		}
		return probeOpenSSL(ctx, runner, input), nil
	case "native-tls":
		return probeNativeTLS(ctx, input), nil
	default:
		return nil, fmt.Errorf("unknown probe strategy %q (use kafka-cli, openssl, or native-tls)", strategy)
	}
}

// lookupKafkaCLI finds the broker-admin CLI under either of its two
// conventional names.
func lookupKafkaCLI(runner ToolRunner) (string, bool) {
	for _, name := range []string{"kafka-topics.sh", "kafka-topics"} {
		if path, ok := runner.LookPath(name); ok {
			return path, true
		}
	}
	return "", false
}

// probeKafkaCLI runs the broker-admin CLI with a generated client
// configuration pointing at the stores. A zero exit yields one topic per
// non-blank output line.
func probeKafkaCLI(ctx context.Context, runner ToolRunner, bin string, input ProbeInput) *ProbeResult {
	result := &ProbeResult{Strategy: "kafka-cli"}

	work, err := NewWorkDir()
	if err != nil {
		result.Message = "preparing work area failed"
		result.Details = truncate(err.Error())
		return result
	}
	defer work.Close()

	tsPath, err := work.WriteFile(ArtifactTruststore, input.Truststore, false)
	if err != nil {
		result.Message = "staging truststore failed"
		result.Details = truncate(err.Error())
		return result
	}
	ksPath, err := work.WriteFile(ArtifactKeystoreJKS, input.Keystore, true)
	if err != nil {
		result.Message = "staging keystore failed"
		result.Details = truncate(err.Error())
		return result
	}

	props := GenerateProperties(PropertiesInput{
		Bootstrap:          input.Bootstrap,
		TruststorePath:     tsPath,
		KeystorePath:       ksPath,
		TruststorePassword: input.Password,
		KeystorePassword:   input.Password,
	})
	propsPath, err := work.WriteFile(ArtifactProperties, []byte(props), true)
	if err != nil {
		result.Message = "staging client configuration failed"
		result.Details = truncate(err.Error())
		return result
	}

	res, err := runner.Run(ctx, kafkaProbeTimeout, bin,
		"--list",
		"--command-config", propsPath,
		"--bootstrap-server", input.Bootstrap)
	if err != nil {
		if res != nil && res.TimedOut {
			result.Message = (&ProbeTimeoutError{Target: input.Bootstrap, Bound: kafkaProbeTimeout}).Error()
		} else {
			result.Message = "running kafka admin CLI failed"
			result.Details = truncate(err.Error())
		}
		return result
	}
	if res.ExitCode != 0 {
		result.Message = "Kafka connection failed"
		result.Details = truncate(res.Diagnostics())
		return result
	}

	var topics []string
	for _, line := range strings.Split(res.Stdout, "\n") {
		if t := strings.TrimSpace(line); t != "" {
			topics = append(topics, t)
		}
	}
	result.Success = true
	result.Topics = topics
	result.Message = fmt.Sprintf("Connection successful, %d topics visible", len(topics))
	return result
}

// probeOpenSSL runs a handshake-only s_client probe. The CONNECTED marker in
// the output means a TLS session was established; this does not confirm the
// broker accepted the client certificate.
func probeOpenSSL(ctx context.Context, runner ToolRunner, input ProbeInput) *ProbeResult {
	result := &ProbeResult{Strategy: "openssl"}
	host, port := splitBootstrap(input.Bootstrap)

	res, err := runner.Run(ctx, tlsProbeTimeout, "openssl",
		"s_client", "-connect", net.JoinHostPort(host, port))
	if err != nil {
		if res != nil && res.TimedOut {
			result.Message = (&ProbeTimeoutError{Target: net.JoinHostPort(host, port), Bound: tlsProbeTimeout}).Error()
		} else {
			result.Message = "running openssl failed"
			result.Details = truncate(err.Error())
		}
		return result
	}

	if strings.Contains(res.Stdout, "CONNECTED(") {
		result.Success = true
		result.Message = fmt.Sprintf("TLS session established to %s:%s (handshake only, client cert not confirmed)", host, port)
		return result
	}
	result.Message = fmt.Sprintf("TLS connection to %s:%s failed", host, port)
	result.Details = truncate(res.Diagnostics())
	return result
}

// probeNativeTLS performs a full in-process mutual-TLS handshake using trust
// anchors and key material decoded from the store artifacts, and reports the
// negotiated protocol and cipher suite.
func probeNativeTLS(ctx context.Context, input ProbeInput) *ProbeResult {
	result := &ProbeResult{Strategy: "native-tls"}
	host, port := splitBootstrap(input.Bootstrap)
	target := net.JoinHostPort(host, port)

	cfg, err := tlsConfigFromStores(input)
	if err != nil {
		result.Message = "decoding store artifacts failed"
		result.Details = truncate(err.Error())
		return result
	}
	cfg.ServerName = host

	dialer := &tls.Dialer{
		NetDialer: &net.Dialer{Timeout: tlsProbeTimeout},
		Config:    cfg,
	}
	dialCtx, cancel := context.WithTimeout(ctx, tlsProbeTimeout)
	defer cancel()

	conn, err := dialer.DialContext(dialCtx, "tcp", target)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			result.Message = (&ProbeTimeoutError{Target: target, Bound: tlsProbeTimeout}).Error()
		} else {
			result.Message = fmt.Sprintf("mTLS connection to %s failed", target)
			result.Details = truncate(err.Error())
		}
		return result
	}
	defer func() { _ = conn.Close() }()

	state := conn.(*tls.Conn).ConnectionState()
	result.Success = true
	result.Message = fmt.Sprintf("mTLS handshake completed with %s", target)
	result.Details = fmt.Sprintf("protocol: %s, cipher suite: %s",
		tls.VersionName(state.Version), tls.CipherSuiteName(state.CipherSuite))
	return result
}

// tlsConfigFromStores builds a tls.Config from the JKS truststore (trust
// anchors) and the keystore (client identity). The PKCS#12 artifact is
// preferred for the identity because it preserves the chain order exactly.
func tlsConfigFromStores(input ProbeInput) (*tls.Config, error) {
	trustCerts, _, err := kafstore.DecodeJKS(input.Truststore, input.Password)
	if err != nil {
		return nil, fmt.Errorf("truststore: %w", err)
	}
	pool := x509.NewCertPool()
	for _, cert := range trustCerts {
		pool.AddCert(cert)
	}

	var key crypto.PrivateKey
	var chain []*x509.Certificate
	if len(input.KeystoreP12) > 0 {
		p12Key, leaf, cas, err := kafstore.DecodePKCS12(input.KeystoreP12, input.Password)
		if err != nil {
			return nil, fmt.Errorf("keystore.p12: %w", err)
		}
		key = p12Key
		chain = append([]*x509.Certificate{leaf}, cas...)
	} else {
		certs, keys, err := kafstore.DecodeJKS(input.Keystore, input.Password)
		if err != nil {
			return nil, fmt.Errorf("keystore: %w", err)
		}
		if len(keys) == 0 {
			return nil, errors.New("keystore contains no private key entry")
		}
		key = keys[0]
		chain = certs
	}
	if len(chain) == 0 {
		return nil, errors.New("keystore contains no certificate chain")
	}

	tlsCert := tls.Certificate{PrivateKey: key}
	for _, cert := range chain {
		tlsCert.Certificate = append(tlsCert.Certificate, cert.Raw)
	}

	return &tls.Config{
		RootCAs:      pool,
		Certificates: []tls.Certificate{tlsCert},
	}, nil
}

// splitBootstrap splits a bootstrap endpoint into host and port, defaulting
// the port to 443 when the endpoint carries none.
func splitBootstrap(bootstrap string) (host, port string) {
	if h, p, err := net.SplitHostPort(bootstrap); err == nil {
		return h, p
	}
	return bootstrap, "443"
}

// isTimeout reports whether err is a network timeout.
func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// truncate bounds diagnostic text for display.
func truncate(s string) string {
	if len(s) <= maxDiagnosticLen {
		return s
	}
	return s[:maxDiagnosticLen]
}
