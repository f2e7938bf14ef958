package internal

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"net"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/sensiblebit/kafstore"
)

// testPKI holds a generated CA -> intermediate -> leaf chain with the leaf key.
type testPKI struct {
	caPEM    string
	interPEM string
	leafPEM  string
	keyPEM   string
}

// caChain returns the CA material the way broker operators distribute it:
// root first, then the intermediate.
func (p *testPKI) caChain() string { return p.caPEM + p.interPEM }

func generateTestPKI(t *testing.T) *testPKI {
	t.Helper()

	caKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	caTemplate := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "Test CA"},
		NotBefore:             time.Now().Add(-1 * time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		IsCA:                  true,
		BasicConstraintsValid: true,
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
	}
	caBytes, err := x509.CreateCertificate(rand.Reader, caTemplate, caTemplate, &caKey.PublicKey, caKey)
	if err != nil {
		t.Fatal(err)
	}
	caCert, _ := x509.ParseCertificate(caBytes)

	intKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	intTemplate := &x509.Certificate{
		SerialNumber:          big.NewInt(2),
		Subject:               pkix.Name{CommonName: "Test Intermediate"},
		NotBefore:             time.Now().Add(-1 * time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		IsCA:                  true,
		BasicConstraintsValid: true,
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
	}
	intBytes, err := x509.CreateCertificate(rand.Reader, intTemplate, caCert, &intKey.PublicKey, caKey)
	if err != nil {
		t.Fatal(err)
	}
	intCert, _ := x509.ParseCertificate(intBytes)

	leafKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	leafTemplate := &x509.Certificate{
		SerialNumber: big.NewInt(3),
		Subject:      pkix.Name{CommonName: "broker-client.example.com"},
		NotBefore:    time.Now().Add(-1 * time.Hour),
		NotAfter:     time.Now().Add(24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth, x509.ExtKeyUsageServerAuth},
		DNSNames:     []string{"broker-client.example.com"},
		IPAddresses:  []net.IP{net.ParseIP("127.0.0.1")},
	}
	leafBytes, err := x509.CreateCertificate(rand.Reader, leafTemplate, intCert, &leafKey.PublicKey, intKey)
	if err != nil {
		t.Fatal(err)
	}

	keyDER, err := x509.MarshalECPrivateKey(leafKey)
	if err != nil {
		t.Fatal(err)
	}

	return &testPKI{
		caPEM:    string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: caBytes})),
		interPEM: string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: intBytes})),
		leafPEM:  string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: leafBytes})),
		keyPEM:   string(pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER})),
	}
}

// toolCall records one fake tool invocation.
type toolCall struct {
	name string
	args []string
}

// fakeRunner is a scripted ToolRunner. By default it emulates keytool and
// openssl faithfully enough for the pipeline: imports accumulate into a real
// JKS trust-store, exports produce a real PKCS#12, and conversion produces a
// real JKS key-store, so artifact verification exercises real decoders.
type fakeRunner struct {
	calls     []toolCall
	available map[string]bool
	// failStep, when set, makes the matching invocation exit non-zero.
	failStep string
	// handler, when set, overrides the built-in emulation entirely.
	handler func(name string, args []string) (*ToolResult, error)

	trustCerts   []*x509.Certificate
	trustAliases []string
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{available: map[string]bool{}}
}

func (f *fakeRunner) LookPath(name string) (string, bool) {
	if f.available[name] {
		return "/usr/bin/" + name, true
	}
	return "", false
}

func (f *fakeRunner) Run(_ context.Context, _ time.Duration, name string, args ...string) (*ToolResult, error) {
	f.calls = append(f.calls, toolCall{name: name, args: args})
	if f.handler != nil {
		return f.handler(name, args)
	}
	switch {
	case name == "keytool" && len(args) > 0 && args[0] == "-import":
		return f.emulateTrustImport(args)
	case name == "openssl" && len(args) > 1 && args[0] == "pkcs12":
		return f.emulateP12Export(args)
	case name == "keytool" && len(args) > 0 && args[0] == "-importkeystore":
		return f.emulateConvert(args)
	}
	return nil, fmt.Errorf("fakeRunner: unexpected tool %s %v", name, args)
}

// flagValue extracts the value following a flag in a tool argument list.
func flagValue(args []string, flag string) string {
	for i, a := range args {
		if a == flag && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func (f *fakeRunner) emulateTrustImport(args []string) (*ToolResult, error) {
	if f.failStep == StepTruststore {
		return &ToolResult{ExitCode: 1, Stderr: "keytool error: java.lang.Exception: Input not an X.509 certificate"}, nil
	}

	certPEM, err := os.ReadFile(flagValue(args, "-file"))
	if err != nil {
		return &ToolResult{ExitCode: 1, Stderr: err.Error()}, nil
	}
	cert, err := kafstore.ParsePEMCertificate(certPEM)
	if err != nil {
		return &ToolResult{ExitCode: 1, Stderr: "keytool error: " + err.Error()}, nil
	}

	f.trustCerts = append(f.trustCerts, cert)
	f.trustAliases = append(f.trustAliases, flagValue(args, "-alias"))

	data, err := kafstore.EncodeJKSTrustStore(f.trustCerts, f.trustAliases, flagValue(args, "-storepass"))
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(flagValue(args, "-keystore"), data, 0644); err != nil {
		return nil, err
	}
	return &ToolResult{Stdout: "Certificate was added to keystore"}, nil
}

func (f *fakeRunner) emulateP12Export(args []string) (*ToolResult, error) {
	if f.failStep == StepExport {
		return &ToolResult{ExitCode: 1, Stderr: "No certificate matches private key"}, nil
	}

	bundlePEM, err := os.ReadFile(flagValue(args, "-in"))
	if err != nil {
		return &ToolResult{ExitCode: 1, Stderr: err.Error()}, nil
	}
	keyPEM, err := os.ReadFile(flagValue(args, "-inkey"))
	if err != nil {
		return &ToolResult{ExitCode: 1, Stderr: err.Error()}, nil
	}

	certs, err := kafstore.ParsePEMCertificates(bundlePEM)
	if err != nil {
		return &ToolResult{ExitCode: 1, Stderr: "unable to load certificates"}, nil
	}
	key, err := kafstore.ParsePEMPrivateKey(keyPEM)
	if err != nil {
		return &ToolResult{ExitCode: 1, Stderr: "unable to load private key"}, nil
	}

	// Real openssl refuses a key that does not match the leaf
	if match, err := kafstore.KeyMatchesCert(key, certs[0]); err != nil || !match {
		return &ToolResult{ExitCode: 1, Stderr: "No certificate matches private key"}, nil
	}

	password := strings.TrimPrefix(flagValue(args, "-passout"), "pass:")
	data, err := kafstore.EncodePKCS12(key, certs[0], certs[1:], password)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(flagValue(args, "-out"), data, 0600); err != nil {
		return nil, err
	}
	return &ToolResult{}, nil
}

func (f *fakeRunner) emulateConvert(args []string) (*ToolResult, error) {
	if f.failStep == StepConvert {
		return &ToolResult{ExitCode: 1, Stderr: "keytool error: java.io.IOException: keystore password was incorrect"}, nil
	}

	p12, err := os.ReadFile(flagValue(args, "-srckeystore"))
	if err != nil {
		return &ToolResult{ExitCode: 1, Stderr: err.Error()}, nil
	}
	key, leaf, cas, err := kafstore.DecodePKCS12(p12, flagValue(args, "-srcstorepass"))
	if err != nil {
		return &ToolResult{ExitCode: 1, Stderr: "keytool error: " + err.Error()}, nil
	}

	data, err := kafstore.EncodeJKSKeyStore(key, leaf, cas, flagValue(args, "-alias"), flagValue(args, "-deststorepass"))
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(flagValue(args, "-destkeystore"), data, 0600); err != nil {
		return nil, err
	}
	return &ToolResult{}, nil
}

// timedOutRunner reports a timeout for every invocation.
type timedOutRunner struct{}

func (timedOutRunner) Run(context.Context, time.Duration, string, ...string) (*ToolResult, error) {
	return &ToolResult{TimedOut: true}, errors.New("context deadline exceeded")
}

func (timedOutRunner) LookPath(string) (string, bool) { return "", false }
