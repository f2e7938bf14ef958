package kafstore

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"
)

func TestParsePEMPrivateKey_Formats(t *testing.T) {
	// WHY: Uploaded keys arrive in whatever format the CA portal produced;
	// PKCS#1, PKCS#8, and SEC 1 EC must all parse.
	t.Parallel()

	ecKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	rsaKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}

	ecDER, _ := x509.MarshalECPrivateKey(ecKey)
	pkcs8DER, _ := x509.MarshalPKCS8PrivateKey(ecKey)
	pkcs1DER := x509.MarshalPKCS1PrivateKey(rsaKey)

	tests := []struct {
		name     string
		blockTyp string
		der      []byte
	}{
		{"EC SEC1", "EC PRIVATE KEY", ecDER},
		{"PKCS#8", "PRIVATE KEY", pkcs8DER},
		{"PKCS#1", "RSA PRIVATE KEY", pkcs1DER},
		{"mislabeled PKCS#1", "PRIVATE KEY", pkcs1DER},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			data := pem.EncodeToMemory(&pem.Block{Type: tt.blockTyp, Bytes: tt.der})
			if _, err := ParsePEMPrivateKey(data); err != nil {
				t.Errorf("parsing %s: %v", tt.name, err)
			}
		})
	}
}

func TestKeyMatchesCert(t *testing.T) {
	t.Parallel()
	_, _, leafPEM, keyPEM := generateTestPKIWithKey(t)
	leaf := mustParseCert(t, leafPEM)

	key, err := ParsePEMPrivateKey([]byte(keyPEM))
	if err != nil {
		t.Fatal(err)
	}

	match, err := KeyMatchesCert(key, leaf)
	if err != nil {
		t.Fatal(err)
	}
	if !match {
		t.Error("leaf key should match leaf cert")
	}

	otherKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	match, err = KeyMatchesCert(otherKey, leaf)
	if err != nil {
		t.Fatal(err)
	}
	if match {
		t.Error("unrelated key must not match leaf cert")
	}
}

func TestParsePEMPrivateKeyWithPasswords_Unencrypted(t *testing.T) {
	t.Parallel()
	_, _, _, keyPEM := generateTestPKIWithKey(t)

	if _, err := ParsePEMPrivateKeyWithPasswords([]byte(keyPEM), DefaultPasswords()); err != nil {
		t.Errorf("unencrypted key should parse with password list: %v", err)
	}
}

func TestCertToPEM(t *testing.T) {
	t.Parallel()
	_, _, leafPEM, _ := generateTestPKIWithKey(t)
	leaf := mustParseCert(t, leafPEM)

	// WHY: re-encoded output must parse back to the same certificate.
	again, err := ParsePEMCertificate([]byte(CertToPEM(leaf)))
	if err != nil {
		t.Fatal(err)
	}
	if !again.Equal(leaf) {
		t.Error("re-encoded certificate differs from the original")
	}
}

func TestColonHex(t *testing.T) {
	t.Parallel()
	if got := ColonHex([]byte{0xde, 0xad, 0xbe}); got != "de:ad:be" {
		t.Errorf("ColonHex = %q", got)
	}
	if got := ColonHex(nil); got != "" {
		t.Errorf("ColonHex(nil) = %q", got)
	}
}

func TestIsPEM(t *testing.T) {
	t.Parallel()
	if !IsPEM([]byte("-----BEGIN CERTIFICATE-----")) {
		t.Error("PEM marker not detected")
	}
	if IsPEM([]byte{0x30, 0x82, 0x01, 0x0a}) {
		t.Error("DER bytes misdetected as PEM")
	}
}
