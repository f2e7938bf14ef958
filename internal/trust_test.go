package internal

import (
	"testing"

	"github.com/sensiblebit/kafstore"
)

func TestMozillaTrusted(t *testing.T) {
	t.Parallel()

	// A locally-generated CA can never verify against the public bundle.
	pki := generateTestPKI(t)
	cert, err := kafstore.ParsePEMCertificate([]byte(pki.caPEM))
	if err != nil {
		t.Fatal(err)
	}
	if MozillaTrusted(cert) {
		t.Error("test CA reported as Mozilla-trusted")
	}
}

func TestMozillaRootsLoaded(t *testing.T) {
	t.Parallel()

	// WHY: the embedded bundle must parse; an empty pool would silently
	// disable the annotation.
	if mozillaRoots() == nil {
		t.Fatal("embedded Mozilla bundle did not load")
	}
}
