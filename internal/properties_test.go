package internal

import (
	"strings"
	"testing"
)

func TestGenerateProperties(t *testing.T) {
	t.Parallel()

	props := GenerateProperties(PropertiesInput{
		Bootstrap:          "broker:9093",
		TruststorePath:     "/etc/kafka/truststore.jks",
		KeystorePath:       "/etc/kafka/keystore.jks",
		TruststorePassword: "trustpass",
		KeystorePassword:   "keypass",
	})

	for _, want := range []string{
		"security.protocol=SSL",
		"ssl.truststore.location=/etc/kafka/truststore.jks",
		"ssl.truststore.password=trustpass",
		"ssl.keystore.location=/etc/kafka/keystore.jks",
		"ssl.keystore.password=keypass",
		"ssl.key.password=keypass",
		"bootstrap.servers=broker:9093",
	} {
		if !strings.Contains(props, want) {
			t.Errorf("properties lack %q", want)
		}
	}

	// WHY: hostname verification stays disabled for internal broker names.
	if !strings.Contains(props, "ssl.endpoint.identification.algorithm=\n") {
		t.Error("endpoint identification algorithm not left empty")
	}
}
