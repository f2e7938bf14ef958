package internal

import "fmt"

// PropertiesInput holds the values rendered into a Kafka client SSL
// configuration. Store paths are placeholders: the pipeline does not know
// where the stores will be deployed.
type PropertiesInput struct {
	Bootstrap          string
	TruststorePath     string
	KeystorePath       string
	TruststorePassword string
	KeystorePassword   string
}

// GenerateProperties renders a client-ssl.properties text for the produced
// stores. Pure function of already-known values; it has no failure modes.
// The empty endpoint identification algorithm disables hostname verification,
// which broker certificates issued to internal names usually require.
func GenerateProperties(in PropertiesInput) string {
	return fmt.Sprintf(`# Kafka SSL Configuration
# Generated by kafstore

security.protocol=SSL
ssl.truststore.location=%s
ssl.truststore.password=%s
ssl.keystore.location=%s
ssl.keystore.password=%s
ssl.key.password=%s
ssl.endpoint.identification.algorithm=

# Bootstrap server
bootstrap.servers=%s
`,
		in.TruststorePath, in.TruststorePassword,
		in.KeystorePath, in.KeystorePassword, in.KeystorePassword,
		in.Bootstrap)
}
