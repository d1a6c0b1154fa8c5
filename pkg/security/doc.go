/*
Package security provides transport security (TLS/mTLS) and secret
management for rpcsecd: the demo gRPC target's wire encryption, and
the credential material a skn/ska/ski/skpi flavor's
CreateSecContext loads at bind time.

# TLS Configuration

Configure TLS for the demo gRPC server:

	cfg := &tls.Config{
		Enabled:    true,
		CertFile:   "/etc/rpcsecd/certs/server.crt",
		KeyFile:    "/etc/rpcsecd/certs/server.key",
		MinVersion: "1.3",
	}

	tlsConfig, err := cfg.ToTLSConfig()
	if err != nil {
		log.Fatal(err)
	}

# Secret Management

Load sk-flavor key material from multiple providers:

	fileProvider, err := secrets.NewFileProvider("/var/secrets", true)
	if err != nil {
		log.Fatal(err)
	}
	manager := secrets.NewManager([]secrets.SecretProvider{
		secrets.NewEnvProvider("RPCSEC_SECRET_"),
		fileProvider,
	}, cacheConfig)

	key, err := manager.GetSecret(ctx, "sk-import-key")
	if err != nil {
		log.Fatal(err)
	}
*/
package security
