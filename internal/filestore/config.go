package filestore

// Config holds the connection settings of the report archive.
type Config struct {
	// Endpoint is host:port, e.g. "localhost:9000".
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool

	// Region is only needed by region-aware S3 backends.
	Region string

	// DefaultBucket receives archived reports.
	DefaultBucket string
}

// DefaultConfig returns a plain-HTTP config for a local MinIO.
func DefaultConfig(endpoint, accessKey, secretKey string) *Config {
	return &Config{
		Endpoint:  endpoint,
		AccessKey: accessKey,
		SecretKey: secretKey,
	}
}
