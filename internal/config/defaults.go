package config

const (
	defaultWorkspaceName  = "default"
	defaultWorkspaceRoot  = "~/.local/share/ert"
	defaultFSRoot         = "~/.local/share/ert/storage"
	defaultLogDir         = "~/.local/share/ert/logs"
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
	defaultMaxConcurrency = 16
	defaultS3Bucket       = "ert-records"
	defaultS3URLExpiry    = 900
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Workspace: Workspace{
			Name: defaultWorkspaceName,
			Root: defaultWorkspaceRoot,
		},
		Storage: Storage{
			Backend: BackendFS,
			FSRoot:  defaultFSRoot,
			S3: S3{
				Bucket:           defaultS3Bucket,
				URLExpirySeconds: defaultS3URLExpiry,
			},
		},
		Transmit: Transmit{
			MaxConcurrency: defaultMaxConcurrency,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
			Dir:    defaultLogDir,
		},
	}
}
