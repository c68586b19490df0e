package environ

import "strings"

// RedactedValue replaces sensitive values in redacted snapshots.
const RedactedValue = "**REDACTED**"

// Env var prefixes that may carry secrets.
var sensitivePrefixes = []string{
	// Cloud providers
	"AWS_SECRET",
	"AWS_SESSION",
	"AZURE_",
	"GCP_",
	"GOOGLE_",
	// Secret management
	"SOPS_",
	"VAULT_",
	// Generic sensitive prefixes
	"API_KEY",
	"SECRET",
	"TOKEN",
	"PASSWORD",
	"CREDENTIAL",
}

// Env var suffixes that usually hold credentials.
var sensitiveSuffixes = []string{
	"_TOKEN",
	"_SECRET",
	"_SECRET_KEY",
	"_KEY",
	"_KEY_ID",
	"_PASS",
	"_PASSWORD",
	"_AUTH",
	"_CREDENTIAL",
	"_CREDENTIALS",
}

// Specific known sensitive variables.
var sensitiveExact = []string{
	"GITHUB_TOKEN",
	"GITLAB_TOKEN",
	"NPM_TOKEN",
	"DOCKER_AUTH",
	"REGISTRY_AUTH",
	"MINIO_ROOT_USER",
	"SSH_AUTH_SOCK",
}

// IsSensitive reports whether a variable name looks like it holds a secret.
func IsSensitive(name string) bool {
	upper := strings.ToUpper(name)

	for _, prefix := range sensitivePrefixes {
		if strings.HasPrefix(upper, prefix) {
			return true
		}
	}

	for _, suffix := range sensitiveSuffixes {
		if strings.HasSuffix(upper, suffix) {
			return true
		}
	}

	for _, exact := range sensitiveExact {
		if upper == exact {
			return true
		}
	}

	return false
}

// Redacted returns a copy of the snapshot with sensitive values replaced by
// RedactedValue. Keys and order are preserved.
func (s *Snapshot) Redacted() *Snapshot {
	out := &Snapshot{index: make(map[string]int, s.Len())}
	if s == nil {
		return out
	}
	for _, e := range s.entries {
		value := e.value
		if IsSensitive(e.key) {
			value = RedactedValue
		}
		out.set(e.key, value)
	}
	return out
}
