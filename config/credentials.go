package config

import "os"

// CredentialsReady reports whether every credential needed to run the full
// pipeline is present. Used by callers to gate the start action without
// failing the process.
func CredentialsReady() bool {
	for _, name := range []string{
		"GROQ_API_KEY",
		"KIE_API_KEY",
		"NOTION_API_KEY",
		"NOTION_DATABASE_ID",
	} {
		if os.Getenv(name) == "" {
			return false
		}
	}
	return true
}
