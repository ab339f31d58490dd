package ocr

import (
	"os"

	"google.golang.org/api/option"
)

// googleClientOptions resolves credentials the same way for every Google
// backend: inline JSON first, then a credentials file, then application
// default credentials (no options).
func googleClientOptions() []option.ClientOption {
	if credJSON := os.Getenv("GOOGLE_CREDENTIALS"); credJSON != "" {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(credJSON))}
	}
	if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		return []option.ClientOption{option.WithCredentialsFile(credFile)}
	}
	return nil
}
