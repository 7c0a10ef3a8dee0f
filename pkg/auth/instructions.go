package auth

import (
	"fmt"
	"io"
	"strings"
)

// WriteSetupGuide explains where the four OAuth values come from and where
// roost looks for them.
func WriteSetupGuide(w io.Writer, profileDir string) {
	fmt.Fprintln(w, strings.Repeat("=", 72))
	fmt.Fprintln(w, "CREDENTIAL SETUP")
	fmt.Fprintln(w, strings.Repeat("=", 72))
	fmt.Fprintln(w)
	fmt.Fprintln(w, "roost signs every request with OAuth 1.0a and needs four values")
	fmt.Fprintln(w, "from your application's keys and tokens page:")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "   consumer_key    API key of the application")
	fmt.Fprintln(w, "   secret_key      API secret of the application")
	fmt.Fprintln(w, "   otoken          access token of the account")
	fmt.Fprintln(w, "   otoken_secret   access token secret of the account")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "They are looked up in this order:")
	fmt.Fprintf(w, "   1. %s/<profile>%s (JSON with the keys above)\n", profileDir, ProfileExt)
	fmt.Fprintln(w, "   2. the system keychain")
	fmt.Fprintf(w, "   3. %s/credentials.enc\n", profileDir)
	fmt.Fprintf(w, "   4. %s, %s, %s, %s\n", EnvConsumerKey, EnvSecretKey, EnvOToken, EnvOTokenSecret)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'roost auth login' to create a profile interactively.")
	fmt.Fprintln(w, strings.Repeat("=", 72))
}
