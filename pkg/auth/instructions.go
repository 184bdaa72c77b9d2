package auth

import (
	"fmt"
	"io"
	"strings"
)

// WriteCookieExportGuide prints how to export a logged-in X session
func WriteCookieExportGuide(w io.Writer) {
	rule := strings.Repeat("=", 72)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "EXPORTING AN X LOGIN SESSION")
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "xwatch never types a password. It replays the cookies of a browser")
	fmt.Fprintln(w, "that is already logged in to https://x.com.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "1. Log in to https://x.com in a desktop browser.")
	fmt.Fprintln(w, "2. Export the cookies for x.com, either:")
	fmt.Fprintln(w, "   - with a cookie export extension, saved as a JSON file, or")
	fmt.Fprintln(w, "   - from DevTools > Network: copy the Cookie request header of any")
	fmt.Fprintln(w, "     request to x.com into a text file.")
	fmt.Fprintln(w, "3. Import it:")
	fmt.Fprintln(w, "     xwatch auth import --account main --file cookies.json")
	fmt.Fprintln(w, "   or paste the header interactively:")
	fmt.Fprintln(w, "     xwatch auth import --account main --stdin")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "The export must contain the %s cookie; ct0 is strongly recommended.\n", AuthCookie)
	fmt.Fprintln(w, "Cookies grant full access to the account: use a secondary account and")
	fmt.Fprintln(w, "never share the export. Sessions are stored in the system keychain,")
	fmt.Fprintln(w, "or in an encrypted file when no keychain is available.")
	fmt.Fprintln(w, rule)
}
