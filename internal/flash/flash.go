// Package flash implements one-shot notices carried across a redirect in a
// cookie, read and cleared on the next page render.
package flash

import (
	"encoding/base64"
	"net/http"
)

const cookieName = "trak_flash"

// Set stores a notice to be shown on the next rendered page.
func Set(w http.ResponseWriter, message string) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    base64.RawURLEncoding.EncodeToString([]byte(message)),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Take returns the pending notice, if any, and clears it.
func Take(w http.ResponseWriter, r *http.Request) string {
	c, err := r.Cookie(cookieName)
	if err != nil || c.Value == "" {
		return ""
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	decoded, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		return ""
	}
	return string(decoded)
}
