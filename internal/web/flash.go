package web

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
)

const flashCookie = "brandadmin_flash"

// flash is a one-shot toast message.
type flash struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func successFlash(msg string) *flash { return &flash{Kind: "success", Message: msg} }
func errorFlash(msg string) *flash   { return &flash{Kind: "error", Message: msg} }
func infoFlash(msg string) *flash    { return &flash{Kind: "info", Message: msg} }

// setFlash stores f for the next page view.
func setFlash(w http.ResponseWriter, f *flash) {
	data, err := json.Marshal(f)
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    base64.RawURLEncoding.EncodeToString(data),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlash returns the pending flash, if any, and clears it.
func popFlash(w http.ResponseWriter, r *http.Request) *flash {
	c, err := r.Cookie(flashCookie)
	if err != nil {
		return nil
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	data, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		return nil
	}
	var f flash
	if err := json.Unmarshal(data, &f); err != nil || f.Message == "" {
		return nil
	}
	return &f
}

// redirectWithFlash sets f and sends a 303 to target.
func redirectWithFlash(w http.ResponseWriter, r *http.Request, target string, f *flash) {
	setFlash(w, f)
	http.Redirect(w, r, target, http.StatusSeeOther)
}
