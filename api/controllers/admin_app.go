package controllers

import "net/http"

const adminShell = `<!doctype html>
<html lang="es">
<head><meta charset="utf-8"><title>Patitas — Panel</title></head>
<body><div id="root" data-app="patitas-admin"></div></body>
</html>
`

// AdminApp serves the HTML shell of the admin panel. The route gate in
// front of it decides who gets this far; the shell itself is static.
func AdminApp() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		_, _ = w.Write([]byte(adminShell))
	}
}
