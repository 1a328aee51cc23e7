package httpadapter

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed web
var webFS embed.FS

func registerUI(mux *http.ServeMux) {
	assets, err := fs.Sub(webFS, "web")
	if err != nil {
		// The embedded tree is fixed at build time.
		panic(err)
	}

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		index, err := fs.ReadFile(assets, "index.html")
		if err != nil {
			internalError(w, "UI unavailable")
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(index)
	})

	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(assets)))
}
