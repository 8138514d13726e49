package api

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	yaml "gopkg.in/yaml.v3"
)

// SwaggerHandler serves an interactive Swagger UI with the spec inlined and
// an API key preset stored in localStorage.
func (s *Server) SwaggerHandler(w http.ResponseWriter, r *http.Request) {
	data, err := openAPILoad()
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "OpenAPI not available", err.Error(), r.URL.Path)
		return
	}
	var obj map[string]any
	if err := yaml.Unmarshal(data, &obj); err != nil {
		writeProblem(w, http.StatusInternalServerError, "OpenAPI parse failed", err.Error(), r.URL.Path)
		return
	}
	js, _ := json.Marshal(obj)
	b64 := base64.StdEncoding.EncodeToString(js)
	html := `<!DOCTYPE html><html lang="en"><head>
    <title>API Console</title>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width,initial-scale=1">
    <link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui.css" />
    <style>body{margin:0} .topbar{display:none} .cfg{position:fixed;top:8px;right:8px;padding:8px;background:#fff;border:1px solid #ddd;z-index:9}</style>
    </head><body>
    <div class="cfg">
      <div><strong>Auth</strong></div>
      <div><label>API key: <input id="apikey" style="width:240px"></label></div>
      <button onclick="saveAuth()">Save</button>
    </div>
    <div id="swagger-ui"></div>
    <script src="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
    <script src="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui-standalone-preset.js"></script>
    <script>
    const spec = JSON.parse(atob('` + b64 + `'));
    function loadAuth(){ const k=localStorage.getItem('apikey')||''; document.getElementById('apikey').value=k; return k; }
    function saveAuth(){ localStorage.setItem('apikey', document.getElementById('apikey').value); alert('Saved'); }
    loadAuth();
    const ui = SwaggerUIBundle({
        spec: spec,
        dom_id: '#swagger-ui',
        deepLinking: true,
        presets: [SwaggerUIBundle.presets.apis, SwaggerUIStandalonePreset],
        layout: "BaseLayout",
        requestInterceptor: (req) => {
            const k = loadAuth();
            if (k) { req.headers['Authorization'] = 'Bearer ' + k; }
            return req;
        }
    });
    </script>
    </body></html>`
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(html))
}
