package server

import (
	"html/template"
	"net/http"
)

const pageStyle = `
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; min-height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem; max-width: 36rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { margin: 0 0 1rem 0; }
        h1.ok { color: #2e7d32; }
        h1.err { color: #c62828; }
        p { color: #666; }
        code, pre { background: #f0f0f0; padding: 0.2rem 0.4rem; border-radius: 4px; text-align: left;
                    white-space: pre-wrap; word-break: break-all; }
        a.button { display: inline-block; margin-top: 1rem; padding: 0.6rem 1.2rem; background: #1b5e20;
                   color: white; border-radius: 4px; text-decoration: none; }`

var pages = template.Must(template.New("layout").Parse(`{{define "layout"}}<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>{{.Title}}</title>
    <style>` + pageStyle + `
    </style>
</head>
<body>
    <div class="container">{{template "content" .}}</div>
</body>
</html>{{end}}`))

var (
	landingPage = page(`{{define "content"}}
        <h1 class="ok">Butter</h1>
        <p>Connect a Clover merchant account to use the inventory and order tools.</p>
        {{if .Success}}<p>Authorization complete. Your credentials are stored in this browser.</p>{{end}}
        <a class="button" href="{{.StartPath}}">Connect to Clover</a>
{{end}}`)

	setupPage = page(`{{define "content"}}
        <h1 class="err">Setup required</h1>
        <p>Clover OAuth credentials are not configured.</p>
        <p>Set <code>CLOVER_CLIENT_ID</code> and <code>CLOVER_CLIENT_SECRET</code> in the environment or a
        <code>.env</code> file, then restart the server.</p>
{{end}}`)

	successPage = page(`{{define "content"}}
        <h1 class="ok">&#10003; Authorization Successful</h1>
        <p>{{if .MerchantID}}Connected merchant <code>{{.MerchantID}}</code>.{{else}}Merchant will be resolved on first use.{{end}}</p>
        <p>Redirecting to the dashboard&hellip;</p>
        <script>
            localStorage.setItem("clover_access_token", {{.AccessToken}});
            localStorage.setItem("clover_merchant_id", {{.MerchantID}});
            localStorage.setItem("clover_oauth_time", {{.IssuedAt}});
            window.location.replace("/?oauth_success=true");
        </script>
{{end}}`)

	noticePage = page(`{{define "content"}}
        <h1 class="ok">{{.Heading}}</h1>
        <p>{{.Message}}</p>
{{end}}`)

	errorPage = page(`{{define "content"}}
        <h1 class="err">{{.Heading}}</h1>
        <p>{{.Message}}</p>
        {{if .Code}}<p>Error: <code>{{.Code}}</code></p>{{end}}
        {{if .Description}}<p>{{.Description}}</p>{{end}}
        {{if .Details}}<pre>{{.Details}}</pre>{{end}}
        {{if .RetryPath}}<a class="button" href="{{.RetryPath}}">Try again</a>{{end}}
{{end}}`)
)

func page(content string) *template.Template {
	return template.Must(template.Must(pages.Clone()).Parse(content))
}

type landingData struct {
	Title     string
	StartPath string
	Success   bool
}

type successData struct {
	Title       string
	AccessToken string
	MerchantID  string
	IssuedAt    string
}

type errorData struct {
	Title       string
	Heading     string
	Message     string
	Code        string
	Description string
	Details     string
	RetryPath   string
}

func renderPage(w http.ResponseWriter, status int, t *template.Template, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = t.ExecuteTemplate(w, "layout", data)
}
