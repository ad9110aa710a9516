package dashboard

import (
	"encoding/json"
	"html/template"
	"net/http"
	"sort"
	"time"
)

// pageTemplate renders one category of readings. Pages refresh themselves
// so a wall-mounted browser stays current without any client-side code.
var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta http-equiv="refresh" content="30">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; margin: 2em; background: #fafafa; }
h1 { font-size: 1.4em; }
nav a { margin-right: 1em; }
table { border-collapse: collapse; margin-top: 1em; }
th, td { border: 1px solid #ccc; padding: 0.4em 0.8em; text-align: left; vertical-align: top; }
th { background: #eee; }
.stale { color: #b00; }
pre { margin: 0; font-size: 0.85em; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<nav>
<a href="/">all</a>
<a href="/house">house</a>
<a href="/weather">weather</a>
<a href="/battery">battery</a>
</nav>
{{range .Sections}}
<h2>{{.Category}}</h2>
{{if .Rows}}
<table>
<tr><th>source</th><th>updated</th><th>data</th></tr>
{{range .Rows}}
<tr{{if .Stale}} class="stale"{{end}}>
<td>{{.Source}}</td>
<td>{{.Updated}}{{if .Stale}} (stale){{end}}</td>
<td><pre>{{.Data}}</pre></td>
</tr>
{{end}}
</table>
{{else}}
<p>No readings yet.</p>
{{end}}
{{end}}
</body>
</html>
`))

type pageRow struct {
	Source  string
	Updated string
	Stale   bool
	Data    string
}

type pageSection struct {
	Category string
	Rows     []pageRow
}

type pageData struct {
	Title    string
	Sections []pageSection
}

// handlePage renders a HTML view for the given categories. An empty list
// means every subscribed category.
func (s *Server) handlePage(title string, categories ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if len(categories) == 0 {
			categories = subscribedCategories
		}

		now := time.Now().UTC()
		data := pageData{Title: title}
		for _, category := range categories {
			data.Sections = append(data.Sections, s.pageSection(category, now))
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := pageTemplate.Execute(w, data); err != nil {
			s.logger.Error().Err(err).Msg("Failed to render page")
		}
	}
}

func (s *Server) pageSection(category string, now time.Time) pageSection {
	entries := s.state.Category(category)
	sort.Slice(entries, func(i, j int) bool { return entries[i].Source < entries[j].Source })

	section := pageSection{Category: category}
	for _, entry := range entries {
		pretty, err := json.MarshalIndent(json.RawMessage(entry.Payload), "", "  ")
		if err != nil {
			pretty = entry.Payload
		}
		section.Rows = append(section.Rows, pageRow{
			Source:  entry.Source,
			Updated: entry.Timestamp.Local().Format("2006-01-02 15:04:05"),
			Stale:   now.Sub(entry.Timestamp) > s.staleAfter,
			Data:    string(pretty),
		})
	}
	return section
}
