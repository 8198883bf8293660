package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"

	"scamdash/internal/models"
	"scamdash/internal/templates"
)

// Query parameter names of the filter form
const (
	ParamState         = "state"
	ParamCategory      = "category"
	ParamAge           = "age"
	ParamAllCategories = "all_categories"
	ParamTop3          = "top3"
	ParamBottom5       = "bottom5"
	ParamSubmitted     = "f"
)

// RenderTemplate renders a full page template with data
func RenderTemplate(w http.ResponseWriter, renderer *templates.Renderer, templateName string, data map[string]interface{}) {
	if renderer != nil {
		renderer.Render(w, templateName, data)
	} else {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html><body><h1>" + templateName + "</h1><p>Templates not loaded. Check configuration.</p></body></html>"))
	}
}

// RenderPartial renders a partial template with data
func RenderPartial(w http.ResponseWriter, renderer *templates.Renderer, partialName string, data map[string]interface{}) {
	if renderer != nil {
		renderer.RenderPartial(w, partialName, data)
	} else {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<div><!-- Partial " + partialName + " not loaded --></div>"))
	}
}

// ErrorResponse sends an error response
func ErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	if statusCode >= http.StatusInternalServerError {
		slog.Error("request failed", "status", statusCode, "error", message)
	} else {
		slog.Warn("request rejected", "status", statusCode, "error", message)
	}
	http.Error(w, message, statusCode)
}

// JSONResponse writes v as JSON with the given status
func JSONResponse(w http.ResponseWriter, v interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding json response", "error", err)
	}
}

// ParseSelection reads the filter selection from the query string.
// Before the form has been submitted (no f=1) absent lists stay nil so that
// defaults apply; after submission an absent list means nothing is selected.
func ParseSelection(q url.Values) models.Selection {
	submitted := q.Get(ParamSubmitted) == "1"

	list := func(key string) []string {
		values, ok := q[key]
		if !ok {
			if submitted {
				return []string{}
			}
			return nil
		}
		out := make([]string, 0, len(values))
		for _, v := range values {
			if v != "" {
				out = append(out, v)
			}
		}
		return out
	}

	sel := models.DefaultSelection()
	sel.States = list(ParamState)
	sel.Categories = list(ParamCategory)
	sel.AgeGroups = list(ParamAge)

	switch q.Get(ParamAllCategories) {
	case "1", "true", "on":
		sel.AllCategories = true
	case "0", "false", "off":
		sel.AllCategories = false
	default:
		sel.AllCategories = !submitted
	}

	sel.Top3 = flag(q.Get(ParamTop3))
	sel.Bottom5 = flag(q.Get(ParamBottom5))
	return sel
}

// EncodeSelection is the inverse of ParseSelection for a resolved selection
func EncodeSelection(sel models.Selection) url.Values {
	q := url.Values{}
	q.Set(ParamSubmitted, "1")
	for _, s := range sel.States {
		q.Add(ParamState, s)
	}
	for _, c := range sel.Categories {
		q.Add(ParamCategory, c)
	}
	for _, a := range sel.AgeGroups {
		q.Add(ParamAge, a)
	}
	if sel.AllCategories {
		q.Set(ParamAllCategories, "1")
	} else {
		q.Set(ParamAllCategories, "0")
	}
	if sel.Top3 {
		q.Set(ParamTop3, "1")
	}
	if sel.Bottom5 {
		q.Set(ParamBottom5, "1")
	}
	return q
}

func flag(v string) bool {
	switch v {
	case "1", "true", "on":
		return true
	}
	return false
}
