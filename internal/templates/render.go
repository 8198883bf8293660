package templates

import (
	"bufio"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

var (
	lineNumberRe   = regexp.MustCompile(`:(\d+):`)
	templateCallRe = regexp.MustCompile(`\{\{-?\s*template\s+"([^"]+)"`)
)

// Renderer handles template rendering
type Renderer struct {
	templates *template.Template
	debug     bool
	baseDir   string
	logger    *slog.Logger
	mu        sync.RWMutex
}

// New creates a new template renderer
func New(templateDir string, debug bool) (*Renderer, error) {
	r := &Renderer{
		debug:   debug,
		baseDir: templateDir,
		logger:  slog.Default().With("component", "templates"),
	}

	if err := r.loadTemplates(); err != nil {
		return nil, err
	}

	return r, nil
}

// FuncMap returns the template function map
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"formatMoney":  FormatMoney,
		"formatNumber": FormatNumber,
		"formatCompact": func(v interface{}) string {
			value, unit := humanize.ComputeSI(toFloat(v))
			return humanize.FtoaWithDigits(value, 1) + unit
		},
		"contains": containsString,
		"dict":     dict,
	}
}

// loadTemplates parses all templates with strict validation
func (r *Renderer) loadTemplates() error {
	tmpl := template.New("").Funcs(FuncMap())

	var templateFiles []string
	for _, subdir := range []string{"layouts", "pages", "partials", "components"} {
		subPattern := filepath.Join(r.baseDir, subdir, "*.html")
		matches, err := filepath.Glob(subPattern)
		if err != nil {
			return fmt.Errorf("error globbing %s: %w", subPattern, err)
		}
		templateFiles = append(templateFiles, matches...)
	}

	if len(templateFiles) == 0 {
		return fmt.Errorf("no template files found in %s", r.baseDir)
	}

	// Parse each file on its own so errors name the file
	var parseErrors []string
	for _, file := range templateFiles {
		content, err := os.ReadFile(file)
		if err != nil {
			parseErrors = append(parseErrors, fmt.Sprintf("%s: failed to read: %v", file, err))
			continue
		}

		if _, err = tmpl.New(filepath.Base(file)).Parse(string(content)); err != nil {
			parseErrors = append(parseErrors, formatTemplateError(file, string(content), err))
		}
	}

	if len(parseErrors) > 0 {
		for _, e := range parseErrors {
			r.logger.Error("template parse error", "detail", e)
		}
		return fmt.Errorf("template parsing failed with %d error(s)", len(parseErrors))
	}

	if err := r.validateTemplateReferences(tmpl, templateFiles); err != nil {
		return err
	}

	r.mu.Lock()
	r.templates = tmpl
	r.mu.Unlock()
	r.logger.Info("templates loaded", "files", len(templateFiles))
	return nil
}

// formatTemplateError formats a template error with file context
func formatTemplateError(file, content string, err error) string {
	var sb strings.Builder
	errStr := err.Error()
	lineNum := extractLineNumber(errStr)

	fmt.Fprintf(&sb, "%s: %s", file, errStr)
	if lineNum <= 0 {
		return sb.String()
	}

	lines := strings.Split(content, "\n")
	start := max(lineNum-3, 0)
	end := min(lineNum+2, len(lines))
	for i := start; i < end; i++ {
		marker := "   "
		if i+1 == lineNum {
			marker = ">>>"
		}
		fmt.Fprintf(&sb, "\n  %s %4d | %s", marker, i+1, lines[i])
	}
	return sb.String()
}

// extractLineNumber tries to extract a line number from a template error
func extractLineNumber(errStr string) int {
	matches := lineNumberRe.FindStringSubmatch(errStr)
	if len(matches) >= 2 {
		var lineNum int
		fmt.Sscanf(matches[1], "%d", &lineNum)
		return lineNum
	}
	return 0
}

// validateTemplateReferences checks that all {{template "name"}} calls reference defined templates
func (r *Renderer) validateTemplateReferences(tmpl *template.Template, files []string) error {
	definedTemplates := make(map[string]bool)
	for _, t := range tmpl.Templates() {
		if t.Name() != "" {
			definedTemplates[t.Name()] = true
		}
	}

	var refErrors []string
	for _, file := range files {
		content, err := os.ReadFile(file)
		if err != nil {
			continue
		}

		scanner := bufio.NewScanner(strings.NewReader(string(content)))
		lineNum := 0
		for scanner.Scan() {
			lineNum++
			line := scanner.Text()
			for _, match := range templateCallRe.FindAllStringSubmatch(line, -1) {
				if !definedTemplates[match[1]] {
					refErrors = append(refErrors, fmt.Sprintf("%s:%d: undefined template %q", file, lineNum, match[1]))
				}
			}
		}
	}

	if len(refErrors) > 0 {
		var defined []string
		for name := range definedTemplates {
			if !strings.HasSuffix(name, ".html") {
				defined = append(defined, name)
			}
		}
		sort.Strings(defined)
		for _, e := range refErrors {
			r.logger.Error("undefined template reference", "detail", e, "defined", defined)
		}
		return fmt.Errorf("found %d undefined template reference(s)", len(refErrors))
	}

	return nil
}

// DefinedTemplates lists the {{define}} names found in the loaded files
func (r *Renderer) DefinedTemplates() []string {
	var names []string
	for _, t := range r.current().Templates() {
		if t.Name() != "" && !strings.HasSuffix(t.Name(), ".html") {
			names = append(names, t.Name())
		}
	}
	sort.Strings(names)
	return names
}

func (r *Renderer) current() *template.Template {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.templates
}

// Reload re-reads every template from disk. Debug renderers call it before
// each render so edits show up without a restart.
func (r *Renderer) Reload() error {
	return r.loadTemplates()
}

// Render renders a full page with the base layout
func (r *Renderer) Render(w http.ResponseWriter, name string, data interface{}) error {
	return r.execute(w, name, data, "page")
}

// RenderPartial renders a partial template (no base layout)
func (r *Renderer) RenderPartial(w http.ResponseWriter, name string, data interface{}) error {
	return r.execute(w, name, data, "partial")
}

func (r *Renderer) execute(w http.ResponseWriter, name string, data interface{}, kind string) error {
	// In debug mode, reload templates on each request
	if r.debug {
		if err := r.Reload(); err != nil {
			r.logger.Error("reloading templates", "error", err)
		}
	}

	// Buffer so a failing template never leaves a half-written page
	var buf strings.Builder
	if err := r.current().ExecuteTemplate(&buf, name, data); err != nil {
		r.logger.Error("rendering template", "kind", kind, "name", name, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, err := io.WriteString(w, buf.String())
	return err
}

// RenderToString renders a template to a string
func (r *Renderer) RenderToString(name string, data interface{}) (string, error) {
	var buf strings.Builder
	if err := r.current().ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Template functions

// FormatMoney renders a dollar amount with thousands separators and cents
func FormatMoney(v interface{}) string {
	var d decimal.Decimal
	switch val := v.(type) {
	case decimal.Decimal:
		d = val
	case *decimal.Decimal:
		if val != nil {
			d = *val
		}
	default:
		d = decimal.NewFromFloat(toFloat(v))
	}

	negative := d.IsNegative()
	d = d.Abs().Round(2)
	whole := d.IntPart()
	cents := d.Sub(decimal.NewFromInt(whole)).Shift(2).IntPart()

	out := fmt.Sprintf("$%s.%02d", humanize.Comma(whole), cents)
	if negative {
		return "-" + out
	}
	return out
}

// FormatNumber renders a whole number with thousands separators
func FormatNumber(v interface{}) string {
	switch val := v.(type) {
	case int:
		return humanize.Comma(int64(val))
	case int64:
		return humanize.Comma(val)
	case decimal.Decimal:
		return humanize.Comma(val.Round(0).IntPart())
	default:
		return humanize.Comma(int64(toFloat(v)))
	}
}

func toFloat(v interface{}) float64 {
	switch val := v.(type) {
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case float64:
		return val
	case float32:
		return float64(val)
	case decimal.Decimal:
		return val.InexactFloat64()
	default:
		return 0
	}
}

// containsString reports whether list holds v
func containsString(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// dict creates a map from key-value pairs
func dict(values ...interface{}) map[string]interface{} {
	if len(values)%2 != 0 {
		return nil
	}
	result := make(map[string]interface{})
	for i := 0; i < len(values); i += 2 {
		key, ok := values[i].(string)
		if !ok {
			continue
		}
		result[key] = values[i+1]
	}
	return result
}
