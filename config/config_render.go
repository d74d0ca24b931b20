package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/jqphu/zksync-era/log"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
	"github.com/valyala/fasttemplate"
)

const (
	varStartTag = "{{"
	varEndTag   = "}}"
	// bare vars are quoted while the documents go through the TOML parser and carry this
	// mark so they can be unquoted afterwards
	bareVarMark = ":int"
)

var (
	ErrCycleVars                 = errors.New("cycle vars")
	ErrMissingVars               = errors.New("missing vars")
	ErrUnsupportedConfigFileType = errors.New("unsupported config file type")

	bareVarRe   = regexp.MustCompile(`=\s*\{\{([^}:]+)\}\}`)
	quotedVarRe = regexp.MustCompile(`=\s*\"\{\{([^}:]+` + bareVarMark + `)\}\}\"`)
	markedVarRe = regexp.MustCompile(`\{\{([^}:]+` + bareVarMark + `)\}\}`)
)

// FileData is one TOML document of the configuration
type FileData struct {
	Name    string
	Content string
}

// Renderer merges TOML documents, each one overriding the previous ones, and resolves the
// {{Var}} references of the result. A reference is looked up in the environment first
// (EnvPrefix_Var, dots replaced by underscores) and then in the merged document.
type Renderer struct {
	Files     []FileData
	LookupEnv func(key string) (string, bool)
	EnvPrefix string
}

// NewRenderer returns a renderer reading the process environment
func NewRenderer(files []FileData, envPrefix string) *Renderer {
	return &Renderer{
		Files:     files,
		LookupEnv: os.LookupEnv,
		EnvPrefix: envPrefix,
	}
}

// Render merges the documents and resolves every var
func (r *Renderer) Render() (string, error) {
	merged, err := r.Merge()
	if err != nil {
		return "", fmt.Errorf("error merging config files: %w", err)
	}
	return r.ResolveVars(merged)
}

// Merge returns the merged document with the vars left untouched
func (r *Renderer) Merge() (string, error) {
	k := koanf.New(".")
	for _, f := range r.Files {
		content := quoteBareVars(f.Content)
		if err := k.Load(rawbytes.Provider([]byte(content)), toml.Parser()); err != nil {
			log.Errorf("error loading config file %s: %v", f.Name, err)
			return "", fmt.Errorf("error loading config file %s: %w", f.Name, err)
		}
	}
	marshaled, err := k.Marshal(toml.Parser())
	if err != nil {
		return "", fmt.Errorf("error marshaling merged config: %w", err)
	}
	return unquoteBareVars(string(marshaled)), nil
}

// ResolveVars replaces the vars of data. Vars that reference other vars are resolved in
// as many passes as needed; a pass that resolves nothing means the references form a cycle.
func (r *Renderer) ResolveVars(data string) (string, error) {
	tpl, values, err := r.parse(data)
	if err != nil {
		return "", err
	}
	rendered := stripVarMarks(r.execute(tpl, values))
	if missing := r.missingVars(tpl, values); len(missing) > 0 {
		return rendered, fmt.Errorf("%w: %v", ErrMissingVars, missing)
	}

	pending := r.vars(unquoteBareVars(rendered))
	if len(pending) == 0 {
		return rendered, nil
	}
	log.Debugf("resolving chained config vars: %v", pending)
	current := unquoteBareVars(rendered)
	for len(pending) > 0 {
		previous := pending
		tpl, values, err := r.parse(current)
		if err != nil {
			return "", err
		}
		current = stripVarMarks(unquoteBareVars(r.execute(tpl, values)))
		pending = r.vars(current)
		if len(pending) == len(previous) {
			return data, fmt.Errorf("%w: %v", ErrCycleVars, pending)
		}
	}
	return current, nil
}

// parse reads data as a template and as TOML. Vars in data must be in the bare form A={{B}}.
func (r *Renderer) parse(data string) (*fasttemplate.Template, map[string]interface{}, error) {
	tpl, err := fasttemplate.NewTemplate(data, varStartTag, varEndTag)
	if err != nil {
		return nil, nil, fmt.Errorf("error parsing config template: %w", err)
	}
	k := koanf.New(".")
	content := quoteBareVars(data)
	if err := k.Load(rawbytes.Provider([]byte(content)), toml.Parser()); err != nil {
		return nil, nil, fmt.Errorf("error parsing config %s: %w", content, err)
	}
	return tpl, k.All(), nil
}

func (r *Renderer) execute(tpl *fasttemplate.Template, values map[string]interface{}) string {
	return tpl.ExecuteFuncString(func(w io.Writer, tag string) (int, error) {
		if v, ok := r.lookupEnv(tag); ok {
			return w.Write([]byte(v))
		}
		if v, ok := values[tag]; ok {
			return w.Write([]byte(fmt.Sprintf("%v", v)))
		}
		return w.Write([]byte(varStartTag + tag + varEndTag))
	})
}

// missingVars returns the vars defined neither in the environment nor in values
func (r *Renderer) missingVars(tpl *fasttemplate.Template, values map[string]interface{}) []string {
	var missing []string
	tpl.ExecuteFuncString(func(w io.Writer, tag string) (int, error) {
		_, inEnv := r.lookupEnv(tag)
		_, inValues := values[tag]
		if !inEnv && !inValues && !contains(missing, tag) {
			missing = append(missing, tag)
		}
		return 0, nil
	})
	return missing
}

// vars returns every var reference left in data
func (r *Renderer) vars(data string) []string {
	tpl, err := fasttemplate.NewTemplate(data, varStartTag, varEndTag)
	if err != nil {
		return nil
	}
	var res []string
	tpl.ExecuteFuncString(func(w io.Writer, tag string) (int, error) {
		res = append(res, tag)
		return 0, nil
	})
	return res
}

func (r *Renderer) lookupEnv(tag string) (string, bool) {
	return r.LookupEnv(r.EnvPrefix + "_" + strings.ReplaceAll(tag, ".", "_"))
}

// quoteBareVars turns A={{B}} into A="{{B:int}}" so the document is valid TOML
func quoteBareVars(data string) string {
	return bareVarRe.ReplaceAllString(data, `= "{{${1}`+bareVarMark+`}}"`)
}

// unquoteBareVars is the inverse of quoteBareVars
func unquoteBareVars(data string) string {
	return quotedVarRe.ReplaceAllStringFunc(data, func(match string) string {
		name := quotedVarRe.FindStringSubmatch(match)[1]
		return "= " + varStartTag + strings.TrimSuffix(name, bareVarMark) + varEndTag
	})
}

func stripVarMarks(data string) string {
	return markedVarRe.ReplaceAllStringFunc(data, func(match string) string {
		name := markedVarRe.FindStringSubmatch(match)[1]
		return varStartTag + strings.TrimSuffix(name, bareVarMark) + varEndTag
	})
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}

// convertFileToToml converts a JSON document, TOML is returned as is
func convertFileToToml(data string, fileType string) (string, error) {
	switch strings.ToLower(fileType) {
	case "json":
		k := koanf.New(".")
		if err := k.Load(rawbytes.Provider([]byte(data)), json.Parser()); err != nil {
			return data, fmt.Errorf("error loading json file: %w", err)
		}
		converted, err := toml.Parser().Marshal(k.Raw())
		if err != nil {
			return data, fmt.Errorf("error converting json to toml: %w", err)
		}
		return string(converted), nil
	case "yml", "yaml", "ini":
		return data, fmt.Errorf("%w: can't convert %s to toml", ErrUnsupportedConfigFileType, fileType)
	default:
		log.Warnf("unknown config file type %s, assuming toml", fileType)
		return data, nil
	}
}
