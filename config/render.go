package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"slices"
	"strings"

	"github.com/0xPolygon/cdk-sequencer/log"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
	"github.com/valyala/fasttemplate"
)

const (
	startTag = "{{"
	endTag   = "}}"
	// rawMark tags a var written without quotes (A = {{B}}) while the document goes through a
	// TOML parser, which only accepts it quoted
	rawMark = ":raw"
)

var (
	ErrCycleVars                 = errors.New("cycle vars")
	ErrMissingVars               = errors.New("missing vars")
	ErrUnsupportedConfigFileType = errors.New("unsupported config file type")

	rawVarRe    = regexp.MustCompile(`=\s*\{\{([^}:]+)\}\}`)
	quotedRawRe = regexp.MustCompile(`=\s*"\{\{([^}:]+)` + rawMark + `\}\}"`)
	markedVarRe = regexp.MustCompile(`^\{\{([^}:]+)` + rawMark + `\}\}$`)
)

type FileData struct {
	Name    string
	Content string
}

// Renderer merges TOML documents, later ones overriding earlier ones, and resolves the {{Key}}
// references found in the values. A reference is looked up first in the environment, as
// <EnvPrefix>_<Key with dots replaced by _>, then in the merged document.
type Renderer struct {
	Files     []FileData
	LookupEnv func(key string) (string, bool)
	EnvPrefix string
}

func NewRenderer(files []FileData, envPrefix string) *Renderer {
	return &Renderer{
		Files:     files,
		LookupEnv: os.LookupEnv,
		EnvPrefix: envPrefix,
	}
}

func (r *Renderer) Render() (string, error) {
	merged, err := r.Merge()
	if err != nil {
		return "", fmt.Errorf("fail to merge files. Err: %w", err)
	}
	return r.resolve(merged)
}

// Merge returns the merged document with the vars still unresolved
func (r *Renderer) Merge() (string, error) {
	k := koanf.New(".")
	for _, file := range r.Files {
		content := quoteRawVars(file.Content)
		if err := k.Load(rawbytes.Provider([]byte(content)), toml.Parser()); err != nil {
			log.Errorf("error loading file %s. Err:%v. FileData: %v", file.Name, err, content)
			return "", fmt.Errorf("fail to load %s as toml. Err: %w", file.Name, err)
		}
	}
	out, err := k.Marshal(toml.Parser())
	if err != nil {
		return "", fmt.Errorf("fail to marshal to toml. Err: %w", err)
	}
	return unquoteRawVars(string(out)), nil
}

// resolve substitutes the vars pass after pass. A var pointing to another var needs one more
// pass, so a pass that doesn't reduce the number of vars means they reference each other.
func (r *Renderer) resolve(data string) (string, error) {
	pending, err := templateVars(data)
	if err != nil {
		return data, err
	}
	for len(pending) > 0 {
		values, err := definedValues(data)
		if err != nil {
			return data, err
		}
		next, missing, err := r.substitute(data, values)
		if err != nil {
			return data, err
		}
		if len(missing) > 0 {
			return next, fmt.Errorf("missing vars: %v. Err: %w", missing, ErrMissingVars)
		}
		nextPending, err := templateVars(next)
		if err != nil {
			return data, err
		}
		if len(nextPending) >= len(pending) {
			log.Debugf("unresolved vars after a pass: %v", nextPending)
			return data, fmt.Errorf("not resolved cycle vars: %v. Err: %w", nextPending, ErrCycleVars)
		}
		data, pending = next, nextPending
	}
	return data, nil
}

// substitute runs one pass over data. Unknown vars are kept as they are and returned.
func (r *Renderer) substitute(data string, values map[string]interface{}) (string, []string, error) {
	tpl, err := fasttemplate.NewTemplate(data, startTag, endTag)
	if err != nil {
		return "", nil, fmt.Errorf("fail to parse template. Err: %w", err)
	}
	var missing []string
	out := tpl.ExecuteFuncString(func(w io.Writer, tag string) (int, error) {
		if v, ok := r.lookupEnv(tag); ok {
			return w.Write([]byte(v))
		}
		if v, ok := values[tag]; ok {
			return w.Write([]byte(unmarkVar(fmt.Sprintf("%v", v))))
		}
		if !slices.Contains(missing, tag) {
			missing = append(missing, tag)
		}
		return w.Write([]byte(startTag + tag + endTag))
	})
	return out, missing, nil
}

func (r *Renderer) lookupEnv(tag string) (string, bool) {
	if r.LookupEnv == nil {
		return "", false
	}
	return r.LookupEnv(r.EnvPrefix + "_" + strings.ReplaceAll(tag, ".", "_"))
}

// definedValues flattens data into dotted keys. Vars are read as their marked strings.
func definedValues(data string) (map[string]interface{}, error) {
	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider([]byte(quoteRawVars(data))), toml.Parser()); err != nil {
		return nil, fmt.Errorf("error parsing rendered data. Err: %w", err)
	}
	return k.All(), nil
}

func templateVars(data string) ([]string, error) {
	tpl, err := fasttemplate.NewTemplate(data, startTag, endTag)
	if err != nil {
		return nil, fmt.Errorf("fail to parse template. Err: %w", err)
	}
	var vars []string
	tpl.ExecuteFuncString(func(w io.Writer, tag string) (int, error) {
		vars = append(vars, tag)
		return 0, nil
	})
	return vars, nil
}

// quoteRawVars turns A = {{B}} into A = "{{B:raw}}"
func quoteRawVars(data string) string {
	return rawVarRe.ReplaceAllString(data, `= "{{${1}`+rawMark+`}}"`)
}

// unquoteRawVars is the inverse of quoteRawVars
func unquoteRawVars(data string) string {
	return quotedRawRe.ReplaceAllString(data, `= {{${1}}}`)
}

func unmarkVar(value string) string {
	return markedVarRe.ReplaceAllString(value, `{{${1}}}`)
}

func readFileToString(filename string) (string, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return "", err
	}
	return string(content), nil
}

// convertFileToToml only supports JSON, any other extension but TOML is rejected
func convertFileToToml(fileData string, fileType string) (string, error) {
	switch strings.ToLower(fileType) {
	case "json":
		k := koanf.New(".")
		if err := k.Load(rawbytes.Provider([]byte(fileData)), json.Parser()); err != nil {
			return fileData, fmt.Errorf("error loading json file. Err: %w", err)
		}
		tomlData, err := toml.Parser().Marshal(k.Raw())
		if err != nil {
			return fileData, fmt.Errorf("error converting json to toml. Err: %w", err)
		}
		return string(tomlData), nil
	case "yml", "yaml", "ini":
		return fileData, fmt.Errorf("cant convert from %s to TOML. Err: %w", fileType, ErrUnsupportedConfigFileType)
	default:
		log.Warnf("filetype %s unknown, assuming is a TOML file", fileType)
		return fileData, nil
	}
}

func contains(keys []string, key string) bool {
	return slices.Contains(keys, key)
}
