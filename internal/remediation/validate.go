package remediation

import (
	"encoding/json"
	"fmt"
	"go/parser"
	"go/token"
	"path/filepath"
	"strings"

	"golang.org/x/mod/modfile"
	"gopkg.in/yaml.v3"
)

// validator checks that content for a given path is structurally sound.
type validator func(path string, content []byte) error

// ValidateContent runs the structural check matching the file type. Unknown
// file types pass. The check is best-effort: it proves the file parses, not
// that it is correct.
func ValidateContent(path string, content []byte) error {
	v := validatorFor(path)
	if v == nil {
		return nil
	}
	return v(path, content)
}

func validatorFor(path string) validator {
	if filepath.Base(path) == "go.mod" {
		return validateGoMod
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".go":
		return validateGo
	case ".json":
		return validateJSON
	case ".yaml", ".yml":
		return validateYAML
	}
	return nil
}

func validateGo(path string, content []byte) error {
	fset := token.NewFileSet()
	if _, err := parser.ParseFile(fset, path, content, parser.AllErrors); err != nil {
		return fmt.Errorf("go syntax: %w", err)
	}
	return nil
}

func validateGoMod(path string, content []byte) error {
	if _, err := modfile.Parse(path, content, nil); err != nil {
		return fmt.Errorf("go.mod: %w", err)
	}
	return nil
}

func validateJSON(_ string, content []byte) error {
	if !json.Valid(content) {
		var v any
		if err := json.Unmarshal(content, &v); err != nil {
			return fmt.Errorf("json: %w", err)
		}
		return fmt.Errorf("json: invalid document")
	}
	return nil
}

func validateYAML(_ string, content []byte) error {
	var v any
	if err := yaml.Unmarshal(content, &v); err != nil {
		return fmt.Errorf("yaml: %w", err)
	}
	return nil
}
