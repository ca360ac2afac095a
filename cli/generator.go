package cli

import (
	"errors"
	"fmt"
	"go/format"
	"path"
	"sort"
	"strings"

	"github.com/iancoleman/strcase"
	"github.com/spf13/afero"
)

// ErrInvalidField field type is not a known cast
var ErrInvalidField = errors.New("invalid field")

type FieldInfo struct {
	Name string
	Type string
}

// castTypes field types rendered into Casts, date and file types are listed separately
var castTypes = map[string]bool{
	"int": true, "integer": true, "money": true, "real": true, "float": true, "double": true,
	"string": true, "bool": true, "boolean": true, "object": true, "array": true, "json": true,
	"collection": true, "array_collection": true, "timestamp": true,
}

// Generator writes definition sources under BaseFolder
type Generator struct {
	Fs         afero.Fs
	BaseFolder string
}

// Generated generated file
type Generated struct {
	File       string
	ImportPath string
}

// GenerateDefinition write internal/models/<model>.go declaring the definition of the table
func (g *Generator) GenerateDefinition(modelName, table string, fields []FieldInfo, relations []RelationInfo) (*Generated, error) {
	if modelName == "" || table == "" {
		return nil, fmt.Errorf("modelName and table must be provided")
	}
	modelName = strcase.ToCamel(modelName)

	source, err := renderDefinition(modelName, table, fields, relations)
	if err != nil {
		return nil, err
	}

	modelsFolder := path.Join(g.BaseFolder, "internal", "models")
	if err := g.Fs.MkdirAll(modelsFolder, 0o755); err != nil {
		return nil, err
	}

	file := path.Join(modelsFolder, strcase.ToSnake(modelName)+".go")
	if err := afero.WriteFile(g.Fs, file, source, 0o644); err != nil {
		return nil, err
	}

	generated := &Generated{File: file}
	if moduleName, err := getModuleName(g.Fs, g.BaseFolder); err == nil {
		generated.ImportPath = moduleName + "/internal/models"
	}
	return generated, nil
}

func renderDefinition(modelName, table string, fields []FieldInfo, relations []RelationInfo) ([]byte, error) {
	var (
		casts        []string
		dates, files []string
	)
	for _, field := range fields {
		name := strcase.ToSnake(field.Name)
		switch typ := strings.ToLower(field.Type); {
		case typ == "date" || typ == "datetime":
			dates = append(dates, name)
		case typ == "file":
			files = append(files, name)
		case castTypes[typ]:
			casts = append(casts, fmt.Sprintf("\t\t%q: %q,", name, typ))
		default:
			return nil, fmt.Errorf("%w: %s has unknown type %q", ErrInvalidField, field.Name, field.Type)
		}
	}
	sort.Strings(casts)

	var lines []string
	lines = append(lines, fmt.Sprintf("\tName: %q,", modelName), fmt.Sprintf("\tTable: %q,", table))
	if len(casts) > 0 {
		lines = append(lines, "\tCasts: map[string]string{", strings.Join(casts, "\n"), "\t},")
	}
	if len(dates) > 0 {
		lines = append(lines, fmt.Sprintf("\tDates: %s,", stringSlice(dates)))
	}
	if len(files) > 0 {
		lines = append(lines, fmt.Sprintf("\tFiles: %s,", stringSlice(files)))
	}

	content := fmt.Sprintf(`package models

import "github.com/hlblock/hlorm"

// %s highload block definition of the %s table
var %s = &hlorm.Definition{
%s
}
`, modelName, table, modelName, joinLines(lines))

	if len(relations) > 0 {
		declarations, err := renderRelations(relations)
		if err != nil {
			return nil, err
		}
		content += fmt.Sprintf(`
func init() {
	%s.Relations = map[string]hlorm.RelationDeclaration{
%s
	}
}
`, modelName, declarations)
	}

	return format.Source([]byte(content))
}

func stringSlice(values []string) string {
	quoted := make([]string, len(values))
	for idx, value := range values {
		quoted[idx] = fmt.Sprintf("%q", value)
	}
	return "[]string{" + strings.Join(quoted, ", ") + "}"
}

func joinLines(lines []string) string {
	return strings.Join(lines, "\n")
}
