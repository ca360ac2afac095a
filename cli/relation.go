package cli

import (
	"fmt"
	"strings"

	"github.com/iancoleman/strcase"
)

type RelationType string

const (
	BelongsTo     RelationType = "belongs_to"
	HasOne        RelationType = "has_one"
	HasMany       RelationType = "has_many"
	BelongsToMany RelationType = "belongs_to_many"
)

var relationDefs = map[RelationType]string{
	BelongsTo:     "BelongsToDef",
	HasOne:        "HasOneDef",
	HasMany:       "HasManyDef",
	BelongsToMany: "BelongsToManyDef",
}

type RelationInfo struct {
	FieldName  string
	Target     string
	Type       RelationType
	ForeignKey string
}

// ParseRelations parse relations written as name:Target:type[:foreign_key], separated by commas
//
//	author:Author:belongs_to,tags:Tag:belongs_to_many:tag_ids
func ParseRelations(input string) ([]RelationInfo, error) {
	var relations []RelationInfo
	for _, item := range strings.Split(input, ",") {
		if item = strings.TrimSpace(item); item == "" {
			continue
		}

		parts := strings.Split(item, ":")
		if len(parts) < 3 || len(parts) > 4 {
			return nil, fmt.Errorf("relation format is invalid: %s", item)
		}
		relation := RelationInfo{FieldName: parts[0], Target: parts[1], Type: RelationType(parts[2])}
		if len(parts) == 4 {
			relation.ForeignKey = parts[3]
		}
		if _, ok := relationDefs[relation.Type]; !ok {
			return nil, fmt.Errorf("relation %s has unknown type %q", relation.FieldName, parts[2])
		}
		relations = append(relations, relation)
	}
	return relations, nil
}

// ParseFields parse fields written as name:type, separated by commas
func ParseFields(input string) ([]FieldInfo, error) {
	var fields []FieldInfo
	for _, item := range strings.Split(input, ",") {
		if item = strings.TrimSpace(item); item == "" {
			continue
		}

		parts := strings.Split(item, ":")
		if len(parts) != 2 {
			return nil, fmt.Errorf("%w: attribute format is invalid: %s", ErrInvalidField, item)
		}
		fields = append(fields, FieldInfo{Name: parts[0], Type: parts[1]})
	}
	return fields, nil
}

func renderRelations(relations []RelationInfo) (string, error) {
	lines := make([]string, 0, len(relations))
	for _, r := range relations {
		def, ok := relationDefs[r.Type]
		if !ok {
			return "", fmt.Errorf("relation %s has unknown type %q", r.FieldName, r.Type)
		}

		fields := "Related: " + strcase.ToCamel(r.Target)
		if r.ForeignKey != "" {
			fields += fmt.Sprintf(", ForeignKey: %q", r.ForeignKey)
		}
		lines = append(lines, fmt.Sprintf("\t\t%q: hlorm.%s{%s},", strcase.ToSnake(r.FieldName), def, fields))
	}
	return strings.Join(lines, "\n"), nil
}
