package hlorm

import (
	"fmt"
	"strings"
	"time"

	"github.com/hlblock/hlorm/clause"
	"github.com/hlblock/hlorm/datamanager"
	"github.com/hlblock/hlorm/logger"
	"github.com/hlblock/hlorm/utils"
)

// eagerLoadRelations load top level relations of models, nested paths are handed to the relation builders
func (b *Builder) eagerLoadRelations(models []*Model) error {
	for _, load := range b.eagerLoad {
		if strings.Contains(load.name, ".") {
			continue
		}
		if err := b.eagerLoadRelation(models, load); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) eagerLoadRelation(models []*Model, load eagerLoad) error {
	name, constraint := load.name, load.constraint
	relation, err := b.model.newRelation(name, Unconstrained)
	if err != nil {
		return err
	}

	query := relation.Builder()
	if err := query.followPreload(b.preloadPath(), load.preset); err != nil {
		return err
	}
	for _, nested := range b.nestedRelations(name) {
		query.registerEagerLoad(nested.name, nested.constraint, nested.preset)
	}

	relation.AddEagerConstraints(models)
	if constraint != nil {
		constraint(query)
	}
	relation.InitRelation(models, name)

	results, err := relation.GetEager(b.Context())
	if err != nil {
		return err
	}
	relation.Match(models, results, name)
	return nil
}

// nestedRelations paths below the relation with the relation prefix removed
func (b *Builder) nestedRelations(name string) []eagerLoad {
	prefix := name + "."

	var nested []eagerLoad
	for _, load := range b.eagerLoad {
		if strings.HasPrefix(load.name, prefix) {
			nested = append(nested, eagerLoad{name: strings.TrimPrefix(load.name, prefix), constraint: load.constraint, preset: load.preset})
		}
	}
	return nested
}

// preloadPath definitions loaded one after another by default preloads, ending with the model of the builder
func (b *Builder) preloadPath() []*Definition {
	if len(b.preloading) == 0 && b.model != nil && b.model.Schema != nil {
		return []*Definition{b.model.Schema.Definition}
	}
	return b.preloading
}

// followPreload set the preload path of a relation query, a default preload reaching a definition
// already on the path would load forever
func (b *Builder) followPreload(path []*Definition, preset bool) error {
	if b.model == nil || b.model.Schema == nil {
		return nil
	}

	related := b.model.Schema.Definition
	if !preset {
		b.preloading = []*Definition{related}
		return nil
	}

	names := make([]string, 0, len(path)+1)
	for _, def := range path {
		names = append(names, def.Name)
	}
	names = append(names, related.Name)
	for _, def := range path {
		if def == related {
			return fmt.Errorf("%w: %s", ErrPreloadCycle, strings.Join(names, " > "))
		}
	}

	b.preloading = append(append(make([]*Definition, 0, len(path)+1), path...), related)
	return nil
}

// eagerLoadFiles resolve paths of file fields with a single file loader call
func (b *Builder) eagerLoadFiles(models []*Model) error {
	fields := append([]string(nil), b.model.Schema.Files...)
	for _, column := range b.files {
		if !utils.Contains(fields, column) {
			fields = append(fields, column)
		}
	}
	if len(fields) == 0 {
		return nil
	}

	var ids []interface{}
	for _, m := range models {
		for _, column := range fields {
			if id := m.attributes[column]; !utils.IsEmpty(id) {
				ids = append(ids, id)
			}
		}
	}
	ids = utils.Unique(ids)
	if len(ids) == 0 {
		return nil
	}

	if b.fileLoader == nil {
		return ErrMissingFileLoader
	}

	filter := clause.NewFilter(clause.Cond{Op: clause.Eq, Column: "ID", Value: ids})
	begin := time.Now()
	rows, err := b.fileLoader.GetList(b.Context(), nil, filter)

	var files []map[string]interface{}
	if err == nil {
		files, err = datamanager.Collect(rows)
	}
	b.logger().Trace(b.Context(), begin, func() (logger.Operation, int64) {
		return logger.Operation{Name: logger.OpGetFileList, Params: clause.Parameters{Filter: filter}}, int64(len(files))
	}, err)
	if err != nil {
		return err
	}

	paths := make(map[string]string, len(files))
	for _, file := range files {
		paths[utils.ToStringKey(file["ID"])] = b.model.Schema.UploadFolder +
			utils.ToStringKey(file["SUBDIR"]) + "/" + utils.ToStringKey(file["FILE_NAME"])
	}

	for _, m := range models {
		loaded := m.Files()
		for _, column := range fields {
			id := m.attributes[column]
			if utils.IsEmpty(id) {
				continue
			}
			if path, ok := paths[utils.ToStringKey(id)]; ok {
				loaded[m.DenormalizeKey(column)] = path
			}
		}
		m.setFiles(loaded)
	}
	return nil
}
