package hlorm

import (
	"context"
)

// Save insert or update the model, a write refused by the data manager returns false and leaves its
// messages in Errors
func (m *Model) Save(ctx context.Context) (bool, error) {
	m.errors = nil

	builder := m.NewBuilder().WithContext(ctx)
	if builder.Error != nil {
		return false, builder.Error
	}

	var (
		written []string
		saved   bool
		err     error
	)
	if m.Exists {
		written, saved, err = m.performUpdate(builder)
	} else {
		written, saved, err = m.performInsert(builder)
	}

	if err != nil || !saved {
		return false, err
	}

	m.finishSave(written)
	return true, nil
}

// Update fill attributes and save, false when the model is not persisted
func (m *Model) Update(ctx context.Context, attributes map[string]interface{}) (bool, error) {
	if !m.Exists {
		return false, nil
	}
	if err := m.Fill(attributes); err != nil {
		return false, err
	}
	return m.Save(ctx)
}

func (m *Model) performUpdate(builder *Builder) ([]string, bool, error) {
	if !m.IsDirty() {
		return nil, true, nil
	}

	if m.Schema.Timestamps {
		if err := m.updateTimestamps(); err != nil {
			return nil, false, err
		}
	}

	dirty := m.GetDirty()
	written, err := m.insertFiles(builder, dirty)
	if err != nil {
		return nil, false, err
	}

	if !builder.SetModelPrimary(m.keyForSave()).Update(dirty) {
		return nil, false, m.failedWrite(builder)
	}
	return written, true, nil
}

func (m *Model) performInsert(builder *Builder) ([]string, bool, error) {
	if m.Schema.Timestamps {
		if err := m.updateTimestamps(); err != nil {
			return nil, false, err
		}
	}

	attributes := copyMap(m.attributes)
	written, err := m.insertFiles(builder, attributes)
	if err != nil {
		return nil, false, err
	}

	id, ok := builder.Insert(attributes)
	if !ok {
		return nil, false, m.failedWrite(builder)
	}

	if id != nil {
		m.attributes[m.GetKeyName()] = id
	}
	m.Exists = true
	m.WasRecentlyCreated = true
	return written, true, nil
}

// failedWrite programmer and collaborator errors are returned, refused writes are kept on the model
func (m *Model) failedWrite(builder *Builder) error {
	if builder.Error != nil {
		return builder.Error
	}
	m.errors = builder.Errors()
	if len(m.errors) == 0 {
		m.errors = []string{"unknown error"}
	}
	return nil
}

// insertFiles persist file values of file fields, stored ids replace them in attributes
func (m *Model) insertFiles(builder *Builder, attributes map[string]interface{}) ([]string, error) {
	var written []string
	for _, column := range m.Schema.Files {
		value, ok := attributes[column]
		if !ok {
			continue
		}

		id, err := builder.CreateFile(value)
		if err != nil {
			return nil, err
		}
		attributes[column] = id
		m.attributes[column] = id
		written = append(written, column)
	}
	return written, nil
}

func (m *Model) updateTimestamps() error {
	now := m.db.NowFunc()

	if !m.IsDirty(UpdatedAt) {
		if err := m.SetAttribute(UpdatedAt, now); err != nil {
			return err
		}
	}

	if !m.Exists && !m.IsDirty(CreatedAt) {
		if err := m.SetAttribute(CreatedAt, now); err != nil {
			return err
		}
	}
	return nil
}

func (m *Model) finishSave(written []string) {
	m.SyncOriginal()
	for _, column := range written {
		delete(m.originalFiles, m.DenormalizeKey(column))
	}
	m.resyncFiles()
}

// keyForSave primary key as of the last sync, so that a changed key still addresses the stored row
func (m *Model) keyForSave() interface{} {
	if key, ok := m.original[m.GetKeyName()]; ok && key != nil {
		return key
	}
	return m.GetKey()
}

// Delete delete the persisted model by its original key
func (m *Model) Delete(ctx context.Context) (bool, error) {
	if m.Schema == nil || m.GetKeyName() == "" {
		return false, ErrMissingKeyName
	}
	if !m.Exists {
		return false, nil
	}

	m.errors = nil
	builder := m.NewBuilder().WithContext(ctx)
	if builder.Error != nil {
		return false, builder.Error
	}

	if !builder.SetModelPrimary(m.keyForSave()).Delete() {
		return false, m.failedWrite(builder)
	}

	m.Exists = false
	return true, nil
}

// Fresh reload the model from its data manager, nil when the model is not persisted or gone
func (m *Model) Fresh(ctx context.Context, columns ...string) (*Model, error) {
	if !m.Exists {
		return nil, nil
	}

	m.resyncFiles()
	return m.NewBuilder().WithContext(ctx).Where(m.GetKeyName(), m.GetKey()).First(columns...)
}

// Load eager load relations into the model
func (m *Model) Load(ctx context.Context, relations ...string) error {
	if len(relations) == 0 {
		return nil
	}

	builder := m.NewBuilder().WithContext(ctx)
	builder.eagerLoad = nil
	builder.With(relations...)
	if builder.Error != nil {
		return builder.Error
	}
	return builder.eagerLoadRelations([]*Model{m})
}

// Replicate clone the model into a new, not persisted model without its key and timestamps
func (m *Model) Replicate(except ...string) *Model {
	excluded := map[string]bool{
		m.GetKeyName():     true,
		m.Schema.CreatedAt: true,
		m.Schema.UpdatedAt: true,
	}
	for _, key := range except {
		excluded[m.NormalizeKey(key)] = true
	}

	instance := newModel(m.db, m.Schema)
	for column, value := range m.attributes {
		if !excluded[column] {
			instance.attributes[column] = value
		}
	}
	for name, value := range m.relations {
		instance.relations[name] = value
	}
	return instance
}
