package snapshot

import (
	"encoding/json"

	"surveytab/domain/core"
	"surveytab/domain/survey"
)

// Snapshot is one immutable load of the survey dataset together with the
// field schema inferred from it.
type Snapshot struct {
	ID          core.SnapshotID
	Source      string
	LoadedAt    core.Timestamp
	Fingerprint core.Hash
	Fields      []survey.FieldDescriptor

	dataset survey.Dataset
	index   survey.FieldIndex
}

// New wraps a freshly loaded dataset. The caller must not mutate ds afterwards.
func New(source string, ds survey.Dataset, fields []survey.FieldDescriptor) *Snapshot {
	return &Snapshot{
		ID:          core.NewSnapshotID(),
		Source:      source,
		LoadedAt:    core.Now(),
		Fingerprint: Fingerprint(ds),
		Fields:      fields,
		dataset:     ds,
		index:       survey.IndexFields(fields),
	}
}

// View returns a private view of the dataset for one request.
func (s *Snapshot) View() survey.Dataset {
	return s.dataset.View()
}

// Len returns the record count.
func (s *Snapshot) Len() int { return s.dataset.Len() }

// Field looks up a field descriptor by name.
func (s *Snapshot) Field(name string) (survey.FieldDescriptor, bool) {
	fd, ok := s.index[name]
	return fd, ok
}

// Fingerprint hashes the dataset contents so reloads of identical data can be
// recognised.
func Fingerprint(ds survey.Dataset) core.Hash {
	data, err := json.Marshal(ds.Records)
	if err != nil {
		return ""
	}
	return core.NewHash(data)
}
