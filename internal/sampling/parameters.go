package sampling

import (
	"errors"
	"fmt"

	"github.com/mferrera/ert/internal/record"
)

// ErrUnknownParameterGroup marks a group name absent from the parameters
// configuration.
var ErrUnknownParameterGroup = errors.New("unknown parameter group")

// Parameters is the configuration collaborator: parameter groups addressed
// by name.
type Parameters struct {
	groups map[string]GroupConfig
}

// NewParameters indexes group configurations by name. Duplicate names are
// rejected.
func NewParameters(groups []GroupConfig) (*Parameters, error) {
	indexed := make(map[string]GroupConfig, len(groups))
	for _, group := range groups {
		if group.Name == "" {
			return nil, errors.New("parameter group name must not be empty")
		}
		if _, ok := indexed[group.Name]; ok {
			return nil, fmt.Errorf("duplicate parameter group %q", group.Name)
		}
		indexed[group.Name] = group
	}
	return &Parameters{groups: indexed}, nil
}

// Group looks up one group configuration.
func (p *Parameters) Group(name string) (GroupConfig, error) {
	group, ok := p.groups[name]
	if !ok {
		return GroupConfig{}, fmt.Errorf("%w: %q", ErrUnknownParameterGroup, name)
	}
	return group, nil
}

// SampleCollection draws one record per ensemble member, in member-index
// order, from the named group's distribution. Sampling is all-or-nothing:
// any individual draw failure aborts the whole operation and no partial
// collection is returned.
func (p *Parameters) SampleCollection(groupName string, ensembleSize int) (*record.Collection, error) {
	group, err := p.Group(groupName)
	if err != nil {
		return nil, err
	}
	if ensembleSize < 0 {
		return nil, fmt.Errorf("ensemble size must be non-negative, got %d", ensembleSize)
	}

	dist, err := group.AsDistribution()
	if err != nil {
		return nil, err
	}

	records := make([]*record.Record, ensembleSize)
	for member := 0; member < ensembleSize; member++ {
		rec, err := dist.Sample()
		if err != nil {
			return nil, fmt.Errorf("sample member %d of group %q: %w", member, groupName, err)
		}
		records[member] = rec
	}
	return record.NewCollection(records)
}
