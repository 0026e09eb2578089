// Package checkpoint persists value tables keyed by training step
package checkpoint

import (
	"context"
	"fmt"
	"strconv"

	"github.com/zeu5/forage-rl/policies"
	"github.com/zeu5/forage-rl/types"
	"gonum.org/v1/gonum/mat"
)

// Store saves and loads value tables by name.
// Load returns an error wrapping types.ErrCheckpointAbsent for unknown names.
type Store interface {
	Save(ctx context.Context, name string, table *policies.QTable) error
	Load(ctx context.Context, name string) (*policies.QTable, error)
	Exists(ctx context.Context, name string) (bool, error)
	Close() error
}

// StepName is the checkpoint name for a training iteration
func StepName(step int) string {
	return strconv.Itoa(step)
}

// Encode serializes a table with the gonum binary matrix format
func Encode(table *policies.QTable) ([]byte, error) {
	return table.Dense().MarshalBinary()
}

func Decode(data []byte) (*policies.QTable, error) {
	var m mat.Dense
	if err := m.UnmarshalBinary(data); err != nil {
		return nil, fmt.Errorf("%w: decoding table: %w", types.ErrCheckpoint, err)
	}
	return policies.QTableFromDense(&m), nil
}
