package policies

import (
	"fmt"

	"github.com/zeu5/forage-rl/types"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// QTable is a dense state x action value table.
// Rows are state indexes, columns action ids. The shape never changes.
type QTable struct {
	states  int
	actions int
	values  *mat.Dense
}

// NewQTable creates a table of the given shape with every entry set to zero
func NewQTable(states, actions int) *QTable {
	return &QTable{
		states:  states,
		actions: actions,
		values:  mat.NewDense(states, actions, nil),
	}
}

// QTableFromDense wraps an existing matrix, the table takes ownership of it
func QTableFromDense(m *mat.Dense) *QTable {
	r, c := m.Dims()
	return &QTable{
		states:  r,
		actions: c,
		values:  m,
	}
}

func (q *QTable) Dims() (int, int) {
	return q.states, q.actions
}

func (q *QTable) States() int {
	return q.states
}

func (q *QTable) Actions() int {
	return q.actions
}

// Dense exposes the backing matrix for serialization
func (q *QTable) Dense() *mat.Dense {
	return q.values
}

// Check validates a (state, action) pair against the shape of the table
func (q *QTable) Check(state, action int) error {
	if state < 0 || state >= q.states {
		return fmt.Errorf("%w: %d not in [0, %d)", types.ErrStateOutOfRange, state, q.states)
	}
	if action < 0 || action >= q.actions {
		return fmt.Errorf("%w: %d not in [0, %d)", types.ErrUnknownAction, action, q.actions)
	}
	return nil
}

func (q *QTable) Get(state, action int) float64 {
	return q.values.At(state, action)
}

func (q *QTable) Set(state, action int, val float64) {
	q.values.Set(state, action, val)
}

// Row returns a copy of the action values of a state
func (q *QTable) Row(state int) []float64 {
	return mat.Row(nil, state, q.values)
}

// Max returns the best action of a state and its value.
// Ties resolve to the lowest action id.
func (q *QTable) Max(state int) (int, float64) {
	row := q.values.RawRowView(state)
	i := floats.MaxIdx(row)
	return i, row[i]
}

func (q *QTable) Clone() *QTable {
	return QTableFromDense(mat.DenseCopyOf(q.values))
}

// Equal reports whether both tables have the same shape and entries
func (q *QTable) Equal(other *QTable) bool {
	if other == nil {
		return false
	}
	if q.states != other.states || q.actions != other.actions {
		return false
	}
	return mat.Equal(q.values, other.values)
}
