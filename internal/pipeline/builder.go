package pipeline

import "fmt"

// Builder accumulates positional arguments while stages render their SQL
// fragments, so every stage binds values instead of splicing literals.
type Builder struct {
	args []any
}

// NewBuilder returns an empty argument builder.
func NewBuilder() *Builder {
	return &Builder{args: make([]any, 0)}
}

// Bind registers a query argument and returns its placeholder.
func (b *Builder) Bind(value any) string {
	b.args = append(b.args, value)
	return fmt.Sprintf("$%d", len(b.args))
}

// Args returns the bound arguments in placeholder order.
func (b *Builder) Args() []any {
	return b.args
}
