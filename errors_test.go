package goliath_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	goliath "github.com/malweka/GoliathData-sub002"
)

func TestMappingConfigurationError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := goliath.NewMappingError("Monkey", "Tricks", "property %s is not mapped", "Tricks")
		assert.Equal(t, "goliath: mapping error on entity Monkey property Tricks: property Tricks is not mapped", err.Error())
	})

	t.Run("EntityOnly", func(t *testing.T) {
		err := goliath.NewMappingError("Monkey", "", "extends unknown entity %q", "Ape")
		assert.Equal(t, `goliath: mapping error on entity Monkey: extends unknown entity "Ape"`, err.Error())
	})

	t.Run("IsMappingError", func(t *testing.T) {
		err := goliath.NewMappingError("Zoo", "Name", "missing")
		assert.True(t, goliath.IsMappingError(err))
		assert.True(t, errors.Is(err, goliath.ErrMappingConfiguration))

		wrapped := fmt.Errorf("wrapper: %w", err)
		assert.True(t, goliath.IsMappingError(wrapped))

		assert.False(t, goliath.IsMappingError(errors.New("other error")))
		assert.False(t, goliath.IsMappingError(nil))
	})
}

func TestUnsupportedOperationError(t *testing.T) {
	err := goliath.NewUnsupportedError("sqlite", "function GETDATE")
	assert.Equal(t, "goliath: sqlite does not support function GETDATE", err.Error())
	assert.True(t, goliath.IsUnsupported(err))
	assert.True(t, errors.Is(fmt.Errorf("render: %w", err), goliath.ErrUnsupported))
	assert.False(t, goliath.IsUnsupported(nil))
}

func TestPreconditionError(t *testing.T) {
	t.Run("WithTable", func(t *testing.T) {
		err := goliath.NewPreconditionError("zoos", "update requires at least one filter")
		assert.Equal(t, "goliath: precondition failed on zoos: update requires at least one filter", err.Error())
	})

	t.Run("WithoutTable", func(t *testing.T) {
		err := goliath.NewPreconditionError("", "no filter")
		assert.Equal(t, "goliath: precondition failed: no filter", err.Error())
	})

	t.Run("IsPrecondition", func(t *testing.T) {
		err := goliath.NewPreconditionError("zoos", "no filter")
		assert.True(t, goliath.IsPrecondition(fmt.Errorf("wrap: %w", err)))
		assert.True(t, errors.Is(err, goliath.ErrPrecondition))
		assert.False(t, goliath.IsPrecondition(errors.New("x")))
	})
}

func TestExecutionError(t *testing.T) {
	cause := errors.New("UNIQUE constraint failed: zoos.name")
	err := goliath.NewExecutionError("zoos", "INSERT INTO zoos", cause)
	assert.Equal(t, "goliath: executing statement on zoos: UNIQUE constraint failed: zoos.name", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, goliath.ErrExecution)
	assert.True(t, goliath.IsExecutionError(fmt.Errorf("wrap: %w", err)))
	assert.False(t, goliath.IsExecutionError(cause))

	untabled := goliath.NewExecutionError("", "SELECT 1", cause)
	assert.Equal(t, "goliath: executing statement: UNIQUE constraint failed: zoos.name", untabled.Error())
}

func TestLookupError(t *testing.T) {
	err := goliath.NewLookupError("sql type", "geography")
	assert.Equal(t, `goliath: sql type "geography" not found`, err.Error())
	assert.True(t, goliath.IsLookupError(err))
	assert.True(t, errors.Is(err, goliath.ErrLookup))
	assert.False(t, goliath.IsLookupError(nil))
}

func TestAggregateError(t *testing.T) {
	t.Run("Nil", func(t *testing.T) {
		assert.NoError(t, goliath.NewAggregateError(nil, nil))
	})

	t.Run("Single", func(t *testing.T) {
		single := errors.New("only")
		assert.Same(t, single, goliath.NewAggregateError(nil, single))
	})

	t.Run("Multiple", func(t *testing.T) {
		err := goliath.NewAggregateError(
			goliath.NewMappingError("A", "", "first"),
			goliath.NewPreconditionError("b", "second"),
		)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "goliath: multiple errors:")
		assert.Contains(t, err.Error(), "[1] goliath: mapping error on entity A: first")
		assert.Contains(t, err.Error(), "[2] goliath: precondition failed on b: second")
		assert.True(t, goliath.IsMappingError(err))
		assert.True(t, goliath.IsPrecondition(err))
	})
}
