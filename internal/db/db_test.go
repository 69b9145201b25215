package db

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOverlapConstraintDDL_IsReApplicable(t *testing.T) {
	stmts := overlapConstraintDDL()
	require.Len(t, stmts, 3)

	// Every statement must be safe to run against a schema that already
	// carries it; a restart re-enters this path.
	for _, stmt := range stmts {
		assert.Contains(t, stmt, "IF NOT EXISTS", "statement is not guarded: %s", stmt)
	}

	// Each ADD CONSTRAINT is guarded by an existence check on its own name.
	for _, name := range []string{"reservations_minutes_valid", "reservations_no_overlap"} {
		var guarded bool
		for _, stmt := range stmts {
			if !strings.Contains(stmt, "ADD CONSTRAINT "+name) {
				continue
			}
			guarded = true
			assert.Contains(t, stmt, "conname = '"+name+"'",
				"constraint %s must check pg_constraint before adding itself", name)
		}
		assert.True(t, guarded, "no statement adds constraint %s", name)
	}
}

func TestOverlapConstraintDDL_ActiveStatusesOnly(t *testing.T) {
	stmts := overlapConstraintDDL()

	var exclusion string
	for _, stmt := range stmts {
		if strings.Contains(stmt, "EXCLUDE USING GIST") {
			exclusion = stmt
		}
	}
	require.NotEmpty(t, exclusion)

	// Completed and cancelled rows must not block new bookings.
	assert.Contains(t, exclusion, "status IN ('pending', 'confirmed')")
	// Half-open bound, consistent with the overlap predicate.
	assert.Contains(t, exclusion, "'[)'")
}
