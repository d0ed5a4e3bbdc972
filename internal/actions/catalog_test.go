package actions

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	catalog := NewCatalog()

	tests := []struct {
		name     string
		wantKind Kind
	}{
		{name: NameBook, wantKind: KindBook},
		{name: NameList, wantKind: KindList},
		{name: NameCancel, wantKind: KindCancel},
		{name: NameCheckAvailability, wantKind: KindCheckAvailability},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			action, err := catalog.Lookup(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, action.Kind)
			assert.Equal(t, tt.name, action.Name)
			assert.NotEmpty(t, action.Description)
		})
	}
}

func TestLookup_Unknown(t *testing.T) {
	catalog := NewCatalog()

	_, err := catalog.Lookup("delete_all_appointments")
	require.Error(t, err)

	var notFound *NotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "delete_all_appointments", notFound.Name)
	assert.Contains(t, err.Error(), "delete_all_appointments")
}

func TestAll_ReturnsCopy(t *testing.T) {
	catalog := NewCatalog()

	first := catalog.All()
	require.NotEmpty(t, first)
	first[0].Name = "mutated"

	second := catalog.All()
	assert.NotEqual(t, "mutated", second[0].Name)
}

func TestCatalog_UserIDNeverExposed(t *testing.T) {
	// The acting user is injected by the orchestrator; no action schema
	// may let the model choose whose calendar it touches.
	for _, action := range NewCatalog().All() {
		for _, p := range action.Params {
			assert.NotEqual(t, "user_id", p.Name, "action %s exposes user_id", action.Name)
		}
	}
}

func TestCatalog_RequiredParams(t *testing.T) {
	catalog := NewCatalog()

	required := func(name string) []string {
		action, err := catalog.Lookup(name)
		require.NoError(t, err)
		var out []string
		for _, p := range action.Params {
			if p.Required {
				out = append(out, p.Name)
			}
		}
		return out
	}

	assert.Equal(t, []string{"title", "start_time", "end_time"}, required(NameBook))
	assert.Empty(t, required(NameList))
	assert.Equal(t, []string{"event_id"}, required(NameCancel))
	assert.Equal(t, []string{"start_time", "end_time"}, required(NameCheckAvailability))
}
