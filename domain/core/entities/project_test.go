package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "templatehub/pkg/errors"
)

func TestProjectChanges(t *testing.T) {
	tests := []struct {
		name    string
		changes map[string]any
		want    map[string]any
		wantErr string
	}{
		{
			name:    "string and list fields",
			changes: map[string]any{"project_name": "renamed", "project_tags": []string{"go", "api"}},
			want:    map[string]any{"project_name": "renamed", "project_tags": []any{"go", "api"}},
		},
		{
			name:    "decoded json list",
			changes: map[string]any{"languages": []any{"go"}, "add_advanced_configurations": true},
			want:    map[string]any{"languages": []any{"go"}, "add_advanced_configurations": true},
		},
		{name: "empty payload", changes: map[string]any{}, wantErr: "no fields"},
		{name: "unknown field", changes: map[string]any{"created_by": "x"}, wantErr: "cannot be updated"},
		{name: "number for string", changes: map[string]any{"project_name": float64(7)}, wantErr: "must be a string"},
		{name: "string for bool", changes: map[string]any{"add_advanced_configurations": "yes"}, wantErr: "must be a boolean"},
		{name: "list with a number", changes: map[string]any{"project_tags": []any{"go", 1.0}}, wantErr: "must be a list of strings"},
		{name: "null value", changes: map[string]any{"database": nil}, wantErr: "must be a string"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ProjectChanges(tt.changes)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.True(t, pkgerrors.IsValidation(err))
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProject_WithChanges(t *testing.T) {
	p := Project{
		ID:                  "65f1a2b3c4d5e6f7a8b9c0d1",
		CreatedBy:           "65f1a2b3c4d5e6f7a8b9c000",
		ProjectName:         "shop",
		ProjectType:         "web",
		ProjectArchitecture: "mvc",
		ProjectTags:         []string{"react"},
	}

	fields, err := ProjectChanges(map[string]any{"project_name": "store", "project_tags": []any{"vue"}, "database": "postgres"})
	require.NoError(t, err)

	merged := p.WithChanges(fields)
	assert.Equal(t, p.ID, merged.ID)
	assert.Equal(t, p.CreatedBy, merged.CreatedBy)
	assert.Equal(t, "store", merged.ProjectName)
	assert.Equal(t, []string{"vue"}, merged.ProjectTags)
	assert.Equal(t, "postgres", merged.Advanced.Database)
	assert.Equal(t, "shop", p.ProjectName, "receiver is unchanged")
}
