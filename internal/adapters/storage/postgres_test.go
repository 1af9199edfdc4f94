package postgres

import (
	"context"
	"reflect"
	"testing"

	infra "github.com/athebyme/travel-admin/internal/infrastructure/postgres"
)

func TestFilterConditions(t *testing.T) {
	tests := []struct {
		name      string
		filter    infra.SubmissionFilter
		wantWhere string
		wantArgs  []interface{}
	}{
		{"empty", infra.SubmissionFilter{}, "", nil},
		{"resource", infra.SubmissionFilter{Resource: "destinations"}, " WHERE resource = $1", []interface{}{"destinations"}},
		{
			"both",
			infra.SubmissionFilter{Resource: "destinations", EntityID: "42"},
			" WHERE resource = $1 AND entity_id = $2",
			[]interface{}{"destinations", "42"},
		},
		{"entity only", infra.SubmissionFilter{EntityID: "42"}, " WHERE entity_id = $1", []interface{}{"42"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			where, args := filterConditions(tt.filter)
			if where != tt.wantWhere {
				t.Errorf("where = %q, want %q", where, tt.wantWhere)
			}
			if !reflect.DeepEqual(args, tt.wantArgs) {
				t.Errorf("args = %v, want %v", args, tt.wantArgs)
			}
		})
	}
}

func TestNewPostgresStorageWithNilPool(t *testing.T) {
	if _, err := NewPostgresStorageWithPool(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil pool")
	}
}
