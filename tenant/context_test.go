package tenant

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/akinalp/tenantgate/pkg"
)

func TestContext(t *testing.T) {
	_, ok := FromContext(context.Background())
	require.False(t, ok)

	id, ok := FromContext(WithID(context.Background(), "acme"))
	require.True(t, ok)
	require.Equal(t, "acme", id)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		id   string
		code string
	}{
		{"acme", ""},
		{"tenant_01", ""},
		{"a-b", ""},
		{"", "DB_NAME_MISSING"},
		{"-leading", "DB_NAME_INVALID"},
		{"has space", "DB_NAME_INVALID"},
		{"../escape", "DB_NAME_INVALID"},
	}

	for _, tt := range tests {
		err := Validate(tt.id)
		if tt.code == "" {
			require.NoError(t, err, tt.id)
			continue
		}
		var appErr *pkg.AppError
		require.ErrorAs(t, err, &appErr, tt.id)
		require.Equal(t, tt.code, appErr.Code)
		require.Equal(t, pkg.KindConfig, appErr.Kind)
	}
}
