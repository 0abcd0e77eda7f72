package users

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/abdalhababsah/outlier/internal/rbac"
)

func TestAssignable(t *testing.T) {
	typeID := int64(1)

	noRoles := UserWithRoles{}
	assert.True(t, noRoles.Assignable())

	managedOnly := UserWithRoles{Roles: []rbac.Role{{ID: 1, Name: "staff", DashboardTypeID: &typeID}}}
	assert.True(t, managedOnly.Assignable())

	legacyHolder := UserWithRoles{Roles: []rbac.Role{
		{ID: 1, Name: "staff", DashboardTypeID: &typeID},
		{ID: 2, Name: "legacy_role"},
	}}
	assert.False(t, legacyHolder.Assignable())
}
