package services

import (
	"fmt"
	"slices"

	"github.com/dmitrijs2005/lexbridge/internal/common"
	"github.com/dmitrijs2005/lexbridge/internal/server/auth"
)

// requireRole fails with common.ErrorForbidden unless p holds one of roles.
// Admins pass every check.
func requireRole(p auth.Principal, roles ...string) error {
	if p.Role == common.RoleAdmin || slices.Contains(roles, p.Role) {
		return nil
	}
	return fmt.Errorf("%w: requires role %v", common.ErrorForbidden, roles)
}

func validation(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{common.ErrorValidation}, args...)...)
}

func conflict(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{common.ErrorConflict}, args...)...)
}

func forbidden(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{common.ErrorForbidden}, args...)...)
}
