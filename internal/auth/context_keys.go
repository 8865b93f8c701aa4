package auth

import "context"

/* Context key types for type-safe context values */
type contextKey string

const (
	userIDKey contextKey = "user_id"
	roleKey   contextKey = "role"
	claimsKey contextKey = "claims"
)

/* SetUserID sets user ID in context */
func SetUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

/* GetUserIDFromContext gets the user ID from context */
func GetUserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDKey).(string)
	return userID, ok
}

/* SetRole sets the user role in context */
func SetRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, roleKey, role)
}

/* GetRoleFromContext gets the user role from context */
func GetRoleFromContext(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(roleKey).(string)
	return role, ok
}

/* IsAdminFromContext reports whether the context user is an admin */
func IsAdminFromContext(ctx context.Context) bool {
	role, ok := ctx.Value(roleKey).(string)
	return ok && role == "admin"
}

/* SetClaims sets claims in context */
func SetClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

/* GetClaimsFromContext gets the claims from context */
func GetClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*Claims)
	return claims, ok
}
