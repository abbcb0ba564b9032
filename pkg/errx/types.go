package errx

// Type represents the category of error
type Type string

const (
	// TypeInternal represents internal server errors
	TypeInternal Type = "INTERNAL"

	// TypeValidation represents malformed or inconsistent input
	TypeValidation Type = "VALIDATION"

	// TypeAuthorization represents failed authentication
	TypeAuthorization Type = "AUTHORIZATION"

	// TypeForbidden represents an authenticated caller or tenant that may not proceed
	TypeForbidden Type = "FORBIDDEN"

	// TypeNotFound represents resource not found errors
	TypeNotFound Type = "NOT_FOUND"

	// TypeConflict represents resource conflict errors
	TypeConflict Type = "CONFLICT"

	// TypeBusiness represents business rule rejections
	TypeBusiness Type = "BUSINESS"

	// TypeExternal represents errors from external services
	TypeExternal Type = "EXTERNAL"

	// TypeUnavailable represents a dependency that cannot be reached right now
	TypeUnavailable Type = "UNAVAILABLE"
)

func (t Type) String() string {
	return string(t)
}
