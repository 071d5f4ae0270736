// Package errors provides the classified errors used across buildmatrix.
//
// Every error that leaves a package is a *ClassifiedError carrying a category,
// a severity and structured context. The category alone decides how the error
// surfaces: the CLI adapter turns it into an exit code and the HTTP adapter into
// a status code.
//
// Composition errors (duplicate keys, generation failures) are always fatal: a
// composition pass that hits one produces no registries at all.
//
//	err := errors.DuplicateKeyError("two variants share a key").
//		WithContext("key", "maxmind").
//		WithContext("first_variant", "geoip-maxmind").
//		Build()
package errors
