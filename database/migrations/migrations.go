// Package migrations holds the schema migrations. Each file registers its
// migrations from init(); importing the package is enough to make them
// available to the migrate commands.
package migrations
