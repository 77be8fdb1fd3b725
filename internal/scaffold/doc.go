// Package scaffold generates starter catalogs from embedded templates. It
// powers the "registrar create" command: each template set renders a catalog
// manifest (and a short README) that validates against the catalog schema and
// builds as is.
package scaffold
