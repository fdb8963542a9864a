// Package schema declares the data model that forms are generated from: kind
// tags with an explicit "is-a" table, field declarations, and the Schema type
// whose validated Set is the only way values change.
package schema
