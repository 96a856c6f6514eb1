// Package query evaluates CEL expressions against stored records.
//
// Expressions see these variables:
//
//	id          string                 event ID
//	pubkey      string                 author
//	kind        int
//	created_at  int                    unix seconds
//	content     string
//	tags        list(list(string))     raw tags
//	tag         map(string, list(string)) values of each tag name
//	now         int                    current unix seconds
//
// Example:
//
//	kind == 1 && "t" in tag && "go" in tag["t"] && created_at > now - 3600
package query
