package openapi

import "strings"

// namespacePrefixes lists the method namespaces that use `::` separators in
// documentation but `-` separators in operation IDs, where `:` is not a
// friendly identifier character.
var namespacePrefixes = []string{"task", "lightning", "stream", "gui_storage", "experimental"}

// MethodToOperationID converts a documented method name into its operation
// ID form: `task::enable_utxo::init` becomes `task-enable_utxo-init`.
func MethodToOperationID(method string) string {
	return strings.ReplaceAll(method, "::", "-")
}

// OperationIDToMethod restores the documented method name from an operation
// ID. Only namespaced operation IDs have their dashes converted back, since
// plain method names may legitimately contain dashes.
func OperationIDToMethod(opid string) string {
	for _, prefix := range namespacePrefixes {
		if strings.HasPrefix(opid, prefix+"-") {
			return strings.ReplaceAll(opid, "-", "::")
		}
	}
	return opid
}
